package model

import "time"

const (
	AttendanceSourceDevice = "device"
	AttendanceSourceManual = "manual"
	AttendanceSourceSystem = "system"
)

const StatusPresent = "Present"

// AttendanceDay is the ledger: one row per (employee, calendar date).
// The unique index enforces that invariant under concurrent syncs; the
// reconciler is its only writer.
type AttendanceDay struct {
	ID         int32  `gorm:"primaryKey;column:id" json:"id"`
	EmployeeID int32  `gorm:"not null;uniqueIndex:idx_employee_date" json:"employeeId"`
	Date       string `gorm:"size:10;not null;uniqueIndex:idx_employee_date" json:"date"`

	CheckIn *time.Time `gorm:"column:check_in" json:"checkIn"`
	// CheckOut stays NULL until a second, later punch is seen for the day.
	CheckOut *time.Time `gorm:"column:check_out" json:"checkOut"`

	Status string `gorm:"size:20;not null;default:Present" json:"status"`
	Source string `gorm:"size:10;not null;default:device" json:"source"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;autoUpdateTime" json:"updatedAt"`
}

func (AttendanceDay) TableName() string {
	return "attendance_days"
}
