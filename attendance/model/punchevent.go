package model

import "time"

const (
	PunchOriginDevice = "device"
	PunchOriginImport = "import"
)

// PunchEvent is the raw punch log: one timestamped scan as reported by a
// terminal (or a punch-sheet import). Terminals without a read cursor
// re-deliver old punches on every sync, so the natural key
// (device, subject, timestamp) dedupes re-reads at the storage layer.
//
// EmployeeID stays NULL when the subject identifier did not resolve;
// those rows are kept for manual linking when the retain policy is on.
type PunchEvent struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	DeviceID   *int32    `gorm:"uniqueIndex:idx_punch_natural" json:"deviceId"`
	SubjectUID string    `gorm:"size:24;not null;uniqueIndex:idx_punch_natural;column:subject_uid" json:"subjectUid"`
	Timestamp  time.Time `gorm:"not null;uniqueIndex:idx_punch_natural" json:"timestamp"`

	// State and Punch are firmware-specific codes, stored untouched.
	State int `json:"state"`
	Punch int `json:"punch"`

	EmployeeID *int32 `gorm:"index" json:"employeeId"`
	Origin     string `gorm:"size:10;not null;default:device" json:"origin"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
}

func (PunchEvent) TableName() string {
	return "attendance_punches"
}
