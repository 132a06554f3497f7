package models

import "time"

type Employee struct {
	EmployeeID   int32  `gorm:"primaryKey;autoIncrement;column:employee_id"`
	Code         string `gorm:"size:32;uniqueIndex"`
	FirstName    string
	Surname      string
	Email        *string `gorm:"index"`
	DepartmentID *int32
	LocationID   *int32

	// DeviceUID is the subject identifier the biometric terminal reports
	// for this employee. Unique so a punch resolves to at most one person.
	DeviceUID *string `gorm:"size:24;uniqueIndex;column:device_uid"`

	StartDate *time.Time
	EndDate   *time.Time
	Active    bool `gorm:"default:true"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;autoUpdateTime"`
}

func (Employee) TableName() string {
	return "employees"
}
