package core

import (
	"gorm.io/gorm"

	"tadbeer.com/hrms/attendance/model"
	"tadbeer.com/hrms/core/models"
)

// AutoMigrate creates the attendance tables. The (employee_id, date)
// unique index on attendance_days is the backstop for the one-row-per-day
// invariant; do not remove it.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Employee{},
		&model.Device{},
		&model.PunchEvent{},
		&model.AttendanceDay{},
	)
}
