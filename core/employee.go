package core

import (
	"errors"

	"gorm.io/gorm"

	"tadbeer.com/hrms/core/models"
)

func FindEmployeeByID(db *gorm.DB, id int32) (*models.Employee, error) {
	var emp models.Employee
	result := db.First(&emp, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil // not found
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &emp, nil
}

// EmployeesByDeviceUID loads every employee that has a terminal subject
// identifier assigned, keyed by that identifier. The reconciler resolves
// raw punches against this map instead of querying per event.
func EmployeesByDeviceUID(db *gorm.DB) (map[string]models.Employee, error) {
	var employees []models.Employee
	if err := db.Where("device_uid IS NOT NULL").Find(&employees).Error; err != nil {
		return nil, err
	}

	uidMap := make(map[string]models.Employee, len(employees))
	for _, e := range employees {
		if e.DeviceUID != nil && *e.DeviceUID != "" {
			uidMap[*e.DeviceUID] = e
		}
	}
	return uidMap, nil
}
