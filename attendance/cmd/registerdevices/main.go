package main

import (
	"context"
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"tadbeer.com/hrms/attendance/model"
	"tadbeer.com/hrms/config"
	"tadbeer.com/hrms/infrastructure/devops"
	"tadbeer.com/hrms/utils"
)

// Seeds the device registry from the fleet parameter in SSM. Safe to
// rerun; terminals are matched on IP so edits flow through.
func main() {
	config.Load()

	dsn := os.Getenv("DSN")
	if dsn == "" {
		dsn = config.Cfg.DSN
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	fleet, err := devops.LoadDeviceFleet(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fleet = utils.Filter(fleet, func(e devops.DeviceEntry) bool { return e.IP != "" })
	if len(fleet) == 0 {
		fmt.Println("Fleet parameter is empty, nothing to register.")
		return
	}

	devices := utils.Map(fleet, func(e devops.DeviceEntry) model.Device {
		d := model.Device{
			Name:     e.Name,
			IP:       e.IP,
			Port:     e.Port,
			Provider: e.Provider,
			CommKey:  e.CommKey,
			Status:   model.DeviceStatusOffline,
		}
		if e.Username != "" {
			d.Username = utils.Ptr(e.Username)
		}
		if e.Password != "" {
			d.Password = utils.Ptr(e.Password)
		}
		if d.Port == 0 {
			d.Port = 4370
		}
		if d.Provider == "" {
			d.Provider = model.ProviderZKTeco
		}
		return d
	})

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ip_address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "port", "provider", "comm_key", "username", "password",
		}),
	}).Create(&devices).Error
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Registered %d devices.\n", len(devices))
}
