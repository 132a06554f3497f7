package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	atcore "tadbeer.com/hrms/attendance/core"
	"tadbeer.com/hrms/config"
)

// Runs one sync pass over every registered terminal, same path the HTTP
// action takes, without the server. Meant for cron on the site box.
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

	zlog, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer zlog.Sync()

	orch := atcore.NewOrchestrator(
		time.Duration(config.Cfg.DeviceTimeoutSeconds)*time.Second,
		atcore.Policy{RetainUnlinked: config.Cfg.RetainUnlinked},
		zlog,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary, err := orch.SyncAll(ctx, db)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Synced %d devices: %d new, %d updated, %d dropped\n",
		summary.DevicesTried, summary.NewRecords, summary.UpdatedRecords, summary.DroppedEvents)
	for _, e := range summary.Errors {
		fmt.Printf("  %s: %s\n", e.Device, e.Message)
	}
	if summary.AllFailed() {
		os.Exit(1)
	}
}
