package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	atcore "tadbeer.com/hrms/attendance/core"
	"tadbeer.com/hrms/attendance/device"
	"tadbeer.com/hrms/attendance/model"
	"tadbeer.com/hrms/config"
	"tadbeer.com/hrms/infrastructure/filesystem"
)

// Replays every archived punch sheet through the reconciler. Used to
// rebuild the ledger after a schema reset; the reconciler's idempotence
// makes rerunning against a live ledger safe.
func main() {
	config.Load()

	bucket := config.Cfg.ArchiveBucket
	if bucket == "" {
		fmt.Println("PUNCH_ARCHIVE_BUCKET is not set, nothing to replay.")
		os.Exit(1)
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	keys, err := filesystem.ListFiles(bucket, "punch-sheets/", ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Replaying %d archived sheets from %s\n", len(keys), bucket)

	policy := atcore.Policy{RetainUnlinked: config.Cfg.RetainUnlinked}
	total := atcore.Result{}

	for _, key := range keys {
		var buf bytes.Buffer
		if err := filesystem.ReadFile(bucket, key, ctx, &buf); err != nil {
			fmt.Printf("  %s: read failed: %v\n", key, err)
			continue
		}

		var events []device.RawEvent
		switch {
		case strings.HasSuffix(key, ".csv"):
			events, err = atcore.ParsePunchCSV(&buf)
		case strings.HasSuffix(key, ".xlsx"):
			events, err = atcore.ParsePunchXLSX(bytes.NewReader(buf.Bytes()))
		default:
			fmt.Printf("  %s: skipped, unknown extension\n", key)
			continue
		}
		if err != nil {
			fmt.Printf("  %s: parse failed: %v\n", key, err)
			continue
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := atcore.LogPunches(tx, nil, events, model.PunchOriginImport, policy); err != nil {
				return err
			}
			res, err := atcore.Reconcile(tx, events, model.AttendanceSourceManual, policy)
			if err != nil {
				return err
			}
			total.New += res.New
			total.Updated += res.Updated
			total.Unresolved += res.Unresolved
			return nil
		})
		if err != nil {
			fmt.Printf("  %s: reconcile failed: %v\n", key, err)
			continue
		}
		fmt.Printf("  %s: %d punches\n", key, len(events))
	}

	fmt.Printf("Done: %d new, %d updated, %d unresolved\n", total.New, total.Updated, total.Unresolved)
}
