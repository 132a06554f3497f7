package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tadbeer.com/hrms/attendance/device"
	"tadbeer.com/hrms/attendance/model"
	"tadbeer.com/hrms/utils"
)

type DeviceError struct {
	Device  string `json:"device"`
	Message string `json:"message"`
}

type Summary struct {
	NewRecords     int           `json:"new_records"`
	UpdatedRecords int           `json:"updated_records"`
	DroppedEvents  int           `json:"dropped_events"`
	Errors         []DeviceError `json:"errors"`

	DevicesTried int `json:"-"`
}

// NothingToSync distinguishes "every device answered and had nothing
// new" from failure.
func (s *Summary) NothingToSync() bool {
	return len(s.Errors) == 0 && s.NewRecords == 0 && s.UpdatedRecords == 0
}

func (s *Summary) AllFailed() bool {
	return s.DevicesTried > 0 && len(s.Errors) == s.DevicesTried
}

func (s *Summary) Partial() bool {
	return len(s.Errors) > 0 && len(s.Errors) < s.DevicesTried
}

// Orchestrator drives reconciliation across the device registry. Devices
// are polled sequentially, one session at a time; a failing terminal is
// recorded and skipped, never fatal.
type Orchestrator struct {
	Adapters device.Factory
	Timeout  time.Duration
	Policy   Policy
	Log      *zap.Logger
}

func NewOrchestrator(timeout time.Duration, policy Policy, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		Adapters: device.New,
		Timeout:  timeout,
		Policy:   policy,
		Log:      log,
	}
}

// SyncAll polls every registered device and reconciles its punches into
// the ledger. Always returns a summary; per-device failures become error
// entries, not a failed call.
func (o *Orchestrator) SyncAll(ctx context.Context, db *gorm.DB) (*Summary, error) {
	var devices []model.Device
	if err := db.WithContext(ctx).Order("name").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to load device registry: %w", err)
	}

	summary := &Summary{Errors: []DeviceError{}, DevicesTried: len(devices)}
	for i := range devices {
		d := &devices[i]
		res, err := o.syncDevice(ctx, db, d)
		if err != nil {
			o.Log.Warn("device sync failed",
				zap.String("device", d.Name),
				zap.String("ip", d.IP),
				zap.Error(err))
			summary.Errors = append(summary.Errors, DeviceError{Device: d.Name, Message: err.Error()})
			continue
		}
		summary.NewRecords += res.New
		summary.UpdatedRecords += res.Updated
		summary.DroppedEvents += res.Unresolved
	}

	o.Log.Info("sync complete",
		zap.Int("devices", len(devices)),
		zap.Int("new", summary.NewRecords),
		zap.Int("updated", summary.UpdatedRecords),
		zap.Int("dropped", summary.DroppedEvents),
		zap.Int("failed", len(summary.Errors)))
	return summary, nil
}

// syncDevice runs one device end to end: pull, log, reconcile, then
// record the outcome on the registry row. The ledger writes for one
// device form a single transaction; a partial batch never commits.
func (o *Orchestrator) syncDevice(ctx context.Context, db *gorm.DB, d *model.Device) (*Result, error) {
	adapter, err := o.Adapters(*d, o.Timeout)
	if err != nil {
		o.markDevice(db, d, model.DeviceStatusError, nil)
		return nil, err
	}

	// Per-device budget: one slow terminal cannot stall the run beyond
	// its own window.
	dctx, cancel := context.WithTimeout(ctx, 4*o.Timeout)
	defer cancel()

	events, err := device.Pull(dctx, adapter)
	if err != nil {
		o.markDevice(db, d, model.DeviceStatusOffline, nil)
		return nil, err
	}

	fresh, maxTS := filterByWatermark(events, d.LastEventAt)

	var result *Result
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := LogPunches(tx, utils.Ptr(d.ID), fresh, model.PunchOriginDevice, o.Policy); err != nil {
			return fmt.Errorf("failed to log punches: %w", err)
		}
		var rerr error
		result, rerr = Reconcile(tx, fresh, model.AttendanceSourceDevice, o.Policy)
		return rerr
	})
	if err != nil {
		o.markDevice(db, d, model.DeviceStatusError, nil)
		return nil, err
	}

	o.markDevice(db, d, model.DeviceStatusOnline, maxTS)
	return result, nil
}

// filterByWatermark drops events already ingested on a previous sync.
// The watermark only bounds reprocessing; the idempotent upsert is the
// correctness backstop when a terminal replays or the watermark lies.
func filterByWatermark(events []device.RawEvent, watermark *time.Time) ([]device.RawEvent, *time.Time) {
	var fresh []device.RawEvent
	var maxTS *time.Time
	for _, ev := range events {
		if maxTS == nil || ev.Timestamp.After(*maxTS) {
			maxTS = utils.Ptr(ev.Timestamp)
		}
		if watermark != nil && !ev.Timestamp.After(*watermark) {
			continue
		}
		fresh = append(fresh, ev)
	}
	if maxTS != nil && watermark != nil && !maxTS.After(*watermark) {
		maxTS = watermark
	}
	if maxTS == nil {
		maxTS = watermark
	}
	return fresh, maxTS
}

func (o *Orchestrator) markDevice(db *gorm.DB, d *model.Device, status string, maxTS *time.Time) {
	updates := map[string]any{
		"status":       status,
		"last_sync_at": time.Now(),
	}
	if maxTS != nil {
		updates["last_event_at"] = *maxTS
	}
	if err := db.Model(d).Updates(updates).Error; err != nil {
		o.Log.Error("failed to update device status",
			zap.String("device", d.Name),
			zap.Error(err))
	}
}

// TestDevice is the connect-only health probe. It reports the terminal
// serial number when the protocol exposes one and never reads events.
func (o *Orchestrator) TestDevice(ctx context.Context, d model.Device) (string, error) {
	adapter, err := o.Adapters(d, o.Timeout)
	if err != nil {
		return "", err
	}

	dctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	if err := adapter.Connect(dctx); err != nil {
		return "", err
	}
	defer adapter.Disconnect()

	if zk, ok := adapter.(interface{ SerialNumber() (string, error) }); ok {
		serial, err := zk.SerialNumber()
		if err != nil {
			return "", err
		}
		if serial != "" {
			return fmt.Sprintf("connected, serial number %s", serial), nil
		}
	}
	return "connected", nil
}
