package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tadbeer.com/hrms/attendance/device"
	"tadbeer.com/hrms/attendance/model"
	"tadbeer.com/hrms/utils"
)

// stubAdapter plays back canned events; connectErr simulates a terminal
// that is off or unreachable.
type stubAdapter struct {
	events     []device.RawEvent
	connectErr error

	connected       bool
	matchingToggled []bool
}

func (s *stubAdapter) Connect(ctx context.Context) error {
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}

func (s *stubAdapter) FetchEvents(ctx context.Context) ([]device.RawEvent, error) {
	return s.events, nil
}

func (s *stubAdapter) SetMatchingEnabled(enabled bool) error {
	s.matchingToggled = append(s.matchingToggled, enabled)
	return nil
}

func (s *stubAdapter) Disconnect() error {
	s.connected = false
	return nil
}

func stubFactory(adapters map[string]*stubAdapter) device.Factory {
	return func(d model.Device, timeout time.Duration) (device.Adapter, error) {
		a, ok := adapters[d.IP]
		if !ok {
			return nil, errors.New("no stub for " + d.IP)
		}
		return a, nil
	}
}

func newTestOrchestrator(adapters map[string]*stubAdapter, policy Policy) *Orchestrator {
	o := NewOrchestrator(time.Second, policy, zap.NewNop())
	o.Adapters = stubFactory(adapters)
	return o
}

func seedDevice(t *testing.T, db *gorm.DB, name, ip string) model.Device {
	t.Helper()
	d := model.Device{Name: name, IP: ip, Port: 4370, Provider: model.ProviderZKTeco, Status: model.DeviceStatusOffline}
	require.NoError(t, db.Create(&d).Error)
	return d
}

func TestSyncAllIsolatesFailingDevices(t *testing.T) {
	db := testDB(t)
	seedEmployee(t, db, "E007", "7")
	seedDevice(t, db, "gate-a", "10.0.0.1")
	seedDevice(t, db, "gate-b", "10.0.0.2")
	seedDevice(t, db, "gate-c", "10.0.0.3")

	adapters := map[string]*stubAdapter{
		"10.0.0.1": {events: []device.RawEvent{
			{SubjectUID: "7", Timestamp: at(9, 0)},
			{SubjectUID: "7", Timestamp: at(17, 30)},
		}},
		"10.0.0.2": {connectErr: errors.New("dial tcp 10.0.0.2:4370: i/o timeout")},
		"10.0.0.3": {events: nil},
	}

	orch := newTestOrchestrator(adapters, Policy{RetainUnlinked: true})
	summary, err := orch.SyncAll(context.Background(), db)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.DevicesTried)
	assert.Equal(t, 1, summary.NewRecords)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "gate-b", summary.Errors[0].Device)
	assert.True(t, summary.Partial())
	assert.False(t, summary.AllFailed())

	// The failing terminal never blocks the others and its status says so.
	var devices []model.Device
	require.NoError(t, db.Order("name").Find(&devices).Error)
	assert.Equal(t, model.DeviceStatusOnline, devices[0].Status)
	assert.Equal(t, model.DeviceStatusOffline, devices[1].Status)
	assert.Equal(t, model.DeviceStatusOnline, devices[2].Status)
	require.NotNil(t, devices[0].LastSyncAt)

	// The ledger got gate-a's day.
	var day model.AttendanceDay
	require.NoError(t, db.First(&day).Error)
	require.NotNil(t, day.CheckOut)
	assert.True(t, day.CheckOut.Equal(at(17, 30)))
}

func TestSyncAllAllDevicesFail(t *testing.T) {
	db := testDB(t)
	seedDevice(t, db, "gate-a", "10.0.0.1")
	seedDevice(t, db, "gate-b", "10.0.0.2")

	adapters := map[string]*stubAdapter{
		"10.0.0.1": {connectErr: errors.New("connection refused")},
		"10.0.0.2": {connectErr: errors.New("connection refused")},
	}

	orch := newTestOrchestrator(adapters, Policy{})
	summary, err := orch.SyncAll(context.Background(), db)
	require.NoError(t, err)

	assert.True(t, summary.AllFailed())
	assert.False(t, summary.Partial())
	assert.Len(t, summary.Errors, 2)
}

func TestSyncAllNothingToSync(t *testing.T) {
	db := testDB(t)
	seedDevice(t, db, "gate-a", "10.0.0.1")

	orch := newTestOrchestrator(map[string]*stubAdapter{"10.0.0.1": {}}, Policy{})
	summary, err := orch.SyncAll(context.Background(), db)
	require.NoError(t, err)

	assert.True(t, summary.NothingToSync())
	assert.Equal(t, 0, summary.NewRecords)
	assert.Empty(t, summary.Errors)

	var d model.Device
	require.NoError(t, db.First(&d).Error)
	assert.Equal(t, model.DeviceStatusOnline, d.Status)
}

func TestSyncAllAdvancesWatermark(t *testing.T) {
	db := testDB(t)
	seedEmployee(t, db, "E007", "7")
	seedDevice(t, db, "gate-a", "10.0.0.1")

	adapter := &stubAdapter{events: []device.RawEvent{
		{SubjectUID: "7", Timestamp: at(9, 0)},
		{SubjectUID: "7", Timestamp: at(17, 30)},
	}}
	orch := newTestOrchestrator(map[string]*stubAdapter{"10.0.0.1": adapter}, Policy{})

	_, err := orch.SyncAll(context.Background(), db)
	require.NoError(t, err)

	var d model.Device
	require.NoError(t, db.First(&d).Error)
	require.NotNil(t, d.LastEventAt)
	assert.True(t, d.LastEventAt.Equal(at(17, 30)))

	// Next run replays the buffer plus one new punch; only the new one
	// survives the watermark.
	adapter.events = append(adapter.events, device.RawEvent{SubjectUID: "7", Timestamp: at(18, 0)})
	summary, err := orch.SyncAll(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UpdatedRecords)

	var count int64
	require.NoError(t, db.Model(&model.PunchEvent{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	require.NoError(t, db.First(&d).Error)
	assert.True(t, d.LastEventAt.Equal(at(18, 0)))
}

func TestSyncAllRestoresMatching(t *testing.T) {
	db := testDB(t)
	seedDevice(t, db, "gate-a", "10.0.0.1")

	adapter := &stubAdapter{}
	orch := newTestOrchestrator(map[string]*stubAdapter{"10.0.0.1": adapter}, Policy{})

	_, err := orch.SyncAll(context.Background(), db)
	require.NoError(t, err)

	// Disabled for the read, re-enabled before disconnect.
	assert.Equal(t, []bool{false, true}, adapter.matchingToggled)
	assert.False(t, adapter.connected)
}

func TestFilterByWatermark(t *testing.T) {
	events := []device.RawEvent{
		{SubjectUID: "7", Timestamp: at(9, 0)},
		{SubjectUID: "7", Timestamp: at(12, 0)},
		{SubjectUID: "7", Timestamp: at(17, 30)},
	}

	t.Run("no watermark passes everything", func(t *testing.T) {
		fresh, maxTS := filterByWatermark(events, nil)
		assert.Len(t, fresh, 3)
		require.NotNil(t, maxTS)
		assert.True(t, maxTS.Equal(at(17, 30)))
	})

	t.Run("watermark drops already ingested punches", func(t *testing.T) {
		fresh, maxTS := filterByWatermark(events, utils.Ptr(at(12, 0)))
		require.Len(t, fresh, 1)
		assert.True(t, fresh[0].Timestamp.Equal(at(17, 30)))
		require.NotNil(t, maxTS)
		assert.True(t, maxTS.Equal(at(17, 30)))
	})

	t.Run("empty read keeps the old watermark", func(t *testing.T) {
		fresh, maxTS := filterByWatermark(nil, utils.Ptr(at(12, 0)))
		assert.Empty(t, fresh)
		require.NotNil(t, maxTS)
		assert.True(t, maxTS.Equal(at(12, 0)))
	})
}

func TestTestDeviceWithoutSerial(t *testing.T) {
	adapter := &stubAdapter{}
	orch := newTestOrchestrator(map[string]*stubAdapter{"10.0.0.1": adapter}, Policy{})

	msg, err := orch.TestDevice(context.Background(), model.Device{Name: "gate-a", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "connected", msg)
	assert.False(t, adapter.connected)
}

func TestTestDeviceUnreachable(t *testing.T) {
	adapter := &stubAdapter{connectErr: errors.New("connection refused")}
	orch := newTestOrchestrator(map[string]*stubAdapter{"10.0.0.1": adapter}, Policy{})

	_, err := orch.TestDevice(context.Background(), model.Device{Name: "gate-a", IP: "10.0.0.1"})
	require.Error(t, err)
}
