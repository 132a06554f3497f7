package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tadbeer.com/hrms/attendance/device"
	"tadbeer.com/hrms/attendance/model"
	"tadbeer.com/hrms/core"
	"tadbeer.com/hrms/core/models"
	"tadbeer.com/hrms/utils"
)

// Policy captures the reconciliation knobs that the observed deployments
// kept flip-flopping on.
type Policy struct {
	// RetainUnlinked keeps punches whose subject did not resolve in the
	// raw log (employee NULL) for manual linking. Off means drop.
	RetainUnlinked bool
}

// DayGroup is the derived attendance for one employee on one calendar
// date: earliest punch in, latest punch out (only when more than one
// distinct punch time exists).
type DayGroup struct {
	EmployeeID int32
	Date       string
	CheckIn    time.Time
	CheckOut   *time.Time
}

type Result struct {
	New        int
	Updated    int
	Unresolved int
}

// GroupEvents resolves raw punches against the employee UID map and
// groups them per (employee, site-local calendar date). Events whose
// subject does not resolve are returned separately, never an error.
func GroupEvents(events []device.RawEvent, uidMap map[string]models.Employee) ([]DayGroup, []device.RawEvent) {
	type resolvedPunch struct {
		employeeID int32
		date       string
		ts         time.Time
	}

	var punches []resolvedPunch
	var unresolved []device.RawEvent
	for _, ev := range events {
		emp, ok := uidMap[ev.SubjectUID]
		if !ok {
			unresolved = append(unresolved, ev)
			continue
		}
		punches = append(punches, resolvedPunch{
			employeeID: emp.EmployeeID,
			date:       utils.DateOf(ev.Timestamp),
			ts:         ev.Timestamp,
		})
	}

	buckets := utils.GroupBy(punches, func(p resolvedPunch) string {
		return dayKey(p.employeeID, p.date)
	})

	groups := make([]DayGroup, 0, len(buckets))
	for _, ps := range buckets {
		earliest, latest := ps[0].ts, ps[0].ts
		for _, p := range ps[1:] {
			if p.ts.Before(earliest) {
				earliest = p.ts
			}
			if p.ts.After(latest) {
				latest = p.ts
			}
		}
		g := DayGroup{EmployeeID: ps[0].employeeID, Date: ps[0].date, CheckIn: earliest}
		if latest.After(earliest) {
			g.CheckOut = utils.Ptr(latest)
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Date != groups[j].Date {
			return groups[i].Date < groups[j].Date
		}
		return groups[i].EmployeeID < groups[j].EmployeeID
	})
	return groups, unresolved
}

// MergeDay widens row with the punch window of g and reports whether
// anything changed. Check-in only ever moves earlier, check-out only
// ever later; a non-null value never regresses to null. A punch outside
// the stored window can also turn a previously single-punch day into a
// full in/out pair.
func MergeDay(row *model.AttendanceDay, g DayGroup) bool {
	times := []time.Time{g.CheckIn}
	if g.CheckOut != nil {
		times = append(times, *g.CheckOut)
	}
	if row.CheckIn != nil {
		times = append(times, *row.CheckIn)
	}
	if row.CheckOut != nil {
		times = append(times, *row.CheckOut)
	}

	earliest, latest := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(earliest) {
			earliest = t
		}
		if t.After(latest) {
			latest = t
		}
	}

	var checkOut *time.Time
	if latest.After(earliest) {
		checkOut = utils.Ptr(latest)
	}

	changed := row.CheckIn == nil || !row.CheckIn.Equal(earliest) || !timePtrEqual(row.CheckOut, checkOut)
	row.CheckIn = utils.Ptr(earliest)
	row.CheckOut = checkOut
	return changed
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Reconcile applies one batch of raw events to the ledger inside the
// caller's transaction. Idempotent: replaying the same batch produces
// zero changes. The (employee_id, date) unique index plus the on-conflict
// clause keep concurrent syncs from ever creating a second row for the
// same day.
func Reconcile(tx *gorm.DB, events []device.RawEvent, source string, policy Policy) (*Result, error) {
	if len(events) == 0 {
		return &Result{}, nil
	}

	uidMap, err := core.EmployeesByDeviceUID(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee identifiers: %w", err)
	}

	groups, unresolved := GroupEvents(events, uidMap)
	result := &Result{Unresolved: len(unresolved)}
	if len(groups) == 0 {
		return result, nil
	}

	existingMap, err := fetchExistingDays(tx, groups)
	if err != nil {
		return nil, err
	}

	var pending []DayGroup
	for _, g := range groups {
		key := dayKey(g.EmployeeID, g.Date)
		if row, ok := existingMap[key]; ok {
			if !MergeDay(&row, g) {
				continue
			}
			updates := map[string]any{"check_in": row.CheckIn, "check_out": row.CheckOut}
			if err := tx.Model(&model.AttendanceDay{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to update attendance day: %w", err)
			}
			result.Updated++
			continue
		}
		pending = append(pending, g)
	}

	if len(pending) > 0 {
		rows := utils.Map(pending, func(g DayGroup) model.AttendanceDay {
			return model.AttendanceDay{
				EmployeeID: g.EmployeeID,
				Date:       g.Date,
				CheckIn:    utils.Ptr(g.CheckIn),
				CheckOut:   g.CheckOut,
				Status:     model.StatusPresent,
				Source:     source,
			}
		})

		// Another sync may have inserted the same (employee, date) since
		// our read. DoNothing keeps the unique index from failing the
		// batch; any group that lost the race is re-read and widened
		// below, never overwritten.
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "date"}},
			DoNothing: true,
		}).Create(&rows)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to insert attendance days: %w", res.Error)
		}
		result.New += int(res.RowsAffected)

		if int(res.RowsAffected) < len(rows) {
			racedMap, err := fetchExistingDays(tx, pending)
			if err != nil {
				return nil, err
			}
			for _, g := range pending {
				row, ok := racedMap[dayKey(g.EmployeeID, g.Date)]
				// Rows this batch just inserted merge to no change and
				// fall through here.
				if !ok || !MergeDay(&row, g) {
					continue
				}
				updates := map[string]any{"check_in": row.CheckIn, "check_out": row.CheckOut}
				if err := tx.Model(&model.AttendanceDay{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
					return nil, fmt.Errorf("failed to update attendance day: %w", err)
				}
				result.Updated++
			}
		}
	}

	return result, nil
}

// LogPunches appends raw events to the punch log. The natural key
// (device, subject, timestamp) silently dedupes terminals that re-deliver
// their whole buffer on every read.
func LogPunches(tx *gorm.DB, deviceID *int32, events []device.RawEvent, origin string, policy Policy) error {
	if len(events) == 0 {
		return nil
	}

	uidMap, err := core.EmployeesByDeviceUID(tx)
	if err != nil {
		return err
	}

	var rows []model.PunchEvent
	for _, ev := range events {
		var employeeID *int32
		if emp, ok := uidMap[ev.SubjectUID]; ok {
			employeeID = utils.Ptr(emp.EmployeeID)
		} else if !policy.RetainUnlinked {
			continue
		}
		rows = append(rows, model.PunchEvent{
			ID:         uuid.NewString(),
			DeviceID:   deviceID,
			SubjectUID: ev.SubjectUID,
			Timestamp:  ev.Timestamp,
			State:      ev.State,
			Punch:      ev.Punch,
			EmployeeID: employeeID,
			Origin:     origin,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	// Import rows carry a NULL device, and NULLs compare distinct in the
	// unique index, so re-imported sheets are deduped here instead.
	if deviceID == nil {
		rows, err = dedupeImportRows(tx, rows)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "subject_uid"}, {Name: "timestamp"}},
		DoNothing: true,
	}).Create(&rows).Error
}

func dedupeImportRows(tx *gorm.DB, rows []model.PunchEvent) ([]model.PunchEvent, error) {
	minTS, maxTS := rows[0].Timestamp, rows[0].Timestamp
	for _, r := range rows[1:] {
		if r.Timestamp.Before(minTS) {
			minTS = r.Timestamp
		}
		if r.Timestamp.After(maxTS) {
			maxTS = r.Timestamp
		}
	}

	var existing []model.PunchEvent
	if err := tx.Where("device_id IS NULL AND timestamp >= ? AND timestamp <= ?", minTS, maxTS).
		Find(&existing).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[punchKey(r)] = struct{}{}
	}

	var fresh []model.PunchEvent
	for _, r := range rows {
		key := punchKey(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, r)
	}
	return fresh, nil
}

func punchKey(r model.PunchEvent) string {
	return fmt.Sprintf("%s|%d", r.SubjectUID, r.Timestamp.Unix())
}

func fetchExistingDays(tx *gorm.DB, groups []DayGroup) (map[string]model.AttendanceDay, error) {
	dates := make(map[string]struct{})
	var empIDs []int32
	for _, g := range groups {
		dates[g.Date] = struct{}{}
		empIDs = append(empIDs, g.EmployeeID)
	}
	dateList := make([]string, 0, len(dates))
	for d := range dates {
		dateList = append(dateList, d)
	}

	var existing []model.AttendanceDay
	if err := tx.Where("date IN ? AND employee_id IN ?", dateList, empIDs).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch existing attendance days: %w", err)
	}

	existingMap := make(map[string]model.AttendanceDay, len(existing))
	for _, row := range existing {
		existingMap[dayKey(row.EmployeeID, row.Date)] = row
	}
	return existingMap, nil
}

func dayKey(employeeID int32, date string) string {
	return fmt.Sprintf("%d|%s", employeeID, date)
}
