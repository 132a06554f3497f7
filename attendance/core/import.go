package core

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"tadbeer.com/hrms/attendance/device"
	"tadbeer.com/hrms/utils"
)

// Punch sheets are vendor exports with a header row of
// subject,timestamp[,state[,punch]]. Timestamps accept the same formats
// the terminals emit.

func ParsePunchCSV(r io.Reader) ([]device.RawEvent, error) {
	rows, err := utils.ParseCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read punch sheet: %w", err)
	}
	return punchRows(rows)
}

func ParsePunchXLSX(r io.Reader) ([]device.RawEvent, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return punchRows(rows)
}

func punchRows(rows [][]string) ([]device.RawEvent, error) {
	var events []device.RawEvent
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: expected at least subject and timestamp", i+1)
		}

		ts, err := utils.ParseISOTime(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid timestamp: %w", i+1, err)
		}

		ev := device.RawEvent{
			SubjectUID: strings.TrimSpace(row[0]),
			Timestamp:  *ts,
		}
		if len(row) > 2 {
			ev.State, _ = strconv.Atoi(strings.TrimSpace(row[2]))
		}
		if len(row) > 3 {
			ev.Punch, _ = strconv.Atoi(strings.TrimSpace(row[3]))
		}
		events = append(events, ev)
	}
	return events, nil
}
