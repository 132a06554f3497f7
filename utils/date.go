package utils

import (
	"fmt"
	"time"
)

// SiteTZ is the timezone punches are bucketed into. Terminals report local
// wall-clock time, so calendar dates are always derived in this zone.
var SiteTZ = time.FixedZone("UTC+3", 3*60*60)

// DateOf returns the calendar date of t in the site timezone.
func DateOf(t time.Time) string {
	return t.In(SiteTZ).Format("2006-01-02")
}

// MustParseDate returns site-local midnight for a yyyy-MM-dd string,
// zero time on bad input.
func MustParseDate(dateStr string) time.Time {
	t, _ := time.ParseInLocation("2006-01-02", dateStr, SiteTZ)
	return t
}

func ParseISOTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, fmt.Errorf("empty time string")
	}

	// Try standard RFC3339 format (ISO 8601)
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return &t, nil
	}

	// Try with nanoseconds (e.g. 2025-10-13T09:30:00.123Z)
	t, err = time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return &t, nil
	}

	// Fallback formats seen in punch sheets exported by terminal vendors
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if tt, e := time.ParseInLocation(layout, s, SiteTZ); e == nil {
			return &tt, nil
		}
	}

	return nil, fmt.Errorf("failed to parse time: %v", s)
}
