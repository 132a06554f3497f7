package utils

import (
	"testing"
	"time"
)

func TestDateOfUsesSiteTimezone(t *testing.T) {
	// 22:30 UTC is already the next calendar day at the site.
	ts := time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC)
	if got := DateOf(ts); got != "2024-03-02" {
		t.Errorf("DateOf = %s, want 2024-03-02", got)
	}

	local := time.Date(2024, 3, 1, 9, 0, 0, 0, SiteTZ)
	if got := DateOf(local); got != "2024-03-01" {
		t.Errorf("DateOf = %s, want 2024-03-01", got)
	}
}

func TestMustParseDate(t *testing.T) {
	got := MustParseDate("2024-03-01")
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, SiteTZ)
	if !got.Equal(want) {
		t.Errorf("MustParseDate = %v, want %v", got, want)
	}
}

func TestParseISOTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01T08:55:00Z", time.Date(2024, 3, 1, 8, 55, 0, 0, time.UTC)},
		{"2024-03-01 08:55:00", time.Date(2024, 3, 1, 8, 55, 0, 0, SiteTZ)},
		{"2024-03-01T08:55:00", time.Date(2024, 3, 1, 8, 55, 0, 0, SiteTZ)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, SiteTZ)},
	}

	for _, tt := range tests {
		got, err := ParseISOTime(tt.in)
		if err != nil {
			t.Fatalf("ParseISOTime(%q) returned error: %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseISOTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseISOTime("yesterday"); err == nil {
		t.Error("expected error for unparseable input")
	}
	if _, err := ParseISOTime(""); err == nil {
		t.Error("expected error for empty input")
	}
}
