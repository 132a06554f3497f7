package utils

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	csvData := `subject,timestamp
7,2024-03-01 08:55:00
12,2024-03-01 09:30:00`

	got, err := ParseCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}

	want := [][]string{
		{"subject", "timestamp"},
		{"7", "2024-03-01 08:55:00"},
		{"12", "2024-03-01 09:30:00"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCSV returned %+v, want %+v", got, want)
	}
}

func TestParseCSVRaggedRow(t *testing.T) {
	csvData := "subject,timestamp\n7\n"
	if _, err := ParseCSV(strings.NewReader(csvData)); err == nil {
		t.Error("expected error for ragged row")
	}
}
