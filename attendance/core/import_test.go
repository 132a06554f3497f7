package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tadbeer.com/hrms/utils"
)

func TestParsePunchCSV(t *testing.T) {
	csvData := `subject,timestamp,state,punch
7,2024-03-01 08:55:00,1,0
7,2024-03-01 18:01:00,1,1
12,2024-03-01T09:30:00,,
`
	events, err := ParsePunchCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "7", events[0].SubjectUID)
	assert.True(t, events[0].Timestamp.Equal(time.Date(2024, 3, 1, 8, 55, 0, 0, utils.SiteTZ)))
	assert.Equal(t, 1, events[0].State)
	assert.Equal(t, 0, events[0].Punch)

	assert.Equal(t, 1, events[1].Punch)

	// Optional columns default to zero.
	assert.Equal(t, "12", events[2].SubjectUID)
	assert.Equal(t, 0, events[2].State)
}

func TestParsePunchCSVSkipsBlankRows(t *testing.T) {
	csvData := "subject,timestamp\n7,2024-03-01 08:55:00\n,\n"
	events, err := ParsePunchCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestParsePunchCSVRejectsBadTimestamp(t *testing.T) {
	csvData := "subject,timestamp\n7,yesterday\n"
	_, err := ParsePunchCSV(strings.NewReader(csvData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestParsePunchCSVRejectsShortRow(t *testing.T) {
	// Ragged rows fail at the reader level before row validation runs.
	csvData := "subject,timestamp\n7\n"
	_, err := ParsePunchCSV(strings.NewReader(csvData))
	require.Error(t, err)
}
