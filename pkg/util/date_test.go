package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-03-15")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateRFC3339TruncatesToDay(t *testing.T) {
	got, ok := ParseDate("2024-10-10T22:10:10Z")
	require.True(t, ok)
	assert.Equal(t, "2024-10-10", FormatDate(got))
	assert.Equal(t, 0, got.Hour())
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	require.True(t, ok)
	assert.Equal(t, ts, got.Unix())
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, ok := ParseDate("not-a-date")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestDateOfNormalizesZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 20:30 New York on Jan 5 is already Jan 6 in UTC.
	local := time.Date(2024, 1, 5, 20, 30, 0, 0, ny)
	assert.Equal(t, "2024-01-06", FormatDate(DateOf(local)))
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 5, 18, 0, 0, 999, time.UTC)
	assert.Equal(t, "2024-01-05T18:00:00Z", FormatTimestamp(ts))
}
