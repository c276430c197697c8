package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2023-10-15T14:30:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 10, 15, 14, 30, 0, 0, time.UTC), *ts)

	ts, err = ParseTimestamp("2023-10-15T14:30:00.250000")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, time.Duration(ts.Nanosecond()))

	ts, err = ParseTimestamp("")
	assert.NoError(t, err)
	assert.Nil(t, ts)

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "", FormatTimestamp(nil))
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2024-01-02T03:04:05", FormatTimestamp(&ts))

	frac := time.Date(2024, 1, 2, 3, 4, 5, 250_000_000, time.UTC)
	assert.Equal(t, "2024-01-02T03:04:05.25", FormatTimestamp(&frac))

	seoul := time.Date(2024, 1, 2, 10, 0, 0, 0, time.FixedZone("KST", 9*3600))
	assert.Equal(t, "2024-01-02T10:00:00+09:00", FormatTimestamp(&seoul))
}

func TestTimestamp_RoundTripKeepsInstant(t *testing.T) {
	for _, in := range []string{
		"2024-01-02T10:00:00+09:00",
		"2024-01-02T02:00:00Z",
		"2024-01-02T02:00:00.123456",
		"2024-01-02T02:00:00.5-03:30",
	} {
		t.Run(in, func(t *testing.T) {
			first, err := ParseTimestamp(in)
			require.NoError(t, err)

			again, err := ParseTimestamp(FormatTimestamp(first))
			require.NoError(t, err)
			assert.True(t, first.Equal(*again), "%s became %s", first, again)
		})
	}
}

func TestNewCaptureRecord_FlagsFollowValues(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	rec := NewCaptureRecord("a.jpg", "/a.jpg", nil, nil)
	assert.False(t, rec.HasGPS)
	assert.False(t, rec.HasTimestamp)
	assert.Nil(t, rec.Location())

	rec = NewCaptureRecord("a.jpg", "/a.jpg", &Location{Latitude: 1, Longitude: 2, Timestamp: &ts}, nil)
	assert.True(t, rec.HasGPS)
	assert.True(t, rec.HasTimestamp)
	assert.Equal(t, ts, *rec.Timestamp)

	rec = NewCaptureRecord("a.jpg", "/a.jpg", nil, &ts)
	assert.False(t, rec.HasGPS)
	assert.True(t, rec.HasTimestamp)
}

func TestSummarize(t *testing.T) {
	ts := time.Now()
	s := Summarize([]ImageCaptureRecord{
		NewCaptureRecord("a", "", &Location{}, &ts),
		NewCaptureRecord("b", "", nil, &ts),
		NewCaptureRecord("c", "", nil, nil),
	})
	assert.Equal(t, CaptureSummary{TotalImages: 3, WithGPS: 1, WithTimestamp: 2}, s)
}
