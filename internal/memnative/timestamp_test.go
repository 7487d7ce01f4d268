package memnative

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampOffsets(t *testing.T) {
	utc := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	ts := utc.UnixMicro() - pgEpochMicros

	tests := []struct {
		name   string
		offset int
		want   string
	}{
		{"UTC", 0, "2000-01-01 12:00:00+00"},
		{"Hours", -5 * 3600, "2000-01-01 07:00:00-05"},
		{"Minutes", 5*3600 + 30*60, "2000-01-01 17:30:00+05:30"},
		{"Seconds", -(4*3600 + 56*60 + 2), "2000-01-01 07:03:58-04:56:02"},
		{"SecondsOnly", 17, "2000-01-01 12:00:17+00:00:17"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := time.FixedZone("", tt.offset)
			text := formatTimestamp(ts, loc, ' ')
			assert.Equal(t, tt.want, text)

			back, err := parseTimestamp(text, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, ts, back)
		})
	}
}

func TestTimestampOffsets_Invalid(t *testing.T) {
	for _, s := range []string{
		"2000-01-01 12:00:00+04:56:60",
		"2000-01-01 12:00:00+045",
		"2000-01-01 12:00:00+16",
	} {
		_, err := parseTimestamp(s, time.UTC)
		assert.Error(t, err, s)
	}
}
