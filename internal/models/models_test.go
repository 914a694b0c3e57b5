package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateValidate(t *testing.T) {
	valid := []Coordinate{
		{Latitude: 52.0, Longitude: 4.3},
		{Latitude: -90, Longitude: -180},
		{Latitude: 90, Longitude: 180},
		{Latitude: 0, Longitude: 0},
	}
	for _, c := range valid {
		assert.NoError(t, c.Validate(), c.String())
	}

	invalid := []Coordinate{
		{Latitude: 90.0001, Longitude: 0},
		{Latitude: -91, Longitude: 0},
		{Latitude: 0, Longitude: 180.5},
		{Latitude: 0, Longitude: -181},
		{Latitude: math.NaN(), Longitude: 0},
		{Latitude: 0, Longitude: math.Inf(1)},
	}
	for _, c := range invalid {
		assert.Error(t, c.Validate(), c.String())
	}
}

func TestLogEntryHelpers(t *testing.T) {
	entry := &LogEntry{
		ID:        "6ba7b810-9dad-41d1-80b4-00c04fd430c8",
		Entry:     "Hoist sails",
		Latitude:  52.0,
		Longitude: 4.3,
		Timestamp: "2024-05-01T07:30:15.123Z",
		UpdatedAt: "2024-05-01T07:30:15.123Z",
	}

	assert.False(t, entry.Edited())
	assert.Equal(t, Coordinate{Latitude: 52.0, Longitude: 4.3}, entry.Coordinate())

	at, err := entry.RecordedAt()
	require.NoError(t, err)
	assert.Equal(t, 123_000_000, at.Nanosecond())

	entry.UpdatedAt = "2024-05-01T07:31:00.000Z"
	assert.True(t, entry.Edited())

	edited, err := entry.EditedAt()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second-123*time.Millisecond, edited.Sub(at))

	entry.Timestamp = "yesterday"
	_, err = entry.RecordedAt()
	assert.Error(t, err)
}
