package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewLogID()
		require.NoError(t, err)
		assert.True(t, IsValidLogID(id), id)
		assert.Equal(t, byte('4'), id[14], "expected a version 4 UUID")
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestIsValidLogID(t *testing.T) {
	assert.False(t, IsValidLogID(""))
	assert.False(t, IsValidLogID("not-a-uuid"))
	assert.False(t, IsValidLogID("{6BA7B810-9DAD-11D1-80B4-00C04FD430C8}"))
	assert.True(t, IsValidLogID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
}

func TestTimestampRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 15, 123_000_000, time.FixedZone("CEST", 2*3600))

	formatted := FormatTimestamp(at)
	assert.Equal(t, "2024-05-01T07:30:15.123Z", formatted)

	parsed, err := ParseTimestamp(formatted)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(at))

	earlier := FormatTimestamp(at.Add(-time.Millisecond))
	assert.Less(t, earlier, formatted)
}
