package utils

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the fixed-width UTC ISO-8601 layout used for persisted
// timestamps. Fixed width keeps lexical and chronological order identical.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// NewLogID returns a random (version 4) UUID string
func NewLogID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsValidLogID checks that id is a canonical UUID string
func IsValidLogID(id string) bool {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.String() == id
}

// FormatTimestamp renders t in TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a value written by FormatTimestamp
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(TimestampLayout, value)
}
