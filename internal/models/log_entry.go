package models

import (
	"time"

	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

// LogEntry is one recorded activity with the position it was recorded at
type LogEntry struct {
	ID        string  `json:"id" db:"id"`
	Entry     string  `json:"entry" db:"entry"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Timestamp string  `json:"timestamp" db:"timestamp"`
	UpdatedAt string  `json:"updated_at" db:"updated_at"`
}

// Coordinate returns the position the entry was recorded at
func (e *LogEntry) Coordinate() Coordinate {
	return Coordinate{Latitude: e.Latitude, Longitude: e.Longitude}
}

// RecordedAt parses Timestamp
func (e *LogEntry) RecordedAt() (time.Time, error) {
	return utils.ParseTimestamp(e.Timestamp)
}

// EditedAt parses UpdatedAt
func (e *LogEntry) EditedAt() (time.Time, error) {
	return utils.ParseTimestamp(e.UpdatedAt)
}

// Edited reports whether the entry was modified after it was recorded
func (e *LogEntry) Edited() bool {
	return e.UpdatedAt != e.Timestamp
}
