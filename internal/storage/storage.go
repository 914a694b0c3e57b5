// File: internal/storage/storage.go
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/smartdevs17/sail-logbook/internal/models"
	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

// Store is the only way the rest of the application touches persisted log
// entries. A Store returned by Open is connected and fully migrated.
type Store interface {
	// Connection management
	Connect(ctx context.Context) error
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
	SchemaVersion(ctx context.Context) (int, error)

	// Log entry operations
	Create(ctx context.Context, entry string, latitude, longitude float64) (string, error)
	List(ctx context.Context) ([]*models.LogEntry, error)
	GetByID(ctx context.Context, id string) (*models.LogEntry, error)
	Update(ctx context.Context, id, entry string) error
	Delete(ctx context.Context, id string) error
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type             string        `json:"type"`
	ConnectionString string        `json:"connection_string"`
	MaxConnections   int           `json:"max_connections"`
	MaxIdleTime      time.Duration `json:"max_idle_time"`
	BusyTimeout      time.Duration `json:"busy_timeout"`

	// now replaces the wall clock used for entry timestamps.
	now func() time.Time
	// migrations replaces the dialect's built-in list; the schema is then
	// migrated to its last step.
	migrations []*Migration
}

// timestampSource hands out strictly increasing millisecond timestamps
type timestampSource struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newTimestampSource(now func() time.Time) *timestampSource {
	if now == nil {
		now = time.Now
	}
	return &timestampSource{now: now}
}

// Observe moves the source past t, so values already persisted are never
// handed out again.
func (s *timestampSource) Observe(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t = t.UTC().Truncate(time.Millisecond)
	if t.After(s.last) {
		s.last = t
	}
}

// Next returns the current time, bumped past the previously issued value
func (s *timestampSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC().Truncate(time.Millisecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	s.last = t

	return utils.FormatTimestamp(t)
}
