package storage

import (
	"context"
	"time"

	"github.com/smartdevs17/sail-logbook/internal/metrics"
	"github.com/smartdevs17/sail-logbook/internal/models"
)

// StoreWithMetrics wraps a store implementation with metrics
type StoreWithMetrics struct {
	Store
	metricsManager *metrics.Manager
}

// NewStoreWithMetrics creates a store wrapper with metrics
func NewStoreWithMetrics(store Store, metricsManager *metrics.Manager) *StoreWithMetrics {
	return &StoreWithMetrics{
		Store:          store,
		metricsManager: metricsManager,
	}
}

func (s *StoreWithMetrics) record(operation string, start time.Time, err error) {
	if s.metricsManager == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metricsManager.GetPrometheusMetrics().RecordDatabaseOperation(operation, status, time.Since(start))
}

// Migrate runs migrations and publishes the resulting schema version
func (s *StoreWithMetrics) Migrate(ctx context.Context) error {
	start := time.Now()
	err := s.Store.Migrate(ctx)
	s.record("migrate", start, err)

	if err == nil && s.metricsManager != nil {
		if version, verr := s.Store.SchemaVersion(ctx); verr == nil {
			s.metricsManager.GetPrometheusMetrics().UpdateSchemaVersion(version)
		}
	}
	return err
}

// Create creates a log entry and records metrics
func (s *StoreWithMetrics) Create(ctx context.Context, entry string, latitude, longitude float64) (string, error) {
	start := time.Now()
	id, err := s.Store.Create(ctx, entry, latitude, longitude)
	s.record("create", start, err)
	return id, err
}

// List lists log entries and records metrics
func (s *StoreWithMetrics) List(ctx context.Context) ([]*models.LogEntry, error) {
	start := time.Now()
	entries, err := s.Store.List(ctx)
	s.record("list", start, err)
	return entries, err
}

// GetByID fetches a log entry and records metrics
func (s *StoreWithMetrics) GetByID(ctx context.Context, id string) (*models.LogEntry, error) {
	start := time.Now()
	entry, err := s.Store.GetByID(ctx, id)
	s.record("get", start, err)
	return entry, err
}

// Update updates a log entry and records metrics
func (s *StoreWithMetrics) Update(ctx context.Context, id, entry string) error {
	start := time.Now()
	err := s.Store.Update(ctx, id, entry)
	s.record("update", start, err)
	return err
}

// Delete deletes a log entry and records metrics
func (s *StoreWithMetrics) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.Store.Delete(ctx, id)
	s.record("delete", start, err)
	return err
}
