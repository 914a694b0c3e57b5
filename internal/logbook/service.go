package logbook

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/sail-logbook/internal/location"
	"github.com/smartdevs17/sail-logbook/internal/metrics"
	"github.com/smartdevs17/sail-logbook/internal/models"
	"github.com/smartdevs17/sail-logbook/internal/storage"
	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

// Activities are the preset labels offered for one-tap recording
var Activities = []string{
	"Hoist sails",
	"Lower sails",
	"Hoist anchor",
	"Lower anchor",
	"Engine on",
	"Engine off",
}

// IsActivity reports whether label is one of the presets
func IsActivity(label string) bool {
	for _, a := range Activities {
		if a == label {
			return true
		}
	}
	return false
}

// Service is the logbook as the user sees it: record an activity at the
// current position, browse, edit and remove entries.
type Service struct {
	store    storage.Store
	provider location.Provider
	metrics  *metrics.Manager
	logger   *logrus.Entry
}

// NewService creates a logbook service. metricsManager may be nil.
func NewService(store storage.Store, provider location.Provider, metricsManager *metrics.Manager) *Service {
	return &Service{
		store:    store,
		provider: provider,
		metrics:  metricsManager,
		logger:   utils.ComponentLogger("logbook"),
	}
}

// Record resolves the current location and stores activity there. A location
// failure is returned unchanged and nothing is written.
func (s *Service) Record(ctx context.Context, activity string) (*models.LogEntry, error) {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return nil, utils.NewAppError(utils.ErrCodeValidation, "Activity is required", "")
	}

	s.logger.WithField("activity", activity).Debug("Fetching location")

	coord, err := s.provider.CurrentLocation(ctx)
	if err != nil {
		s.recordLocationFailure(err)
		s.logger.WithError(err).WithField("activity", activity).Warn("Could not resolve location")
		return nil, err
	}

	return s.RecordAt(ctx, activity, coord)
}

// RecordAt stores activity at an already resolved position
func (s *Service) RecordAt(ctx context.Context, activity string, coord models.Coordinate) (*models.LogEntry, error) {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return nil, utils.NewAppError(utils.ErrCodeValidation, "Activity is required", "")
	}

	id, err := s.store.Create(ctx, activity, coord.Latitude, coord.Longitude)
	if err != nil {
		return nil, err
	}

	entry, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, utils.NewAppError(utils.ErrCodeStorageRead, "Created log entry not readable", id)
	}

	if s.metrics != nil {
		s.metrics.GetPrometheusMetrics().RecordActivity(activityLabel(activity))
	}

	s.logger.WithFields(logrus.Fields{
		"id":       id,
		"activity": activity,
		"position": coord.String(),
	}).Info("Activity recorded")

	return entry, nil
}

// Entries lists all entries, newest first
func (s *Service) Entries(ctx context.Context) ([]*models.LogEntry, error) {
	return s.store.List(ctx)
}

// Entry returns one entry, or a NOT_FOUND error when it does not exist
func (s *Service) Entry(ctx context.Context, id string) (*models.LogEntry, error) {
	if !utils.IsValidLogID(id) {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "Log entry not found", id)
	}

	entry, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "Log entry not found", id)
	}
	return entry, nil
}

// Rename replaces the text of an existing entry and returns the stored result
func (s *Service) Rename(ctx context.Context, id, text string) (*models.LogEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.NewAppError(utils.ErrCodeValidation, "Entry text cannot be empty", "")
	}

	if _, err := s.Entry(ctx, id); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, id, text); err != nil {
		return nil, err
	}

	s.logger.WithField("id", id).Info("Log entry updated")
	return s.Entry(ctx, id)
}

// Remove deletes an existing entry
func (s *Service) Remove(ctx context.Context, id string) error {
	if _, err := s.Entry(ctx, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithField("id", id).Info("Log entry deleted")
	return nil
}

func (s *Service) recordLocationFailure(err error) {
	if s.metrics == nil {
		return
	}

	reason := "unknown"
	switch {
	case errors.Is(err, location.ErrPermissionDenied):
		reason = "permission_denied"
	case errors.Is(err, location.ErrServiceDisabled):
		reason = "service_disabled"
	}
	s.metrics.GetPrometheusMetrics().RecordLocationFailure(reason)
}

// activityLabel keeps metric cardinality bounded to the presets
func activityLabel(activity string) string {
	if IsActivity(activity) {
		return activity
	}
	return "custom"
}
