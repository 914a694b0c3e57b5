// File: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/sail-logbook/internal/location"
	"github.com/smartdevs17/sail-logbook/internal/logbook"
	"github.com/smartdevs17/sail-logbook/internal/metrics"
	"github.com/smartdevs17/sail-logbook/internal/models"
	"github.com/smartdevs17/sail-logbook/internal/storage"
	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          int           `json:"port"`
	Host          string        `json:"host"`
	ReadTimeout   time.Duration `json:"read_timeout"`
	WriteTimeout  time.Duration `json:"write_timeout"`
	EnableMetrics bool          `json:"enable_metrics"`
	EnableHealth  bool          `json:"enable_health"`
	Version       string        `json:"version"`
}

// HTTPServer exposes the logbook over a JSON API
type HTTPServer struct {
	config         *ServerConfig
	server         *http.Server
	router         *mux.Router
	service        *logbook.Service
	storage        storage.Store
	metricsManager *metrics.Manager
	logger         *logrus.Entry
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(
	config *ServerConfig,
	service *logbook.Service,
	store storage.Store,
	metricsManager *metrics.Manager,
) *HTTPServer {
	server := &HTTPServer{
		config:         config,
		service:        service,
		storage:        store,
		metricsManager: metricsManager,
		logger:         utils.ComponentLogger("server"),
	}

	server.setupRouter()

	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      server.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return server
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.router = mux.NewRouter()

	s.router.Use(s.loggingMiddleware)
	if s.metricsManager != nil {
		s.router.Use(s.metricsMiddleware)
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()

	if s.config.EnableHealth {
		api.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	}

	if s.config.EnableMetrics && s.metricsManager != nil {
		s.router.Handle("/metrics", s.metricsManager.Handler())
	}

	api.HandleFunc("/activities", s.listActivitiesHandler).Methods(http.MethodGet)

	api.HandleFunc("/logs", s.listLogsHandler).Methods(http.MethodGet)
	api.HandleFunc("/logs", s.createLogHandler).Methods(http.MethodPost)
	api.HandleFunc("/logs/{id}", s.getLogHandler).Methods(http.MethodGet)
	api.HandleFunc("/logs/{id}", s.updateLogHandler).Methods(http.MethodPut)
	api.HandleFunc("/logs/{id}", s.deleteLogHandler).Methods(http.MethodDelete)
}

// Handler returns the root handler, useful for embedding and tests
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address
func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address":         s.server.Addr,
		"metrics_enabled": s.config.EnableMetrics,
	}).Info("Starting HTTP server")

	if s.metricsManager != nil {
		s.metricsManager.UpdateSystemMetrics()
	}

	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server error")
			errChan <- err
		}
	}()

	// Give the server a moment to surface immediate binding errors
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports storage connectivity and schema version
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
		"version":         s.config.Version,
		"metrics_enabled": s.config.EnableMetrics,
	}

	if err := s.storage.Ping(r.Context()); err != nil {
		resp["status"] = "unhealthy"
		resp["error"] = err.Error()
		s.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	version, err := s.storage.SchemaVersion(r.Context())
	if err == nil {
		resp["schema_version"] = version
	}

	if s.metricsManager != nil {
		s.metricsManager.UpdateSystemMetrics()
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) listActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": logbook.Activities,
	})
}

func (s *HTTPServer) listLogsHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.Entries(r.Context())
	if err != nil {
		s.writeAppError(w, "Failed to list log entries", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  entries,
		"count": len(entries),
	})
}

// createLogRequest records an activity. Without coordinates the configured
// location provider is asked for the current position.
type createLogRequest struct {
	Activity  string   `json:"activity"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (s *HTTPServer) createLogHandler(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if (req.Latitude == nil) != (req.Longitude == nil) {
		s.writeError(w, http.StatusBadRequest, "Latitude and longitude must be given together", nil)
		return
	}

	var (
		entry *models.LogEntry
		err   error
	)
	if req.Latitude != nil {
		entry, err = s.service.RecordAt(r.Context(), req.Activity,
			models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude})
	} else {
		entry, err = s.service.Record(r.Context(), req.Activity)
	}
	if err != nil {
		s.writeAppError(w, "Could not save entry", err)
		return
	}

	s.writeJSON(w, http.StatusCreated, entry)
}

func (s *HTTPServer) getLogHandler(w http.ResponseWriter, r *http.Request) {
	entry, err := s.service.Entry(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeAppError(w, "Failed to get log entry", err)
		return
	}

	s.writeJSON(w, http.StatusOK, entry)
}

type updateLogRequest struct {
	Entry string `json:"entry"`
}

func (s *HTTPServer) updateLogHandler(w http.ResponseWriter, r *http.Request) {
	var req updateLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := s.service.Rename(r.Context(), mux.Vars(r)["id"], req.Entry)
	if err != nil {
		s.writeAppError(w, "Failed to update log entry", err)
		return
	}

	s.writeJSON(w, http.StatusOK, entry)
}

func (s *HTTPServer) deleteLogHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeAppError(w, "Failed to delete log entry", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Utility Methods

// statusFor maps application error codes onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, location.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, location.ErrServiceDisabled):
		return http.StatusServiceUnavailable
	case utils.HasCode(err, utils.ErrCodeNotFound):
		return http.StatusNotFound
	case utils.HasCode(err, utils.ErrCodeValidation):
		return http.StatusBadRequest
	case utils.HasCode(err, utils.ErrCodeLocationUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) writeAppError(w http.ResponseWriter, message string, err error) {
	s.writeError(w, statusFor(err), message, err)
}

// writeJSON writes a JSON response
func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string, err error) {
	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err != nil {
		errorResponse["details"] = err.Error()

		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			errorResponse["code"] = appErr.Code
		}

		entry := s.logger.WithFields(logrus.Fields{
			"status":  status,
			"message": message,
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("HTTP error")
		} else {
			entry.Debug("HTTP error")
		}
	}

	s.writeJSON(w, status, errorResponse)
}
