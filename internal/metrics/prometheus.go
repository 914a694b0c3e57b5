package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for the logbook
type PrometheusMetrics struct {
	// Storage metrics
	DatabaseOperationsTotal   *prometheus.CounterVec
	DatabaseOperationDuration *prometheus.HistogramVec
	SchemaVersion             prometheus.Gauge

	// Logbook metrics
	ActivitiesRecordedTotal *prometheus.CounterVec
	LocationFailuresTotal   *prometheus.CounterVec

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Application health metrics
	ApplicationUptime prometheus.Gauge
	MemoryUsage       prometheus.Gauge
	GoroutineCount    prometheus.Gauge
}

// NewPrometheusMetrics creates all metrics and registers them with reg
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		DatabaseOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logbook_db_operations_total",
				Help: "Total number of log store operations",
			},
			[]string{"operation", "status"},
		),

		DatabaseOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "logbook_db_operation_duration_seconds",
				Help:    "Duration of log store operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		SchemaVersion: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "logbook_schema_version",
				Help: "Schema version recorded in the database",
			},
		),

		ActivitiesRecordedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logbook_activities_recorded_total",
				Help: "Total number of activities recorded",
			},
			[]string{"activity"},
		),

		LocationFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logbook_location_failures_total",
				Help: "Total number of failed location lookups",
			},
			[]string{"reason"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logbook_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "logbook_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		ApplicationUptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "logbook_uptime_seconds",
				Help: "Application uptime in seconds",
			},
		),

		MemoryUsage: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "logbook_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
		),

		GoroutineCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "logbook_goroutines",
				Help: "Current number of goroutines",
			},
		),
	}
}

// RecordDatabaseOperation records a log store operation
func (m *PrometheusMetrics) RecordDatabaseOperation(operation, status string, duration time.Duration) {
	m.DatabaseOperationsTotal.WithLabelValues(operation, status).Inc()
	m.DatabaseOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateSchemaVersion sets the schema version gauge
func (m *PrometheusMetrics) UpdateSchemaVersion(version int) {
	m.SchemaVersion.Set(float64(version))
}

// RecordActivity counts a recorded activity
func (m *PrometheusMetrics) RecordActivity(activity string) {
	m.ActivitiesRecordedTotal.WithLabelValues(activity).Inc()
}

// RecordLocationFailure counts a failed location lookup
func (m *PrometheusMetrics) RecordLocationFailure(reason string) {
	m.LocationFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *PrometheusMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateApplicationUptime updates the uptime gauge
func (m *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	m.ApplicationUptime.Set(time.Since(startTime).Seconds())
}

// UpdateMemoryUsage updates the memory usage gauge
func (m *PrometheusMetrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount updates the goroutine gauge
func (m *PrometheusMetrics) UpdateGoroutineCount(count int) {
	m.GoroutineCount.Set(float64(count))
}
