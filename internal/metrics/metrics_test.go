package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagersAreIndependent(t *testing.T) {
	first := NewManager()
	second := NewManager()

	first.GetPrometheusMetrics().RecordDatabaseOperation("create", "success", time.Millisecond)

	assert.Contains(t, scrape(t, first), `logbook_db_operations_total{operation="create",status="success"} 1`)
	assert.NotContains(t, scrape(t, second), `logbook_db_operations_total{operation="create"`)
}

func scrape(t *testing.T, m *Manager) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewManager()
	m.GetPrometheusMetrics().RecordActivity("Hoist sails")
	m.GetPrometheusMetrics().UpdateSchemaVersion(2)
	m.UpdateSystemMetrics()

	body := scrape(t, m)
	assert.Contains(t, body, `logbook_activities_recorded_total{activity="Hoist sails"} 1`)
	assert.Contains(t, body, "logbook_schema_version 2")
	assert.Contains(t, body, "logbook_goroutines")
}
