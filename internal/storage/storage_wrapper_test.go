package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/sail-logbook/internal/metrics"
)

func TestStoreWithMetrics(t *testing.T) {
	ctx := context.Background()
	manager := metrics.NewManager()

	inner, err := New(testConfig(t))
	require.NoError(t, err)
	store := NewStoreWithMetrics(inner, manager)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Connect(ctx))
	require.NoError(t, store.Migrate(ctx))

	id, err := store.Create(ctx, "Engine on", 52.0, 4.3)
	require.NoError(t, err)
	_, err = store.Create(ctx, "Engine on", 95.0, 4.3)
	require.Error(t, err)
	_, err = store.List(ctx)
	require.NoError(t, err)
	_, err = store.GetByID(ctx, id)
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, id, "Engine on - edited"))
	require.NoError(t, store.Delete(ctx, id))

	rec := httptest.NewRecorder()
	manager.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`logbook_db_operations_total{operation="migrate",status="success"} 1`,
		`logbook_db_operations_total{operation="create",status="success"} 1`,
		`logbook_db_operations_total{operation="create",status="error"} 1`,
		`logbook_db_operations_total{operation="list",status="success"} 1`,
		`logbook_db_operations_total{operation="get",status="success"} 1`,
		`logbook_db_operations_total{operation="update",status="success"} 1`,
		`logbook_db_operations_total{operation="delete",status="success"} 1`,
		`logbook_schema_version 2`,
	} {
		assert.Contains(t, body, want)
	}
}

func TestStoreWithoutMetricsManager(t *testing.T) {
	ctx := context.Background()
	inner, err := New(testConfig(t))
	require.NoError(t, err)
	store := NewStoreWithMetrics(inner, nil)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Connect(ctx))
	require.NoError(t, store.Migrate(ctx))
	_, err = store.Create(ctx, "Engine off", 52.0, 4.3)
	assert.NoError(t, err)
}
