package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a disposable database named by LOGBOOK_TEST_POSTGRES_DSN.
func TestPostgreSQLStorage(t *testing.T) {
	dsn := os.Getenv("LOGBOOK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LOGBOOK_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	cfg := &StorageConfig{
		Type:             "postgres",
		ConnectionString: dsn,
		MaxConnections:   4,
		MaxIdleTime:      time.Minute,
	}

	store := openTestStore(t, cfg)
	pg := store.(*sqlStore)
	_, err := pg.db.ExecContext(ctx, `DELETE FROM logs`)
	require.NoError(t, err)

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, TargetVersion, version)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	id, err := store.Create(ctx, "Hoist sails", 52.0, 4.3)
	require.NoError(t, err)

	entry, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Hoist sails", entry.Entry)
	assert.Equal(t, entry.Timestamp, entry.UpdatedAt)

	require.NoError(t, store.Update(ctx, id, "Hoist sails - done"))
	updated, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hoist sails - done", updated.Entry)
	assert.Greater(t, updated.UpdatedAt, entry.UpdatedAt)
	assert.Equal(t, entry.Timestamp, updated.Timestamp)

	_, err = pg.db.ExecContext(ctx, `UPDATE logs SET updated_at = '2999-01-01T00:00:00.000Z' WHERE id = $1`, id)
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, id, "Hoist sails - reefed"))
	updated, err = store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2999-01-01T00:00:00.001Z", updated.UpdatedAt)

	require.NoError(t, store.Delete(ctx, id))
	require.NoError(t, store.Delete(ctx, id))
	gone, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// A second open against the same database is a migration no-op.
	again := openTestStore(t, cfg)
	version, err = again.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, TargetVersion, version)
}

func TestPostgresDescribeError(t *testing.T) {
	d := postgresDialect{}

	pqErr := &pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "logs_pkey"`}
	assert.Equal(t, `duplicate key value violates unique constraint "logs_pkey" (23505 unique_violation)`,
		d.describeError(fmt.Errorf("exec: %w", pqErr)))

	assert.Equal(t, "connection refused", d.describeError(errors.New("connection refused")))
}
