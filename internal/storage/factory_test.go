package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/sail-logbook/internal/config"
	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

func TestNewSelectsBackend(t *testing.T) {
	store, err := New(&StorageConfig{Type: "sqlite"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", store.(*sqlStore).dialect.name())

	store, err = New(&StorageConfig{Type: "PostgreSQL"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", store.(*sqlStore).dialect.name())

	_, err = New(&StorageConfig{Type: "mysql"})
	require.Error(t, err)
	assert.True(t, utils.HasCode(err, utils.ErrCodeConfiguration))
}

func TestNewStorageFromAppConfig(t *testing.T) {
	ctx := context.Background()
	cfg := &config.StorageConfig{
		Type:             "sqlite",
		ConnectionString: t.TempDir() + "/logbook.db",
		MaxConnections:   1,
	}
	require.NoError(t, ValidateStorageConfig(cfg))

	store, err := NewStorage(cfg)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Connect(ctx))
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Ping(ctx))
}

func TestValidateStorageConfig(t *testing.T) {
	cases := map[string]*config.StorageConfig{
		"missing type":       {ConnectionString: "x", MaxConnections: 1},
		"missing connection": {Type: "sqlite", MaxConnections: 1},
		"zero connections":   {Type: "sqlite", ConnectionString: "x"},
		"unsupported":        {Type: "mysql", ConnectionString: "x", MaxConnections: 1},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateStorageConfig(cfg)
			require.Error(t, err)
			assert.True(t, utils.HasCode(err, utils.ErrCodeConfiguration))
		})
	}
}

func TestOpenFailsOnUnreachableSQLitePath(t *testing.T) {
	cfg := testConfig(t)
	// A regular file where the parent directory should be.
	cfg.ConnectionString = "/dev/null/logbook.db"

	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}

func TestTimestampSourceIsStrictlyIncreasing(t *testing.T) {
	src := newTimestampSource(func() time.Time { return fixedNow })
	first := src.Next()
	second := src.Next()
	third := src.Next()

	assert.Equal(t, "2024-05-01T07:30:00.000Z", first)
	assert.Equal(t, "2024-05-01T07:30:00.001Z", second)
	assert.Equal(t, "2024-05-01T07:30:00.002Z", third)
}

func TestTimestampSourceObserve(t *testing.T) {
	src := newTimestampSource(func() time.Time { return fixedNow })

	src.Observe(fixedNow.Add(-time.Hour))
	assert.Equal(t, "2024-05-01T07:30:00.000Z", src.Next())

	src.Observe(fixedNow.Add(2 * time.Second))
	assert.Equal(t, "2024-05-01T07:30:02.001Z", src.Next())
}
