package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadWith(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "sail-logbook", cfg.App.Name)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "./data/logbook.db", cfg.Storage.ConnectionString)
	assert.Equal(t, 1, cfg.Storage.MaxConnections)
	assert.Equal(t, 5*time.Second, cfg.Storage.BusyTimeout)
	assert.Equal(t, "static", cfg.Location.Provider)
	assert.True(t, cfg.Location.PermissionGranted)
	assert.True(t, cfg.Location.ServicesEnabled)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "logbook.yaml")
	content := `
storage:
  connection_string: /var/lib/logbook/boat.db
location:
  latitude: 52.0
  longitude: 4.3
server:
  port: 9090
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("LOGBOOK_SERVER_PORT", "9191")
	t.Setenv("LOGBOOK_LOCATION_SERVICES_ENABLED", "false")

	cfg, err := LoadWith(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/logbook/boat.db", cfg.Storage.ConnectionString)
	assert.Equal(t, 52.0, cfg.Location.Latitude)
	assert.Equal(t, 4.3, cfg.Location.Longitude)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.False(t, cfg.Location.ServicesEnabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOGBOOK_STORAGE_TYPE=postgres\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LOGBOOK_STORAGE_TYPE") })

	cfg, err := LoadWith(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Type)
}

func TestLoadDatabaseURLOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://logbook@localhost/logbook?sslmode=disable")

	cfg, err := LoadWith(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "postgres://logbook@localhost/logbook?sslmode=disable", cfg.Storage.ConnectionString)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := LoadWith(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())

	base, err := LoadWith(viper.New(), "")
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"storage type":      func(c *Config) { c.Storage.Type = "mysql" },
		"connection string": func(c *Config) { c.Storage.ConnectionString = "" },
		"max connections":   func(c *Config) { c.Storage.MaxConnections = 0 },
		"provider":          func(c *Config) { c.Location.Provider = "gpsd" },
		"latitude":          func(c *Config) { c.Location.Latitude = 123 },
		"port":              func(c *Config) { c.Server.Port = 70000 },
		"log level":         func(c *Config) { c.Logging.Level = "loud" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := *base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
