// File: internal/storage/factory.go
package storage

import (
	"context"
	"strings"
	"time"

	"github.com/smartdevs17/sail-logbook/internal/config"
	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

var supportedTypes = []string{"sqlite", "postgres", "postgresql"}

// FromConfig converts the application storage section into a StorageConfig
func FromConfig(cfg *config.StorageConfig) *StorageConfig {
	return &StorageConfig{
		Type:             cfg.Type,
		ConnectionString: cfg.ConnectionString,
		MaxConnections:   cfg.MaxConnections,
		MaxIdleTime:      cfg.MaxIdleTime,
		BusyTimeout:      cfg.BusyTimeout,
	}
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg *config.StorageConfig) (Store, error) {
	return New(FromConfig(cfg))
}

// New creates an unconnected store for cfg.Type
func New(cfg *StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "sqlite":
		return NewSQLiteStorage(cfg), nil
	case "postgres", "postgresql":
		return NewPostgreSQLStorage(cfg), nil
	default:
		return nil, utils.NewAppError(utils.ErrCodeConfiguration,
			"Unsupported storage type", cfg.Type)
	}
}

// Open creates, connects and migrates a store. The returned store is ready
// for CRUD operations; on any failure nothing is left open.
func Open(ctx context.Context, cfg *StorageConfig) (Store, error) {
	store, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.Connect(ctx); err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

// ValidateStorageConfig validates storage configuration
func ValidateStorageConfig(cfg *config.StorageConfig) error {
	if cfg.Type == "" {
		return utils.NewAppError(utils.ErrCodeConfiguration, "Storage type is required", "")
	}

	if cfg.ConnectionString == "" {
		return utils.NewAppError(utils.ErrCodeConfiguration, "Storage connection string is required", "")
	}

	if cfg.MaxConnections <= 0 {
		return utils.NewAppError(utils.ErrCodeConfiguration, "Max connections must be positive", "")
	}

	supported := false
	for _, t := range supportedTypes {
		if strings.ToLower(cfg.Type) == t {
			supported = true
			break
		}
	}

	if !supported {
		return utils.NewAppError(utils.ErrCodeConfiguration,
			"Unsupported storage type",
			"Supported types: "+strings.Join(supportedTypes, ", "))
	}

	return nil
}

// GetDefaultStorageConfig returns default storage configuration
func GetDefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		Type:             "sqlite",
		ConnectionString: "./data/logbook.db",
		MaxConnections:   1,
		MaxIdleTime:      15 * time.Minute,
		BusyTimeout:      5 * time.Second,
	}
}
