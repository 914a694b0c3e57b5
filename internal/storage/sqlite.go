// File: internal/storage/sqlite.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const memoryDatabase = ":memory:"

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(config *StorageConfig) Store {
	return newSQLStore(config, sqliteDialect{})
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) migrations() []*Migration { return SQLiteMigrations() }

func (sqliteDialect) open(cfg *StorageConfig) (*sqlx.DB, error) {
	path := cfg.ConnectionString

	// Ensure directory exists
	if path != memoryDatabase {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to create database directory", err.Error())
			}
		}
	}

	db, err := sqlx.Open("sqlite", sqliteDSN(path, cfg))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to open SQLite database", err.Error())
	}

	// A single connection serializes writes inside the process. Every
	// connection to :memory: gets its own empty database, so it is pinned to one.
	maxConns := cfg.MaxConnections
	if maxConns <= 0 || path == memoryDatabase {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	if path != memoryDatabase {
		db.SetConnMaxIdleTime(cfg.MaxIdleTime)
	}

	return db, nil
}

// sqliteDSN appends per-connection pragmas understood by the modernc driver
func sqliteDSN(path string, cfg *StorageConfig) string {
	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()),
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

func (sqliteDialect) listQuery() string {
	return `SELECT id, entry, latitude, longitude, timestamp, updated_at FROM logs ORDER BY timestamp DESC, rowid DESC`
}

func (sqliteDialect) updateQuery() string {
	return `UPDATE logs
		SET entry = ?,
			updated_at = MAX(?, strftime('%Y-%m-%dT%H:%M:%fZ', julianday(updated_at) + 0.001 / 86400.0))
		WHERE id = ?`
}

func (sqliteDialect) readVersion(ctx context.Context, db *sqlx.DB) (int, error) {
	var version int
	if err := db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return 0, err
	}
	return version, nil
}

// writeVersion updates the header field; it is journaled with the enclosing transaction
func (sqliteDialect) writeVersion(ctx context.Context, tx *sqlx.Tx, version int) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version))
	return err
}

func (sqliteDialect) describeError(err error) string {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return fmt.Sprintf("%s (code %d)", sqliteErr.Error(), sqliteErr.Code())
	}
	return err.Error()
}
