package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

// NewPostgreSQLStorage creates a new PostgreSQL storage instance
func NewPostgreSQLStorage(config *StorageConfig) Store {
	return newSQLStore(config, postgresDialect{})
}

type postgresDialect struct{}

func (postgresDialect) name() string { return "postgres" }

func (postgresDialect) migrations() []*Migration { return PostgresMigrations() }

func (postgresDialect) open(cfg *StorageConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.ConnectionString)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to open PostgreSQL database", err.Error())
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections / 2)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	return db, nil
}

func (postgresDialect) listQuery() string {
	return `SELECT id, entry, latitude, longitude, timestamp, updated_at FROM logs ORDER BY timestamp DESC, id DESC`
}

func (postgresDialect) updateQuery() string {
	return `UPDATE logs
		SET entry = ?,
			updated_at = GREATEST(?, to_char((updated_at::timestamptz + interval '1 millisecond') AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.MS"Z"'))
		WHERE id = ?`
}

const (
	createVersionTableSQL = `CREATE TABLE IF NOT EXISTS schema_version (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL
	)`
	upsertVersionSQL = `INSERT INTO schema_version (id, version) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version`
)

func (postgresDialect) readVersion(ctx context.Context, db *sqlx.DB) (int, error) {
	if _, err := db.ExecContext(ctx, createVersionTableSQL); err != nil {
		return 0, err
	}

	var version int
	err := db.GetContext(ctx, &version, `SELECT version FROM schema_version WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

func (postgresDialect) writeVersion(ctx context.Context, tx *sqlx.Tx, version int) error {
	_, err := tx.ExecContext(ctx, upsertVersionSQL, version)
	return err
}

func (postgresDialect) describeError(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Sprintf("%s (%s %s)", pqErr.Message, pqErr.Code, pqErr.Code.Name())
	}
	return err.Error()
}
