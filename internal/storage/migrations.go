package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

// Migration is one versioned schema step. Statements of a step are applied
// in a single transaction together with the new version number.
type Migration struct {
	Version     int
	Description string
	Statements  []string
}

// TargetVersion is the schema version this build expects
const TargetVersion = 2

// versionTracker reads and writes the durable schema version marker
type versionTracker interface {
	readVersion(ctx context.Context, db *sqlx.DB) (int, error)
	writeVersion(ctx context.Context, tx *sqlx.Tx, version int) error
}

// RunMigrations brings db from its recorded version up to target. It is a
// no-op when the recorded version is already at or past target. Each step
// commits with its version, so a failure leaves the version at the last
// completed step and the next run resumes from there.
func RunMigrations(ctx context.Context, db *sqlx.DB, tracker versionTracker, migrations []*Migration, target int, logger *logrus.Entry) error {
	if err := checkMigrations(migrations, target); err != nil {
		return err
	}

	current, err := tracker.readVersion(ctx, db)
	if err != nil {
		return utils.WrapAppError(utils.ErrCodeMigration, "Failed to read schema version", err)
	}

	if current >= target {
		logger.WithField("version", current).Debug("Schema is up to date")
		return nil
	}

	logger.WithFields(logrus.Fields{
		"from": current,
		"to":   target,
	}).Info("Migrating database")

	for _, migration := range migrations {
		if migration.Version <= current || migration.Version > target {
			continue
		}

		logger.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("Applying migration")

		if err := applyMigration(ctx, db, tracker, migration); err != nil {
			return utils.WrapAppError(utils.ErrCodeMigration,
				fmt.Sprintf("Migration %d failed", migration.Version), err)
		}
	}

	logger.WithField("version", target).Info("Database migrations completed")
	return nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, tracker versionTracker, migration *Migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range migration.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if err := tracker.writeVersion(ctx, tx, migration.Version); err != nil {
		return err
	}

	return tx.Commit()
}

// checkMigrations requires versions 1..target to be present exactly once and in order
func checkMigrations(migrations []*Migration, target int) error {
	if target < 0 {
		return utils.NewAppError(utils.ErrCodeMigration, "Invalid target version", fmt.Sprint(target))
	}

	for i, migration := range migrations {
		if migration.Version != i+1 {
			return utils.NewAppError(utils.ErrCodeMigration, "Migration list is not contiguous",
				fmt.Sprintf("position %d has version %d", i, migration.Version))
		}
	}

	if target > len(migrations) {
		return utils.NewAppError(utils.ErrCodeMigration, "Missing migrations",
			fmt.Sprintf("target %d, highest %d", target, len(migrations)))
	}

	return nil
}

// SQLiteMigrations returns SQLite migration steps
func SQLiteMigrations() []*Migration {
	return []*Migration{
		{
			Version:     1,
			Description: "Create logs table",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS logs (
					id TEXT PRIMARY KEY NOT NULL,
					entry TEXT NOT NULL,
					latitude REAL NOT NULL,
					longitude REAL NOT NULL,
					timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
					updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
				)`,
				// Refreshes updated_at for writers that change entry without setting it.
				`CREATE TRIGGER IF NOT EXISTS update_logs_timestamp
				AFTER UPDATE OF entry ON logs
				FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at
				BEGIN
					UPDATE logs
					SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
					WHERE id = OLD.id;
				END`,
			},
		},
		{
			Version:     2,
			Description: "Index logs by timestamp",
			Statements: []string{
				`CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp)`,
			},
		},
	}
}

// PostgresMigrations returns PostgreSQL migration steps
func PostgresMigrations() []*Migration {
	return []*Migration{
		{
			Version:     1,
			Description: "Create logs table",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS logs (
					id TEXT PRIMARY KEY,
					entry TEXT NOT NULL,
					latitude DOUBLE PRECISION NOT NULL,
					longitude DOUBLE PRECISION NOT NULL,
					timestamp TEXT NOT NULL DEFAULT to_char(now() AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.MS"Z"'),
					updated_at TEXT NOT NULL DEFAULT to_char(now() AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.MS"Z"')
				)`,
				`CREATE OR REPLACE FUNCTION logs_refresh_updated_at() RETURNS trigger AS $$
				BEGIN
					IF NEW.updated_at = OLD.updated_at THEN
						NEW.updated_at := to_char(clock_timestamp() AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.MS"Z"');
					END IF;
					RETURN NEW;
				END;
				$$ LANGUAGE plpgsql`,
				`DROP TRIGGER IF EXISTS update_logs_timestamp ON logs`,
				`CREATE TRIGGER update_logs_timestamp
				BEFORE UPDATE OF entry ON logs
				FOR EACH ROW EXECUTE PROCEDURE logs_refresh_updated_at()`,
			},
		},
		{
			Version:     2,
			Description: "Index logs by timestamp",
			Statements: []string{
				`CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp)`,
			},
		},
	}
}
