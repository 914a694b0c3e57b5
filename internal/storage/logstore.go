package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/sail-logbook/internal/models"
	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

// dialect holds everything that differs between the supported engines
type dialect interface {
	versionTracker

	name() string
	open(cfg *StorageConfig) (*sqlx.DB, error)
	migrations() []*Migration
	listQuery() string
	updateQuery() string
	describeError(err error) string
}

// sqlStore implements Store over database/sql with sqlx row mapping
type sqlStore struct {
	db      *sqlx.DB
	config  *StorageConfig
	dialect dialect
	logger  *logrus.Entry
	clock   *timestampSource

	migrated atomic.Bool
	closed   atomic.Bool
}

func newSQLStore(config *StorageConfig, d dialect) *sqlStore {
	return &sqlStore{
		config:  config,
		dialect: d,
		logger:  utils.ComponentLogger("storage").WithField("engine", d.name()),
		clock:   newTimestampSource(config.now),
	}
}

const (
	insertLogQuery = `INSERT INTO logs (id, entry, latitude, longitude, timestamp, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	getLogQuery    = `SELECT id, entry, latitude, longitude, timestamp, updated_at FROM logs WHERE id = ?`
	deleteLogQuery = `DELETE FROM logs WHERE id = ?`

	latestTimestampsQuery = `SELECT COALESCE(MAX(timestamp), '') AS latest_timestamp,
		COALESCE(MAX(updated_at), '') AS latest_update FROM logs`
)

// Connect opens the database handle
func (s *sqlStore) Connect(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	db, err := s.dialect.open(s.config)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to connect to database", s.dialect.describeError(err))
	}

	s.db = db
	s.logger.WithField("path", s.config.ConnectionString).Info("Database connected")
	return nil
}

// Migrate applies pending schema migrations. It runs at most once per handle.
func (s *sqlStore) Migrate(ctx context.Context) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	if s.migrated.Load() {
		return nil
	}

	migrations := s.config.migrations
	target := len(migrations)
	if migrations == nil {
		migrations = s.dialect.migrations()
		target = TargetVersion
	}

	if err := RunMigrations(ctx, s.db, s.dialect, migrations, target, s.logger); err != nil {
		return err
	}

	if err := s.seedClock(ctx); err != nil {
		s.logger.WithError(err).Warn("Could not read latest entry timestamps")
	}

	s.migrated.Store(true)
	return nil
}

// seedClock advances the timestamp source past every value already stored,
// including those written by earlier handles.
func (s *sqlStore) seedClock(ctx context.Context) error {
	var latest struct {
		Timestamp string `db:"latest_timestamp"`
		UpdatedAt string `db:"latest_update"`
	}
	if err := s.db.GetContext(ctx, &latest, latestTimestampsQuery); err != nil {
		return err
	}

	for _, value := range []string{latest.Timestamp, latest.UpdatedAt} {
		if value == "" {
			continue
		}
		t, err := utils.ParseTimestamp(value)
		if err != nil {
			return err
		}
		s.clock.Observe(t)
	}
	return nil
}

// SchemaVersion returns the recorded schema version
func (s *sqlStore) SchemaVersion(ctx context.Context) (int, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	version, err := s.dialect.readVersion(ctx, s.db)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrCodeStorageRead, "Failed to read schema version", s.dialect.describeError(err))
	}
	return version, nil
}

// Ping checks database connectivity
func (s *sqlStore) Ping(ctx context.Context) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	if s.db == nil || !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.db.Close()
	s.logger.Info("Database connection closed")
	return err
}

// Create inserts a new entry and returns its generated id
func (s *sqlStore) Create(ctx context.Context, entry string, latitude, longitude float64) (string, error) {
	if err := s.checkReady(); err != nil {
		return "", err
	}

	coord := models.Coordinate{Latitude: latitude, Longitude: longitude}
	if err := coord.Validate(); err != nil {
		return "", utils.NewAppError(utils.ErrCodeValidation, "Invalid coordinate", err.Error())
	}

	id, err := utils.NewLogID()
	if err != nil {
		return "", utils.NewAppError(utils.ErrCodeStorageWrite, "Failed to generate log id", err.Error())
	}
	now := s.clock.Next()

	_, err = s.db.ExecContext(ctx, s.db.Rebind(insertLogQuery), id, entry, latitude, longitude, now, now)
	if err != nil {
		return "", utils.NewAppError(utils.ErrCodeStorageWrite, "Failed to create log entry", s.dialect.describeError(err))
	}

	s.logger.WithFields(logrus.Fields{"id": id, "entry": entry}).Debug("Log entry created")
	return id, nil
}

// List returns all entries, most recent first
func (s *sqlStore) List(ctx context.Context) ([]*models.LogEntry, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	entries := []*models.LogEntry{}
	if err := s.db.SelectContext(ctx, &entries, s.dialect.listQuery()); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeStorageRead, "Failed to list log entries", s.dialect.describeError(err))
	}

	return entries, nil
}

// GetByID returns the entry with the given id, or nil when there is none
func (s *sqlStore) GetByID(ctx context.Context, id string) (*models.LogEntry, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	var entry models.LogEntry
	err := s.db.GetContext(ctx, &entry, s.db.Rebind(getLogQuery), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, utils.NewAppError(utils.ErrCodeStorageRead, "Failed to get log entry", s.dialect.describeError(err))
	}

	return &entry, nil
}

// Update replaces the entry text and refreshes updated_at in the same
// statement. The new updated_at is always later than the stored one, even
// when the clock is behind it. Updating an unknown id is not an error.
func (s *sqlStore) Update(ctx context.Context, id, entry string) error {
	if err := s.checkReady(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(s.dialect.updateQuery()), entry, s.clock.Next(), id)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeStorageWrite, "Failed to update log entry", s.dialect.describeError(err))
	}

	s.logAffected(res, id, "Log entry updated")
	return nil
}

// Delete removes the entry. Deleting an unknown id is not an error.
func (s *sqlStore) Delete(ctx context.Context, id string) error {
	if err := s.checkReady(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(deleteLogQuery), id)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeStorageWrite, "Failed to delete log entry", s.dialect.describeError(err))
	}

	s.logAffected(res, id, "Log entry deleted")
	return nil
}

func (s *sqlStore) logAffected(res sql.Result, id, msg string) {
	if !s.logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	affected, _ := res.RowsAffected()
	s.logger.WithFields(logrus.Fields{"id": id, "rows": affected}).Debug(msg)
}

func (s *sqlStore) checkConnected() error {
	if s.db == nil || s.closed.Load() {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return nil
}

// checkReady guards CRUD operations: migrations must have completed first
func (s *sqlStore) checkReady() error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	if !s.migrated.Load() {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not migrated", "")
	}
	return nil
}
