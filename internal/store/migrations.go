package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Pipeline run log",
		SQL: `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME NOT NULL,
    deliveries_source TEXT,
    matches_source TEXT,
    venues_source TEXT,
    row_count INTEGER NOT NULL,
    column_count INTEGER NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "Weather backend used per run",
		SQL: `
ALTER TABLE runs ADD COLUMN weather_mode TEXT;
`,
	},
}

// Migrate brings the run log schema up to date. The features table is not
// migrated: it is rebuilt by every WriteFeatures call.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`); err != nil {
		return errors.Wrap(err, "ensure migrations table")
	}

	current, err := s.MigrationVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "read schema version")
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
		s.log.Debug("migration applied", zap.Int("version", m.Version), zap.String("description", m.Description))
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "begin tx for migration %d", m.Version)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return errors.Wrapf(err, "execute migration %d", m.Version)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
		m.Version, m.Description, time.Now().UTC(),
	); err != nil {
		return errors.Wrapf(err, "record migration %d", m.Version)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit migration %d", m.Version)
	}
	return nil
}

// MigrationVersion returns the highest applied migration, 0 for a new file.
func (s *Store) MigrationVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}
