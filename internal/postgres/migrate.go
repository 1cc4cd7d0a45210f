package postgres

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration is one versioned schema change
type Migration struct {
	Version string
	SQL     string
}

// Migrations returns the embedded schema migrations in apply order
func Migrations() ([]Migration, error) {
	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	migrations := make([]Migration, 0, len(files))
	for _, f := range files {
		content, err := migrationFS.ReadFile(f)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, Migration{
			Version: f[len("migrations/") : len(f)-len(".sql")],
			SQL:     string(content),
		})
	}
	return migrations, nil
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    VARCHAR(100) PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// migrationLockID is the advisory lock key serialising concurrent migration runs
const migrationLockID int64 = 7263510

// Migrate applies every embedded migration that has not been recorded yet.
// Each migration runs in its own transaction together with its bookkeeping row,
// under a transaction scoped advisory lock so that replicas starting together
// apply each version once.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to create schema_migrations table").
			Mark(ierr.ErrDatabase)
	}

	migrations, err := Migrations()
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to load migrations").
			Mark(ierr.ErrSystem)
	}

	var applied []string
	for _, m := range migrations {
		var ran bool
		err := db.WithTx(ctx, func(ctx context.Context) error {
			if _, err := db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
				return err
			}

			var count int
			if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM schema_migrations WHERE version = $1`, m.Version); err != nil {
				return err
			}
			if count > 0 {
				return nil
			}

			if _, err := db.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
				return err
			}
			ran = true
			return nil
		})
		if err != nil {
			return applied, ierr.WithError(err).
				WithMessagef("failed to apply migration %s", m.Version).
				Mark(ierr.ErrDatabase)
		}
		if !ran {
			continue
		}

		db.logger.Infow("applied migration", "version", m.Version)
		applied = append(applied, m.Version)
	}

	return applied, nil
}
