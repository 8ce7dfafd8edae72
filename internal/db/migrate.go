package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// dialects maps database drivers to goose dialects.
var dialects = map[string]goose.Dialect{
	DriverSQLite:   goose.DialectSQLite3,
	DriverPostgres: goose.DialectPostgres,
}

// MigrationState is one row of `engage migrate status`.
type MigrationState struct {
	Version int64
	Path    string
	Applied bool
}

// newProvider builds a goose provider over the embedded migrations. Providers
// carry no global state, so several databases can migrate concurrently.
func newProvider(db *sql.DB, driver string) (*goose.Provider, error) {
	driver, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	dialect, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("no migration dialect for driver %q", driver)
	}

	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}

	return goose.NewProvider(dialect, db, migrations)
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	p, err := newProvider(db, driver)
	if err != nil {
		return err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, r := range results {
		slog.Info("migration applied", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
	}
	slog.Debug("migrations up to date", "applied", len(results))
	return nil
}

// Rollback reverts the latest applied migration. It is a no-op on an empty
// schema.
func Rollback(ctx context.Context, db *sql.DB, driver string) error {
	p, err := newProvider(db, driver)
	if err != nil {
		return err
	}

	r, err := p.Down(ctx)
	if errors.Is(err, goose.ErrNoNextVersion) {
		slog.Info("nothing to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	slog.Info("migration rolled back", "version", r.Source.Version)
	return nil
}

func Status(ctx context.Context, db *sql.DB, driver string) ([]MigrationState, error) {
	p, err := newProvider(db, driver)
	if err != nil {
		return nil, err
	}

	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	out := make([]MigrationState, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationState{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
