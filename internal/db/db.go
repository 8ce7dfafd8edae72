// Package db opens the engagement store. Postgres (pgx) and SQLite share one
// SQL dialect subset: `$n` placeholders, ON CONFLICT and RFC 3339 timestamps.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// NormalizeDriver accepts the common aliases of the supported drivers.
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "pgx", "postgres", "postgresql":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// Open connects and pings the database. SQLite gets a single connection:
// it has one writer and every mutation here is a short statement or
// transaction.
func Open(ctx context.Context, driver, connection string) (*sqlx.DB, error) {
	driver, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		if err := ensureDataDir(connection); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch driver {
	case DriverSQLite:
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected", "driver", driver)
	return db, nil
}

func ensureDataDir(connection string) error {
	path := strings.TrimPrefix(connection, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
