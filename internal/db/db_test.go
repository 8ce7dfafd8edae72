package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/heartline/internal/db"
)

func TestNormalizeDriver(t *testing.T) {
	tests := map[string]string{
		"sqlite":     db.DriverSQLite,
		"sqlite3":    db.DriverSQLite,
		"pgx":        db.DriverPostgres,
		"Postgres":   db.DriverPostgres,
		"postgresql": db.DriverPostgres,
	}
	for in, want := range tests {
		got, err := db.NormalizeDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := db.NormalizeDriver("mysql")
	assert.Error(t, err)
}

func TestMigrateRollbackStatus(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "data", "engage.db") + "?_pragma=foreign_keys(1)"

	conn, err := db.Open(ctx, "sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(ctx, conn.DB, db.DriverSQLite))
	// Re-running is a no-op.
	require.NoError(t, db.Migrate(ctx, conn.DB, db.DriverSQLite))

	states, err := db.Status(ctx, conn.DB, db.DriverSQLite)
	require.NoError(t, err)
	require.NotEmpty(t, states)
	for _, s := range states {
		assert.True(t, s.Applied, s.Path)
	}

	require.NoError(t, db.Rollback(ctx, conn.DB, db.DriverSQLite))
	states, err = db.Status(ctx, conn.DB, db.DriverSQLite)
	require.NoError(t, err)
	assert.False(t, states[len(states)-1].Applied)
	assert.True(t, states[0].Applied)
}
