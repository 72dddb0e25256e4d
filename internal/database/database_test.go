package database

import (
	"context"
	"testing"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/cli/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, config.DatabaseConfig{Driver: "sqlite3", URL: "file::memory:?cache=shared"}, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)

	_, err = db.ExecContext(ctx, "CREATE TABLE books (id INTEGER PRIMARY KEY, title TEXT NOT NULL)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO books (title) VALUES ($1)", "Dune")
	require.NoError(t, err)

	var title string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT title FROM books WHERE id = $1", 1).Scan(&title))
	assert.Equal(t, "Dune", title)
}

func TestOpen_InvalidConfig(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, config.DatabaseConfig{Driver: "mysql", URL: "root@/db"}, nil)
	assert.True(t, apierr.IsConfiguration(err))

	_, err = Open(ctx, config.DatabaseConfig{Driver: "pgx"}, nil)
	assert.True(t, apierr.IsConfiguration(err))
	assert.ErrorContains(t, err, "database.url is required")
}

func TestOpen_PoolSettings(t *testing.T) {
	pool := DefaultPoolConfig()
	pool.MaxOpenConns = 4

	db, err := OpenWithPool(context.Background(), config.DatabaseConfig{Driver: "sqlite3", URL: t.TempDir() + "/test.db"}, pool, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 4, db.Stats().MaxOpenConnections)
}

func TestDialectOf(t *testing.T) {
	tests := []struct {
		driver string
		want   Dialect
	}{
		{"pgx", Postgres},
		{"postgres", Postgres},
		{"sqlite3", SQLite},
	}
	for _, tt := range tests {
		got, err := DialectOf(tt.driver)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := DialectOf("oracle")
	assert.ErrorIs(t, err, apierr.ErrConfiguration)
}
