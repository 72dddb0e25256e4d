package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Migration represents a single database migration
type Migration struct {
	Version   int64
	Name      string
	Up        string
	Down      string
	Applied   bool
	AppliedAt time.Time
}

// Tracker manages migration history in the schema_migrations table
type Tracker struct {
	db *sql.DB
}

// NewTracker creates a new migration tracker
func NewTracker(db *sql.DB) *Tracker {
	return &Tracker{db: db}
}

// Initialize ensures the schema_migrations table exists
func (t *Tracker) Initialize(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	up_sql TEXT,
	down_sql TEXT
)`
	if _, err := t.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to initialize migrations table: %w", err)
	}
	return nil
}

// Applied returns all applied migrations sorted by version
func (t *Tracker) Applied(ctx context.Context) ([]*Migration, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT version, name, applied_at, up_sql, down_sql FROM schema_migrations ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var migrations []*Migration
	for rows.Next() {
		m, err := scanMigration(rows)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migrations: %w", err)
	}
	return migrations, nil
}

// Last returns the most recently applied migration, or nil if none exist
func (t *Tracker) Last(ctx context.Context) (*Migration, error) {
	row := t.db.QueryRowContext(ctx, `SELECT version, name, applied_at, up_sql, down_sql FROM schema_migrations ORDER BY version DESC LIMIT 1`)
	m, err := scanMigration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// Record marks a migration as applied
func (t *Tracker) Record(ctx context.Context, tx *sql.Tx, m *Migration) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, up_sql, down_sql) VALUES ($1, $2, $3, $4)`,
		m.Version, m.Name, m.Up, m.Down)
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// Remove removes a migration record
func (t *Tracker) Remove(ctx context.Context, tx *sql.Tx, version int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, version)
	if err != nil {
		return fmt.Errorf("failed to remove migration: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("migration version %d not found", version)
	}
	return nil
}

// Pending returns the migrations of all that haven't been applied yet
func (t *Tracker) Pending(ctx context.Context, all []*Migration) ([]*Migration, error) {
	applied, err := t.Applied(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(applied))
	for _, m := range applied {
		seen[m.Version] = true
	}

	var pending []*Migration
	for _, m := range all {
		if !seen[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMigration(s scanner) (*Migration, error) {
	m := &Migration{Applied: true}
	var upSQL, downSQL sql.NullString
	if err := s.Scan(&m.Version, &m.Name, &m.AppliedAt, &upSQL, &downSQL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan migration: %w", err)
	}
	m.Up = upSQL.String
	m.Down = downSQL.String
	return m, nil
}
