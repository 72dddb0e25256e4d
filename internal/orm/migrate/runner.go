package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Foxprodev/core/internal/orm/transaction"
	"go.uber.org/zap"
)

// Runner applies and rolls back migrations, each in its own transaction
type Runner struct {
	tracker *Tracker
	tx      *transaction.Manager
	logger  *zap.Logger
}

// NewRunner creates a new migration runner
func NewRunner(db *sql.DB, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		tracker: NewTracker(db),
		tx:      transaction.NewManager(db, transaction.WithLogger(logger)),
		logger:  logger,
	}
}

// Up applies the pending migrations of all in version order and returns
// how many were applied
func (r *Runner) Up(ctx context.Context, all []*Migration) (int, error) {
	if err := r.tracker.Initialize(ctx); err != nil {
		return 0, err
	}
	pending, err := r.tracker.Pending(ctx, all)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending migrations: %w", err)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for i, m := range pending {
		if err := r.apply(ctx, m); err != nil {
			return i, fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
	}
	return len(pending), nil
}

// Down rolls back the last applied migration
func (r *Runner) Down(ctx context.Context) (*Migration, error) {
	if err := r.tracker.Initialize(ctx); err != nil {
		return nil, err
	}
	last, err := r.tracker.Last(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last migration: %w", err)
	}
	if last == nil {
		return nil, fmt.Errorf("no migrations to rollback")
	}
	if last.Down == "" {
		return nil, fmt.Errorf("migration %s has no down migration", last.Name)
	}

	start := time.Now()
	err = r.tx.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := execAll(ctx, tx, last.Down); err != nil {
			return fmt.Errorf("failed to execute rollback SQL: %w", err)
		}
		return r.tracker.Remove(ctx, tx, last.Version)
	})
	if err != nil {
		return nil, fmt.Errorf("rollback failed: %w", err)
	}
	r.logger.Info("rolled back migration", zap.String("name", last.Name), zap.Duration("took", time.Since(start)))
	return last, nil
}

// Status returns the current migration status
func (r *Runner) Status(ctx context.Context, all []*Migration) (*Status, error) {
	if err := r.tracker.Initialize(ctx); err != nil {
		return nil, err
	}
	applied, err := r.tracker.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	pending, err := r.tracker.Pending(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending migrations: %w", err)
	}

	status := &Status{Total: len(all), Applied: applied, Pending: pending}
	if len(applied) > 0 {
		status.LastApplied = applied[len(applied)-1]
	}
	return status, nil
}

func (r *Runner) apply(ctx context.Context, m *Migration) error {
	if m.Up == "" {
		return fmt.Errorf("migration has no up SQL")
	}

	start := time.Now()
	err := r.tx.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := execAll(ctx, tx, m.Up); err != nil {
			return fmt.Errorf("failed to execute migration SQL: %w", err)
		}
		return r.tracker.Record(ctx, tx, m)
	})
	if err != nil {
		return err
	}
	r.logger.Info("applied migration", zap.String("name", m.Name), zap.Int64("version", m.Version), zap.Duration("took", time.Since(start)))
	return nil
}

// execAll runs the statements of script one by one. Statements end with a
// semicolon at the end of a line.
func execAll(ctx context.Context, tx *sql.Tx, script string) error {
	for _, stmt := range SplitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SplitStatements splits a script on semicolons ending a line
func SplitStatements(script string) []string {
	var out []string
	var current strings.Builder
	for _, line := range strings.Split(script, "\n") {
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != ";" {
				out = append(out, strings.TrimSuffix(stmt, ";"))
			}
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

// Status represents the current state of migrations
type Status struct {
	Total       int
	Applied     []*Migration
	Pending     []*Migration
	LastApplied *Migration
}

// Summary returns a human-readable summary
func (s *Status) Summary() string {
	return fmt.Sprintf("Total: %d migrations (%d applied, %d pending)", s.Total, len(s.Applied), len(s.Pending))
}
