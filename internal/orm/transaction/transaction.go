// Package transaction runs writes inside database transactions. A
// transaction started by the manager travels in the context, so a nested
// WithTransaction joins it through a savepoint instead of opening a second
// connection.
package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrDeadlock is returned when retries are exhausted on deadlocks
	ErrDeadlock = errors.New("deadlock detected")
	// ErrTransactionTimeout is returned when a transaction exceeds its timeout
	ErrTransactionTimeout = errors.New("transaction timeout")
	// ErrTransactionDone is returned when committing or rolling back twice
	ErrTransactionDone = errors.New("transaction already finished")
)

// savepointCounter provides unique savepoint names across transactions
var savepointCounter atomic.Uint64

// IsolationLevel represents the transaction isolation level
type IsolationLevel int

const (
	// ReadCommitted prevents dirty reads (PostgreSQL default)
	ReadCommitted IsolationLevel = iota
	// RepeatableRead prevents non-repeatable reads
	RepeatableRead
	// Serializable provides full isolation
	Serializable
	// Default leaves the isolation to the driver, as SQLite requires
	Default
)

// String returns the SQL name of the isolation level
func (l IsolationLevel) String() string {
	switch l {
	case RepeatableRead:
		return "REPEATABLE READ"
	case Serializable:
		return "SERIALIZABLE"
	case Default:
		return "DEFAULT"
	default:
		return "READ COMMITTED"
	}
}

// ToSQLOptions converts IsolationLevel to sql.TxOptions
func (l IsolationLevel) ToSQLOptions() *sql.TxOptions {
	switch l {
	case RepeatableRead:
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	case Serializable:
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	case Default:
		return nil
	default:
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
}

// Transaction is a database transaction, or a savepoint inside one
type Transaction struct {
	tx            *sql.Tx
	level         int
	savepointName string
	done          atomic.Bool
}

// Tx returns the underlying sql.Tx
func (t *Transaction) Tx() *sql.Tx {
	return t.tx
}

// Level returns 0 for a top-level transaction and the nesting depth of
// savepoints otherwise
func (t *Transaction) Level() int {
	return t.level
}

// Commit commits the transaction or releases the savepoint
func (t *Transaction) Commit(ctx context.Context) error {
	if !t.done.CompareAndSwap(false, true) {
		return ErrTransactionDone
	}
	if t.level > 0 {
		if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+t.savepointName); err != nil {
			return fmt.Errorf("failed to release savepoint: %w", err)
		}
		return nil
	}
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls the transaction back, or back to the savepoint. Rolling
// back a finished transaction is a no-op.
func (t *Transaction) Rollback(ctx context.Context) error {
	if !t.done.CompareAndSwap(false, true) {
		return nil
	}
	if t.level > 0 {
		if _, err := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+t.savepointName); err != nil {
			return fmt.Errorf("failed to rollback to savepoint: %w", err)
		}
		return nil
	}
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// Manager manages database transactions
type Manager struct {
	db        *sql.DB
	isolation IsolationLevel
	retry     *RetryConfig
	logger    *zap.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithIsolation sets the isolation level of top-level transactions
func WithIsolation(level IsolationLevel) Option {
	return func(m *Manager) { m.isolation = level }
}

// WithRetryConfig retries deadlocked and serialization-failed transactions
func WithRetryConfig(cfg *RetryConfig) Option {
	return func(m *Manager) { m.retry = cfg }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a new transaction manager
func NewManager(db *sql.DB, opts ...Option) *Manager {
	m := &Manager{db: db, isolation: ReadCommitted, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts a transaction, or a savepoint when ctx already carries one
func (m *Manager) Begin(ctx context.Context) (*Transaction, error) {
	if parent, ok := FromContext(ctx); ok {
		name := fmt.Sprintf("sp_%d_%d", savepointCounter.Add(1), parent.level+1)
		if _, err := parent.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
			return nil, fmt.Errorf("failed to create savepoint: %w", err)
		}
		return &Transaction{tx: parent.tx, level: parent.level + 1, savepointName: name}, nil
	}

	tx, err := m.db.BeginTx(ctx, m.isolation.ToSQLOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Transaction{tx: tx}, nil
}

// WithTransaction runs fn in a transaction, committing when it returns nil
// and rolling back otherwise. The context given to fn carries the
// transaction. Top-level transactions are retried per the retry config.
func (m *Manager) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if _, nested := FromContext(ctx); nested || m.retry == nil {
		return m.run(ctx, fn)
	}
	return m.withRetry(ctx, fn)
}

// WithTimeout runs WithTransaction bounded by timeout
func (m *Manager) WithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, tx *sql.Tx) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := m.WithTransaction(timeoutCtx, fn)
	if err != nil && errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: transaction exceeded %v", ErrTransactionTimeout, timeout)
	}
	return err
}

func (m *Manager) run(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	t, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = t.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(WithContext(ctx, t), t.tx); err != nil {
		if rbErr := t.Rollback(ctx); rbErr != nil {
			m.logger.Error("rollback failed", zap.Error(rbErr))
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}
	return t.Commit(ctx)
}
