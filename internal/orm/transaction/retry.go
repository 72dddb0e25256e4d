package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries is the default number of attempts
	DefaultMaxRetries = 3
	// DefaultBaseBackoff is the wait before the second attempt; it doubles
	// with each retry
	DefaultBaseBackoff = 100 * time.Millisecond
)

// RetryConfig configures retries of failed transactions
type RetryConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:  DefaultMaxRetries,
		BaseBackoff: DefaultBaseBackoff,
	}
}

func (m *Manager) withRetry(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	var lastErr error

	for attempt := 0; attempt < m.retry.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("transaction cancelled before retry %d: %w", attempt, ctx.Err())
		}

		err := m.run(ctx, fn)
		if err == nil || !IsRetryableError(err) {
			return err
		}
		lastErr = err
		m.logger.Warn("transaction failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))

		backoff := m.retry.BaseBackoff * time.Duration(1<<uint(attempt))
		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction cancelled during retry: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%w: transaction failed after %d retries: %v", ErrDeadlock, m.retry.MaxRetries, lastErr)
}

// IsRetryableError reports deadlocks (40P01) and serialization failures
// (40001), from pgx, lib/pq or any driver using the PostgreSQL messages
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40P01" || pqErr.Code == "40001"
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"deadlock detected", "deadlock found", "could not serialize access", "database is locked"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
