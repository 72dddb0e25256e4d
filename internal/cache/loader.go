package cache

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Loader memoizes JSON-encodable values in a process-local map backed by a
// pool. Pool failures are logged and absorbed: the value is computed
// directly and nothing is stored.
type Loader[T any] struct {
	name    string
	pool    Cache
	local   sync.Map
	logger  *zap.Logger
	metrics *Metrics
}

// NewLoader creates a loader. A nil pool disables the shared level.
func NewLoader[T any](name string, pool Cache, logger *zap.Logger, metrics *Metrics) *Loader[T] {
	if pool == nil {
		pool = Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader[T]{
		name:    name,
		pool:    pool,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns the value stored under key, calling compute on a miss.
func (l *Loader[T]) Get(ctx context.Context, key string, compute func() (T, error)) (T, error) {
	if v, ok := l.local.Load(key); ok {
		l.metrics.hit(l.name, "local")
		return v.(T), nil
	}

	data, err := l.pool.Get(ctx, key)
	switch {
	case err == nil:
		var value T
		decodeErr := json.Unmarshal(data, &value)
		if decodeErr == nil {
			l.metrics.hit(l.name, "pool")
			l.local.Store(key, value)
			return value, nil
		}
		l.logger.Warn("discarding undecodable cache item",
			zap.String("cache", l.name),
			zap.String("key", key),
			zap.Error(decodeErr))
	case !IsCacheMiss(err):
		l.metrics.failure(l.name, "get")
		l.logger.Warn("cache backend unavailable, computing without cache",
			zap.String("cache", l.name),
			zap.String("key", key),
			zap.Error(err))
		return compute()
	}

	l.metrics.miss(l.name)
	value, err := compute()
	if err != nil {
		return value, err
	}

	if payload, encodeErr := json.Marshal(value); encodeErr != nil {
		l.logger.Warn("value is not cacheable", zap.String("cache", l.name), zap.Error(encodeErr))
	} else if setErr := l.pool.Set(ctx, key, payload, 0); setErr != nil {
		l.metrics.failure(l.name, "set")
		l.logger.Warn("failed to save cache item",
			zap.String("cache", l.name),
			zap.String("key", key),
			zap.Error(setErr))
	}

	l.local.Store(key, value)
	return value, nil
}

// Reset drops the local level. The pool is left untouched.
func (l *Loader[T]) Reset() {
	l.local.Range(func(k, _ interface{}) bool {
		l.local.Delete(k)
		return true
	})
}
