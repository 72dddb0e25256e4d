package cache

import (
	"context"
	"fmt"

	"github.com/Foxprodev/core/internal/cli/config"
	"github.com/redis/go-redis/v9"
)

// Open returns the pool the cache section of the configuration selects
// and a function releasing it
func Open(ctx context.Context, cfg config.CacheConfig) (Cache, func() error, error) {
	common := DefaultConfig()
	if cfg.Prefix != "" {
		common.Prefix = cfg.Prefix
	}
	if cfg.TTL != 0 {
		common.DefaultTTL = cfg.TTL
	}

	switch cfg.Adapter {
	case "", "memory":
		pool := NewMemoryCacheWithConfig(common)
		return pool, pool.Close, nil
	case "none":
		return Nop{}, func() error { return nil }, nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cache.redis_url: %w", err)
		}
		pool, err := NewRedisCache(ctx, RedisConfig{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
			Cache:    common,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return pool, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown cache adapter %q", cfg.Adapter)
}
