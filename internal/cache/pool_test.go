package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Foxprodev/core/internal/cli/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	pool, closer, err := Open(ctx, config.CacheConfig{Adapter: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, pool)
	assert.NoError(t, closer())

	pool, closer, err = Open(ctx, config.CacheConfig{Adapter: "none"})
	require.NoError(t, err)
	assert.Equal(t, Nop{}, pool)
	assert.NoError(t, closer())

	_, _, err = Open(ctx, config.CacheConfig{Adapter: "memcached"})
	assert.EqualError(t, err, `unknown cache adapter "memcached"`)
}

func TestOpen_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	pool, closer, err := Open(ctx, config.CacheConfig{Adapter: "redis", RedisURL: "redis://" + mr.Addr() + "/0", TTL: time.Minute})
	require.NoError(t, err)
	defer closer()

	require.IsType(t, &RedisCache{}, pool)
	require.NoError(t, pool.Set(ctx, "k", []byte("v"), 0))
	got, err := pool.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	_, _, err = Open(ctx, config.CacheConfig{Adapter: "redis", RedisURL: "not a url"})
	assert.ErrorContains(t, err, "invalid cache.redis_url")
}
