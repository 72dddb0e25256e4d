package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCacheMiss(t *testing.T) {
	assert.True(t, IsCacheMiss(ErrCacheMiss{Key: "k"}))
	assert.True(t, IsCacheMiss(fmt.Errorf("wrapped: %w", ErrCacheMiss{Key: "k"})))
	assert.False(t, IsCacheMiss(assert.AnError))
	assert.Equal(t, "cache miss: k", ErrCacheMiss{Key: "k"}.Error())
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := c.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	a := Key("property_metadata_", "Dummy", "name", map[string]interface{}{"groups": []string{"a"}, "b": 1})
	b := Key("property_metadata_", "Dummy", "name", map[string]interface{}{"b": 1, "groups": []string{"a"}})
	c := Key("property_metadata_", "Dummy", "other", nil)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, len("property_metadata_")+64)
	assert.Contains(t, a, "property_metadata_")
}
