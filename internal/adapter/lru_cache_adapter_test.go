package adapter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"medmonics/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheAdapter(t *testing.T) {
	ctx := context.Background()
	cache := NewLRUCacheAdapter(2, time.Hour)

	_, err := cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "a", "1", 0))
	val, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", val)

	require.NoError(t, cache.Delete(ctx, "a"))
	_, err = cache.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.NoError(t, cache.Delete(ctx, "a"))

	assert.NoError(t, cache.Ping(ctx))
}

func TestLRUCacheAdapter_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	cache := NewLRUCacheAdapter(2, time.Hour)

	for i := 0; i < 3; i++ {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("k%d", i), "v", 0))
	}

	_, err := cache.Get(ctx, "k0")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	_, err = cache.Get(ctx, "k2")
	assert.NoError(t, err)
}

func TestLRUCacheAdapter_Expires(t *testing.T) {
	ctx := context.Background()
	cache := NewLRUCacheAdapter(2, 20*time.Millisecond)

	require.NoError(t, cache.Set(ctx, "a", "1", 0))
	assert.Eventually(t, func() bool {
		_, err := cache.Get(ctx, "a")
		return err == domain.ErrCacheMiss
	}, time.Second, 10*time.Millisecond)
}
