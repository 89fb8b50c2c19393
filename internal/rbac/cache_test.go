package rbac

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheFixture(t *testing.T) (*BindingCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBindingCache(client, time.Minute), mr
}

func TestBindingCacheLoadsOnceUntilInvalidated(t *testing.T) {
	cache, _ := newCacheFixture(t)
	ctx := context.Background()

	var loads atomic.Int32
	load := func(context.Context) ([]string, error) {
		loads.Add(1)
		return []string{"reservations.view"}, nil
	}

	names, err := cache.Permissions(ctx, 1, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"reservations.view"}, names)

	names, err = cache.Permissions(ctx, 1, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"reservations.view"}, names)
	assert.Equal(t, int32(1), loads.Load())

	require.NoError(t, cache.Invalidate(ctx, 1))

	_, err = cache.Permissions(ctx, 1, load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())
}

func TestBindingCacheKeysAreScopedPerRole(t *testing.T) {
	cache, _ := newCacheFixture(t)
	ctx := context.Background()

	_, err := cache.Permissions(ctx, 1, func(context.Context) ([]string, error) {
		return []string{"reservations.view"}, nil
	})
	require.NoError(t, err)

	names, err := cache.Permissions(ctx, 2, func(context.Context) ([]string, error) {
		return []string{"payments.view"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"payments.view"}, names)
}

func TestBindingCacheFallsThroughWhenRedisDown(t *testing.T) {
	cache, mr := newCacheFixture(t)
	mr.Close()

	names, err := cache.Permissions(context.Background(), 1, func(context.Context) ([]string, error) {
		return []string{"reservations.view"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"reservations.view"}, names)
}

func TestBindingCacheDropsCorruptEntries(t *testing.T) {
	cache, mr := newCacheFixture(t)
	require.NoError(t, mr.Set(bindingKey(1), "{not json"))

	names, err := cache.Permissions(context.Background(), 1, func(context.Context) ([]string, error) {
		return []string{"reservations.view"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"reservations.view"}, names)
}
