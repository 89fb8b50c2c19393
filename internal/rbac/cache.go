package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BindingCache caches permission names per role in Redis. Only the
// role to permission binding set is cached. It carries no time component, so a
// cached entry can never leak stale effectiveness. Anything time-dependent
// (expiry, revocation, role activation) is recomputed on every resolution.
//
// The cache is best-effort: a Redis failure falls through to the loader so
// authorization keeps working without it.
type BindingCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewBindingCache builds a BindingCache.
func NewBindingCache(client *redis.Client, ttl time.Duration) *BindingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BindingCache{client: client, ttl: ttl}
}

func bindingKey(roleID int64) string {
	return fmt.Sprintf("rbac:role_perms:%d", roleID)
}

// Permissions returns the cached permission names for a role, loading and
// storing them on a miss. Concurrent misses for the same role collapse into
// a single load.
func (c *BindingCache) Permissions(ctx context.Context, roleID int64, load func(context.Context) ([]string, error)) ([]string, error) {
	key := bindingKey(roleID)
	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var names []string
		if jsonErr := json.Unmarshal([]byte(raw), &names); jsonErr == nil {
			return names, nil
		}
		// Unreadable entry: drop it and reload.
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
		// Redis down is not an authorization failure.
		return load(ctx)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		names, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if payload, jsonErr := json.Marshal(names); jsonErr == nil {
			_ = c.client.Set(ctx, key, payload, c.ttl).Err()
		}
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Invalidate drops the cached entry for a role. Called after every binding
// mutation and role deletion.
func (c *BindingCache) Invalidate(ctx context.Context, roleID int64) error {
	return c.client.Del(ctx, bindingKey(roleID)).Err()
}
