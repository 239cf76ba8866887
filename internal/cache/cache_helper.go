package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache key not found")
)

// Helper provides common caching operations for repositories. A nil redis
// client degrades every operation to a no-op miss, so callers never need to
// distinguish "no cache configured" from "not cached".
type Helper struct {
	client *redis.Client
	prefix string
}

func NewHelper(client *redis.Client, prefix string) *Helper {
	return &Helper{
		client: client,
		prefix: prefix,
	}
}

// Cache TTLs per data type. Session rows change rarely (create, end); the
// short TTL bounds staleness for anything invalidation misses.
const (
	SessionTTL = 5 * time.Minute
)

func (c *Helper) key(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Get retrieves and unmarshals data from cache.
func (c *Helper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}

	return nil
}

// Set marshals and stores data in cache. Graceful no-op when cache is not
// configured.
func (c *Helper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes one or more keys from cache.
func (c *Helper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	return c.client.Del(ctx, prefixed...).Err()
}

// HealthCheck pings the cache backend.
func (c *Helper) HealthCheck(ctx context.Context) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}
	return c.client.Ping(ctx).Err()
}
