package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL applies when Set is called with a non-positive ttl.
	DefaultTTL = time.Hour
	// UserDetailsTTL bounds staleness of cached /me lookups.
	UserDetailsTTL = 300 * time.Second
)

// UserKey is the cache key of a user's public projection.
func UserKey(userID string) string {
	return "user:" + userID
}

// Cache stores JSON values in Redis with a TTL.
type Cache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Get decodes the value at key into dest. A missing key is reported as
// (false, nil), not as an error.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	res, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(res, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}
