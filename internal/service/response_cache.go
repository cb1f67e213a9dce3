package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/statboard/pkg/database"
	"github.com/redis/go-redis/v9"
)

const (
	cachePrefix    = "cache:"
	cacheScanCount = 100
)

// RedisResponseCache keeps rendered responses in Redis under the cache: prefix
type RedisResponseCache struct {
	redis *database.Redis
}

// NewRedisResponseCache creates a new response cache
func NewRedisResponseCache(redis *database.Redis) *RedisResponseCache {
	return &RedisResponseCache{redis: redis}
}

// Get returns the cached value and whether it was present
func (c *RedisResponseCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.redis.Client.Get(ctx, cachePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}
	return value, true, nil
}

// Set stores a value for ttl
func (c *RedisResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.redis.Client.Set(ctx, cachePrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// ResetAll drops every cached response
func (c *RedisResponseCache) ResetAll(ctx context.Context) error {
	iter := c.redis.Client.Scan(ctx, 0, cachePrefix+"*", cacheScanCount).Iterator()

	keys := make([]string, 0, cacheScanCount)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == cacheScanCount {
			if err := c.redis.Client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to reset cache: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache: %w", err)
	}

	if len(keys) > 0 {
		if err := c.redis.Client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to reset cache: %w", err)
		}
	}

	return nil
}

var _ ResponseCache = (*RedisResponseCache)(nil)
