package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prperemyshlev/statboard/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RateLimit is the outcome of a rate limit check
type RateLimit struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	redis *database.Redis
	now   func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis, now: time.Now}
}

// Allow records a request for key using a sliding window log and reports
// whether it fits into limit requests per window
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimit, error) {
	now := r.now()
	windowStart := now.Add(-window)
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	// Remove entries older than the window
	err := r.redis.Client.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixMilli())).Err()
	if err != nil {
		return RateLimit{}, fmt.Errorf("failed to clean old entries: %w", err)
	}

	count, err := r.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return RateLimit{}, fmt.Errorf("failed to count entries: %w", err)
	}

	if count >= int64(limit) {
		result := RateLimit{Allowed: false, RetryAfter: window}

		oldest, err := r.redis.Client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			oldestTime := time.UnixMilli(int64(oldest[0].Score))
			result.RetryAfter = window - now.Sub(oldestTime)
		}

		return result, nil
	}

	pipe := r.redis.Client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, redisKey, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateLimit{}, fmt.Errorf("failed to add entry: %w", err)
	}

	return RateLimit{Allowed: true, Remaining: limit - int(count) - 1}, nil
}
