package handler

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/service"
	"go.uber.org/zap"
)

const msgTooManyRequests = "Too Many Requests"

// RateLimiter decides whether a request identified by key may proceed
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (service.RateLimit, error)
}

// RateLimitMiddleware creates a rate limiting middleware. Limiter failures let
// the request through.
func RateLimitMiddleware(limiter RateLimiter, limit int, window time.Duration, keyFunc func(*gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		result, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			abortWithError(c, apperror.New(apperror.CodeTooManyRequests, msgTooManyRequests))
			return
		}

		c.Next()
	}
}

// IPBasedKey extracts rate limit key from client IP. Forwarding headers only
// count when the engine trusts the peer as a proxy.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

// RouteAndIPKey limits each client separately on every route
func RouteAndIPKey(c *gin.Context) string {
	return fmt.Sprintf("%s:%s", c.FullPath(), IPBasedKey(c))
}
