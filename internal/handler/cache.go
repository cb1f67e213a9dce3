package handler

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/service"
	"go.uber.org/zap"
)

const resetTimeout = 2 * time.Second

// bodyRecorder copies the response body while it is written
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheMiddleware serves successful GET responses from the cache keyed by the
// request URL. Any other method clears the whole cache once it has run.
// Place it after the guards of a route so cached bodies stay behind them.
func CacheMiddleware(cache service.ResponseCache, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			resetCache(c, cache, logger)
			return
		}

		key := c.Request.URL.RequestURI()

		body, ok, err := cache.Get(c.Request.Context(), key)
		if err != nil {
			logger.Warn("failed to read response cache", zap.String("key", key), zap.Error(err))
		}
		if ok {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", body)
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		if c.Writer.Status() != http.StatusOK || len(c.Errors) > 0 {
			return
		}
		if err := cache.Set(c.Request.Context(), key, recorder.body.Bytes(), ttl); err != nil {
			logger.Warn("failed to write response cache", zap.String("key", key), zap.Error(err))
		}
	}
}

// NoCacheMiddleware clears the cache after every request it wraps
func NoCacheMiddleware(cache service.ResponseCache, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		resetCache(c, cache, logger)
	}
}

func resetCache(c *gin.Context, cache service.ResponseCache, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), resetTimeout)
	defer cancel()

	if err := cache.ResetAll(ctx); err != nil {
		logger.Warn("failed to reset response cache", zap.Error(err))
	}
}
