package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

const (
	statusPass = "pass"
	statusFail = "fail"
)

// HealthChecker reports whether the stores the API depends on answer
type HealthChecker struct {
	checks map[string]func(context.Context) error
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return &HealthChecker{
		checks: map[string]func(context.Context) error{
			"postgres": infra.Postgres().Ping,
			"redis":    infra.Redis().Ping,
		},
	}
}

// check pings every dependency concurrently and returns a status per name
func (h *HealthChecker) check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		healthy = true
		results = make(map[string]string, len(h.checks))
	)

	for name, ping := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			status := statusPass
			if err := ping(ctx); err != nil {
				status = statusFail + ": " + err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			results[name] = status
			if status != statusPass {
				healthy = false
			}
		}()
	}
	wg.Wait()

	return results, healthy
}

func (h *HealthChecker) Handler(c *gin.Context) {
	results, healthy := h.check(c.Request.Context())

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": statusFail,
			"checks": results,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": statusPass,
		"checks": results,
	})
}
