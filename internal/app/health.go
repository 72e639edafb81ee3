package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	postgres pinger
	redis    pinger
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return &HealthChecker{
		postgres: infra.Postgres(),
		redis:    infra.Redis(),
	}
}

func (h *HealthChecker) check(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	postgres := make(chan error, 1)
	redis := make(chan error, 1)

	go func() { postgres <- h.postgres.Ping(ctx) }()
	go func() { redis <- h.redis.Ping(ctx) }()

	return map[string]error{
		"postgres": <-postgres,
		"redis":    <-redis,
	}
}

// Handler reports pass only when both stores answer a ping
func (h *HealthChecker) Handler(c *gin.Context) {
	results := h.check(c.Request.Context())

	checks := make(gin.H, len(results))
	var failed []error
	for name, err := range results {
		if err != nil {
			checks[name] = "fail"
			failed = append(failed, fmt.Errorf("%s: %w", name, err))
			continue
		}
		checks[name] = "pass"
	}

	if err := errors.Join(failed...); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"checks": checks,
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "pass",
		"checks": checks,
	})
}
