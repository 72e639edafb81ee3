package handler

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tembiapo/tembiapo-backend/internal/apperror"
	"github.com/tembiapo/tembiapo-backend/internal/service"
	"go.uber.org/zap"
)

// RateLimitMiddleware limits requests per route and key. When Redis is
// unavailable requests are let through.
func RateLimitMiddleware(
	rateLimiter *service.RateLimiter,
	limit int,
	window time.Duration,
	keyFunc func(*gin.Context) string,
	logger *zap.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.FullPath() + ":" + keyFunc(c)

		decision, err := rateLimiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			_ = c.Error(apperror.TooManyRequests("rate limit exceeded"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// IPBasedKey keys rate limits by client IP, honoring gin's trusted proxies
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}
