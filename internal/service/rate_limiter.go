package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tembiapo/tembiapo-backend/pkg/database"
)

const rateLimitPrefix = "ratelimit:"

// RateLimitDecision is the outcome of a single Allow call
type RateLimitDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter is a sliding-window log limiter backed by a Redis sorted set
// per key. Scores are request times in milliseconds.
type RateLimiter struct {
	redis *database.Redis
	now   func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis, now: time.Now}
}

// slidingWindowScript trims the window, then either records the request or
// reports when the oldest recorded request leaves the window. Returns
// {allowed, count, retryAfterMs}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)

if count >= limit then
	local retry = window
	local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
	if oldest[2] then
		retry = tonumber(oldest[2]) + window - now
	end
	return {0, count, retry}
end

redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, ARGV[5])
return {1, count + 1, 0}
`)

// Allow records a request for key unless limit requests were already seen
// within window. Rejected requests are not recorded. The check and the
// write run as one script, so concurrent callers cannot overshoot limit.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitDecision, error) {
	now := r.now()

	result, err := slidingWindowScript.Run(ctx, r.redis.Client,
		[]string{rateLimitPrefix + key},
		now.UnixMilli(),
		window.Milliseconds(),
		limit,
		uuid.NewString(),
		(window + time.Minute).Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}
	if len(result) != 3 {
		return nil, fmt.Errorf("unexpected rate limit reply: %v", result)
	}

	count := int(result[1])
	if result[0] == 0 {
		return &RateLimitDecision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			RetryAfter: time.Duration(result[2]) * time.Millisecond,
		}, nil
	}

	return &RateLimitDecision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count,
	}, nil
}
