package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
	"github.com/noah-isme/seat-desk-api/pkg/response"
)

// Limiter decides whether key may spend one token.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int64, retryAfter time.Duration, err error)
}

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 then
	local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals)
		last_refill = last_refill + intervals * interval_ms
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return { allowed, tokens, retry_after_ms }
`)

// TokenBucket is a Redis backed bucket refilled by one token per interval.
type TokenBucket struct {
	client   redis.Scripter
	prefix   string
	capacity int
	interval time.Duration
}

// NewTokenBucket constructs a limiter. A nil client yields a nil limiter which allows everything.
func NewTokenBucket(client redis.Scripter, prefix string, capacity int, interval time.Duration) *TokenBucket {
	if client == nil || capacity <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = 12 * time.Second
	}
	return &TokenBucket{client: client, prefix: prefix, capacity: capacity, interval: interval}
}

// Allow implements Limiter.
func (b *TokenBucket) Allow(ctx context.Context, key string) (bool, int64, time.Duration, error) {
	if b == nil {
		return true, 0, 0, nil
	}
	ttl := int64(math.Ceil(b.interval.Seconds() * float64(b.capacity)))
	vals, err := tokenBucketScript.Run(ctx, b.client, []string{b.prefix + key},
		time.Now().UnixMilli(), b.capacity, b.interval.Milliseconds(), ttl+1,
	).Int64Slice()
	if err != nil {
		return true, 0, 0, err
	}
	if len(vals) != 3 {
		return true, 0, 0, fmt.Errorf("unexpected limiter reply %v", vals)
	}
	return vals[0] == 1, vals[1], time.Duration(vals[2]) * time.Millisecond, nil
}

// RateLimit throttles requests per client IP. Limiter failures let the request through.
func RateLimit(limiter Limiter, capacity int, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := c.ClientIP() + ":" + c.FullPath()
		allowed, remaining, retryAfter, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !allowed {
			secs := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			response.Error(c, appErrors.WithDetails(appErrors.ErrTooManyRequests, map[string]interface{}{"retry_after": secs}))
			c.Abort()
			return
		}
		c.Next()
	}
}
