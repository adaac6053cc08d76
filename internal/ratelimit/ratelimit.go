// Package ratelimit guards mutating endpoints with a Redis token bucket shared
// by every server instance.
package ratelimit

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/auth"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/response"
)

type Config struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// normalize fills defaults so a partially configured limiter still behaves.
func (cfg Config) normalize() Config {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "rl"
	}
	return cfg
}

var bucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
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

// Middleware returns a token bucket limiter for mutating requests, keyed by
// actor and route. Reads pass through. A nil client or a disabled config
// yields a pass-through handler. Redis failures fail open and are logged.
func Middleware(cfg Config, rdb *redis.Client, logger *logrus.Logger) gin.HandlerFunc {
	if !cfg.Enabled || rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}
	cfg = cfg.normalize()

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		key := Key(cfg.Prefix, c)
		args := []any{
			time.Now().UnixMilli(),
			cfg.Capacity,
			cfg.RefillTokens,
			cfg.RefillInterval.Milliseconds(),
			int64(cfg.TTL / time.Second),
		}

		vals, err := bucketScript.Run(c.Request.Context(), rdb, []string{key}, args...).Int64Slice()
		if err != nil || len(vals) != 3 {
			logger.WithField("key", key).WithError(err).Warn("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			secs := int(math.Ceil(float64(retryMs) / 1000.0))
			c.Header("Retry-After", strconv.Itoa(secs))
			logger.WithFields(logrus.Fields{
				"key":            key,
				"retry_after_ms": retryMs,
			}).Info("rate limit exceeded")
			response.Error(c, domain.ErrRateOrCapacityExceeded.
				WithMessage("rate limit exceeded").
				WithState(fmt.Sprintf("%d/%s", cfg.Capacity, cfg.RefillInterval), strconv.Itoa(secs)+"s"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Key builds the bucket key from the authenticated actor, falling back to
// the client IP for anonymous callers such as webhooks.
func Key(prefix string, c *gin.Context) string {
	parts := []string{prefix}
	if actor := auth.GetActor(c); actor.ID != "" {
		parts = append(parts, "actor", actor.ID)
	} else {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		parts = append(parts, "ip", ip)
	}
	parts = append(parts, "route", c.Request.Method+" "+c.FullPath())
	return strings.Join(parts, ":")
}
