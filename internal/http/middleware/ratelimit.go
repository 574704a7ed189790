// README: Fixed-window rate limiter on Redis, keyed per client IP.
package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ridedispatch/internal/config"
	"ridedispatch/internal/logger"
)

const rateLimitPrefix = "ratelimit:"

type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	log    *zap.Logger
}

func NewRateLimiter(client *redis.Client, cfg config.RateLimitConfig, log *zap.Logger) *RateLimiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 20
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{redis: client, limit: cfg.Limit, window: cfg.Window, log: logger.OrNop(log).Named("ratelimit")}
}

// Allow counts one hit for key. retryAfter is set when the hit is rejected.
func (l *RateLimiter) Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error) {
	k := rateLimitPrefix + key
	n, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if n == 1 {
		if err := l.redis.Expire(ctx, k, l.window).Err(); err != nil {
			return false, 0, err
		}
	}
	if n <= int64(l.limit) {
		return true, 0, nil
	}
	ttl, err := l.redis.TTL(ctx, k).Result()
	if err != nil || ttl <= 0 {
		// key lost its expiry; restore it so the client is not locked out forever
		if ttl == -1 {
			_ = l.redis.Expire(ctx, k, l.window).Err()
		}
		ttl = l.window
	}
	return false, ttl, nil
}

// Middleware fails open when Redis is unavailable.
func (l *RateLimiter) Middleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retry, err := l.Allow(c.Request.Context(), fmt.Sprintf("%s:%s", scope, c.ClientIP()))
		if err != nil {
			l.log.Warn("rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later."})
			return
		}
		c.Next()
	}
}
