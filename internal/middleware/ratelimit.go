package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vaultbox/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// StoreTimeout bounds each Redis round trip made while limiting a request.
const StoreTimeout = 250 * time.Millisecond

// RateLimiter counts requests per resource and caller. With Redis it uses a
// shared INCR/EXPIRE window; without it each process keeps token buckets.
type RateLimiter struct {
	rdb *redis.Client
	env string

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter. Limits are not enforced in the test,
// development and stress environments.
func NewRateLimiter(rdb *redis.Client, env string) *RateLimiter {
	return &RateLimiter{rdb: rdb, env: env, local: make(map[string]*rate.Limiter)}
}

// Allow reports whether another request for resource by id fits within limit per window.
func (r *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	switch r.env {
	case "", "test", "development", "stress":
		return true, nil
	}
	if limit <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	if r.rdb == nil {
		return r.localLimiter(key, limit, window).Allow(), nil
	}

	cnt, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("rate_limit").Inc()
		return false, err
	}
	if cnt == 1 {
		r.rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

func (r *RateLimiter) localLimiter(key string, limit int, window time.Duration) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.local[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
		r.local[key] = l
	}
	return l
}

// Handler returns a Fiber middleware enforcing limit requests per window.
// It keys by authenticated user when known, otherwise by remote IP.
func (r *RateLimiter) Handler(resource string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid := c.Locals(userIDLocal); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), StoreTimeout)
		allowed, err := r.Allow(ctx, resource, id, limit, window)
		cancel()
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit unavailable",
					"resource", resource, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
