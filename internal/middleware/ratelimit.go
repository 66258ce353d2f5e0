package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"showcase/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// Limit describes a fixed-window quota for one named route.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	Policy FailPolicy
}

// rateLimitBypassed reports whether quotas are skipped for the current environment.
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// Allow counts one hit for caller against limit and reports the remaining quota.
func Allow(ctx context.Context, rdb *redis.Client, limit Limit, caller string) (remaining int, allowed bool, err error) {
	if rateLimitBypassed() {
		return limit.Max, true, nil
	}
	if rdb == nil {
		return 0, false, errors.New("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", limit.Name, caller)
	var incr *redis.IntCmd
	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, limit.Window)
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	count := int(incr.Val())
	return max(limit.Max-count, 0), count <= limit.Max, nil
}

// RateLimit enforces limit per caller. Authenticated callers are keyed by user
// ID, anonymous ones by remote IP.
func RateLimit(rdb *redis.Client, limit Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok {
			caller = fmt.Sprintf("user:%d", uid)
		}

		remaining, allowed, err := Allow(c.UserContext(), rdb, limit, caller)
		if err != nil {
			if limit.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit unavailable, rejecting",
					slog.String("limit", limit.Name), slog.String("error", err.Error()))
				return c.Status(fiber.StatusServiceUnavailable).JSON(
					models.Failure("Service temporarily unavailable, please try again later."))
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(limit.Window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(
				models.Failure("Too many requests, please try again later."))
		}
		return c.Next()
	}
}
