// Package cache holds the optional Redis client and the cache-aside helpers
// used by the project repository.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"showcase/internal/middleware"
	"showcase/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// commandHook feeds Redis latency and failures into the showcase metrics.
type commandHook struct{}

func (commandHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (commandHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		observe(cmd.Name(), start, err)
		return err
	}
}

func (commandHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		observe("pipeline", start, err)
		return err
	}
}

func observe(command string, start time.Time, err error) {
	observability.RedisCommandLatency.WithLabelValues(command).Observe(time.Since(start).Seconds())
	// A miss is not a failure.
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrors.WithLabelValues(command).Inc()
	}
}

// ParseOptions accepts either host:port or a redis:// / rediss:// URL.
func ParseOptions(raw string) (*redis.Options, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("redis address is empty")
	}
	if !strings.Contains(raw, "://") {
		return &redis.Options{Addr: raw}, nil
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return opts, nil
}

// InitRedis connects to Redis at raw. Projects are served straight from the
// database when Redis is unreachable, so failures only disable the cache.
func InitRedis(raw string) {
	opts, err := ParseOptions(raw)
	if err != nil {
		middleware.Logger.Warn("cache disabled", slog.String("error", err.Error()))
		client = nil
		return
	}

	c := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("cache disabled, redis unreachable",
			slog.String("addr", opts.Addr), slog.String("error", err.Error()))
		_ = c.Close()
		client = nil
		return
	}

	SetClient(c)
	middleware.Logger.Info("Redis connected", slog.String("addr", opts.Addr))
}

// GetClient returns the current Redis client, or nil when caching is off.
func GetClient() *redis.Client {
	return client
}

// SetClient replaces the Redis client. Passing nil disables caching.
// Setting the current client again is a no-op.
func SetClient(c *redis.Client) {
	if c == client {
		return
	}
	if c != nil {
		c.AddHook(commandHook{})
	}
	client = c
}
