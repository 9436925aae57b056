// Package cache holds the shared Redis client and the JSON cache-aside
// helpers built on it. Every helper is a no-op when Redis is absent.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vividplate/internal/middleware"
	"vividplate/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const pingTimeout = 5 * time.Second

var client *redis.Client

// instrumentation counts failed commands and wraps each round trip in a
// client span. A miss (redis.Nil) is not a failure.
type instrumentation struct{}

func (instrumentation) DialHook(next redis.DialHook) redis.DialHook { return next }

func (instrumentation) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		return traced(ctx, "redis "+cmd.Name(), cmd.Name(), func(ctx context.Context) error {
			return next(ctx, cmd)
		})
	}
}

func (instrumentation) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		return traced(ctx, fmt.Sprintf("redis pipeline(%d)", len(cmds)), "pipeline", func(ctx context.Context) error {
			return next(ctx, cmds)
		})
	}
}

func traced(ctx context.Context, spanName, op string, run func(context.Context) error) error {
	ctx, span := observability.Tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	err := run(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RecordRedisError(op)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// ParseOptions accepts either host:port or a redis:// / rediss:// URL.
func ParseOptions(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("empty redis address")
	}
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// Connect dials Redis and verifies it with a PING.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := ParseOptions(addr)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	c.AddHook(instrumentation{})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// InitRedis installs the shared client. On failure the service keeps
// running with caching, rate limits and token revocation disabled.
func InitRedis(addr string) {
	c, err := Connect(context.Background(), addr)
	if err != nil {
		middleware.Logger.Warn("redis unavailable, continuing without it", "error", err)
		client = nil
		return
	}
	middleware.Logger.Info("redis connected", "addr", c.Options().Addr)
	client = c
}

// GetClient returns the shared client, or nil.
func GetClient() *redis.Client {
	return client
}

// SetClient replaces the shared client. Tests point it at miniredis.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(instrumentation{})
	}
	client = c
}
