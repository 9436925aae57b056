package middleware

import (
	"context"
	"errors"
	"math"
	"os"
	"strconv"
	"time"

	"vividplate/internal/models"
	"vividplate/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var errNoRedis = errors.New("rate limit store not configured")

// Limiter is a fixed-window counter in Redis, one key per name and subject.
type Limiter struct {
	rdb    *redis.Client
	name   string
	limit  int
	window time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

func NewLimiter(rdb *redis.Client, name string, limit int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, name: name, limit: limit, window: window}
}

func (l *Limiter) key(subject string) string {
	return "rl:" + l.name + ":" + subject
}

// Allow counts one hit for subject.
func (l *Limiter) Allow(ctx context.Context, subject string) (Decision, error) {
	if l.rdb == nil {
		return Decision{}, errNoRedis
	}
	key := l.key(subject)

	pipe := l.rdb.TxPipeline()
	hits := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.RecordRedisError("ratelimit")
		return Decision{}, err
	}

	n := hits.Val()
	d := Decision{
		Allowed:   n <= int64(l.limit),
		Remaining: max(l.limit-int(n), 0),
	}
	if !d.Allowed {
		d.RetryAfter = ttl.Val()
		if d.RetryAfter <= 0 {
			d.RetryAfter = l.window
		}
	}
	return d, nil
}

// Handler enforces the limit per authenticated user, or per client IP for
// anonymous callers. Requests pass when Redis is unavailable.
func (l *Limiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rateLimitBypassed() {
			return c.Next()
		}

		subject := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok {
			subject = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		d, err := l.Allow(c.UserContext(), subject)
		if err != nil {
			if !errors.Is(err, errNoRedis) {
				Logger.WarnContext(c.UserContext(), "rate limiter unavailable", "limiter", l.name, "error", err)
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if d.Allowed {
			return c.Next()
		}

		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
		return c.Status(fiber.StatusTooManyRequests).JSON(
			models.NewErrorResponse(models.CodeRateLimited, "Too many requests, slow down"))
	}
}

// RateLimit builds a limiter and returns its handler.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string) fiber.Handler {
	return NewLimiter(rdb, name, limit, window).Handler()
}

// Local development and test runs are never throttled.
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "development", "test":
		return true
	}
	return false
}
