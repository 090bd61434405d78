package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed answers 503 if Redis is unavailable.
	FailClosed
)

// Rule describes one fixed-window limit.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

var errNoRedis = errors.New("redis client is nil")

// limitsDisabled reports whether the environment skips throttling so local
// and test workflows are not rate limited.
func limitsDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// CheckRateLimit increments the counter for (resource, id) and reports
// whether the caller is still within limit.
func CheckRateLimit(ctx context.Context, rdb redis.Cmdable, resource, id string, limit int, window time.Duration) (bool, error) {
	if limitsDisabled() {
		return true, nil
	}
	if rdb == nil {
		return false, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimit returns a Fiber middleware enforcing rule. It keys by the
// authenticated user when known, otherwise by remote IP.
func RateLimit(rdb redis.Cmdable, rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := c.Locals("userID").(uint); ok {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = "ip:" + c.IP()
		}

		resource := rule.Name
		if resource == "" {
			resource = c.Path()
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, rule.Limit, rule.Window)
		if err != nil {
			if rule.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
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
