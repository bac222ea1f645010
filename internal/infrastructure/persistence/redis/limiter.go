package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// PrefixRateLimit is the prefix for rate limiting keys.
const PrefixRateLimit = "ratelimit:"

// counter increments a key and sets its TTL on first use.
type counter interface {
	incrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Decision is the outcome of a limiter check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter is a fixed-window rate limiter shared across instances.
type Limiter struct {
	counter counter
	limit   int
	window  time.Duration
	action  string
	now     func() time.Time
}

// NewLimiter allows limit calls per client per window.
func NewLimiter(c *Client, action string, limit int, window time.Duration) *Limiter {
	return newLimiter(redisCounter{c}, action, limit, window, time.Now)
}

func newLimiter(c counter, action string, limit int, window time.Duration, now func() time.Time) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{counter: c, limit: limit, window: window, action: action, now: now}
}

// Allow counts one call for client and reports whether it fits the window.
func (l *Limiter) Allow(ctx context.Context, client string) (Decision, error) {
	now := l.now()
	slot := now.UnixNano() / int64(l.window)
	resetIn := time.Duration((slot+1)*int64(l.window) - now.UnixNano())

	n, err := l.counter.incrWindow(ctx, RateLimitKey(client, l.action, slot), l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("redis: rate limit check: %w", err)
	}

	remaining := l.limit - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: int(n) <= l.limit, Remaining: remaining, ResetIn: resetIn}, nil
}

// RateLimitKey generates the counter key for a client, action and window slot.
func RateLimitKey(client, action string, slot int64) string {
	return PrefixRateLimit + action + ":" + client + ":" + strconv.FormatInt(slot, 10)
}

type redisCounter struct {
	c *Client
}

func (r redisCounter) incrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := r.c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
