package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCounter struct {
	counts map[string]int64
	ttls   map[string]time.Duration
	err    error
}

func (m *memCounter) incrWindow(_ context.Context, key string, ttl time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.counts == nil {
		m.counts = map[string]int64{}
		m.ttls = map[string]time.Duration{}
	}
	m.counts[key]++
	if _, ok := m.ttls[key]; !ok {
		m.ttls[key] = ttl
	}
	return m.counts[key], nil
}

func TestLimiter_FixedWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	c := &memCounter{}
	l := newLimiter(c, "lookup", 2, time.Minute, clock)
	ctx := context.Background()

	d, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	// Other clients have their own window.
	d, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// Next window starts fresh.
	now = now.Add(time.Minute)
	d, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	for _, ttl := range c.ttls {
		assert.Equal(t, time.Minute, ttl)
	}
}

func TestLimiter_ResetIn(t *testing.T) {
	now := time.Unix(0, 0).Add(90 * time.Second)
	l := newLimiter(&memCounter{}, "lookup", 5, time.Minute, func() time.Time { return now })

	d, err := l.Allow(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d.ResetIn)
}

func TestLimiter_CounterError(t *testing.T) {
	boom := errors.New("i/o timeout")
	l := newLimiter(&memCounter{err: boom}, "lookup", 5, time.Minute, time.Now)

	_, err := l.Allow(context.Background(), "a")
	assert.ErrorIs(t, err, boom)
}

func TestRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:lookup:10.0.0.1:42", RateLimitKey("10.0.0.1", "lookup", 42))
}

func TestConfig_Options(t *testing.T) {
	opts, err := Config{URL: "redis://:secret@cache:6380/2", PoolSize: 4}.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 4, opts.PoolSize)
	assert.Equal(t, -1, opts.MaxRetries)

	opts, err = DefaultConfig().Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	_, err = Config{URL: "http://nope"}.Options()
	assert.Error(t, err)
}
