package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast() Option {
	return func(c *Config) {
		c.InitialDelay = time.Millisecond
		c.MaxDelay = time.Millisecond
		c.JitterFactor = 0
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int

	err := Do(t.Context(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, fast(), WithMaxAttempts(5), WithOnRetry(func(attempt int, _ error, _ time.Duration) {
		retried = append(retried, attempt)
	}))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_GivesUp(t *testing.T) {
	want := errors.New("down")
	calls := 0

	err := Do(t.Context(), func(context.Context) error {
		calls++
		return want
	}, fast(), WithMaxAttempts(4))

	assert.ErrorIs(t, err, want)
	assert.Equal(t, 4, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	want := errors.New("bad driver")
	calls := 0

	err := Do(t.Context(), func(context.Context) error {
		calls++
		return Permanent(want)
	}, fast(), WithMaxAttempts(5))

	assert.Equal(t, want, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(t.Context(), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("retry me")
		}
		return 42, nil
	}, fast())

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestDelay_ExponentialAndCapped(t *testing.T) {
	c := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, c.delay(1))
	assert.Equal(t, 400*time.Millisecond, c.delay(3))
	assert.Equal(t, time.Second, c.delay(10))
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	assert.False(t, IsPermanent(errors.New("x")))
	assert.True(t, IsPermanent(Permanent(errors.New("x"))))
}
