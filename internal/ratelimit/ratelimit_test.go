package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(window time.Duration, max int) (*Limiter, *clock) {
	c := &clock{t: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(window, max)
	l.now = c.now
	return l, c
}

func TestLimiter_Allow(t *testing.T) {
	l, c := newTestLimiter(time.Minute, 3)

	for i := range 3 {
		assert.True(t, l.Allow("10.0.0.1"), "call %d", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "keys are independent")

	c.advance(time.Minute)
	assert.True(t, l.Allow("10.0.0.1"), "window reset")
}

func TestLimiter_Check(t *testing.T) {
	l, c := newTestLimiter(time.Minute, 1)
	require.NoError(t, l.Check("k"))

	c.advance(20 * time.Second)
	err := l.Check("k")
	require.ErrorIs(t, err, ErrLimited)
	assert.Contains(t, err.Error(), "40s")
	assert.Equal(t, 40*time.Second, l.RetryIn("k"))
}

func TestLimiter_Remaining(t *testing.T) {
	l, c := newTestLimiter(time.Second, 5)
	assert.Equal(t, 5, l.Remaining("k"))
	l.Allow("k")
	l.Allow("k")
	assert.Equal(t, 3, l.Remaining("k"))
	c.advance(time.Second)
	assert.Equal(t, 5, l.Remaining("k"))
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(time.Second, 0)
	for range 10 {
		assert.True(t, l.Allow("k"))
	}
	assert.Equal(t, -1, l.Remaining("k"))
}

func TestLimiter_Sweep(t *testing.T) {
	l, c := newTestLimiter(time.Minute, 2)
	l.Allow("a")
	c.advance(30 * time.Second)
	l.Allow("b")
	c.advance(30 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 0, l.Sweep())
}

func TestLimiter_RunStops(t *testing.T) {
	l := NewLimiter(time.Second, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
