// Package ratelimit throttles expensive operations per client key.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLimited is returned when a key has used up its window.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter implements a fixed window counter per key.
type Limiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	window   time.Duration
	max      int
	now      func() time.Time
}

type counter struct {
	count     int
	expiresAt time.Time
}

// NewLimiter creates a limiter allowing max calls per key within window.
// A non-positive max disables limiting.
func NewLimiter(window time.Duration, max int) *Limiter {
	return &Limiter{
		counters: make(map[string]*counter),
		window:   window,
		max:      max,
		now:      time.Now,
	}
}

// Allow records a call for key and reports whether it fits the window.
func (l *Limiter) Allow(key string) bool {
	if l.max <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		l.counters[key] = &counter{count: 1, expiresAt: now.Add(l.window)}
		return true
	}
	if c.count >= l.max {
		return false
	}
	c.count++
	return true
}

// Check is Allow returning ErrLimited with the retry delay.
func (l *Limiter) Check(key string) error {
	if l.Allow(key) {
		return nil
	}
	return fmt.Errorf("%w: retry in %s", ErrLimited, l.RetryIn(key).Round(time.Second))
}

// Remaining returns how many calls key has left in its window.
func (l *Limiter) Remaining(key string) int {
	if l.max <= 0 {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[key]
	if !ok || !l.now().Before(c.expiresAt) {
		return l.max
	}
	return max(l.max-c.count, 0)
}

// RetryIn returns the time until key's window resets.
func (l *Limiter) RetryIn(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.counters[key]
	if !ok {
		return 0
	}
	return max(c.expiresAt.Sub(l.now()), 0)
}

// Sweep drops expired counters and returns how many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for key, c := range l.counters {
		if !now.Before(c.expiresAt) {
			delete(l.counters, key)
			n++
		}
	}
	return n
}

// Run sweeps expired counters every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
