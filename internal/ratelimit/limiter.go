// Package ratelimit enforces "one action per key per window" limits, such as
// one support message per email address every fifteen minutes.
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Decision is the outcome of a limiter check
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter admits at most one action per key per window
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// NormalizeKey lower-cases and trims a key such as an email address
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory. It is
// correct for a single instance; use RedisLimiter when running replicas.
type MemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*memoryEntry
	now     func() time.Time
	calls   int
}

// NewMemoryLimiter creates a limiter allowing one action per window per key
func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		window:  window,
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// WithClock replaces the time source (tests)
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	key = NormalizeKey(key)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%1024 == 0 {
		l.pruneLocked(now)
	}

	entry, ok := l.entries[key]
	if !ok {
		entry = &memoryEntry{limiter: rate.NewLimiter(rate.Every(l.window), 1)}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return Decision{Allowed: false, RetryAfter: l.window}, nil
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true}, nil
}

// Prune drops keys idle for longer than the window; their buckets are full again
func (l *MemoryLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pruneLocked(l.now())
}

func (l *MemoryLimiter) pruneLocked(now time.Time) int {
	removed := 0
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.window {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
