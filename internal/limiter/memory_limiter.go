package limiter

import (
	"context"
	"sync"
	"time"
)

// idleTTL is how long an untouched bucket is kept
const idleTTL = 10 * time.Minute

// bucket is a token bucket for a single client
//
// How it works:
//   - The bucket holds at most capacity tokens and starts full
//   - Tokens come back at capacity per window
//   - Each lookup consumes 1 token
type bucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	perSec   float64
	last     time.Time
}

func (b *bucket) take(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(b.tokens+elapsed*b.perSec, b.capacity)
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (b *bucket) idleSince(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.last)
}

// MemoryLimiter keeps one token bucket per client in process memory
type MemoryLimiter struct {
	buckets  sync.Map // client key -> *bucket
	capacity float64
	perSec   float64
	now      func() time.Time

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// NewMemoryLimiter allows limit lookups per window, with bursts up to limit
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		capacity: float64(max(limit, 1)),
		perSec:   float64(max(limit, 1)) / window.Seconds(),
		now:      time.Now,
	}
	l.lastSweep = l.now()
	return l
}

// Allow implements the Limiter interface
func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	now := l.now()

	v, ok := l.buckets.Load(key)
	if !ok {
		v, _ = l.buckets.LoadOrStore(key, &bucket{tokens: l.capacity, capacity: l.capacity, perSec: l.perSec, last: now})
	}
	allowed := v.(*bucket).take(now)

	l.sweep(now)
	return allowed
}

// sweep drops buckets nobody used for idleTTL
func (l *MemoryLimiter) sweep(now time.Time) {
	l.sweepMu.Lock()
	defer l.sweepMu.Unlock()

	if now.Sub(l.lastSweep) < idleTTL {
		return
	}
	l.buckets.Range(func(key, value any) bool {
		if value.(*bucket).idleSince(now) >= idleTTL {
			l.buckets.Delete(key)
		}
		return true
	})
	l.lastSweep = now
}

// Close implements the Limiter interface; there is nothing to release
func (l *MemoryLimiter) Close() error {
	return nil
}
