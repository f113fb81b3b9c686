package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket is a token bucket with fractional refill. Tokens accrue
// continuously at rate tokens/second up to the bucket capacity.
type Bucket struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	rate     float64
	last     time.Time
}

// NewBucket creates a bucket that starts full.
func NewBucket(capacity int, perSecond float64) *Bucket {
	return &Bucket{
		capacity: float64(capacity),
		tokens:   float64(capacity),
		rate:     perSecond,
		last:     time.Now(),
	}
}

// Allow consumes one token if available.
func (b *Bucket) Allow() bool {
	return b.AllowN(1)
}

// AllowN consumes n tokens if available.
func (b *Bucket) AllowN(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// Wait blocks until a token can be consumed or ctx is done. Used to
// throttle outbound API calls rather than reject them.
func (b *Bucket) Wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := time.Now()
		b.refill(now)
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		// time until one token accrues
		wait := time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill must be called with b.mu held.
func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.last = now
}

type entry struct {
	bucket   *Bucket
	lastSeen time.Time
}

// KeyedLimiter maintains one bucket per key (user id, client IP).
// Idle entries are evicted by a background janitor.
type KeyedLimiter struct {
	mu       sync.Mutex
	entries  map[string]*entry
	capacity int
	rate     float64
	idleTTL  time.Duration
}

// NewKeyed creates a per-key limiter. Entries unused for 15 minutes
// are dropped.
func NewKeyed(capacity int, perSecond float64) *KeyedLimiter {
	l := &KeyedLimiter{
		entries:  make(map[string]*entry),
		capacity: capacity,
		rate:     perSecond,
		idleTTL:  15 * time.Minute,
	}
	go l.janitor()
	return l
}

// Allow consumes a token from the key's bucket.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{bucket: NewBucket(l.capacity, l.rate)}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()

	return e.bucket.Allow()
}

// Reset drops the bucket for a key.
func (l *KeyedLimiter) Reset(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// Len reports the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *KeyedLimiter) janitor() {
	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-l.idleTTL)
		l.mu.Lock()
		for key, e := range l.entries {
			if e.lastSeen.Before(cutoff) {
				delete(l.entries, key)
			}
		}
		l.mu.Unlock()
	}
}
