package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter is a token-bucket limiter keyed by provider id. Each provider's
// bucket models its rolling-window call quota.
type Limiter struct {
	mu sync.Mutex
	m  map[string]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

// Take consumes cost tokens for key if available. It never blocks; a false
// return means the quota for the current window is spent.
func (l *Limiter) Take(key string, capacity, refillPerSec float64, cost int) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key, capacity, refillPerSec, now)
	if b.tokens >= float64(cost) {
		b.tokens -= float64(cost)
		return true
	}
	return false
}

// Remaining returns the whole tokens currently available for key.
func (l *Limiter) Remaining(key string, capacity, refillPerSec float64) int {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.refill(key, capacity, refillPerSec, now).tokens)
}

// ResetAt estimates when the bucket for key will hold at least one token.
func (l *Limiter) ResetAt(key string, capacity, refillPerSec float64) time.Time {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key, capacity, refillPerSec, now)
	if b.tokens >= 1 {
		return now
	}
	if refillPerSec <= 0 {
		return now
	}
	missing := 1 - b.tokens
	return now.Add(time.Duration(missing / refillPerSec * float64(time.Second)))
}

// Refund returns cost tokens to key's bucket, e.g. when an acquired call was
// never made.
func (l *Limiter) Refund(key string, capacity, refillPerSec float64, cost int) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key, capacity, refillPerSec, now)
	b.tokens += float64(cost)
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

// refill must be called with l.mu held.
func (l *Limiter) refill(key string, capacity, refillPerSec float64, now time.Time) *bucket {
	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
	return b
}
