// Package ratelimit provides a token bucket rate limiter used both for
// outbound requests to the chart host and for inbound API clients.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket: it holds at most maxTokens and gains
// refillRate tokens per second. Each request spends one token.
// It is safe for concurrent use.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
}

// New creates a limiter that starts full.
//
//	// Two requests per second to the chart host, burst of 4
//	limiter := ratelimit.New(4, 2)
func New(maxTokens, refillRate float64) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// reserve spends a token if one is available. Otherwise it returns how long
// until one will be; zero means never (no refill).
func (l *Limiter) reserve() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	if l.tokens >= 1 {
		l.tokens--
		return true, 0
	}
	if l.refillRate <= 0 {
		return false, 0
	}
	return false, time.Duration((1 - l.tokens) / l.refillRate * float64(time.Second))
}

func (l *Limiter) refillLocked() {
	now := time.Now()
	l.tokens = min(l.maxTokens, l.tokens+now.Sub(l.lastRefill).Seconds()*l.refillRate)
	l.lastRefill = now
}

// Allow spends a token without blocking and reports whether there was one.
func (l *Limiter) Allow() bool {
	ok, _ := l.reserve()
	return ok
}

// Wait blocks until a token is spent or ctx ends.
// With no refill and an empty bucket it waits for ctx.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		ok, wait := l.reserve()
		if ok {
			return nil
		}
		if wait <= 0 {
			<-ctx.Done()
			return ctx.Err()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available returns the current number of tokens.
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	return l.tokens
}

// IsFull reports whether the bucket has refilled completely, which means
// its key has been idle long enough to forget.
func (l *Limiter) IsFull() bool {
	return l.Available() >= l.maxTokens
}
