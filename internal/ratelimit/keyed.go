package ratelimit

import (
	"sync"
	"time"
)

// DropRecorder receives a callback for every rejected request.
type DropRecorder interface {
	RecordRateLimiterDrop(limiterType string)
}

// KeyedConfig configures a KeyedLimiter instance.
type KeyedConfig struct {
	// Name identifies this limiter for metrics (e.g., "client")
	Name string

	Burst      float64 // Maximum tokens (burst capacity)
	RefillRate float64 // Tokens refilled per second

	// How often to drop limiters whose bucket is full again
	CleanupPeriod time.Duration

	Metrics DropRecorder // optional
}

// KeyedLimiter tracks rate limits per key (client IP for the HTTP API).
// It creates a separate bucket for each key and periodically forgets
// keys that have been idle long enough to refill completely.
type KeyedLimiter struct {
	mu      sync.RWMutex
	entries map[string]*Limiter
	config  KeyedConfig
	stopCh  chan struct{}
	once    sync.Once
}

// NewKeyedLimiter creates a new per-key rate limiter and starts its cleanup loop.
// Call Stop when done.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*Limiter),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}
	go kl.cleanupLoop()
	return kl
}

// Allow reports whether a request for key may proceed and consumes a token if so.
// An empty key is always allowed.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	if kl.getOrCreate(key).Allow() {
		return true
	}
	if kl.config.Metrics != nil {
		kl.config.Metrics.RecordRateLimiterDrop(kl.config.Name)
	}
	return false
}

func (kl *KeyedLimiter) getOrCreate(key string) *Limiter {
	kl.mu.RLock()
	l, ok := kl.entries[key]
	kl.mu.RUnlock()
	if ok {
		return l
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()
	if l, ok = kl.entries[key]; ok {
		return l
	}
	l = New(kl.config.Burst, kl.config.RefillRate)
	kl.entries[key] = l
	return l
}

// ActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

// sweep removes keys whose bucket has refilled.
func (kl *KeyedLimiter) sweep() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, l := range kl.entries {
		if l.IsFull() {
			delete(kl.entries, key)
		}
	}
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.sweep()
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call multiple times.
func (kl *KeyedLimiter) Stop() {
	kl.once.Do(func() { close(kl.stopCh) })
}
