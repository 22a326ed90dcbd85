package eviction

import (
	"sync"
	"time"
)

// DefaultSweepInterval gates automatic (read-triggered) sweeps per user.
const DefaultSweepInterval = 24 * time.Hour

// Throttle tracks the last automatic sweep per token, in process memory.
// It is owned by the service instance rather than held as package state so
// isolated stores do not leak into each other.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
}

// NewThrottle returns a Throttle with the given minimum interval between
// automatic sweeps for the same token. interval <= 0 means
// DefaultSweepInterval.
func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Throttle{interval: interval, last: make(map[string]time.Time)}
}

// TryAcquire reports whether an automatic sweep may run for token at now,
// and records the attempt if so. The check-and-set is a single atomic step
// so simultaneous reads for the same token cannot both trigger a sweep.
func (t *Throttle) TryAcquire(token string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if last, ok := t.last[token]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.last[token] = now
	return true
}
