package utils

import (
	"context"
	"sync"
	"time"
)

// Throttle inserts a fixed pause between consecutive calls to Wait.
// The first call returns immediately.
type Throttle struct {
	interval time.Duration

	mu      sync.Mutex
	started bool
}

// NewThrottle creates a Throttle pausing for interval between calls.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks for the configured interval unless this is the first call.
// It returns ctx.Err() if the context ends first.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	first := !t.started
	t.started = true
	t.mu.Unlock()

	if first || t.interval <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reset makes the next Wait return immediately again.
func (t *Throttle) Reset() {
	t.mu.Lock()
	t.started = false
	t.mu.Unlock()
}
