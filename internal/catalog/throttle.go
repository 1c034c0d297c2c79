package catalog

import (
	"sync"
	"time"
)

// Throttle spaces outgoing catalog API calls to a fixed rate. It is the
// only shared mutable state in the client and is safe for concurrent
// use.
type Throttle struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
}

func NewThrottle(requestsPerSecond int) *Throttle {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Throttle{interval: time.Second / time.Duration(requestsPerSecond)}
}

func (t *Throttle) Wait() {
	t.mu.Lock()
	now := time.Now()
	scheduled := now
	if t.nextAllowedAt.After(now) {
		scheduled = t.nextAllowedAt
	}
	t.nextAllowedAt = scheduled.Add(t.interval)
	t.mu.Unlock()

	if sleep := time.Until(scheduled); sleep > 0 {
		time.Sleep(sleep)
	}
}
