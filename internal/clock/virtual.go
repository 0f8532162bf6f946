package clock

import (
	"sync"
	"time"
)

// VirtualClock is a manually advanced clock. Pending After channels fire
// during Advance or Set once their deadline is reached.
//
// Safe for concurrent use.
type VirtualClock struct {
	mu      sync.RWMutex
	current time.Time
	waiters []waiter
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewVirtualClock creates a VirtualClock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{
		current: start,
	}
}

func (c *VirtualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *VirtualClock) Since(t time.Time) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Sub(t)
}

func (c *VirtualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}

	c.waiters = append(c.waiters, waiter{
		deadline: c.current.Add(d),
		ch:       ch,
	})
	return ch
}

// Advance moves the clock forward by d. Panics if d is negative.
func (c *VirtualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
	c.drainWaiters()
}

// Set moves the clock to t. Panics if t is before the current time.
func (c *VirtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.current) {
		panic("clock: cannot set time to the past")
	}

	c.current = t
	c.drainWaiters()
}

// PendingWaiters reports how many After channels have not fired yet.
func (c *VirtualClock) PendingWaiters() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.waiters)
}

// drainWaiters must be called with c.mu held.
func (c *VirtualClock) drainWaiters() {
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.current) {
			w.ch <- c.current
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
}
