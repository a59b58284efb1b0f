package overlaytest

import (
	"sync"
	"time"
)

// Clock is a manually advanced overlay.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Duration
}

// Now implements overlay.Clock.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
