package testfixtures

import (
	"sync"
	"time"
)

// Clock is the deterministic time source tests inject as a service's now
// func. Plan CreatedAt stamps and absence RecordedAt stamps then come out
// reproducible instead of tracking the wall clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at the given instant. The zero value starts it at
// ReferenceTime, the roster-wide default exam day.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start}
}

// Now reports the clock's current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc adapts the clock to the func() time.Time the services take. A nil
// clock falls back to the wall clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set jumps the clock to an absolute instant.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and reports the new instant. Tests
// stepping a roster across exam days advance by whole days at a time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	moved := c.now
	c.mu.Unlock()
	return moved
}
