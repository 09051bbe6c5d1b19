// Package clock abstracts time to enable deterministic testing.
//
// Every time-dependent middleware (caching, rate limiting, timing) accepts a
// Clock instead of calling time.Now directly. Production code uses
// SystemClock; tests use FakeClock and advance it explicitly.
package clock

import (
	"sync"
	"time"
)

// Clock is the canonical protocol for time operations.
type Clock interface {
	// Now returns the current local time.
	Now() time.Time
	// NowUTC returns the current time in UTC.
	NowUTC() time.Time
}

// =============================================================================
// SYSTEM CLOCK
// =============================================================================

// SystemClock reads the real wall clock.
type SystemClock struct{}

// NewSystemClock creates a new SystemClock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns time.Now().
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// NowUTC returns time.Now().UTC().
func (c *SystemClock) NowUTC() time.Time {
	return time.Now().UTC()
}

// =============================================================================
// FAKE CLOCK
// =============================================================================

// FakeClock is a manually advanced clock for tests.
// Thread-safe; Advance moves the clock forward atomically.
type FakeClock struct {
	now time.Time
	mu  sync.RWMutex
}

// NewFakeClock creates a FakeClock pinned at the given instant.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// NowUTC returns the current fake time in UTC.
func (c *FakeClock) NowUTC() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now.UTC()
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock to the given instant.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Ensure both clocks implement the Clock interface.
var (
	_ Clock = (*SystemClock)(nil)
	_ Clock = (*FakeClock)(nil)
)
