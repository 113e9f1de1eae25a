package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is the first instant returned by a new DeterministicClock.
var DefaultEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a thread-safe clock that advances by a fixed step on
// every reading.
//
// Stores stamp each write with modified_at. Injecting this clock makes those
// stamps reproducible, so dumps and digests of two identical runs match.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	epoch time.Time
	step  time.Duration
	n     int64
}

// NewDeterministicClock creates a clock starting at DefaultEpoch and
// advancing one second per reading.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{epoch: DefaultEpoch, step: time.Second}
}

// Now returns the current instant and advances the clock.
//
// The first call returns the epoch.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.epoch.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Readings returns how many times Now has been called.
func (c *DeterministicClock) Readings() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock to its epoch.
//
// Used for test reuse. After Reset(), the next call to Now() returns the epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
