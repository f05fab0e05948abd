package testutil

import (
	"sync"
	"time"
)

// DefaultBase is the wall-clock instant a StepClock starts from unless
// told otherwise.
var DefaultBase = time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)

// StepClock is a deterministic wall clock for tests.
//
// Each call to Now returns the previous instant plus Step, starting at Base.
// Two clocks built the same way produce the same timestamps, so ledgers
// stamped with them are byte-identical.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	base  time.Time
	step  time.Duration
	ticks int64
}

// NewStepClock creates a clock starting at base and advancing by step.
// A zero base means DefaultBase; a zero step means one second.
func NewStepClock(base time.Time, step time.Duration) *StepClock {
	if base.IsZero() {
		base = DefaultBase
	}
	if step == 0 {
		step = time.Second
	}
	return &StepClock{base: base, step: step}
}

// Now returns the next instant. The first call returns base.
//
// Monotonic: never returns an earlier instant than a previous call.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.ticks) * c.step)
	c.ticks++
	return t
}

// Ticks returns how many times Now has been called.
func (c *StepClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock so the next Now returns base again.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
