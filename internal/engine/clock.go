package engine

import "sync/atomic"

// Clock numbers ledger entries. Seq values start at 1 in every session and
// never depend on wall time, so the same events replayed in the same order
// receive the same numbers.
//
// Issuing a seq is two steps: Reserve names the number the next entry will
// carry, Commit consumes it once the entry is durable. A failed commit
// leaves the reservation open for the retry.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock whose last issued seq is last. Zero means a
// fresh session.
func NewClock(last int64) *Clock {
	c := &Clock{}
	c.last.Store(last)
	return c
}

// Reserve returns the seq the next committed entry will carry.
func (c *Clock) Reserve() int64 {
	return c.last.Load() + 1
}

// Commit consumes seq. It reports false when seq is not the open
// reservation, i.e. another append got there first.
func (c *Clock) Commit(seq int64) bool {
	return c.last.CompareAndSwap(seq-1, seq)
}

// Last returns the last issued seq, 0 if none.
func (c *Clock) Last() int64 {
	return c.last.Load()
}

// Rewind restarts numbering at 1. Only a session reset does this.
func (c *Clock) Rewind() {
	c.last.Store(0)
}
