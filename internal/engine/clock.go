package engine

import "sync/atomic"

// Clock is the engine's revision counter: a monotonic logical clock that
// follows the mutation journal.
//
// Every committed mutation is assigned a journal seq by the store, and the
// engine reports it to the clock with Observe. Revision therefore never
// goes backwards and never relies on wall-clock time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume from the last journaled seq of an existing store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Observe advances the clock to seq if seq is ahead of it and returns the
// resulting value. Observing an older seq is a no-op.
func (c *Clock) Observe(seq int64) int64 {
	for {
		cur := c.seq.Load()
		if seq <= cur {
			return cur
		}
		if c.seq.CompareAndSwap(cur, seq) {
			return seq
		}
	}
}

// Current returns the current sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
