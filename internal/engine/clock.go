package engine

import "sync/atomic"

// Clock is the session's logical clock.
//
// Every processed event is stamped with a strictly increasing seq from
// this clock, and the journal orders entries by it. Wall time is recorded
// alongside for display and never used for ordering.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
