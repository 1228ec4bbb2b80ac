package harness

import "sync/atomic"

// Clock is a monotonic logical clock for trace-event ordering.
//
// Every trace event is stamped with a strictly increasing seq number
// from this clock, so event order never depends on the wall clock and
// replayed runs produce identical traces.
//
// Thread-safety: Clock is safe for concurrent use, though a run's
// single-flow design means only one goroutine calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
