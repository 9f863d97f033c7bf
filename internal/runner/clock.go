package runner

import "sync/atomic"

// Clock hands out strictly increasing seq numbers.
type Clock interface {
	Next() int64
}

// LogicalClock is the default Clock.
//
// Thread-safety: LogicalClock is safe for concurrent use (atomic operations).
type LogicalClock struct {
	seq atomic.Int64
}

// NewLogicalClockAt creates a clock whose first Next returns start+1.
// Used to resume from the last recorded seq.
func NewLogicalClockAt(start int64) *LogicalClock {
	c := &LogicalClock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *LogicalClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *LogicalClock) Current() int64 {
	return c.seq.Load()
}
