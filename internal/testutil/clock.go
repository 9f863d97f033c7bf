// Package testutil holds deterministic stand-ins and shared fixtures for
// tests that record runs.
package testutil

import "sync"

// ReplayClock stamps run seq values for tests that record the same
// scenario more than once. Rewind makes a second recording reuse the seq
// values of the first, so stored runs compare equal field by field.
//
// It satisfies runner.Clock.
type ReplayClock struct {
	mu   sync.Mutex
	last int64
}

// NewReplayClock returns a clock whose first Next is 1.
func NewReplayClock() *ReplayClock {
	return &ReplayClock{}
}

func (c *ReplayClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last++
	return c.last
}

// Current is the last seq handed out, 0 before the first Next.
func (c *ReplayClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Rewind restarts the sequence at 1.
func (c *ReplayClock) Rewind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = 0
}
