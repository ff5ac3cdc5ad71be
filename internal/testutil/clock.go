package testutil

import "sync"

// StepClock numbers harness steps. Unlike engine.Clock, it can be reset so
// the same scenario replays with identical step numbers.
//
// StepClock is safe for concurrent use.
type StepClock struct {
	mu  sync.Mutex
	seq int64
}

// NewStepClock creates a clock starting at 0. The first Next returns 1.
func NewStepClock() *StepClock {
	return &StepClock{}
}

// Next increments and returns the step number.
func (c *StepClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the step number without incrementing.
func (c *StepClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
