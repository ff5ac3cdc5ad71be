package engine

import (
	"sync/atomic"

	"github.com/roach88/aquaplan/internal/quantity"
)

// Clock is a monotonic logical clock. Module states are stamped with its
// values so "which ran last" never depends on wall time.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// clockFor resumes a project's clock after the highest recorded seq.
func clockFor(s *quantity.Store) *Clock {
	var max int64
	for _, st := range s.States() {
		if st.Seq > max {
			max = st.Seq
		}
	}
	return NewClockAt(max)
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
