package engine

import "sync/atomic"

// Sequencer hands out the seq numbers that order a run log.
// Clock is the production implementation; tests may supply their own.
type Sequencer interface {
	// Next advances and returns the new seq.
	Next() int64
	// Current returns the last seq handed out.
	Current() int64
}

// Clock is a monotonic logical clock. Every run, evaluation and check is
// stamped with a strictly increasing seq from it, so ordering never depends
// on wall time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

var _ Sequencer = (*Clock)(nil)

// NewClock creates a clock whose first seq is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start, typically the
// store's MaxSeq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

func (c *Clock) Current() int64 {
	return c.seq.Load()
}
