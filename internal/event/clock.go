package event

import "sync/atomic"

// Clock is a monotonic logical clock for event ordering.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next() is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start. Used when a log is
// restored from storage.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
