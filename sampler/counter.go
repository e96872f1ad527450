package sampler

import "sync/atomic"

// ByteCounter is the cumulative byte count shared between a transfer loop and
// a Sampler. Add never blocks.
type ByteCounter struct {
	n atomic.Int64
}

// Add adds n bytes. Safe to call on a nil receiver.
func (c *ByteCounter) Add(n int) {
	if c == nil {
		return
	}
	c.n.Add(int64(n))
}

// Load returns the current count.
func (c *ByteCounter) Load() int64 {
	if c == nil {
		return 0
	}
	return c.n.Load()
}
