package guard

import "sync/atomic"

// Frozen holds a value fixed at construction. Reads are lock-free and
// need no borrow checking because nothing can ever write.
type Frozen[T any] struct {
	value T
}

// NewFrozen freezes v.
func NewFrozen[T any](v T) *Frozen[T] {
	return &Frozen[T]{value: v}
}

// Value returns the frozen value.
func (f *Frozen[T]) Value() T {
	return f.value
}

// Counter is a monotonic counter safe for concurrent mutation without
// exclusive borrows. It only increases; there is deliberately no way
// to decrement or reset it.
type Counter struct {
	n atomic.Uint64
}

// Inc increments the counter and returns the new value.
func (c *Counter) Inc() uint64 {
	return c.n.Add(1)
}

// Add increases the counter by delta and returns the new value.
func (c *Counter) Add(delta uint64) uint64 {
	return c.n.Add(delta)
}

// Load returns the current value.
func (c *Counter) Load() uint64 {
	return c.n.Load()
}
