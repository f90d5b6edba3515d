package guard

import (
	"sync/atomic"

	"github.com/wippyai/extsync/errors"
)

// Guard wraps a value of type T and tracks its borrow state at
// runtime: zero or more concurrent shared borrows, or exactly one
// exclusive borrow, never both. Conflicting access fails instead of
// waiting, so a Guard can never deadlock.
//
// state encoding: 0 free, n > 0 active shared borrows, -1 exclusive.
type Guard[T any] struct {
	state atomic.Int64
	value T
}

// NewGuard creates a guard around v.
func NewGuard[T any](v T) *Guard[T] {
	return &Guard[T]{value: v}
}

// Borrow runs fn with shared (read) access to the value. It fails with
// conflicting_borrow while an exclusive borrow is active. Multiple
// shared borrows may run concurrently.
func (g *Guard[T]) Borrow(fn func(T)) error {
	for {
		s := g.state.Load()
		if s < 0 {
			return errors.ConflictingBorrow("shared")
		}
		if g.state.CompareAndSwap(s, s+1) {
			break
		}
	}
	defer g.state.Add(-1)

	fn(g.value)
	return nil
}

// BorrowMut runs fn with exclusive (write) access to the value. It
// fails with conflicting_borrow while any other borrow is active.
func (g *Guard[T]) BorrowMut(fn func(*T)) error {
	if !g.state.CompareAndSwap(0, -1) {
		return errors.ConflictingBorrow("exclusive")
	}
	defer g.state.Store(0)

	fn(&g.value)
	return nil
}

// Snapshot returns a copy of the value via a shared borrow.
func (g *Guard[T]) Snapshot() (T, error) {
	var out T
	err := g.Borrow(func(v T) { out = v })
	return out, err
}
