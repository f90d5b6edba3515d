package cell

import (
	"sync"
	"sync/atomic"

	"github.com/wippyai/extsync/errors"
)

// Held is a cooperative resource the calling goroutine holds while
// invoking GetOrInit, such as a host execution permit. A parked waiter
// calls Release before blocking and Acquire after waking, so the
// initializing goroutine can use the resource to make progress.
//
// Every caller of GetOrInit on a cell configured with WithHeld must
// hold the resource at call time; the cell cannot verify this.
type Held interface {
	Release()
	Acquire()
}

// Option configures a Cell at construction time.
type Option func(*options)

type options struct {
	held Held
}

// WithHeld registers the cooperative resource callers hold while
// calling GetOrInit. See Held for the contract.
func WithHeld(r Held) Option {
	return func(o *options) {
		o.held = r
	}
}

// attempt tracks one in-flight initialization. done is closed when the
// attempt resolves; err is valid only after that.
type attempt struct {
	done chan struct{}
	err  error
}

// Cell is a container holding at most one value of type T, computed on
// first access by exactly one caller. The zero value is NOT usable;
// construct with New.
type Cell[T any] struct {
	populated atomic.Bool
	value     T

	mu      sync.Mutex
	current *attempt

	held Held
}

// New creates an empty cell.
func New[T any](opts ...Option) *Cell[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Cell[T]{held: o.held}
}

// GetOrInit returns the stored value, initializing it with init if the
// cell is empty. Among concurrent callers finding the cell empty,
// exactly one runs init; the rest park until it resolves. init runs
// outside the cell's critical section, so it may be arbitrarily slow
// without blocking unrelated cells or the fast path.
//
// If init fails, the cell stays empty: this call and every caller
// parked on the same attempt receive the error, and a subsequent
// GetOrInit races a fresh attempt. The wait is unbounded; the cell
// carries no cancellation token.
func (c *Cell[T]) GetOrInit(init func() (T, error)) (T, error) {
	// Fast path: populated cells never block and never take the lock.
	if c.populated.Load() {
		return c.value, nil
	}

	c.mu.Lock()
	if c.populated.Load() {
		c.mu.Unlock()
		return c.value, nil
	}
	if a := c.current; a != nil {
		// Lost the race: park until the winner resolves the attempt.
		c.mu.Unlock()
		c.wait(a)
		if a.err != nil {
			var zero T
			return zero, errors.InitFailed(a.err)
		}
		// Success publishes before the attempt resolves.
		return c.value, nil
	}
	a := &attempt{done: make(chan struct{})}
	c.current = a
	c.mu.Unlock()

	v, err := c.run(a, init)
	if err != nil {
		var zero T
		return zero, errors.InitFailed(err)
	}
	return v, nil
}

// run executes init for attempt a and resolves the attempt on every
// exit path, including a panicking initializer. A panic propagates to
// the caller after waiters have been released with a failure.
func (c *Cell[T]) run(a *attempt, init func() (T, error)) (v T, err error) {
	resolved := false
	defer func() {
		if !resolved {
			var zero T
			c.finish(a, zero, errors.InvalidInput(errors.PhaseInit, "initializer panicked"))
		}
	}()

	v, err = init()
	resolved = true
	c.finish(a, v, err)
	return v, err
}

// finish publishes the attempt's outcome and wakes all waiters.
func (c *Cell[T]) finish(a *attempt, v T, err error) {
	c.mu.Lock()
	if err == nil {
		c.value = v
		c.populated.Store(true)
	}
	a.err = err
	c.current = nil
	c.mu.Unlock()
	close(a.done)
}

// wait parks until attempt a resolves, surrendering the configured
// Held resource for the duration of the park.
func (c *Cell[T]) wait(a *attempt) {
	if c.held != nil {
		c.held.Release()
		defer c.held.Acquire()
	}
	<-a.done
}

// Get returns the stored value without initializing. The second result
// reports whether the cell is populated. Get never blocks.
func (c *Cell[T]) Get() (T, bool) {
	if c.populated.Load() {
		return c.value, true
	}
	var zero T
	return zero, false
}

// Set populates the cell with v if it is empty. It fails with
// already_populated when a value is present, and rejects writes while
// an initialization attempt is in flight.
func (c *Cell[T]) Set(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.populated.Load() {
		return errors.AlreadyPopulated()
	}
	if c.current != nil {
		return errors.New(errors.PhaseInit, errors.KindAlreadyPopulated).
			Detail("initialization in progress").
			Build()
	}
	c.value = v
	c.populated.Store(true)
	return nil
}
