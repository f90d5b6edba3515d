// Package extsync provides synchronization primitives for embedding
// extension modules in Go hosts.
//
// The library grew out of a recurring need in embedded-runtime code:
// expensive shared resources (a compiled extension module, a parsed
// configuration, a connection) should be initialized lazily, exactly
// once, by whichever caller gets there first, and without deadlocking
// a host that serializes entry through a single execution permit.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	extsync/        Root package documentation
//	├── cell/       Lazy once-cell: exactly-once initialization
//	├── permit/     Single-holder cooperative execution permit
//	├── guard/      Runtime-checked borrow guard, frozen counters
//	├── host/       Lazily-compiled WebAssembly extension host
//	└── errors/     Structured error types for debugging
//
// # Quick Start
//
// Initialize a value exactly once across any number of goroutines:
//
//	c := cell.New[*Config]()
//
//	cfg, err := c.GetOrInit(func() (*Config, error) {
//	    return loadConfig(path) // runs at most once
//	})
//
// Combine with an execution permit so waiters do not deadlock the
// initializing goroutine:
//
//	p := permit.New()
//	c := cell.New[*Extension](cell.WithHeld(p))
//
//	p.Acquire()
//	defer p.Release()
//	ext, err := c.GetOrInit(compile) // waiters release p while parked
//
// # Thread Safety
//
// Cell, Permit, Guard, Counter and Host are safe for concurrent use.
// A populated cell never changes; reads after population are lock-free.
//
// # Failure Semantics
//
// A failed initializer does not poison its cell. Callers waiting on
// the failed attempt receive the same error; a subsequent GetOrInit
// starts a fresh attempt. Waits are unbounded: the primitive carries
// no cancellation token.
package extsync
