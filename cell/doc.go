// Package cell implements a concurrency-safe lazy once-cell.
//
// A Cell holds at most one value, computed on first access by exactly
// one caller. Concurrent callers that find an initialization already in
// flight park until it resolves instead of racing to recompute. Once a
// value is published the cell is immutable and reads are lock-free.
//
// A failed initializer does not poison the cell: callers waiting on the
// failed attempt receive its error, and a later GetOrInit starts a
// fresh attempt.
//
// Cells used inside a host that serializes execution through a single
// permit should be constructed with WithHeld so that parked waiters
// surrender the permit while blocked. Without this, a waiter holding
// the permit deadlocks an initializer that needs it.
package cell
