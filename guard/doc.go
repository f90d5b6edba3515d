// Package guard provides runtime-checked access wrappers for shared
// mutable state.
//
// Guard enforces the exclusivity rule "any number of readers XOR one
// writer" at the point of access: a conflicting borrow fails with a
// structured error instead of corrupting state or blocking.
//
// Where the mutated state is simple, prefer eliminating exclusive
// access entirely: Counter is a monotonic atomic counter and Frozen an
// immutable-after-construction holder, both safe to share without any
// borrow checking.
package guard
