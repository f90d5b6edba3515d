// Package permit implements a single-holder cooperative execution
// permit, the generalization of an interpreter-attachment token.
//
// A host that serializes entry into its critical sections hands each
// entering goroutine the permit. Any code that blocks while holding it
// must surrender it for the duration of the block (Detach), or parked
// waiters will starve the one goroutine able to unblock them.
//
// Permit satisfies the cell.Held interface, so a Permit plugs directly
// into cell.WithHeld.
package permit
