// Package host implements a lazily-initialized WebAssembly extension
// host on top of wazero.
//
// Extensions are registered as raw wasm bytes and compiled on first
// use: whichever caller touches an extension first compiles it, while
// concurrent callers park on the extension's cell. Entry into the host
// is serialized by a single execution permit; parked waiters surrender
// the permit so the compiling goroutine can finish, and the slow
// compile itself runs detached from the permit.
//
// The host calls raw exported functions with wasm core types only. It
// is not a binding layer: no type conversion, no WIT, no codegen.
package host
