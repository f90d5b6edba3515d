// Package errors provides structured error types for the extsync library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes context: an access path, a detail message, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseInit, errors.KindInitFailed).
//		Path("host", "extensions", "math").
//		Detail("initializer returned an error").
//		Cause(cause).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InitFailed(cause)
//	err := errors.NotFound(errors.PhaseCall, "extension", "math")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
