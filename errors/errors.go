package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseInit     Phase = "init"     // lazy initialization
	PhaseBorrow   Phase = "borrow"   // borrow guard access
	PhaseRegister Phase = "register" // extension registration
	PhaseCompile  Phase = "compile"  // extension compilation
	PhaseCall     Phase = "call"     // extension invocation
	PhaseRuntime  Phase = "runtime"  // runtime operations
)

// Kind categorizes the error
type Kind string

const (
	KindInitFailed        Kind = "init_failed"
	KindAlreadyPopulated  Kind = "already_populated"
	KindConflictingBorrow Kind = "conflicting_borrow"
	KindNotFound          Kind = "not_found"
	KindAlreadyRegistered Kind = "already_registered"
	KindClosed            Kind = "closed"
	KindInvalidInput      Kind = "invalid_input"
	KindInstantiation     Kind = "instantiation"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the access path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InitFailed wraps an initializer failure
func InitFailed(cause error) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindInitFailed,
		Detail: "initializer returned an error",
		Cause:  cause,
	}
}

// AlreadyPopulated is returned when writing to a populated cell
func AlreadyPopulated() *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindAlreadyPopulated,
		Detail: "cell already holds a value",
	}
}

// ConflictingBorrow is returned when a borrow would violate exclusivity
func ConflictingBorrow(want string) *Error {
	return &Error{
		Phase:  PhaseBorrow,
		Kind:   KindConflictingBorrow,
		Detail: fmt.Sprintf("cannot take %s borrow while conflicting borrow is active", want),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// AlreadyRegistered is returned when registering a duplicate name
func AlreadyRegistered(name string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindAlreadyRegistered,
		Detail: fmt.Sprintf("extension %q already registered", name),
	}
}

// Closed is returned when operating on a closed host
func Closed(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: "host is closed",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// CompileFailed wraps a compilation failure
func CompileFailed(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf("compile extension %q", name),
		Cause:  cause,
	}
}

// Instantiation wraps an instantiation failure
func Instantiation(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInstantiation,
		Detail: fmt.Sprintf("instantiate extension %q", name),
		Cause:  cause,
	}
}

// CallFailed wraps an invocation failure
func CallFailed(ext, fn string, cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf("call %s#%s", ext, fn),
		Cause:  cause,
	}
}
