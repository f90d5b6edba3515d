package host

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/extsync/guard"
)

// Meta describes a compiled extension. Fields are fixed at compile
// time and safe to share without synchronization.
type Meta struct {
	Name        string
	SourceBytes int
	Exports     []string
}

// Extension is a compiled, instantiated extension module. Metadata is
// frozen at construction; the call counter is mutated atomically, so
// an Extension can be shared freely across goroutines.
type Extension struct {
	meta  *guard.Frozen[Meta]
	mod   api.Module
	calls guard.Counter
}

// Meta returns the extension's frozen metadata.
func (e *Extension) Meta() Meta {
	return e.meta.Value()
}

// Calls returns the number of completed calls into the extension.
func (e *Extension) Calls() uint64 {
	return e.calls.Load()
}
