package host

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/extsync/cell"
	"github.com/wippyai/extsync/errors"
	"github.com/wippyai/extsync/guard"
	"github.com/wippyai/extsync/permit"
)

// Config holds configuration for host creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per extension in pages
	// (64KB each). 0 means the wazero default.
	MemoryLimitPages uint32
}

// Host loads and runs WebAssembly extensions, compiling each one
// lazily on first use. Host is safe for concurrent use.
type Host struct {
	runtime wazero.Runtime
	permit  *permit.Permit

	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool

	activity *guard.Guard[[]string]
}

// entry pairs registered source bytes with the cell holding the
// compiled extension.
type entry struct {
	source []byte
	cell   *cell.Cell[*Extension]
}

// New creates a host with default configuration.
func New(ctx context.Context) (*Host, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates a host with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) (*Host, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	return &Host{
		runtime:  wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		permit:   permit.New(),
		entries:  make(map[string]*entry),
		activity: guard.NewGuard([]string(nil)),
	}, nil
}

// Register adds an extension by name without compiling it. Duplicate
// names fail with already_registered.
func (h *Host) Register(name string, wasm []byte) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseRegister, "extension name is empty")
	}
	if len(wasm) == 0 {
		return errors.InvalidInput(errors.PhaseRegister, "extension source is empty")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errors.Closed(errors.PhaseRegister)
	}
	if _, exists := h.entries[name]; exists {
		return errors.AlreadyRegistered(name)
	}
	h.entries[name] = &entry{
		source: wasm,
		cell:   cell.New[*Extension](cell.WithHeld(h.permit)),
	}

	Logger().Debug("registered extension",
		zap.String("name", name),
		zap.Int("source_bytes", len(wasm)))
	return nil
}

// Extensions returns the registered extension names, sorted.
func (h *Host) Extensions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.entries))
	for name := range h.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extension returns the compiled extension, compiling it on first use.
// Concurrent callers during the first compile share a single
// compilation; a failed compile is not cached and the next caller
// retries.
func (h *Host) Extension(ctx context.Context, name string) (*Extension, error) {
	h.permit.Acquire()
	defer h.permit.Release()

	return h.resolve(ctx, name)
}

// Call invokes an exported function of an extension with raw wasm
// core-type arguments, compiling the extension first if needed. Calls
// are serialized by the host permit.
func (h *Host) Call(ctx context.Context, name, fn string, args ...uint64) ([]uint64, error) {
	h.permit.Acquire()
	defer h.permit.Release()

	ext, err := h.resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	f := ext.mod.ExportedFunction(fn)
	if f == nil {
		return nil, errors.NotFound(errors.PhaseCall, "function", fn)
	}

	results, err := f.Call(ctx, args...)
	if err != nil {
		return nil, errors.CallFailed(name, fn, err)
	}
	ext.calls.Inc()
	return results, nil
}

// resolve returns the compiled extension for name. The caller must
// hold the host permit.
func (h *Host) resolve(ctx context.Context, name string) (*Extension, error) {
	h.mu.RLock()
	closed := h.closed
	e := h.entries[name]
	h.mu.RUnlock()

	if closed {
		return nil, errors.Closed(errors.PhaseCall)
	}
	if e == nil {
		return nil, errors.NotFound(errors.PhaseCall, "extension", name)
	}

	return e.cell.GetOrInit(func() (*Extension, error) {
		return h.compile(ctx, name, e.source)
	})
}

// compile builds and instantiates an extension. It runs as a cell
// initializer while the winning caller holds the permit; the slow
// compilation is detached so other goroutines can enter the host
// meanwhile. Instantiation happens back inside the serialized section.
func (h *Host) compile(ctx context.Context, name string, source []byte) (*Extension, error) {
	start := time.Now()
	h.note("compile " + name)

	var compiled wazero.CompiledModule
	var err error
	h.permit.Detach(func() {
		compiled, err = h.runtime.CompileModule(ctx, source)
	})
	if err != nil {
		return nil, errors.CompileFailed(name, err)
	}

	mod, err := h.runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, errors.Instantiation(name, err)
	}

	var exports []string
	for exp := range compiled.ExportedFunctions() {
		exports = append(exports, exp)
	}
	sort.Strings(exports)

	Logger().Debug("compiled extension",
		zap.String("name", name),
		zap.Int("source_bytes", len(source)),
		zap.Strings("exports", exports),
		zap.Duration("elapsed", time.Since(start)))

	return &Extension{
		meta: guard.NewFrozen(Meta{
			Name:        name,
			SourceBytes: len(source),
			Exports:     exports,
		}),
		mod: mod,
	}, nil
}

// note appends to the activity log. Best effort: a conflicting
// concurrent read drops the entry rather than blocking the host path.
func (h *Host) note(msg string) {
	_ = h.activity.BorrowMut(func(log *[]string) {
		*log = append(*log, msg)
	})
}

// Activity returns a snapshot of the host activity log.
func (h *Host) Activity() []string {
	snap, err := h.activity.Snapshot()
	if err != nil {
		return nil
	}
	return snap
}

// Stats describes one registered extension.
type Stats struct {
	Calls    uint64
	Compiled bool
}

// Stats returns per-extension call counts and compile state.
func (h *Host) Stats() map[string]Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]Stats, len(h.entries))
	for name, e := range h.entries {
		var s Stats
		if ext, ok := e.cell.Get(); ok {
			s.Compiled = true
			s.Calls = ext.calls.Load()
		}
		out[name] = s
	}
	return out
}

// Close tears down the host and all compiled extensions. Operations
// after Close fail with closed.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	return h.runtime.Close(ctx)
}
