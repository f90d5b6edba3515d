package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/extsync/cell"
	"github.com/wippyai/extsync/host"
)

func main() {
	var (
		callers     = flag.Int("callers", 8, "Number of concurrent callers")
		delay       = flag.Duration("delay", 10*time.Millisecond, "Initializer delay")
		failures    = flag.Int("fail", 0, "Initializer attempts that fail before one succeeds")
		extDemo     = flag.Bool("ext", false, "Run the lazy extension-host demo instead")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()
		host.SetLogger(logger)
	}

	switch {
	case *interactive:
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*callers, *delay, *failures); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *extDemo:
		if err := runExtensionDemo(*callers); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		if err := runRace(os.Stdout, *callers, *delay, *failures); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// callerResult records one caller's trip through the cell.
type callerResult struct {
	id      int
	value   int
	err     error
	won     bool
	elapsed time.Duration
}

// race spawns callers goroutines on one fresh cell. Each caller's
// initializer sleeps, optionally fails, and returns 42. onResult, when
// non-nil, is invoked from each caller's goroutine as it finishes.
func race(callers int, delay time.Duration, failures int, onResult func(callerResult)) ([]callerResult, int64) {
	c := cell.New[int]()
	var execs atomic.Int64
	results := make([]callerResult, callers)
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ran := false
			start := time.Now()
			v, err := c.GetOrInit(func() (int, error) {
				ran = true
				n := execs.Add(1)
				time.Sleep(delay)
				if n <= int64(failures) {
					return 0, fmt.Errorf("simulated failure %d", n)
				}
				return 42, nil
			})
			r := callerResult{
				id:      id,
				value:   v,
				err:     err,
				won:     ran,
				elapsed: time.Since(start),
			}
			results[id] = r
			if onResult != nil {
				onResult(r)
			}
		}(i)
	}
	wg.Wait()

	return results, execs.Load()
}

func runRace(w io.Writer, callers int, delay time.Duration, failures int) error {
	fmt.Fprintf(w, "Racing %d callers on one cell (initializer: %v", callers, delay)
	if failures > 0 {
		fmt.Fprintf(w, ", first %d attempts fail", failures)
	}
	fmt.Fprintln(w, ")")

	results, execs := race(callers, delay, failures, nil)

	for _, r := range results {
		role := "waiter"
		if r.won {
			role = "winner"
		}
		if r.err != nil {
			fmt.Fprintf(w, "  caller %2d  %-6s  error: %v  (%v)\n", r.id, role, r.err, r.elapsed.Round(time.Microsecond))
			continue
		}
		fmt.Fprintf(w, "  caller %2d  %-6s  value: %d  (%v)\n", r.id, role, r.value, r.elapsed.Round(time.Microsecond))
	}

	fmt.Fprintf(w, "\nInitializer executions: %d\n", execs)
	return nil
}

// (module (func (export "add") (param i32 i32) (result i32)
//   local.get 0 local.get 1 i32.add))
var mathWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

// runExtensionDemo registers a built-in extension and lets callers
// race its lazy compilation through the host.
func runExtensionDemo(callers int) error {
	ctx := context.Background()

	h, err := host.New(ctx)
	if err != nil {
		return err
	}
	defer h.Close(ctx)

	if err := h.Register("math", mathWasm); err != nil {
		return err
	}

	fmt.Printf("Racing %d callers against the lazily-compiled %q extension\n", callers, "math")

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			results, err := h.Call(ctx, "math", "add", id, 100)
			if err != nil {
				fmt.Printf("  caller %2d  error: %v\n", id, err)
				return
			}
			fmt.Printf("  caller %2d  add(%d, 100) = %d\n", id, id, results[0])
		}(uint64(i))
	}
	wg.Wait()

	fmt.Println("\nHost activity:")
	for _, e := range h.Activity() {
		fmt.Printf("  %s\n", e)
	}

	fmt.Println("\nStats:")
	stats := h.Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := stats[name]
		fmt.Printf("  %s: compiled=%v calls=%d\n", name, s.Compiled, s.Calls)
	}
	return nil
}
