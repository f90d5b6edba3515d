package cell

import (
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wippyai/extsync/errors"
)

func TestCell_SingleExecution(t *testing.T) {
	const callers = 32

	c := New[int]()
	var execs atomic.Int64
	var wg sync.WaitGroup
	results := make([]int, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, err := c.GetOrInit(func() (int, error) {
				execs.Add(1)
				time.Sleep(5 * time.Millisecond)
				return 42, nil
			})
			if err != nil {
				t.Errorf("caller %d: %v", idx, err)
				return
			}
			results[idx] = v
		}(i)
	}
	wg.Wait()

	if n := execs.Load(); n != 1 {
		t.Fatalf("initializer ran %d times, want 1", n)
	}
	for i, v := range results {
		if v != 42 {
			t.Fatalf("caller %d got %d, want 42", i, v)
		}
	}
}

func TestCell_ValueStability(t *testing.T) {
	type payload struct{ n int }

	c := New[*payload]()
	first, err := c.GetOrInit(func() (*payload, error) {
		return &payload{n: 7}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	second, err := c.GetOrInit(func() (*payload, error) {
		return &payload{n: 8}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("calls returned different values")
	}
	if second.n != 7 {
		t.Fatalf("got %d, want the first value 7", second.n)
	}
}

func TestCell_FastPathSkipsInitializer(t *testing.T) {
	c := New[string]()
	if _, err := c.GetOrInit(func() (string, error) { return "ready", nil }); err != nil {
		t.Fatal(err)
	}

	v, err := c.GetOrInit(func() (string, error) {
		panic("initializer must not run on a populated cell")
	})
	if err != nil {
		t.Fatal(err)
	}
	if v != "ready" {
		t.Fatalf("got %q, want %q", v, "ready")
	}
}

func TestCell_FailureDoesNotPoison(t *testing.T) {
	c := New[int]()
	cause := stderrors.New("disk offline")

	_, err := c.GetOrInit(func() (int, error) { return 0, cause })
	if err == nil {
		t.Fatal("expected error from failing initializer")
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("error does not wrap cause: %v", err)
	}
	target := &errors.Error{Phase: errors.PhaseInit, Kind: errors.KindInitFailed}
	if !stderrors.Is(err, target) {
		t.Fatalf("error is not init_failed: %v", err)
	}
	if _, ok := c.Get(); ok {
		t.Fatal("cell populated after failed attempt")
	}

	v, err := c.GetOrInit(func() (int, error) { return 9, nil })
	if err != nil {
		t.Fatal(err)
	}
	if v != 9 {
		t.Fatalf("got %d, want 9", v)
	}
}

func TestCell_WaitersShareFailure(t *testing.T) {
	c := New[int]()
	cause := stderrors.New("boom")
	var execs atomic.Int64
	entered := make(chan struct{})
	release := make(chan struct{})

	winnerErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrInit(func() (int, error) {
			execs.Add(1)
			close(entered)
			<-release
			return 0, cause
		})
		winnerErr <- err
	}()
	<-entered

	waiterErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrInit(func() (int, error) {
			execs.Add(1)
			return 0, cause
		})
		waiterErr <- err
	}()

	// Give the waiter time to park on the in-flight attempt.
	time.Sleep(50 * time.Millisecond)
	close(release)

	for name, ch := range map[string]chan error{"winner": winnerErr, "waiter": waiterErr} {
		select {
		case err := <-ch:
			if !stderrors.Is(err, cause) {
				t.Fatalf("%s error does not wrap cause: %v", name, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("%s did not return", name)
		}
	}
	if n := execs.Load(); n != 1 {
		t.Fatalf("initializer ran %d times, want 1", n)
	}
}

func TestCell_ExampleScenario(t *testing.T) {
	// 8 callers, a 10ms initializer returning 42, a shared log.
	const callers = 8

	c := New[int]()
	var mu sync.Mutex
	var log []int
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			v, err := c.GetOrInit(func() (int, error) {
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				log = append(log, id)
				mu.Unlock()
				return 42, nil
			})
			if err != nil {
				t.Errorf("caller %d: %v", id, err)
			}
			if v != 42 {
				t.Errorf("caller %d got %d, want 42", id, v)
			}
		}(i)
	}
	wg.Wait()

	if len(log) != 1 {
		t.Fatalf("log has %d entries, want 1: %v", len(log), log)
	}
}

func TestCell_GetAndSet(t *testing.T) {
	c := New[string]()

	if v, ok := c.Get(); ok || v != "" {
		t.Fatalf("empty cell returned (%q, %v)", v, ok)
	}

	if err := c.Set("fixed"); err != nil {
		t.Fatal(err)
	}
	if v, ok := c.Get(); !ok || v != "fixed" {
		t.Fatalf("got (%q, %v), want (fixed, true)", v, ok)
	}

	err := c.Set("other")
	target := &errors.Error{Phase: errors.PhaseInit, Kind: errors.KindAlreadyPopulated}
	if !stderrors.Is(err, target) {
		t.Fatalf("second Set: got %v, want already_populated", err)
	}

	// GetOrInit on a Set cell takes the fast path.
	v, err := c.GetOrInit(func() (string, error) {
		panic("initializer must not run")
	})
	if err != nil {
		t.Fatal(err)
	}
	if v != "fixed" {
		t.Fatalf("got %q, want %q", v, "fixed")
	}
}

func TestCell_SetDuringInit(t *testing.T) {
	c := New[int]()
	entered := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.GetOrInit(func() (int, error) {
			close(entered)
			<-release
			return 1, nil
		})
	}()
	<-entered

	if err := c.Set(2); err == nil {
		t.Fatal("Set succeeded while an attempt was in flight")
	}

	close(release)
	<-done

	if v, ok := c.Get(); !ok || v != 1 {
		t.Fatalf("got (%d, %v), want (1, true)", v, ok)
	}
}

func TestCell_PanickingInitializer(t *testing.T) {
	c := New[int]()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic did not propagate")
			}
		}()
		_, _ = c.GetOrInit(func() (int, error) {
			panic("exploded")
		})
	}()

	if _, ok := c.Get(); ok {
		t.Fatal("cell populated after panicking initializer")
	}

	v, err := c.GetOrInit(func() (int, error) { return 5, nil })
	if err != nil {
		t.Fatal(err)
	}
	if v != 5 {
		t.Fatalf("got %d, want 5", v)
	}
}

// recordingHeld records Release/Acquire calls from parked waiters.
type recordingHeld struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingHeld) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "release")
}

func (r *recordingHeld) Acquire() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "acquire")
}

func (r *recordingHeld) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestCell_HeldReleasedWhileParked(t *testing.T) {
	held := &recordingHeld{}
	c := New[int](WithHeld(held))
	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _ = c.GetOrInit(func() (int, error) {
			close(entered)
			<-release
			return 1, nil
		})
	}()
	<-entered

	waiterDone := make(chan struct{})
	go func() {
		defer close(waiterDone)
		_, _ = c.GetOrInit(func() (int, error) { return 2, nil })
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)
	select {
	case <-waiterDone:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter did not return")
	}

	events := held.snapshot()
	if len(events) != 2 || events[0] != "release" || events[1] != "acquire" {
		t.Fatalf("held events = %v, want [release acquire]", events)
	}

	// The winner and fast-path readers never touch the resource.
	if _, err := c.GetOrInit(func() (int, error) { return 3, nil }); err != nil {
		t.Fatal(err)
	}
	if events := held.snapshot(); len(events) != 2 {
		t.Fatalf("fast path touched held resource: %v", events)
	}
}
