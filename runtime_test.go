package meos

import (
	"errors"
	"testing"

	"github.com/tingold/orb-meos/internal/memnative"
)

// newTestRuntime initializes a runtime over an in-memory engine and checks
// on cleanup that every allocation was freed.
func newTestRuntime(t *testing.T) (*Runtime, *memnative.Engine) {
	t.Helper()

	engine := memnative.New()
	rt, err := Initialize(&Config{TimeZone: "UTC", Native: engine})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() {
		if err := rt.Finalize(); err != nil && !errors.Is(err, ErrNotInitialized) {
			t.Errorf("Finalize failed: %v", err)
		}
		if live := engine.Live(); live != 0 {
			t.Errorf("%d native allocations leaked", live)
		}
	})
	return rt, engine
}

// expectPanic fails the test unless fn panics.
func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestInitialize_Twice(t *testing.T) {
	newTestRuntime(t)

	_, err := Initialize(&Config{Native: memnative.New()})
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestInitialize_AfterFinalize(t *testing.T) {
	rt, err := Initialize(&Config{Native: memnative.New()})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := rt.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	rt2, err := Initialize(&Config{Native: memnative.New()})
	if err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	if err := rt2.Finalize(); err != nil {
		t.Errorf("Finalize failed: %v", err)
	}
}

func TestInitialize_BadTimeZone(t *testing.T) {
	_, err := Initialize(&Config{TimeZone: "Not/AZone", Native: memnative.New()})
	if err == nil {
		t.Fatal("expected error for unknown time zone")
	}

	// A failed Initialize must not hold the process-wide flag.
	rt, err := Initialize(&Config{Native: memnative.New()})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	_ = rt.Finalize()
}

func TestInitialize_DefaultConfig(t *testing.T) {
	rt, err := Initialize(nil)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer func() { _ = rt.Finalize() }()

	if rt.Location().String() != "UTC" {
		t.Errorf("expected UTC, got %s", rt.Location())
	}
}

func TestFinalize_Twice(t *testing.T) {
	rt, _ := newTestRuntime(t)
	if err := rt.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if err := rt.Finalize(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestUseAfterFinalize(t *testing.T) {
	rt, _ := newTestRuntime(t)
	inst, err := rt.ParseInstant("POINT(1 1)@2000-01-01")
	if err != nil {
		t.Fatalf("ParseInstant failed: %v", err)
	}
	if err := rt.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	expectPanic(t, "Parse", func() { _, _ = rt.Parse("POINT(1 1)@2000-01-01") })
	expectPanic(t, "NumInstants", func() { inst.NumInstants() })

	// Closing is still allowed so deferred cleanup runs.
	if err := inst.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestForeignHandle(t *testing.T) {
	rt, _ := newTestRuntime(t)
	inst, err := rt.ParseInstant("POINT(1 1)@2000-01-01")
	if err != nil {
		t.Fatalf("ParseInstant failed: %v", err)
	}
	defer inst.Close()

	other := &Runtime{n: rt.n, loc: rt.loc, live: true}
	expectPanic(t, "MakeSequence", func() {
		_, _ = other.MakeSequence([]*Instant{inst}, DefaultSequenceOptions())
	})
}
