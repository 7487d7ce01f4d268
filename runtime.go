package meos

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tingold/orb-meos/native"
)

// TimestampTz values count microseconds from 2000-01-01 00:00:00 UTC.
const pgEpochMicros int64 = 946684800 * 1000000

// initialized is set while a Runtime is live. The native library keeps
// process-wide state, so only one Runtime may exist at a time.
var initialized atomic.Bool

// Runtime owns the initialized native library. Every constructor is a
// method on Runtime, and every handle keeps a reference to the Runtime
// that created it.
//
// Native calls are serialized by the Runtime. Handles themselves are
// single-owner values and must not be mutated concurrently.
type Runtime struct {
	mu   sync.Mutex
	n    native.Native
	loc  *time.Location
	live bool
}

// Initialize initializes the native library. It fails with
// ErrAlreadyInitialized while another Runtime is live.
func Initialize(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tz := cfg.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("meos: time zone %q: %w", tz, err)
	}

	if !initialized.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInitialized
	}

	n := cfg.Native
	if n == nil {
		n = defaultNative()
	}
	if err := n.Initialize(tz); err != nil {
		initialized.Store(false)
		return nil, fmt.Errorf("meos: initialize: %w", err)
	}

	return &Runtime{n: n, loc: loc, live: true}, nil
}

// Finalize shuts the native library down. Handles must not be used
// afterwards; closing them is still allowed.
func (rt *Runtime) Finalize() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if !rt.live {
		return ErrNotInitialized
	}
	rt.n.Finalize()
	rt.live = false
	initialized.Store(false)
	return nil
}

// Location returns the time zone used for timestamps.
func (rt *Runtime) Location() *time.Location {
	return rt.loc
}

// enter locks the runtime for a native call. It is not reentrant.
func (rt *Runtime) enter() native.Native {
	rt.mu.Lock()
	if !rt.live {
		rt.mu.Unlock()
		panic("meos: runtime used after Finalize")
	}
	return rt.n
}

func (rt *Runtime) exit() {
	rt.mu.Unlock()
}

// own panics unless h was created by rt.
func (rt *Runtime) own(h *handle) {
	if h.rt != rt {
		panic("meos: handle belongs to a different runtime")
	}
}

func (rt *Runtime) timestamp(ts int64) time.Time {
	return time.UnixMicro(ts + pgEpochMicros).In(rt.loc)
}
