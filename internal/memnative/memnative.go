// Package memnative is an in-process stand-in for libmeos.
//
// Engine implements native.Native with the same calling conventions as the
// C library: constructors return a zero Ptr on failure and record the reason
// for LastError, serializers hand back buffers the caller must Free, and
// appends reallocate only when a sequence runs out of capacity. Every
// allocation lives in a handle table so that tests can count live objects
// and catch double frees.
//
// The engine understands temporal geometry points (instants, sequences and
// sequence sets of 2D points), TBox and STBox. It does not attempt the
// temporal algebra of MEOS.
package memnative

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tingold/orb-meos/native"
)

// Kind identifies what an allocation holds.
type Kind uint8

const (
	KindTemporal Kind = iota + 1
	KindTBox
	KindSTBox
	KindBuffer
)

func (k Kind) String() string {
	switch k {
	case KindTemporal:
		return "temporal"
	case KindTBox:
		return "tbox"
	case KindSTBox:
		return "stbox"
	case KindBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// EventType distinguishes allocation events.
type EventType uint8

const (
	EventAlloc EventType = iota
	EventFree
)

// Event describes one allocation or release.
type Event struct {
	Ptr  native.Ptr
	Kind Kind
	Type EventType
}

// Observer receives allocation events.
type Observer interface {
	OnAllocEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnAllocEvent(e Event) { f(e) }

const (
	ptrBase   native.Ptr = 0x10000
	ptrStride native.Ptr = 0x40
)

var errNotInitialized = errors.New("memnative: not initialized")

type entry struct {
	value any
	kind  Kind
}

// Engine is a native.Native backed by Go memory.
type Engine struct {
	mu        sync.Mutex
	entries   map[native.Ptr]entry
	next      native.Ptr
	allocs    int
	frees     int
	observers []Observer

	loc         *time.Location
	initialized bool
	lastErr     error
}

var _ native.Native = (*Engine)(nil)

// New creates an uninitialized engine.
func New() *Engine {
	return &Engine{
		entries: make(map[native.Ptr]entry),
		next:    ptrBase,
		loc:     time.UTC,
	}
}

// Subscribe adds an observer for allocation events.
func (e *Engine) Subscribe(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// Live returns the number of allocations not yet freed.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// LiveKind returns the number of live allocations of kind k.
func (e *Engine) LiveKind(k Kind) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ent := range e.entries {
		if ent.kind == k {
			n++
		}
	}
	return n
}

// Allocs returns the total number of allocations made.
func (e *Engine) Allocs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.allocs
}

// Frees returns the total number of frees.
func (e *Engine) Frees() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frees
}

func (e *Engine) Initialize(tz string) error {
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("memnative: time zone %q: %w", tz, err)
		}
		loc = l
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loc = loc
	e.initialized = true
	return nil
}

func (e *Engine) Finalize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
}

func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.lastErr
	e.lastErr = nil
	return err
}

// fail records err for LastError and returns NULL.
func (e *Engine) fail(err error) native.Ptr {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
	return 0
}

func (e *Engine) mustInit() {
	e.mu.Lock()
	ok := e.initialized
	e.mu.Unlock()
	if !ok {
		panic(errNotInitialized)
	}
}

func (e *Engine) location() *time.Location {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loc
}

func (e *Engine) alloc(kind Kind, value any) native.Ptr {
	e.mustInit()

	e.mu.Lock()
	p := e.next
	e.next += ptrStride
	e.entries[p] = entry{kind: kind, value: value}
	e.allocs++
	observers := e.observers
	e.mu.Unlock()

	for _, o := range observers {
		o.OnAllocEvent(Event{Ptr: p, Kind: kind, Type: EventAlloc})
	}
	return p
}

func (e *Engine) get(p native.Ptr, kind Kind) any {
	e.mu.Lock()
	ent, ok := e.entries[p]
	e.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("memnative: invalid pointer %#x", uintptr(p)))
	}
	if ent.kind != kind {
		panic(fmt.Sprintf("memnative: pointer %#x holds %s, not %s", uintptr(p), ent.kind, kind))
	}
	return ent.value
}

func (e *Engine) temporal(p native.Ptr) *temporal {
	return e.get(p, KindTemporal).(*temporal)
}

func (e *Engine) buffer(p native.Ptr) []byte {
	return e.get(p, KindBuffer).([]byte)
}

// Free releases p. Freeing NULL is a no-op; freeing an unknown or already
// freed pointer panics.
func (e *Engine) Free(p native.Ptr) {
	if p == 0 {
		return
	}

	e.mu.Lock()
	ent, ok := e.entries[p]
	if !ok {
		e.mu.Unlock()
		panic(fmt.Sprintf("memnative: free of unallocated pointer %#x", uintptr(p)))
	}
	delete(e.entries, p)
	e.frees++
	observers := e.observers
	e.mu.Unlock()

	for _, o := range observers {
		o.OnAllocEvent(Event{Ptr: p, Kind: ent.kind, Type: EventFree})
	}
}

// CopyCString copies a string buffer up to its terminating NUL.
func (e *Engine) CopyCString(p native.Ptr) []byte {
	buf := e.buffer(p)
	for i, c := range buf {
		if c == 0 {
			buf = buf[:i]
			break
		}
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}

func (e *Engine) CopyBytes(p native.Ptr, size int) []byte {
	buf := e.buffer(p)
	if size > len(buf) {
		panic(fmt.Sprintf("memnative: read of %d bytes from %d byte buffer", size, len(buf)))
	}
	out := make([]byte, size)
	copy(out, buf[:size])
	return out
}

// cstring allocates s as a NUL-terminated buffer.
func (e *Engine) cstring(s string) native.Ptr {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return e.alloc(KindBuffer, buf)
}
