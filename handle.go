package meos

import (
	"github.com/tingold/orb-meos/native"
)

// noCopy lets go vet flag handles copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// handle owns one native allocation. A zero ptr means the handle has been
// released or moved.
type handle struct {
	_   noCopy
	rt  *Runtime
	ptr native.Ptr
}

func (h *handle) init(rt *Runtime, ptr native.Ptr) {
	h.rt = rt
	h.ptr = ptr
}

// live returns the owned pointer and panics after release.
func (h *handle) live() native.Ptr {
	if h.ptr == 0 {
		panic("meos: use of released handle")
	}
	return h.ptr
}

// release frees the allocation. Releasing twice is a no-op.
func (h *handle) release() {
	if h.ptr == 0 {
		return
	}
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()
	h.rt.n.Free(h.ptr)
	h.ptr = 0
}

// Released reports whether the handle no longer owns an allocation.
func (h *handle) Released() bool {
	return h.ptr == 0
}
