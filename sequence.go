package meos

import (
	"fmt"

	"github.com/tingold/orb-meos/native"
)

// MakeSequence builds a sequence from instants, which must have strictly
// increasing timestamps. The instants are copied; the caller keeps owning
// them.
func (rt *Runtime) MakeSequence(instants []*Instant, opts SequenceOptions) (*Sequence, error) {
	if len(instants) == 0 {
		return nil, fmt.Errorf("%w: no instants", ErrConstruction)
	}
	maxCount := opts.MaxCount
	if maxCount == 0 {
		maxCount = len(instants)
	}
	if maxCount < len(instants) {
		return nil, fmt.Errorf("%w: capacity %d is below the %d instants", ErrConstruction, maxCount, len(instants))
	}
	if opts.Interp == InterpNone {
		return nil, fmt.Errorf("%w: a sequence needs an interpolation", ErrConstruction)
	}

	n := rt.enter()
	defer rt.exit()

	ptrs := make([]native.Ptr, len(instants))
	for i, in := range instants {
		rt.own(&in.handle)
		ptrs[i] = in.live()
		if i > 0 && n.TemporalStartTimestamp(ptrs[i]) <= n.TemporalStartTimestamp(ptrs[i-1]) {
			return nil, fmt.Errorf("%w: instant %d does not follow instant %d in time", ErrConstruction, i, i-1)
		}
	}

	ptr := n.TSequenceMake(ptrs, maxCount, opts.LowerInc, opts.UpperInc, opts.Interp, opts.Normalize)
	if ptr == 0 {
		return nil, nativeError(n, ErrConstruction, "make sequence")
	}
	if subtype := n.TemporalSubtype(ptr); subtype != native.SubtypeSequence {
		n.Free(ptr)
		return nil, fmt.Errorf("%w: make sequence returned subtype %d", ErrWrongVariant, subtype)
	}

	s := &Sequence{}
	s.init(rt, ptr, VariantSequence, n.TemporalInterp(ptr))
	return s, nil
}

// Append adds inst to the end of s and returns the sequence that now owns
// the result. s is consumed by a successful call and must not be used
// again, even when the native library grew it in place. On error s is
// left untouched.
//
//	seq, err = seq.Append(inst, meos.AppendOptions{Expand: true})
func (s *Sequence) Append(inst *Instant, opts AppendOptions) (*Sequence, error) {
	rt := s.rt
	n := rt.enter()
	defer rt.exit()

	rt.own(&inst.handle)
	old := s.live()
	ptr := n.TSequenceAppendTInstant(old, inst.live(), opts.Expand)
	if ptr == 0 {
		return nil, nativeError(n, ErrConstruction, "append")
	}
	if subtype := n.TemporalSubtype(ptr); subtype != native.SubtypeSequence {
		if ptr != old {
			n.Free(ptr)
		}
		return nil, fmt.Errorf("%w: append returned subtype %d", ErrWrongVariant, subtype)
	}
	if ptr != old {
		n.Free(old)
	}
	s.ptr = 0

	out := &Sequence{}
	out.init(rt, ptr, VariantSequence, n.TemporalInterp(ptr))
	return out, nil
}

// Restart truncates s in place to its last keep instants. It is a no-op
// when s has no more than keep instants.
func (s *Sequence) Restart(keep int) error {
	if keep < 1 {
		return fmt.Errorf("%w: restart must keep at least one instant", ErrConstruction)
	}

	n := s.rt.enter()
	defer s.rt.exit()

	ptr := s.live()
	if keep >= n.TemporalNumInstants(ptr) {
		return nil
	}
	n.TSequenceRestart(ptr, keep)
	return nil
}
