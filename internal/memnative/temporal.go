package memnative

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/tingold/orb-meos/native"
)

type instant struct {
	pt orb.Point
	t  int64
}

// temporal is a tgeompoint value. Instants and sequences keep their samples
// in instants; sequence sets keep their members in seqs.
type temporal struct {
	subtype  uint8
	interp   native.Interp
	srid     int32
	lowerInc bool
	upperInc bool
	instants []instant
	seqs     []*temporal
}

func (t *temporal) numInstants() int {
	if t.subtype != native.SubtypeSequenceSet {
		return len(t.instants)
	}
	n := 0
	for _, s := range t.seqs {
		n += len(s.instants)
	}
	return n
}

func (t *temporal) start() int64 {
	if t.subtype == native.SubtypeSequenceSet {
		return t.seqs[0].instants[0].t
	}
	return t.instants[0].t
}

func (t *temporal) end() int64 {
	if t.subtype == native.SubtypeSequenceSet {
		s := t.seqs[len(t.seqs)-1]
		return s.instants[len(s.instants)-1].t
	}
	return t.instants[len(t.instants)-1].t
}

func (t *temporal) each(fn func(instant)) {
	if t.subtype == native.SubtypeSequenceSet {
		for _, s := range t.seqs {
			for _, in := range s.instants {
				fn(in)
			}
		}
		return
	}
	for _, in := range t.instants {
		fn(in)
	}
}

func (t *temporal) equal(o *temporal) bool {
	if t.subtype != o.subtype || t.interp != o.interp || t.srid != o.srid {
		return false
	}
	if t.subtype == native.SubtypeSequenceSet {
		if len(t.seqs) != len(o.seqs) {
			return false
		}
		for i := range t.seqs {
			if !t.seqs[i].equal(o.seqs[i]) {
				return false
			}
		}
		return true
	}
	if t.subtype == native.SubtypeSequence && (t.lowerInc != o.lowerInc || t.upperInc != o.upperInc) {
		return false
	}
	if len(t.instants) != len(o.instants) {
		return false
	}
	for i := range t.instants {
		if t.instants[i] != o.instants[i] {
			return false
		}
	}
	return true
}

func newInstant(srid int32, in instant) *temporal {
	return &temporal{
		subtype:  native.SubtypeInstant,
		interp:   native.InterpNone,
		srid:     srid,
		lowerInc: true,
		upperInc: true,
		instants: []instant{in},
	}
}

var (
	errEmptySequence   = errors.New("a temporal sequence must have at least one instant")
	errInstantBounds   = errors.New("an instantaneous sequence must have inclusive bounds")
	errDiscreteBounds  = errors.New("a discrete sequence must have inclusive bounds")
	errMixedSRID       = errors.New("operation on mixed SRID")
	errNoInterpolation = errors.New("a temporal sequence requires an interpolation")
)

// newSequence validates instants and builds a sequence with room for
// capacity instants.
func newSequence(instants []instant, srid int32, capacity int, lowerInc, upperInc bool, interp native.Interp, normalize bool) (*temporal, error) {
	if len(instants) == 0 {
		return nil, errEmptySequence
	}
	if interp == native.InterpNone {
		return nil, errNoInterpolation
	}
	if capacity < len(instants) {
		return nil, fmt.Errorf("capacity %d is smaller than the %d instants", capacity, len(instants))
	}
	if len(instants) == 1 && (!lowerInc || !upperInc) {
		return nil, errInstantBounds
	}
	if interp == native.InterpDiscrete && (!lowerInc || !upperInc) {
		return nil, errDiscreteBounds
	}
	for i := 1; i < len(instants); i++ {
		if instants[i].t <= instants[i-1].t {
			return nil, errors.New("timestamps for temporal value must be increasing")
		}
	}

	buf := make([]instant, len(instants), capacity)
	copy(buf, instants)
	if normalize && interp != native.InterpDiscrete {
		buf = normalizeInstants(buf, interp)
	}
	return &temporal{
		subtype:  native.SubtypeSequence,
		interp:   interp,
		srid:     srid,
		lowerInc: lowerInc,
		upperInc: upperInc,
		instants: buf,
	}, nil
}

// normalizeInstants drops instants that do not change the shape of the
// sequence: repeated values under step interpolation, collinear points
// moving at constant speed under linear interpolation.
func normalizeInstants(in []instant, interp native.Interp) []instant {
	if len(in) < 3 {
		return in
	}
	out := in[:1]
	for i := 1; i < len(in)-1; i++ {
		prev, cur, next := out[len(out)-1], in[i], in[i+1]
		if redundant(prev, cur, next, interp) {
			continue
		}
		out = append(out, cur)
	}
	return append(out, in[len(in)-1])
}

func redundant(prev, cur, next instant, interp native.Interp) bool {
	if interp == native.InterpStep {
		return prev.pt == cur.pt
	}
	if prev.pt == cur.pt && cur.pt == next.pt {
		return true
	}
	// Linear: cur is where the segment prev..next would put it.
	f := float64(cur.t-prev.t) / float64(next.t-prev.t)
	x := prev.pt[0] + (next.pt[0]-prev.pt[0])*f
	y := prev.pt[1] + (next.pt[1]-prev.pt[1])*f
	return x == cur.pt[0] && y == cur.pt[1]
}

// appendInstant appends in to seq. The returned sequence is seq itself when
// it has spare capacity and expand is set, otherwise a fresh copy.
func appendInstant(seq *temporal, srid int32, in instant, expand bool) (*temporal, error) {
	if srid != seq.srid {
		return nil, errMixedSRID
	}
	last := seq.instants[len(seq.instants)-1]
	if in.t < last.t {
		return nil, errors.New("timestamps for temporal value must be increasing")
	}
	if in.t == last.t {
		if in.pt != last.pt {
			return nil, errors.New("the temporal values have different value at their common timestamp")
		}
		if expand {
			return seq, nil
		}
		return seq.clone(len(seq.instants)), nil
	}

	if expand && len(seq.instants) < cap(seq.instants) {
		seq.instants = append(seq.instants, in)
		seq.upperInc = true
		return seq, nil
	}
	capacity := len(seq.instants) + 1
	if expand {
		capacity = 2 * cap(seq.instants)
		if capacity < len(seq.instants)+1 {
			capacity = len(seq.instants) + 1
		}
	}
	out := seq.clone(capacity)
	out.instants = append(out.instants, in)
	out.upperInc = true
	return out, nil
}

func (t *temporal) clone(capacity int) *temporal {
	c := *t
	c.instants = make([]instant, len(t.instants), capacity)
	copy(c.instants, t.instants)
	return &c
}

// restart keeps the last count instants of seq.
func restart(seq *temporal, count int) {
	if count <= 0 || count >= len(seq.instants) {
		return
	}
	n := copy(seq.instants, seq.instants[len(seq.instants)-count:])
	seq.instants = seq.instants[:n]
	seq.lowerInc = true
}

func newSequenceSet(seqs []*temporal) (*temporal, error) {
	if len(seqs) == 0 {
		return nil, errors.New("a temporal sequence set must have at least one sequence")
	}
	interp, srid := seqs[0].interp, seqs[0].srid
	if interp == native.InterpDiscrete {
		return nil, errors.New("a sequence set cannot have discrete interpolation")
	}
	for i, s := range seqs {
		if s.interp != interp {
			return nil, errors.New("the sequences of a sequence set must have the same interpolation")
		}
		if s.srid != srid {
			return nil, errMixedSRID
		}
		if i == 0 {
			continue
		}
		prev := seqs[i-1]
		pe, ss := prev.end(), s.start()
		if pe > ss || (pe == ss && prev.upperInc && s.lowerInc) {
			return nil, errors.New("the sequences of a sequence set cannot overlap")
		}
	}
	return &temporal{
		subtype:  native.SubtypeSequenceSet,
		interp:   interp,
		srid:     srid,
		lowerInc: seqs[0].lowerInc,
		upperInc: seqs[len(seqs)-1].upperInc,
		seqs:     seqs,
	}, nil
}
