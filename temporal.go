package meos

import (
	"fmt"
	"time"

	"github.com/tingold/orb-meos/native"
)

// Temporal is a temporal geometry point owned by this package. The
// concrete type is one of *Instant, *Sequence or *SequenceSet.
//
// A Temporal must be closed exactly once; calling any other method after
// Close panics.
type Temporal interface {
	Variant() Variant
	Interp() Interp
	NumInstants() int
	Start() time.Time
	End() time.Time
	SRID() int

	AsText(maxdd int) (string, error)
	AsEWKT(maxdd int) (string, error)
	AsMFJSON(opts MFJSONOptions) (string, error)
	AsWKB(v WKBVariant) ([]byte, error)
	AsHexWKB(v WKBVariant) (string, error)
	BoundingBox() (*STBox, error)

	Close() error

	base() *temporal
}

// temporal holds what every variant shares. The variant and interpolation
// are read from the native value once, at construction.
type temporal struct {
	handle
	variant Variant
	interp  Interp
}

// Instant is a single point at a single timestamp.
type Instant struct {
	temporal
}

// Sequence is an ordered run of instants with bounds and an interpolation.
type Sequence struct {
	temporal
}

// SequenceSet is an ordered set of non-overlapping sequences.
type SequenceSet struct {
	temporal
}

var (
	_ Temporal = (*Instant)(nil)
	_ Temporal = (*Sequence)(nil)
	_ Temporal = (*SequenceSet)(nil)
)

func (t *temporal) base() *temporal { return t }

func (t *temporal) init(rt *Runtime, ptr native.Ptr, v Variant, interp Interp) {
	t.handle.init(rt, ptr)
	t.variant = v
	t.interp = interp
}

// wrap takes ownership of ptr. If the subtype tag is not one of the known
// variants the allocation is freed. The caller holds the runtime lock.
func (rt *Runtime) wrap(n native.Native, ptr native.Ptr) (Temporal, error) {
	subtype := n.TemporalSubtype(ptr)
	v, ok := variantFromSubtype(subtype)
	if !ok {
		n.Free(ptr)
		return nil, fmt.Errorf("%w: unknown subtype %d", ErrWrongVariant, subtype)
	}
	interp := n.TemporalInterp(ptr)

	switch v {
	case VariantInstant:
		i := &Instant{}
		i.init(rt, ptr, v, interp)
		return i, nil
	case VariantSequence:
		s := &Sequence{}
		s.init(rt, ptr, v, interp)
		return s, nil
	default:
		ss := &SequenceSet{}
		ss.init(rt, ptr, v, interp)
		return ss, nil
	}
}

// Parse parses the text form of a temporal geometry point:
//
//	POINT(1 1)@2000-01-01                       Instant
//	[POINT(1 1)@2000-01-01, POINT(2 2)@...]     linear Sequence
//	Interp=Step;[...]                           step Sequence
//	{POINT(1 1)@2000-01-01, ...}                discrete Sequence
//	{[...], [...]}                              SequenceSet
//
// An optional SRID=n; prefix sets the spatial reference.
func (rt *Runtime) Parse(text string) (Temporal, error) {
	cs, err := cString(text)
	if err != nil {
		return nil, err
	}

	n := rt.enter()
	defer rt.exit()

	ptr := n.TGeomPointIn(cs)
	if ptr == 0 {
		return nil, nativeError(n, ErrParse, fmt.Sprintf("%q", text))
	}
	return rt.wrap(n, ptr)
}

// ParseInstant parses text and fails with ErrWrongVariant unless it is an
// Instant.
func (rt *Runtime) ParseInstant(text string) (*Instant, error) {
	return parseAs[*Instant](rt, text, VariantInstant)
}

// ParseSequence parses text and fails with ErrWrongVariant unless it is a
// Sequence.
func (rt *Runtime) ParseSequence(text string) (*Sequence, error) {
	return parseAs[*Sequence](rt, text, VariantSequence)
}

// ParseSequenceSet parses text and fails with ErrWrongVariant unless it is
// a SequenceSet.
func (rt *Runtime) ParseSequenceSet(text string) (*SequenceSet, error) {
	return parseAs[*SequenceSet](rt, text, VariantSequenceSet)
}

func parseAs[T Temporal](rt *Runtime, text string, want Variant) (T, error) {
	var zero T
	t, err := rt.Parse(text)
	if err != nil {
		return zero, err
	}
	if got := t.Variant(); got != want {
		_ = t.Close()
		return zero, fmt.Errorf("%w: want %s, got %s", ErrWrongVariant, want, got)
	}
	return t.(T), nil
}

// FromWKB decodes a temporal value from its WKB encoding.
func (rt *Runtime) FromWKB(wkb []byte) (Temporal, error) {
	n := rt.enter()
	defer rt.exit()

	ptr := n.TemporalFromWKB(wkb)
	if ptr == 0 {
		return nil, nativeError(n, ErrParse, "wkb")
	}
	return rt.wrap(n, ptr)
}

// FromHexWKB decodes a temporal value from hex encoded WKB.
func (rt *Runtime) FromHexWKB(hex string) (Temporal, error) {
	cs, err := cString(hex)
	if err != nil {
		return nil, err
	}

	n := rt.enter()
	defer rt.exit()

	ptr := n.TemporalFromHexWKB(cs)
	if ptr == 0 {
		return nil, nativeError(n, ErrParse, "hex wkb")
	}
	return rt.wrap(n, ptr)
}

func (t *temporal) Variant() Variant {
	t.live()
	return t.variant
}

func (t *temporal) Interp() Interp {
	t.live()
	return t.interp
}

func (t *temporal) NumInstants() int {
	n := t.rt.enter()
	defer t.rt.exit()
	return n.TemporalNumInstants(t.live())
}

func (t *temporal) Start() time.Time {
	n := t.rt.enter()
	defer t.rt.exit()
	return t.rt.timestamp(n.TemporalStartTimestamp(t.live()))
}

func (t *temporal) End() time.Time {
	n := t.rt.enter()
	defer t.rt.exit()
	return t.rt.timestamp(n.TemporalEndTimestamp(t.live()))
}

func (t *temporal) SRID() int {
	n := t.rt.enter()
	defer t.rt.exit()
	return int(n.TemporalSRID(t.live()))
}

// BoundingBox returns the spatiotemporal extent of t. The caller owns the
// returned box.
func (t *temporal) BoundingBox() (*STBox, error) {
	n := t.rt.enter()
	defer t.rt.exit()

	ptr := n.TPointToSTBox(t.live())
	if ptr == 0 {
		return nil, nativeError(n, ErrConstruction, "bounding box")
	}
	b := &STBox{}
	b.init(t.rt, ptr)
	return b, nil
}

// Close frees the native value. Closing twice is a no-op.
func (t *temporal) Close() error {
	t.release()
	return nil
}

// Equal reports whether a and b are the same variant and hold equal
// values.
func Equal(a, b Temporal) bool {
	ta, tb := a.base(), b.base()
	if ta.Variant() != tb.Variant() {
		return false
	}
	ta.rt.own(&tb.handle)

	n := ta.rt.enter()
	defer ta.rt.exit()
	return n.TemporalEq(ta.live(), tb.live())
}

// Compare orders a and b by start timestamp only. Values that start at the
// same instant compare equal even when they differ.
func Compare(a, b Temporal) int {
	return a.Start().Compare(b.Start())
}
