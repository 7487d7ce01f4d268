package meos

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/tingold/orb-meos/native"
)

// TBox is a temporal box: a value span, a time span, or both.
type TBox struct {
	handle
}

// STBox is a spatiotemporal box: a spatial extent, a time span, or both.
type STBox struct {
	handle
}

// ParseTBox parses a box such as "TBOX XT([1, 2],[2001-01-01, 2001-01-02])".
func (rt *Runtime) ParseTBox(text string) (*TBox, error) {
	cs, err := cString(text)
	if err != nil {
		return nil, err
	}

	n := rt.enter()
	defer rt.exit()

	ptr := n.TBoxIn(cs)
	if ptr == 0 {
		return nil, nativeError(n, ErrParse, fmt.Sprintf("%q", text))
	}
	b := &TBox{}
	b.init(rt, ptr)
	return b, nil
}

// TBoxFromInt returns the integer box [i, i+1).
func (rt *Runtime) TBoxFromInt(i int) (*TBox, error) {
	n := rt.enter()
	defer rt.exit()

	ptr := n.IntToTBox(i)
	if ptr == 0 {
		return nil, nativeError(n, ErrConstruction, "int to tbox")
	}
	b := &TBox{}
	b.init(rt, ptr)
	return b, nil
}

func (b *TBox) Variant() Variant {
	b.live()
	return VariantTBox
}

// AsText returns the text form of b with at most maxdd decimal digits.
func (b *TBox) AsText(maxdd int) (string, error) {
	n := b.rt.enter()
	defer b.rt.exit()

	p := n.TBoxOut(b.live(), maxdd)
	if p == 0 {
		return "", nativeError(n, ErrEncoding, "tbox")
	}
	return takeString(n, p)
}

func (b *TBox) String() string {
	s, err := b.AsText(DefaultMaxDecimals)
	if err != nil {
		return "TBOX(" + err.Error() + ")"
	}
	return s
}

func (b *TBox) Equal(o *TBox) bool {
	return b.relate(o, native.Native.TBoxEq)
}

// Compare orders boxes by time span, then by value span.
func (b *TBox) Compare(o *TBox) int {
	b.rt.own(&o.handle)
	n := b.rt.enter()
	defer b.rt.exit()
	return n.TBoxCmp(b.live(), o.live())
}

// Contains reports whether b contains o on every dimension they share.
func (b *TBox) Contains(o *TBox) bool {
	return b.relate(o, native.Native.ContainsTBoxTBox)
}

// Overlaps reports whether b and o intersect on every dimension they share.
func (b *TBox) Overlaps(o *TBox) bool {
	return b.relate(o, native.Native.OverlapsTBoxTBox)
}

// Same reports whether b and o have equal bounds on every dimension they
// share.
func (b *TBox) Same(o *TBox) bool {
	return b.relate(o, native.Native.SameTBoxTBox)
}

func (b *TBox) relate(o *TBox, fn func(native.Native, native.Ptr, native.Ptr) bool) bool {
	b.rt.own(&o.handle)
	n := b.rt.enter()
	defer b.rt.exit()
	return fn(n, b.live(), o.live())
}

// Close frees the box. Closing twice is a no-op.
func (b *TBox) Close() error {
	b.release()
	return nil
}

// ParseSTBox parses a box such as "SRID=4326;STBOX X((1,2),(3,4))".
func (rt *Runtime) ParseSTBox(text string) (*STBox, error) {
	cs, err := cString(text)
	if err != nil {
		return nil, err
	}

	n := rt.enter()
	defer rt.exit()

	ptr := n.STBoxIn(cs)
	if ptr == 0 {
		return nil, nativeError(n, ErrParse, fmt.Sprintf("%q", text))
	}
	b := &STBox{}
	b.init(rt, ptr)
	return b, nil
}

func (b *STBox) Variant() Variant {
	b.live()
	return VariantSTBox
}

// AsText returns the text form of b with at most maxdd decimal digits.
func (b *STBox) AsText(maxdd int) (string, error) {
	n := b.rt.enter()
	defer b.rt.exit()

	p := n.STBoxOut(b.live(), maxdd)
	if p == 0 {
		return "", nativeError(n, ErrEncoding, "stbox")
	}
	return takeString(n, p)
}

func (b *STBox) String() string {
	s, err := b.AsText(DefaultMaxDecimals)
	if err != nil {
		return "STBOX(" + err.Error() + ")"
	}
	return s
}

// Bound returns the spatial extent of b. ok is false when b has no spatial
// dimension.
func (b *STBox) Bound() (orb.Bound, bool) {
	n := b.rt.enter()
	defer b.rt.exit()

	xmin, ymin, xmax, ymax, ok := n.STBoxXY(b.live())
	if !ok {
		return orb.Bound{}, false
	}
	return orb.Bound{Min: orb.Point{xmin, ymin}, Max: orb.Point{xmax, ymax}}, true
}

func (b *STBox) Equal(o *STBox) bool {
	return b.relate(o, native.Native.STBoxEq)
}

// Compare orders boxes by time span, then by spatial extent.
func (b *STBox) Compare(o *STBox) int {
	b.rt.own(&o.handle)
	n := b.rt.enter()
	defer b.rt.exit()
	return n.STBoxCmp(b.live(), o.live())
}

// Contains reports whether b contains o on every dimension they share.
func (b *STBox) Contains(o *STBox) bool {
	return b.relate(o, native.Native.ContainsSTBoxSTBox)
}

// Overlaps reports whether b and o intersect on every dimension they share.
func (b *STBox) Overlaps(o *STBox) bool {
	return b.relate(o, native.Native.OverlapsSTBoxSTBox)
}

// Same reports whether b and o have equal bounds on every dimension they
// share.
func (b *STBox) Same(o *STBox) bool {
	return b.relate(o, native.Native.SameSTBoxSTBox)
}

func (b *STBox) relate(o *STBox, fn func(native.Native, native.Ptr, native.Ptr) bool) bool {
	b.rt.own(&o.handle)
	n := b.rt.enter()
	defer b.rt.exit()
	return fn(n, b.live(), o.live())
}

// Close frees the box. Closing twice is a no-op.
func (b *STBox) Close() error {
	b.release()
	return nil
}
