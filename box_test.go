package meos

import (
	"errors"
	"testing"
)

func TestTBox(t *testing.T) {
	rt, _ := newTestRuntime(t)

	outer, err := rt.ParseTBox("TBOX X([0, 10])")
	if err != nil {
		t.Fatalf("ParseTBox failed: %v", err)
	}
	defer outer.Close()
	inner, _ := rt.ParseTBox("TBOX X([2, 3])")
	defer inner.Close()
	far, _ := rt.ParseTBox("TBOX X([20, 30])")
	defer far.Close()

	if outer.Variant() != VariantTBox {
		t.Errorf("expected TBox, got %s", outer.Variant())
	}
	if got := outer.String(); got != "TBOXFLOAT X([0, 10])" {
		t.Errorf("unexpected text %q", got)
	}
	if !outer.Contains(inner) || inner.Contains(outer) {
		t.Error("expected outer to contain inner only")
	}
	if !outer.Overlaps(inner) || outer.Overlaps(far) {
		t.Error("unexpected overlap result")
	}
	if !outer.Equal(outer) || outer.Equal(inner) {
		t.Error("unexpected equality result")
	}
	if !outer.Same(outer) {
		t.Error("expected a box to be the same as itself")
	}
	if inner.Compare(far) >= 0 || far.Compare(inner) <= 0 || outer.Compare(outer) != 0 {
		t.Error("unexpected ordering")
	}
}

func TestTBoxFromInt(t *testing.T) {
	rt, _ := newTestRuntime(t)

	b, err := rt.TBoxFromInt(1)
	if err != nil {
		t.Fatalf("TBoxFromInt failed: %v", err)
	}
	defer b.Close()

	if got := b.String(); got != "TBOXINT X([1, 2))" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestParseTBox_Invalid(t *testing.T) {
	rt, _ := newTestRuntime(t)

	if _, err := rt.ParseTBox("TBOX X([4, 1])"); !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
	if _, err := rt.ParseTBox("TBOX\x00"); !errors.Is(err, ErrFFIString) {
		t.Errorf("expected ErrFFIString, got %v", err)
	}
}

func TestSTBox(t *testing.T) {
	rt, _ := newTestRuntime(t)

	big, err := rt.ParseSTBox("STBOX X((0,0),(10,10))")
	if err != nil {
		t.Fatalf("ParseSTBox failed: %v", err)
	}
	defer big.Close()
	small, _ := rt.ParseSTBox("STBOX X((1,1),(2,2))")
	defer small.Close()
	away, _ := rt.ParseSTBox("STBOX X((20,20),(30,30))")
	defer away.Close()

	if big.Variant() != VariantSTBox {
		t.Errorf("expected STBox, got %s", big.Variant())
	}
	if got := big.String(); got != "STBOX X((0,0),(10,10))" {
		t.Errorf("unexpected text %q", got)
	}
	if !big.Contains(small) || small.Contains(big) {
		t.Error("expected big to contain small only")
	}
	if !big.Overlaps(small) || big.Overlaps(away) {
		t.Error("unexpected overlap result")
	}
	if !big.Equal(big) || big.Equal(small) || !big.Same(big) {
		t.Error("unexpected equality result")
	}
	if big.Compare(big) != 0 {
		t.Error("expected a box to compare equal to itself")
	}

	bound, ok := small.Bound()
	if !ok || bound.Min[0] != 1 || bound.Max[1] != 2 {
		t.Errorf("unexpected bound %v (ok=%v)", bound, ok)
	}
}

func TestSTBox_TimeOnly(t *testing.T) {
	rt, _ := newTestRuntime(t)

	b, err := rt.ParseSTBox("STBOX T([2001-01-01, 2001-01-02])")
	if err != nil {
		t.Fatalf("ParseSTBox failed: %v", err)
	}
	defer b.Close()

	if _, ok := b.Bound(); ok {
		t.Error("expected no spatial extent")
	}
}

func TestBox_UseAfterClose(t *testing.T) {
	rt, _ := newTestRuntime(t)

	b, err := rt.ParseSTBox("STBOX X((0,0),(1,1))")
	if err != nil {
		t.Fatalf("ParseSTBox failed: %v", err)
	}
	_ = b.Close()

	expectPanic(t, "String", func() { _ = b.String() })
}
