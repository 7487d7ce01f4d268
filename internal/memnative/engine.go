package memnative

import (
	"errors"

	"github.com/tingold/orb-meos/native"
)

func (e *Engine) parser() parser {
	return parser{loc: e.location()}
}

func (e *Engine) formatter(maxdd int) formatter {
	return formatter{loc: e.location(), maxdd: maxdd}
}

func (e *Engine) TGeomPointIn(str string) native.Ptr {
	e.mustInit()
	t, err := e.parser().temporal(str)
	if err != nil {
		return e.fail(err)
	}
	return e.alloc(KindTemporal, t)
}

func (e *Engine) TemporalFromWKB(wkb []byte) native.Ptr {
	e.mustInit()
	t, err := decodeWKB(wkb)
	if err != nil {
		return e.fail(err)
	}
	return e.alloc(KindTemporal, t)
}

func (e *Engine) TemporalFromHexWKB(hex string) native.Ptr {
	e.mustInit()
	t, err := decodeHexWKB(hex)
	if err != nil {
		return e.fail(err)
	}
	return e.alloc(KindTemporal, t)
}

func (e *Engine) TSequenceMake(instants []native.Ptr, maxCount int, lowerInc, upperInc bool, interp native.Interp, normalize bool) native.Ptr {
	e.mustInit()
	if len(instants) == 0 {
		return e.fail(errEmptySequence)
	}
	samples := make([]instant, len(instants))
	var srid int32
	for i, p := range instants {
		in := e.temporal(p)
		if in.subtype != native.SubtypeInstant {
			return e.fail(errors.New("a temporal sequence is made of temporal instants"))
		}
		if i == 0 {
			srid = in.srid
		} else if in.srid != srid {
			return e.fail(errMixedSRID)
		}
		samples[i] = in.instants[0]
	}
	t, err := newSequence(samples, srid, maxCount, lowerInc, upperInc, interp, normalize)
	if err != nil {
		return e.fail(err)
	}
	return e.alloc(KindTemporal, t)
}

func (e *Engine) TSequenceAppendTInstant(seq, inst native.Ptr, expand bool) native.Ptr {
	e.mustInit()
	s, in := e.temporal(seq), e.temporal(inst)
	if s.subtype != native.SubtypeSequence || in.subtype != native.SubtypeInstant {
		return e.fail(errors.New("append expects a temporal sequence and a temporal instant"))
	}
	out, err := appendInstant(s, in.srid, in.instants[0], expand)
	if err != nil {
		return e.fail(err)
	}
	if out == s {
		return seq
	}
	return e.alloc(KindTemporal, out)
}

func (e *Engine) TSequenceRestart(seq native.Ptr, count int) {
	e.mustInit()
	s := e.temporal(seq)
	if s.subtype != native.SubtypeSequence {
		panic("memnative: restart of a non-sequence value")
	}
	restart(s, count)
}

func (e *Engine) TemporalSubtype(temp native.Ptr) uint8 {
	return e.temporal(temp).subtype
}

func (e *Engine) TemporalInterp(temp native.Ptr) native.Interp {
	return e.temporal(temp).interp
}

func (e *Engine) TemporalNumInstants(temp native.Ptr) int {
	return e.temporal(temp).numInstants()
}

func (e *Engine) TemporalStartTimestamp(temp native.Ptr) int64 {
	return e.temporal(temp).start()
}

func (e *Engine) TemporalEndTimestamp(temp native.Ptr) int64 {
	return e.temporal(temp).end()
}

func (e *Engine) TemporalSRID(temp native.Ptr) int32 {
	return e.temporal(temp).srid
}

func (e *Engine) TemporalEq(a, b native.Ptr) bool {
	return e.temporal(a).equal(e.temporal(b))
}

func (e *Engine) TPointToSTBox(temp native.Ptr) native.Ptr {
	return e.alloc(KindSTBox, temporalBox(e.temporal(temp)))
}

func (e *Engine) TemporalOut(temp native.Ptr, maxdd int) native.Ptr {
	return e.cstring(e.formatter(maxdd).temporal(e.temporal(temp)))
}

func (e *Engine) TPointAsEWKT(temp native.Ptr, maxdd int) native.Ptr {
	return e.cstring(e.formatter(maxdd).ewkt(e.temporal(temp)))
}

func (e *Engine) TemporalAsMFJSON(temp native.Ptr, withBBox bool, flags, precision int, srs string) native.Ptr {
	w := mfjsonWriter{loc: e.location(), precision: precision}
	out, err := w.marshal(e.temporal(temp), withBBox, flags, srs)
	if err != nil {
		return e.fail(err)
	}
	return e.cstring(string(out))
}

func (e *Engine) TemporalAsWKB(temp native.Ptr, variant uint8) (native.Ptr, int) {
	wkb := encodeWKB(e.temporal(temp), variant)
	return e.alloc(KindBuffer, wkb), len(wkb)
}

// TemporalAsHexWKB returns a NUL-terminated hex string; size excludes the
// terminator.
func (e *Engine) TemporalAsHexWKB(temp native.Ptr, variant uint8) (native.Ptr, int) {
	hex := encodeHexWKB(e.temporal(temp), variant)
	return e.cstring(hex), len(hex)
}

func (e *Engine) tbox(p native.Ptr) *tboxValue {
	return e.get(p, KindTBox).(*tboxValue)
}

func (e *Engine) stbox(p native.Ptr) *stboxValue {
	return e.get(p, KindSTBox).(*stboxValue)
}

func (e *Engine) TBoxIn(str string) native.Ptr {
	e.mustInit()
	box, err := e.parser().tbox(str)
	if err != nil {
		return e.fail(err)
	}
	return e.alloc(KindTBox, box)
}

func (e *Engine) TBoxOut(box native.Ptr, maxdd int) native.Ptr {
	return e.cstring(e.formatter(maxdd).tbox(e.tbox(box)))
}

func (e *Engine) IntToTBox(i int) native.Ptr {
	return e.alloc(KindTBox, &tboxValue{
		hasX:  true,
		isInt: true,
		x:     span[float64]{lower: float64(i), upper: float64(i) + 1, lowerInc: true},
	})
}

func (e *Engine) TBoxEq(a, b native.Ptr) bool {
	return e.tbox(a).equal(e.tbox(b))
}

func (e *Engine) TBoxCmp(a, b native.Ptr) int {
	return e.tbox(a).compare(e.tbox(b))
}

func (e *Engine) ContainsTBoxTBox(a, b native.Ptr) bool {
	return e.tbox(a).relate(e.tbox(b), span[float64].contains, span[int64].contains)
}

func (e *Engine) OverlapsTBoxTBox(a, b native.Ptr) bool {
	return e.tbox(a).relate(e.tbox(b), span[float64].overlaps, span[int64].overlaps)
}

func (e *Engine) SameTBoxTBox(a, b native.Ptr) bool {
	return e.tbox(a).relate(e.tbox(b), span[float64].same, span[int64].same)
}

func (e *Engine) STBoxIn(str string) native.Ptr {
	e.mustInit()
	box, err := e.parser().stbox(str)
	if err != nil {
		return e.fail(err)
	}
	return e.alloc(KindSTBox, box)
}

func (e *Engine) STBoxOut(box native.Ptr, maxdd int) native.Ptr {
	return e.cstring(e.formatter(maxdd).stbox(e.stbox(box)))
}

func (e *Engine) STBoxEq(a, b native.Ptr) bool {
	return e.stbox(a).equal(e.stbox(b))
}

func (e *Engine) STBoxCmp(a, b native.Ptr) int {
	return e.stbox(a).compare(e.stbox(b))
}

func (e *Engine) ContainsSTBoxSTBox(a, b native.Ptr) bool {
	return e.stbox(a).relate(e.stbox(b), span[float64].contains, span[int64].contains)
}

func (e *Engine) OverlapsSTBoxSTBox(a, b native.Ptr) bool {
	return e.stbox(a).relate(e.stbox(b), span[float64].overlaps, span[int64].overlaps)
}

func (e *Engine) SameSTBoxSTBox(a, b native.Ptr) bool {
	return e.stbox(a).relate(e.stbox(b), span[float64].same, span[int64].same)
}

func (e *Engine) STBoxXY(box native.Ptr) (xmin, ymin, xmax, ymax float64, ok bool) {
	b := e.stbox(box)
	if !b.hasX {
		return 0, 0, 0, 0, false
	}
	return b.xmin, b.ymin, b.xmax, b.ymax, true
}
