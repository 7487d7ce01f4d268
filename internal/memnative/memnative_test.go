package memnative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tingold/orb-meos/native"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e := New()
	require.NoError(t, e.Initialize("UTC"))
	t.Cleanup(e.Finalize)
	return e
}

func out(t *testing.T, e *Engine, p native.Ptr) string {
	t.Helper()
	s := e.CopyCString(p)
	e.Free(p)
	return string(s)
}

func TestParseAndPrint(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name    string
		in      string
		want    string
		subtype uint8
		interp  native.Interp
		n       int
	}{
		{
			name:    "instant",
			in:      "POINT(1 1)@2000-01-01",
			want:    "POINT(1 1)@2000-01-01 00:00:00+00",
			subtype: native.SubtypeInstant,
			interp:  native.InterpNone,
			n:       1,
		},
		{
			name:    "linear sequence",
			in:      "[POINT(1 1)@2000-01-01 00:00:00+00, POINT(2 2)@2000-01-01 00:01:00+00)",
			want:    "[POINT(1 1)@2000-01-01 00:00:00+00, POINT(2 2)@2000-01-01 00:01:00+00)",
			subtype: native.SubtypeSequence,
			interp:  native.InterpLinear,
			n:       2,
		},
		{
			name:    "step sequence",
			in:      "Interp=Step;[POINT(1 1)@2000-01-01, POINT(2 2)@2000-01-02]",
			want:    "Interp=Step;[POINT(1 1)@2000-01-01 00:00:00+00, POINT(2 2)@2000-01-02 00:00:00+00]",
			subtype: native.SubtypeSequence,
			interp:  native.InterpStep,
			n:       2,
		},
		{
			name:    "discrete sequence",
			in:      "{POINT(1 1)@2000-01-01, POINT(2 2)@2000-01-02}",
			want:    "{POINT(1 1)@2000-01-01 00:00:00+00, POINT(2 2)@2000-01-02 00:00:00+00}",
			subtype: native.SubtypeSequence,
			interp:  native.InterpDiscrete,
			n:       2,
		},
		{
			name:    "sequence set",
			in:      "{[POINT(1 1)@2000-01-01, POINT(2 2)@2000-01-02], [POINT(3 3)@2000-01-03, POINT(3 4)@2000-01-04]}",
			want:    "{[POINT(1 1)@2000-01-01 00:00:00+00, POINT(2 2)@2000-01-02 00:00:00+00], [POINT(3 3)@2000-01-03 00:00:00+00, POINT(3 4)@2000-01-04 00:00:00+00]}",
			subtype: native.SubtypeSequenceSet,
			interp:  native.InterpLinear,
			n:       4,
		},
		{
			name:    "offset and fraction",
			in:      "Point(1.5 -2.25)@2001-02-03T04:05:06.5+01:30",
			want:    "POINT(1.5 -2.25)@2001-02-03 02:35:06.5+00",
			subtype: native.SubtypeInstant,
			interp:  native.InterpNone,
			n:       1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := e.TGeomPointIn(tt.in)
			require.NotZero(t, p, "parse failed: %v", e.LastError())
			defer e.Free(p)

			assert.Equal(t, tt.subtype, e.TemporalSubtype(p))
			assert.Equal(t, tt.interp, e.TemporalInterp(p))
			assert.Equal(t, tt.n, e.TemporalNumInstants(p))
			assert.Equal(t, tt.want, out(t, e, e.TemporalOut(p, 15)))
		})
	}
}

func TestParseErrors(t *testing.T) {
	e := newEngine(t)
	for _, in := range []string{
		"",
		"not a temporal",
		"POINT(1 1)",
		"POINT(1 1)@notatime",
		"[POINT(1 1)@2000-01-02, POINT(2 2)@2000-01-01]",
		"[POINT(1 1)@2000-01-01, POINT(2 2)@2000-01-01]",
		"(POINT(1 1)@2000-01-01]",
		"[POINT(1 1)@2000-01-01",
		"{}",
		"SRID=4326;[SRID=3857;POINT(1 1)@2000-01-01]",
	} {
		t.Run(in, func(t *testing.T) {
			assert.Zero(t, e.TGeomPointIn(in))
			assert.Error(t, e.LastError())
			assert.NoError(t, e.LastError(), "LastError must clear")
		})
	}
	assert.Zero(t, e.Live())
}

func TestEWKTAndPrecision(t *testing.T) {
	e := newEngine(t)
	p := e.TGeomPointIn("SRID=4326;POINT(1.123456789 2)@2000-01-01")
	require.NotZero(t, p)
	defer e.Free(p)

	assert.Equal(t, int32(4326), e.TemporalSRID(p))
	assert.Equal(t, "SRID=4326;POINT(1.123 2)@2000-01-01 00:00:00+00", out(t, e, e.TPointAsEWKT(p, 3)))
	assert.Equal(t, "POINT(1.123456789 2)@2000-01-01 00:00:00+00", out(t, e, e.TemporalOut(p, 15)))
}

func TestAppendGrowsInPlace(t *testing.T) {
	e := newEngine(t)
	i1 := e.TGeomPointIn("POINT(1 1)@2000-01-01")
	i2 := e.TGeomPointIn("POINT(2 2)@2000-01-02")
	i3 := e.TGeomPointIn("POINT(3 3)@2000-01-03")
	defer func() {
		e.Free(i1)
		e.Free(i2)
		e.Free(i3)
	}()

	seq := e.TSequenceMake([]native.Ptr{i1}, 2, true, true, native.InterpLinear, true)
	require.NotZero(t, seq, "make failed: %v", e.LastError())

	same := e.TSequenceAppendTInstant(seq, i2, true)
	assert.Equal(t, seq, same, "spare capacity must be reused")

	grown := e.TSequenceAppendTInstant(seq, i3, true)
	require.NotZero(t, grown)
	assert.NotEqual(t, seq, grown, "a full sequence must be reallocated")
	assert.Equal(t, 2, e.TemporalNumInstants(seq), "the old sequence is untouched")
	assert.Equal(t, 3, e.TemporalNumInstants(grown))

	e.Free(seq)
	e.Free(grown)
	assert.Equal(t, 3, e.Live())
}

func TestAppendRejectsOlderInstant(t *testing.T) {
	e := newEngine(t)
	seq := e.TGeomPointIn("[POINT(1 1)@2000-01-02]")
	old := e.TGeomPointIn("POINT(1 1)@2000-01-01")
	defer e.Free(seq)
	defer e.Free(old)

	assert.Zero(t, e.TSequenceAppendTInstant(seq, old, true))
	assert.Error(t, e.LastError())
}

func TestRestartKeepsTail(t *testing.T) {
	e := newEngine(t)
	seq := e.TGeomPointIn("(POINT(1 1)@2000-01-01, POINT(2 5)@2000-01-02, POINT(3 3)@2000-01-03]")
	require.NotZero(t, seq)
	defer e.Free(seq)

	e.TSequenceRestart(seq, 1)
	assert.Equal(t, "[POINT(3 3)@2000-01-03 00:00:00+00]", out(t, e, e.TemporalOut(seq, 15)))

	e.TSequenceRestart(seq, 5)
	assert.Equal(t, 1, e.TemporalNumInstants(seq))
}

func TestMakeValidation(t *testing.T) {
	e := newEngine(t)
	i1 := e.TGeomPointIn("POINT(1 1)@2000-01-01")
	i2 := e.TGeomPointIn("POINT(2 2)@2000-01-02")
	defer e.Free(i1)
	defer e.Free(i2)

	assert.Zero(t, e.TSequenceMake(nil, 0, true, true, native.InterpLinear, true))
	assert.ErrorIs(t, e.LastError(), errEmptySequence)

	assert.Zero(t, e.TSequenceMake([]native.Ptr{i2, i1}, 2, true, true, native.InterpLinear, true))
	assert.Error(t, e.LastError())

	assert.Zero(t, e.TSequenceMake([]native.Ptr{i1, i2}, 1, true, true, native.InterpLinear, true))
	assert.Error(t, e.LastError())

	assert.Zero(t, e.TSequenceMake([]native.Ptr{i1}, 1, true, false, native.InterpLinear, true))
	assert.ErrorIs(t, e.LastError(), errInstantBounds)
}

func TestNormalizeDropsCollinear(t *testing.T) {
	e := newEngine(t)
	seq := e.TGeomPointIn("[POINT(0 0)@2000-01-01, POINT(1 1)@2000-01-02, POINT(2 2)@2000-01-03]")
	require.NotZero(t, seq)
	defer e.Free(seq)
	assert.Equal(t, 2, e.TemporalNumInstants(seq))
}

func TestWKBRoundTrip(t *testing.T) {
	e := newEngine(t)
	for _, in := range []string{
		"SRID=4326;POINT(1 2)@2000-01-01",
		"[POINT(1 1)@2000-01-01, POINT(2 3)@2000-01-02)",
		"Interp=Step;{[POINT(1 1)@2000-01-01, POINT(2 2)@2000-01-02], (POINT(3 3)@2000-01-03, POINT(4 4)@2000-01-04]}",
	} {
		t.Run(in, func(t *testing.T) {
			p := e.TGeomPointIn(in)
			require.NotZero(t, p)
			defer e.Free(p)

			for _, variant := range []uint8{native.WKBNDR | native.WKBExtended, native.WKBXDR} {
				buf, size := e.TemporalAsWKB(p, variant)
				wkb := e.CopyBytes(buf, size)
				e.Free(buf)

				back := e.TemporalFromWKB(wkb)
				require.NotZero(t, back, "decode failed: %v", e.LastError())
				if variant&native.WKBExtended != 0 {
					assert.True(t, e.TemporalEq(p, back))
				} else {
					assert.Equal(t, e.TemporalNumInstants(p), e.TemporalNumInstants(back))
				}
				e.Free(back)
			}

			hbuf, _ := e.TemporalAsHexWKB(p, native.WKBNDR|native.WKBExtended)
			back := e.TemporalFromHexWKB(out(t, e, hbuf))
			require.NotZero(t, back)
			assert.True(t, e.TemporalEq(p, back))
			e.Free(back)
		})
	}
}

func TestWKBRejectsGarbage(t *testing.T) {
	e := newEngine(t)
	for _, in := range [][]byte{nil, {0x01}, {0x07, 0, 0}, {0x01, 34, 0, 0x01, 1, 2}} {
		assert.Zero(t, e.TemporalFromWKB(in))
		assert.Error(t, e.LastError())
	}
	assert.Zero(t, e.TemporalFromHexWKB("zz"))
	assert.Error(t, e.LastError())
}

func TestMFJSON(t *testing.T) {
	e := newEngine(t)
	p := e.TGeomPointIn("[POINT(1.123 2)@2000-01-01, POINT(3 4)@2000-01-02]")
	require.NotZero(t, p)
	defer e.Free(p)

	got := out(t, e, e.TemporalAsMFJSON(p, true, 0, 2, "EPSG:4326"))
	assert.JSONEq(t, `{
		"type": "MovingPoint",
		"crs": {"type": "Name", "properties": {"name": "EPSG:4326"}},
		"stBoundedBy": {
			"bbox": [1.12, 2, 3, 4],
			"period": {"begin": "2000-01-01T00:00:00+00", "end": "2000-01-02T00:00:00+00", "lower_inc": true, "upper_inc": true}
		},
		"coordinates": [[1.12, 2], [3, 4]],
		"datetimes": ["2000-01-01T00:00:00+00", "2000-01-02T00:00:00+00"],
		"lower_inc": true,
		"upper_inc": true,
		"interpolation": "Linear"
	}`, got)
}

func TestTBox(t *testing.T) {
	e := newEngine(t)

	tests := []struct{ in, want string }{
		{"TBOX X([1.1, 4.0))", "TBOXFLOAT X([1.1, 4))"},
		{"TBOXINT X((4, 12])", "TBOXINT X([5, 13))"},
		{"TBOX T([2001-01-01, 2001-01-02])", "TBOX T([2001-01-01 00:00:00+00, 2001-01-02 00:00:00+00])"},
		{"TBOX XT((4, 12),[2001-01-01, 2001-10-01])", "TBOXFLOAT XT((4, 12),[2001-01-01 00:00:00+00, 2001-10-01 00:00:00+00])"},
	}
	for _, tt := range tests {
		p := e.TBoxIn(tt.in)
		require.NotZero(t, p, "%s: %v", tt.in, e.LastError())
		assert.Equal(t, tt.want, out(t, e, e.TBoxOut(p, 15)))
		e.Free(p)
	}

	outer := e.TBoxIn("TBOX X([0, 10])")
	inner := e.TBoxIn("TBOX X([2, 3])")
	far := e.TBoxIn("TBOX X([20, 30])")
	onlyT := e.TBoxIn("TBOX T([2001-01-01, 2001-01-02])")
	one := e.IntToTBox(1)
	defer func() {
		for _, p := range []native.Ptr{outer, inner, far, onlyT, one} {
			e.Free(p)
		}
	}()

	assert.True(t, e.ContainsTBoxTBox(outer, inner))
	assert.False(t, e.ContainsTBoxTBox(inner, outer))
	assert.True(t, e.OverlapsTBoxTBox(outer, inner))
	assert.False(t, e.OverlapsTBoxTBox(outer, far))
	assert.False(t, e.OverlapsTBoxTBox(outer, onlyT), "no shared dimension")
	assert.Equal(t, -1, e.TBoxCmp(inner, far))
	assert.Equal(t, 1, e.TBoxCmp(far, inner))
	assert.Equal(t, 0, e.TBoxCmp(outer, outer))
	assert.True(t, e.TBoxEq(outer, outer))
	assert.Equal(t, "TBOXINT X([1, 2))", out(t, e, e.TBoxOut(one, 15)))

	assert.Zero(t, e.TBoxIn("TBOX X([4, 1])"))
	assert.Error(t, e.LastError())
}

func TestSTBox(t *testing.T) {
	e := newEngine(t)

	tests := []struct{ in, want string }{
		{"STBOX X((1.0, 2.0), (3.0, 4.0))", "STBOX X((1,2),(3,4))"},
		{"STBOX Z((1,2,3),(4,5,6))", "STBOX Z((1,2,3),(4,5,6))"},
		{"SRID=4326;STBOX XT(((1,2),(3,4)),[2001-01-01, 2001-01-02])", "SRID=4326;STBOX XT(((1,2),(3,4)),[2001-01-01 00:00:00+00, 2001-01-02 00:00:00+00])"},
		{"STBOX T([2001-01-01, 2001-01-02])", "STBOX T([2001-01-01 00:00:00+00, 2001-01-02 00:00:00+00])"},
	}
	for _, tt := range tests {
		p := e.STBoxIn(tt.in)
		require.NotZero(t, p, "%s: %v", tt.in, e.LastError())
		assert.Equal(t, tt.want, out(t, e, e.STBoxOut(p, 15)))
		e.Free(p)
	}

	seq := e.TGeomPointIn("[POINT(1 5)@2000-01-01, POINT(3 2)@2000-01-02)")
	require.NotZero(t, seq)
	box := e.TPointToSTBox(seq)
	xmin, ymin, xmax, ymax, ok := e.STBoxXY(box)
	assert.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3, 5}, []float64{xmin, ymin, xmax, ymax})
	assert.Equal(t, "STBOX XT(((1,2),(3,5)),[2000-01-01 00:00:00+00, 2000-01-02 00:00:00+00))", out(t, e, e.STBoxOut(box, 15)))

	big := e.STBoxIn("STBOX X((0,0),(10,10))")
	assert.True(t, e.ContainsSTBoxSTBox(big, box))
	assert.True(t, e.OverlapsSTBoxSTBox(box, big))
	assert.False(t, e.SameSTBoxSTBox(box, big))

	e.Free(big)
	e.Free(box)
	e.Free(seq)
}

func TestHandleTable(t *testing.T) {
	e := newEngine(t)
	var events []Event
	e.Subscribe(ObserverFunc(func(ev Event) { events = append(events, ev) }))

	p := e.TGeomPointIn("POINT(1 1)@2000-01-01")
	require.NotZero(t, p)
	assert.Equal(t, 1, e.Live())
	assert.Equal(t, 1, e.LiveKind(KindTemporal))

	e.Free(p)
	e.Free(0)
	assert.Zero(t, e.Live())
	assert.Equal(t, 1, e.Allocs())
	assert.Equal(t, 1, e.Frees())
	assert.Equal(t, []Event{
		{Ptr: p, Kind: KindTemporal, Type: EventAlloc},
		{Ptr: p, Kind: KindTemporal, Type: EventFree},
	}, events)

	assert.Panics(t, func() { e.Free(p) }, "double free")
	assert.Panics(t, func() { e.TemporalNumInstants(p) }, "use after free")
}

func TestRequiresInitialize(t *testing.T) {
	e := New()
	assert.Panics(t, func() { e.TGeomPointIn("POINT(1 1)@2000-01-01") })

	require.NoError(t, e.Initialize(""))
	p := e.TGeomPointIn("POINT(1 1)@2000-01-01")
	require.NotZero(t, p)
	e.Free(p)
	e.Finalize()
	assert.Panics(t, func() { e.TGeomPointIn("POINT(1 1)@2000-01-01") })

	assert.Error(t, New().Initialize("Not/AZone"))
}
