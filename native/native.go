// Package native declares the MEOS entry points used by the meos package.
//
// Implementations follow the C calling conventions of libmeos: constructors
// return a zero Ptr (NULL) on failure, serializers return buffers the caller
// must Free, and nothing is freed implicitly. The cgo implementation is built
// with the "meos" build tag; a pure Go reference implementation lives in
// internal/memnative.
package native

// Ptr is an address in native memory. The zero Ptr is NULL.
type Ptr uintptr

// Temporal subtypes as stored in the subtype field of a MEOS Temporal.
const (
	SubtypeAny         uint8 = 0
	SubtypeInstant     uint8 = 1
	SubtypeSequence    uint8 = 2
	SubtypeSequenceSet uint8 = 3
)

// Interp is the MEOS interpType enumeration.
type Interp uint8

const (
	InterpNone     Interp = 0
	InterpDiscrete Interp = 1
	InterpStep     Interp = 2
	InterpLinear   Interp = 3
)

func (i Interp) String() string {
	switch i {
	case InterpDiscrete:
		return "Discrete"
	case InterpStep:
		return "Step"
	case InterpLinear:
		return "Linear"
	default:
		return "None"
	}
}

// WKB variant flags accepted by the WKB serializers.
const (
	WKBISO      uint8 = 0x01
	WKBSFSQL    uint8 = 0x02
	WKBExtended uint8 = 0x04
	WKBNDR      uint8 = 0x08
	WKBXDR      uint8 = 0x10
	WKBHex      uint8 = 0x20
)

// Native is the set of libmeos functions the binding calls.
//
// Strings passed in must not contain NUL bytes; callers check this before
// crossing the boundary.
type Native interface {
	Initialize(tz string) error
	Finalize()

	// LastError returns and clears the error reported by the most recent
	// failed call, or nil.
	LastError() error

	TGeomPointIn(str string) Ptr
	TemporalFromWKB(wkb []byte) Ptr
	TemporalFromHexWKB(hex string) Ptr
	TSequenceMake(instants []Ptr, maxCount int, lowerInc, upperInc bool, interp Interp, normalize bool) Ptr
	// TSequenceAppendTInstant may return seq itself or a newly allocated
	// sequence. It never frees seq.
	TSequenceAppendTInstant(seq, inst Ptr, expand bool) Ptr
	TSequenceRestart(seq Ptr, count int)

	TemporalSubtype(temp Ptr) uint8
	TemporalInterp(temp Ptr) Interp
	TemporalNumInstants(temp Ptr) int
	TemporalStartTimestamp(temp Ptr) int64
	TemporalEndTimestamp(temp Ptr) int64
	TemporalSRID(temp Ptr) int32
	TemporalEq(a, b Ptr) bool
	TPointToSTBox(temp Ptr) Ptr

	TemporalOut(temp Ptr, maxdd int) Ptr
	TPointAsEWKT(temp Ptr, maxdd int) Ptr
	TemporalAsMFJSON(temp Ptr, withBBox bool, flags, precision int, srs string) Ptr
	TemporalAsWKB(temp Ptr, variant uint8) (Ptr, int)
	TemporalAsHexWKB(temp Ptr, variant uint8) (Ptr, int)

	TBoxIn(str string) Ptr
	TBoxOut(box Ptr, maxdd int) Ptr
	IntToTBox(i int) Ptr
	TBoxEq(a, b Ptr) bool
	TBoxCmp(a, b Ptr) int
	ContainsTBoxTBox(a, b Ptr) bool
	OverlapsTBoxTBox(a, b Ptr) bool
	SameTBoxTBox(a, b Ptr) bool

	STBoxIn(str string) Ptr
	STBoxOut(box Ptr, maxdd int) Ptr
	STBoxEq(a, b Ptr) bool
	STBoxCmp(a, b Ptr) int
	ContainsSTBoxSTBox(a, b Ptr) bool
	OverlapsSTBoxSTBox(a, b Ptr) bool
	SameSTBoxSTBox(a, b Ptr) bool
	// STBoxXY reports the spatial extent of box. ok is false when the box
	// has no spatial dimension.
	STBoxXY(box Ptr) (xmin, ymin, xmax, ymax float64, ok bool)

	// CopyCString copies the NUL-terminated string at p into Go memory.
	CopyCString(p Ptr) []byte
	// CopyBytes copies size bytes at p into Go memory.
	CopyBytes(p Ptr, size int) []byte
	Free(p Ptr)
}
