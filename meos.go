// Package meos provides safe Go handles for MEOS temporal geometry points.
// It wraps values allocated by the native library (instants, sequences,
// sequence sets and bounding boxes), validates their kind once at
// construction, and frees every allocation exactly once.
package meos

import (
	"errors"

	"github.com/tingold/orb-meos/native"
)

// Common errors returned by this package.
var (
	ErrParse              = errors.New("meos: parse failed")
	ErrWrongVariant       = errors.New("meos: wrong temporal variant")
	ErrConstruction       = errors.New("meos: construction failed")
	ErrEncoding           = errors.New("meos: encoding failed")
	ErrFFIString          = errors.New("meos: invalid string at native boundary")
	ErrAlreadyInitialized = errors.New("meos: already initialized")
	ErrNotInitialized     = errors.New("meos: not initialized")
)

// Variant is the kind of value a handle owns.
type Variant int

const (
	VariantInstant Variant = iota + 1
	VariantSequence
	VariantSequenceSet
	VariantTBox
	VariantSTBox
)

func (v Variant) String() string {
	switch v {
	case VariantInstant:
		return "Instant"
	case VariantSequence:
		return "Sequence"
	case VariantSequenceSet:
		return "SequenceSet"
	case VariantTBox:
		return "TBox"
	case VariantSTBox:
		return "STBox"
	default:
		return "Unknown"
	}
}

// variantFromSubtype decodes the subtype tag of a temporal value.
func variantFromSubtype(subtype uint8) (Variant, bool) {
	switch subtype {
	case native.SubtypeInstant:
		return VariantInstant, true
	case native.SubtypeSequence:
		return VariantSequence, true
	case native.SubtypeSequenceSet:
		return VariantSequenceSet, true
	default:
		return 0, false
	}
}

// Interp is the interpolation of a temporal value.
type Interp = native.Interp

const (
	InterpNone     = native.InterpNone
	InterpDiscrete = native.InterpDiscrete
	InterpStep     = native.InterpStep
	InterpLinear   = native.InterpLinear
)

// WKBVariant selects the binary encoding produced by AsWKB and AsHexWKB.
type WKBVariant uint8

const (
	WKBISO      = WKBVariant(native.WKBISO)
	WKBSFSQL    = WKBVariant(native.WKBSFSQL)
	WKBExtended = WKBVariant(native.WKBExtended)
	WKBNDR      = WKBVariant(native.WKBNDR)
	WKBXDR      = WKBVariant(native.WKBXDR)
)

// DefaultWKBVariant is little endian extended WKB, which keeps the SRID.
const DefaultWKBVariant = WKBNDR | WKBExtended

// DefaultMaxDecimals is the number of decimal digits used by text output
// when no precision is given.
const DefaultMaxDecimals = 15

// MFJSONOptions configures MF-JSON output.
type MFJSONOptions struct {
	WithBBox  bool   // Include stBoundedBy
	Pretty    bool   // Indent the output
	Precision int    // Decimal digits of coordinates
	SRS       string // CRS name, e.g. "EPSG:4326" (optional)
}

// DefaultMFJSONOptions returns compact MF-JSON without a bounding box.
func DefaultMFJSONOptions() MFJSONOptions {
	return MFJSONOptions{Precision: 6}
}

// SequenceOptions configures MakeSequence.
type SequenceOptions struct {
	MaxCount  int    // Capacity in instants; 0 means exactly the input length
	LowerInc  bool   // Lower bound inclusive
	UpperInc  bool   // Upper bound inclusive
	Interp    Interp // Linear, Step or Discrete
	Normalize bool   // Drop redundant instants
}

// DefaultSequenceOptions returns an inclusive, linear, normalized sequence
// sized to its input.
func DefaultSequenceOptions() SequenceOptions {
	return SequenceOptions{
		LowerInc:  true,
		UpperInc:  true,
		Interp:    InterpLinear,
		Normalize: true,
	}
}

// AppendOptions configures Sequence.Append.
type AppendOptions struct {
	// Expand lets the native library grow the sequence geometrically and
	// reuse spare capacity instead of copying on every append.
	Expand bool
}

// Config configures Initialize.
type Config struct {
	TimeZone string        // IANA zone used for parsing and printing; "" means UTC
	Native   native.Native // Native implementation (optional)
}

// Native engines selectable at build time.
const (
	EngineLibMEOS   = "libmeos"   // cgo bindings to libmeos (build tag meos)
	EngineReference = "reference" // in-memory reference engine
)

// DefaultConfig returns a UTC configuration using the default native
// implementation for this build.
func DefaultConfig() *Config {
	return &Config{
		TimeZone: "UTC",
	}
}
