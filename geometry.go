package meos

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// Sample is one instant of a temporal point.
type Sample struct {
	Point orb.Point
	Time  time.Time
}

// movingPoint is the part of MF-JSON needed to recover samples.
type movingPoint struct {
	Coordinates   json.RawMessage `json:"coordinates"`
	Datetimes     json.RawMessage `json:"datetimes"`
	Sequences     []movingSeq     `json:"sequences"`
	Interpolation string          `json:"interpolation"`
}

type movingSeq struct {
	Coordinates [][]float64 `json:"coordinates"`
	Datetimes   []string    `json:"datetimes"`
}

var mfjsonTimeLayouts = []string{
	"2006-01-02T15:04:05.999999Z07:00:00",
	"2006-01-02T15:04:05.999999Z07:00",
	"2006-01-02T15:04:05.999999Z07",
}

func parseMFJSONTime(s string) (time.Time, error) {
	var err error
	for _, layout := range mfjsonTimeLayouts {
		var ts time.Time
		if ts, err = time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}

// Samples returns the instants of t in time order. A SequenceSet yields
// one slice per sequence.
func Samples(t Temporal) ([][]Sample, error) {
	mp, err := decodeMovingPoint(t)
	if err != nil {
		return nil, err
	}

	if len(mp.Sequences) > 0 {
		out := make([][]Sample, 0, len(mp.Sequences))
		for _, seq := range mp.Sequences {
			s, err := zipSamples(seq.Coordinates, seq.Datetimes)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}

	if t.Variant() == VariantInstant {
		var coord []float64
		var dt string
		if err := json.Unmarshal(mp.Coordinates, &coord); err != nil {
			return nil, fmt.Errorf("%w: mfjson coordinates: %v", ErrEncoding, err)
		}
		if err := json.Unmarshal(mp.Datetimes, &dt); err != nil {
			return nil, fmt.Errorf("%w: mfjson datetimes: %v", ErrEncoding, err)
		}
		s, err := zipSamples([][]float64{coord}, []string{dt})
		if err != nil {
			return nil, err
		}
		return [][]Sample{s}, nil
	}

	var coords [][]float64
	var dts []string
	if err := json.Unmarshal(mp.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("%w: mfjson coordinates: %v", ErrEncoding, err)
	}
	if err := json.Unmarshal(mp.Datetimes, &dts); err != nil {
		return nil, fmt.Errorf("%w: mfjson datetimes: %v", ErrEncoding, err)
	}
	s, err := zipSamples(coords, dts)
	if err != nil {
		return nil, err
	}
	return [][]Sample{s}, nil
}

func decodeMovingPoint(t Temporal) (*movingPoint, error) {
	opts := DefaultMFJSONOptions()
	opts.Precision = DefaultMaxDecimals

	text, err := t.AsMFJSON(opts)
	if err != nil {
		return nil, err
	}
	var mp movingPoint
	if err := json.Unmarshal([]byte(text), &mp); err != nil {
		return nil, fmt.Errorf("%w: mfjson: %v", ErrEncoding, err)
	}
	return &mp, nil
}

func zipSamples(coords [][]float64, dts []string) ([]Sample, error) {
	if len(coords) != len(dts) {
		return nil, fmt.Errorf("%w: %d coordinates for %d datetimes", ErrEncoding, len(coords), len(dts))
	}
	out := make([]Sample, len(coords))
	for i, c := range coords {
		if len(c) < 2 {
			return nil, fmt.Errorf("%w: coordinate %d has %d values", ErrEncoding, i, len(c))
		}
		ts, err := parseMFJSONTime(dts[i])
		if err != nil {
			return nil, fmt.Errorf("%w: datetime %q: %v", ErrEncoding, dts[i], err)
		}
		out[i] = Sample{Point: orb.Point{c[0], c[1]}, Time: ts}
	}
	return out, nil
}

// Trajectory returns the path of t as a geometry: a Point for an Instant or
// a single instant Sequence, a MultiPoint for a discrete Sequence, a
// LineString for a continuous Sequence and a MultiLineString for a
// SequenceSet.
func Trajectory(t Temporal) (orb.Geometry, error) {
	samples, err := Samples(t)
	if err != nil {
		return nil, err
	}

	switch t.Variant() {
	case VariantInstant:
		return samples[0][0].Point, nil

	case VariantSequence:
		pts := points(samples[0])
		if t.Interp() == InterpDiscrete {
			return orb.MultiPoint(pts), nil
		}
		if len(pts) == 1 {
			return pts[0], nil
		}
		return orb.LineString(pts), nil

	default:
		mls := make(orb.MultiLineString, 0, len(samples))
		for _, s := range samples {
			mls = append(mls, orb.LineString(points(s)))
		}
		return mls, nil
	}
}

func points(samples []Sample) []orb.Point {
	pts := make([]orb.Point, len(samples))
	for i, s := range samples {
		pts[i] = s.Point
	}
	return pts
}
