package memnative

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/tingold/orb-meos/native"
)

// mfjsonPretty is the json-c JSON_C_TO_STRING_PRETTY flag.
const mfjsonPretty = 2

type mfCRS struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type mfPeriod struct {
	Begin    string `json:"begin"`
	End      string `json:"end"`
	LowerInc bool   `json:"lower_inc"`
	UpperInc bool   `json:"upper_inc"`
}

type mfBounds struct {
	BBox   []float64 `json:"bbox"`
	Period mfPeriod  `json:"period"`
}

type mfSequence struct {
	Coordinates [][]float64 `json:"coordinates"`
	Datetimes   []string    `json:"datetimes"`
	LowerInc    bool        `json:"lower_inc"`
	UpperInc    bool        `json:"upper_inc"`
}

type mfMovingPoint struct {
	Type          string       `json:"type"`
	CRS           *mfCRS       `json:"crs,omitempty"`
	BoundedBy     *mfBounds    `json:"stBoundedBy,omitempty"`
	Coordinates   any          `json:"coordinates,omitempty"`
	Datetimes     any          `json:"datetimes,omitempty"`
	Sequences     []mfSequence `json:"sequences,omitempty"`
	LowerInc      *bool        `json:"lower_inc,omitempty"`
	UpperInc      *bool        `json:"upper_inc,omitempty"`
	Interpolation string       `json:"interpolation"`
}

type mfjsonWriter struct {
	loc       *time.Location
	precision int
}

func (w mfjsonWriter) round(v float64) float64 {
	if w.precision < 0 {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', w.precision, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func (w mfjsonWriter) coord(in instant) []float64 {
	return []float64{w.round(in.pt[0]), w.round(in.pt[1])}
}

func (w mfjsonWriter) datetime(ts int64) string {
	return formatTimestamp(ts, w.loc, 'T')
}

func (w mfjsonWriter) sequence(t *temporal) ([][]float64, []string) {
	coords := make([][]float64, len(t.instants))
	times := make([]string, len(t.instants))
	for i, in := range t.instants {
		coords[i] = w.coord(in)
		times[i] = w.datetime(in.t)
	}
	return coords, times
}

func (w mfjsonWriter) marshal(t *temporal, withBBox bool, flags int, srs string) ([]byte, error) {
	mp := mfMovingPoint{
		Type:          "MovingPoint",
		Interpolation: t.interp.String(),
	}
	if srs != "" {
		mp.CRS = &mfCRS{Type: "Name"}
		mp.CRS.Properties.Name = srs
	}
	if withBBox {
		mp.BoundedBy = w.bounds(t)
	}

	switch t.subtype {
	case native.SubtypeInstant:
		mp.Coordinates = w.coord(t.instants[0])
		mp.Datetimes = w.datetime(t.instants[0].t)
	case native.SubtypeSequence:
		coords, times := w.sequence(t)
		mp.Coordinates, mp.Datetimes = coords, times
		lower, upper := t.lowerInc, t.upperInc
		mp.LowerInc, mp.UpperInc = &lower, &upper
	case native.SubtypeSequenceSet:
		for _, s := range t.seqs {
			coords, times := w.sequence(s)
			mp.Sequences = append(mp.Sequences, mfSequence{
				Coordinates: coords,
				Datetimes:   times,
				LowerInc:    s.lowerInc,
				UpperInc:    s.upperInc,
			})
		}
	}

	if flags&mfjsonPretty != 0 {
		return json.MarshalIndent(mp, "", "  ")
	}
	return json.Marshal(mp)
}

func (w mfjsonWriter) bounds(t *temporal) *mfBounds {
	box := temporalBox(t)
	return &mfBounds{
		BBox: []float64{w.round(box.xmin), w.round(box.ymin), w.round(box.xmax), w.round(box.ymax)},
		Period: mfPeriod{
			Begin:    w.datetime(box.t.lower),
			End:      w.datetime(box.t.upper),
			LowerInc: box.t.lowerInc,
			UpperInc: box.t.upperInc,
		},
	}
}
