package fgb

import (
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
)

// geometryType returns the FlatGeobuf type of a trajectory geometry.
// Trajectories are points, point sets, lines or sets of lines.
func geometryType(geom orb.Geometry) flattypes.GeometryType {
	switch geom.(type) {
	case orb.Point:
		return flattypes.GeometryTypePoint
	case orb.MultiPoint:
		return flattypes.GeometryTypeMultiPoint
	case orb.LineString:
		return flattypes.GeometryTypeLineString
	case orb.MultiLineString:
		return flattypes.GeometryTypeMultiLineString
	default:
		return flattypes.GeometryTypeUnknown
	}
}

// layerType is the geometry type of the layer: the common type of every
// trip, or Unknown for mixed layers.
func layerType(trips []Trip) flattypes.GeometryType {
	typ := geometryType(trips[0].Geometry)
	for _, t := range trips[1:] {
		if geometryType(t.Geometry) != typ {
			return flattypes.GeometryTypeUnknown
		}
	}
	return typ
}

// geometryToFGB converts a trajectory to a FlatGeobuf writer.Geometry.
func geometryToFGB(geom orb.Geometry, builder *flatbuffers.Builder) (*writer.Geometry, error) {
	if geom == nil {
		return nil, ErrNilGeometry
	}

	g := writer.NewGeometry(builder)

	switch v := geom.(type) {
	case orb.Point:
		g.SetType(flattypes.GeometryTypePoint)
		g.SetXY([]float64{v[0], v[1]})

	case orb.MultiPoint:
		g.SetType(flattypes.GeometryTypeMultiPoint)
		g.SetXY(pointsToXY(v))

	case orb.LineString:
		g.SetType(flattypes.GeometryTypeLineString)
		g.SetXY(pointsToXY(v))

	case orb.MultiLineString:
		g.SetType(flattypes.GeometryTypeMultiLineString)
		xy, ends := multiLineStringToXYEnds(v)
		g.SetXY(xy)
		g.SetEnds(ends)

	default:
		return nil, ErrUnsupportedType
	}

	return g, nil
}

// geometryFromFGB converts a FlatGeobuf geometry back to a trajectory.
func geometryFromFGB(fgbGeom *flattypes.Geometry) orb.Geometry {
	if fgbGeom == nil {
		return nil
	}

	switch fgbGeom.Type() {
	case flattypes.GeometryTypePoint:
		if fgbGeom.XyLength() < 2 {
			return nil
		}
		return orb.Point{fgbGeom.Xy(0), fgbGeom.Xy(1)}

	case flattypes.GeometryTypeMultiPoint:
		return orb.MultiPoint(pointsFromXY(fgbGeom, 0, fgbGeom.XyLength()/2))

	case flattypes.GeometryTypeLineString:
		return orb.LineString(pointsFromXY(fgbGeom, 0, fgbGeom.XyLength()/2))

	case flattypes.GeometryTypeMultiLineString:
		return multiLineStringFromXYEnds(fgbGeom)

	default:
		return nil
	}
}

func pointsToXY(pts []orb.Point) []float64 {
	xy := make([]float64, 0, len(pts)*2)
	for _, p := range pts {
		xy = append(xy, p[0], p[1])
	}
	return xy
}

func multiLineStringToXYEnds(mls orb.MultiLineString) ([]float64, []uint32) {
	totalPoints := 0
	for _, ls := range mls {
		totalPoints += len(ls)
	}

	xy := make([]float64, 0, totalPoints*2)
	ends := make([]uint32, 0, len(mls))

	cumulative := uint32(0)
	for _, ls := range mls {
		xy = append(xy, pointsToXY(ls)...)
		cumulative += uint32(len(ls))
		ends = append(ends, cumulative)
	}

	return xy, ends
}

// pointsFromXY reads points [start, end) of the xy array.
func pointsFromXY(fgbGeom *flattypes.Geometry, start, end int) []orb.Point {
	xyLen := fgbGeom.XyLength()
	pts := make([]orb.Point, 0, end-start)
	for i := start; i < end; i++ {
		idx := i * 2
		if idx+1 >= xyLen {
			break
		}
		pts = append(pts, orb.Point{fgbGeom.Xy(idx), fgbGeom.Xy(idx + 1)})
	}
	return pts
}

func multiLineStringFromXYEnds(fgbGeom *flattypes.Geometry) orb.MultiLineString {
	xyLen := fgbGeom.XyLength()
	endsLen := fgbGeom.EndsLength()

	if xyLen < 2 {
		return orb.MultiLineString{}
	}
	// Without ends the whole array is one line.
	if endsLen == 0 {
		return orb.MultiLineString{pointsFromXY(fgbGeom, 0, xyLen/2)}
	}

	mls := make(orb.MultiLineString, 0, endsLen)
	start := 0
	for i := 0; i < endsLen; i++ {
		end := int(fgbGeom.Ends(i))
		mls = append(mls, pointsFromXY(fgbGeom, start, end))
		start = end
	}
	return mls
}
