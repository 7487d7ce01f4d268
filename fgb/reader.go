package fgb

import (
	"fmt"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Reader provides read access to a trips file.
type Reader struct {
	fgb *flatgeobuf.FlatGeoBuf
}

// NewReader creates a reader from a file path.
// The file is memory-mapped for efficient access.
func NewReader(path string) (*Reader, error) {
	fgb, err := flatgeobuf.New(path)
	if err != nil {
		return nil, err
	}
	return newReader(fgb)
}

// NewReaderFromData creates a reader from byte data.
func NewReaderFromData(data []byte) (*Reader, error) {
	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return newReader(fgb)
}

func newReader(fgb *flatgeobuf.FlatGeoBuf) (*Reader, error) {
	h := fgb.Header()
	if h == nil {
		return nil, fmt.Errorf("%w: missing header", ErrInvalidData)
	}
	if err := checkSchema(h); err != nil {
		return nil, err
	}
	return &Reader{fgb: fgb}, nil
}

// Header returns metadata about the file.
func (r *Reader) Header() *Header {
	h := r.fgb.Header()
	if h == nil {
		return nil
	}

	header := &Header{
		Name:          string(h.Name()),
		Description:   string(h.Description()),
		FeaturesCount: h.FeaturesCount(),
		HasIndex:      h.IndexNodeSize() > 0,
		GeometryType:  flattypes.EnumNamesGeometryType[h.GeometryType()],
	}

	if h.EnvelopeLength() >= 4 {
		header.Envelope = [4]float64{
			h.Envelope(0),
			h.Envelope(1),
			h.Envelope(2),
			h.Envelope(3),
		}
	}

	var crs flattypes.Crs
	if h.Crs(&crs) != nil {
		header.CRS = &CRS{
			Code:        int(crs.Code()),
			Name:        string(crs.Name()),
			Description: string(crs.Description()),
		}
	}

	colLen := h.ColumnsLength()
	header.Columns = make([]ColumnInfo, 0, colLen)
	for i := 0; i < colLen; i++ {
		var col flattypes.Column
		if h.Columns(&col, i) {
			header.Columns = append(header.Columns, ColumnInfo{
				Name:        string(col.Name()),
				Type:        flattypes.EnumNamesColumnType[col.Type()],
				Title:       string(col.Title()),
				Description: string(col.Description()),
				Nullable:    col.Nullable(),
			})
		}
	}

	return header
}

// ReadTrips reads every trip. Reading needs the spatial index: the
// FlatGeobuf Go reader only iterates features through an index search over
// the layer envelope.
func (r *Reader) ReadTrips() ([]Trip, error) {
	h := r.fgb.Header()
	if h.FeaturesCount() == 0 {
		return nil, nil
	}
	if h.IndexNodeSize() == 0 || h.EnvelopeLength() < 4 {
		return nil, ErrNoIndex
	}
	return r.search(h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3))
}

// Search returns the trips whose trajectory bounding boxes intersect
// bounds.
func (r *Reader) Search(bounds orb.Bound) ([]Trip, error) {
	h := r.fgb.Header()
	if h.FeaturesCount() == 0 {
		return nil, nil
	}
	if h.IndexNodeSize() == 0 {
		return nil, ErrNoIndex
	}
	return r.search(bounds.Min[0], bounds.Min[1], bounds.Max[0], bounds.Max[1])
}

func (r *Reader) search(minX, minY, maxX, maxY float64) ([]Trip, error) {
	features, err := r.fgb.Search(minX, minY, maxX, maxY)
	if err != nil {
		return nil, err
	}

	trips := make([]Trip, 0, len(features))
	for _, f := range features {
		t, err := convertFeature(f)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, nil
}

// ReadAll reads every trip as a GeoJSON feature collection.
func (r *Reader) ReadAll() (*geojson.FeatureCollection, error) {
	trips, err := r.ReadTrips()
	if err != nil {
		return nil, err
	}
	return FeatureCollection(trips), nil
}

// Close releases resources associated with the reader.
func (r *Reader) Close() error {
	// FlatGeoBuf has no Close; dropping the reference lets the mapping be
	// collected.
	r.fgb = nil
	return nil
}

// convertFeature decodes a FlatGeobuf feature into a Trip.
func convertFeature(f *flattypes.Feature) (Trip, error) {
	var t Trip
	if f == nil {
		return t, fmt.Errorf("%w: nil feature", ErrInvalidData)
	}

	var geomObj flattypes.Geometry
	geom := f.Geometry(&geomObj)
	if geom == nil {
		return t, fmt.Errorf("%w: feature without geometry", ErrInvalidData)
	}
	t.Geometry = geometryFromFGB(geom)
	if t.Geometry == nil {
		return t, fmt.Errorf("%w: %s geometry", ErrUnsupportedType,
			flattypes.EnumNamesGeometryType[geom.Type()])
	}

	propsLen := f.PropertiesLength()
	props := make([]byte, propsLen)
	for i := 0; i < propsLen; i++ {
		props[i] = byte(f.Properties(i))
	}
	if err := decodeTrip(props, &t); err != nil {
		return t, err
	}
	return t, nil
}

// Feature converts a trip to a GeoJSON feature carrying the trip columns
// as properties.
func (t *Trip) Feature() *geojson.Feature {
	f := geojson.NewFeature(t.Geometry)
	f.ID = t.MMSI
	f.Properties = geojson.Properties{
		ColumnMMSI:     t.MMSI,
		ColumnStart:    t.Start.UTC().Format("2006-01-02T15:04:05.999999Z07:00"),
		ColumnEnd:      t.End.UTC().Format("2006-01-02T15:04:05.999999Z07:00"),
		ColumnInstants: t.Instants,
		ColumnTemporal: t.HexWKB,
	}
	return f
}

// FeatureCollection converts trips to a GeoJSON feature collection.
func FeatureCollection(trips []Trip) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range trips {
		fc.Append(trips[i].Feature())
	}
	return fc
}
