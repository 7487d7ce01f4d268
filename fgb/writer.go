package fgb

import (
	"fmt"
	"io"

	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
)

// WriteTrips writes trips to w as a FlatGeobuf layer with the trip schema.
// Every trip must have a trajectory geometry. No trips writes an empty
// layer without a spatial index.
func WriteTrips(w io.Writer, trips []Trip, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Convert up front so a bad trip fails the write instead of being
	// silently skipped by the generator.
	for i := range trips {
		if trips[i].Geometry == nil {
			return fmt.Errorf("trip %d (mmsi %d): %w", i, trips[i].MMSI, ErrNilGeometry)
		}
		if _, err := geometryToFGB(trips[i].Geometry, flatbuffers.NewBuilder(0)); err != nil {
			return fmt.Errorf("trip %d (mmsi %d): %w", i, trips[i].MMSI, err)
		}
	}

	builder := flatbuffers.NewBuilder(4096)

	header := writer.NewHeader(builder)
	if len(trips) > 0 {
		header.SetGeometryType(layerType(trips))
	}
	if opts.Name != "" {
		header.SetName(opts.Name)
	}
	if opts.Description != "" {
		header.SetDescription(opts.Description)
	}
	header.SetColumns(tripColumnsFor(builder))

	if opts.CRS != nil {
		crs := writer.NewCrs(builder)
		crs.SetOrg("EPSG")
		if opts.CRS.Code > 0 {
			crs.SetCode(int32(opts.CRS.Code))
		}
		if opts.CRS.Name != "" {
			crs.SetName(opts.CRS.Name)
		}
		if opts.CRS.Description != "" {
			crs.SetDescription(opts.CRS.Description)
		}
		// WKT can be stored in description if needed
		if opts.CRS.WKT != "" && opts.CRS.Description == "" {
			crs.SetDescription(opts.CRS.WKT)
		}
		header.SetCrs(crs)
	}

	gen := &tripGenerator{trips: trips}
	fgbWriter := writer.NewWriter(header, opts.IncludeIndex && len(trips) > 0, gen, nil)

	_, err := fgbWriter.Write(w)
	return err
}

// tripGenerator feeds trips to the FlatGeobuf writer.
type tripGenerator struct {
	trips []Trip
	index int
}

func (g *tripGenerator) Generate() *writer.Feature {
	if g.index >= len(g.trips) {
		return nil
	}

	t := &g.trips[g.index]
	g.index++

	builder := flatbuffers.NewBuilder(1024)
	geom, _ := geometryToFGB(t.Geometry, builder) // validated by WriteTrips

	feature := writer.NewFeature(builder)
	feature.SetGeometry(geom)
	feature.SetProperties(encodeTrip(t))

	return feature
}
