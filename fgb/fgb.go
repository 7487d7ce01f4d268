// Package fgb stores vessel trips in FlatGeobuf files. Each trip is one
// feature: its trajectory as geometry, plus the entity id, time span,
// instant count and the hex WKB of the temporal value as properties.
package fgb

import (
	"errors"
	"time"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"
)

// Common errors returned by this package.
var (
	ErrNilGeometry     = errors.New("fgb: nil geometry")
	ErrUnsupportedType = errors.New("fgb: unsupported geometry type")
	ErrInvalidData     = errors.New("fgb: invalid data")
	ErrNoIndex         = errors.New("fgb: file has no spatial index")
	ErrSchema          = errors.New("fgb: file does not have the trip schema")
)

// CRS represents a coordinate reference system.
type CRS struct {
	Code        int    // EPSG code (e.g., 4326 for WGS84)
	Name        string // CRS name
	Description string // CRS description
	WKT         string // Well-Known Text representation
}

// WGS84 returns the standard WGS84 CRS (EPSG:4326).
func WGS84() *CRS {
	return &CRS{
		Code: 4326,
		Name: "WGS 84",
	}
}

// Options configures trip writing.
type Options struct {
	Name         string // Layer name
	Description  string // Layer description
	IncludeIndex bool   // Include spatial index (default: true)
	CRS          *CRS   // Coordinate reference system (optional)
}

// DefaultOptions returns an indexed WGS84 "trips" layer.
func DefaultOptions() *Options {
	return &Options{
		Name:         "trips",
		IncludeIndex: true,
		CRS:          WGS84(),
	}
}

// ColumnInfo describes a property column in a FlatGeobuf file.
type ColumnInfo struct {
	Name        string // Column name
	Type        string // Column type ("Long", "DateTime", "String", etc.)
	Title       string // Column title (human-readable)
	Description string // Column description
	Nullable    bool   // Whether the column can contain null values
}

// Header contains metadata about a FlatGeobuf file.
type Header struct {
	Name          string       // Layer name
	Description   string       // Layer description
	GeometryType  string       // Geometry type ("LineString", "Unknown", etc.)
	FeaturesCount uint64       // Number of features in the file
	Envelope      [4]float64   // Bounding box [minX, minY, maxX, maxY]
	CRS           *CRS         // Coordinate reference system
	HasIndex      bool         // Whether the file has a spatial index
	Columns       []ColumnInfo // Property column schema
}

// Trip is one feature of a trips file.
type Trip struct {
	MMSI     int64
	Start    time.Time
	End      time.Time
	Instants int
	HexWKB   string // Hex WKB of the temporal point
	Geometry orb.Geometry
}

// Trip property columns, in file order.
const (
	ColumnMMSI     = "mmsi"
	ColumnStart    = "start"
	ColumnEnd      = "end"
	ColumnInstants = "instants"
	ColumnTemporal = "tgeompoint"
)

type tripColumn struct {
	name  string
	title string
	typ   flattypes.ColumnType
}

var tripColumns = []tripColumn{
	{ColumnMMSI, "Maritime Mobile Service Identity", flattypes.ColumnTypeLong},
	{ColumnStart, "First timestamp", flattypes.ColumnTypeDateTime},
	{ColumnEnd, "Last timestamp", flattypes.ColumnTypeDateTime},
	{ColumnInstants, "Number of instants", flattypes.ColumnTypeInt},
	{ColumnTemporal, "Temporal point as hex WKB", flattypes.ColumnTypeString},
}
