package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	meos "github.com/tingold/orb-meos"
	"github.com/tingold/orb-meos/fgb"
)

// ErrFormat is returned for an unknown output format name.
var ErrFormat = errors.New("ingest: invalid output format")

// Sink receives the trips built by a batching policy. The temporal value
// is only valid for the duration of the call.
type Sink interface {
	WriteTrip(ctx context.Context, id int64, t meos.Temporal) error
}

// Format selects how trips are written to a file.
type Format int

const (
	FormatHex Format = iota + 1
	FormatMFJSON
	FormatFGB
)

func (f Format) String() string {
	switch f {
	case FormatHex:
		return "hex"
	case FormatMFJSON:
		return "mfjson"
	case FormatFGB:
		return "fgb"
	default:
		return "unknown"
	}
}

// ParseFormat accepts "hex" (or "0x"), "json" (or "mf-json", "mfjson")
// and "fgb" (or "flatgeobuf"), in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hex", "0x":
		return FormatHex, nil
	case "json", "mf-json", "mfjson":
		return FormatMFJSON, nil
	case "fgb", "flatgeobuf":
		return FormatFGB, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrFormat, s)
}

// TripSink is a Sink that must be closed to flush its output.
type TripSink interface {
	Sink
	Close() error
}

// NewFileSink returns the sink writing format to w.
func NewFileSink(w io.Writer, format Format) (TripSink, error) {
	switch format {
	case FormatHex, FormatMFJSON:
		return NewLineSink(w, format), nil
	case FormatFGB:
		return NewFGBSink(w, fgb.DefaultOptions()), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrFormat, format)
}

// LineSink writes one JSON object per trip and line:
// {"id":<id>,"json":<hex string | MF-JSON object>}.
type LineSink struct {
	w      *bufio.Writer
	format Format
	mfjson meos.MFJSONOptions
}

// NewLineSink returns a LineSink writing hex WKB or MF-JSON lines.
func NewLineSink(w io.Writer, format Format) *LineSink {
	return &LineSink{
		w:      bufio.NewWriter(w),
		format: format,
		mfjson: meos.DefaultMFJSONOptions(),
	}
}

type tripLine struct {
	ID   int64 `json:"id"`
	JSON any   `json:"json"`
}

// WriteTrip implements Sink.
func (s *LineSink) WriteTrip(_ context.Context, id int64, t meos.Temporal) error {
	line := tripLine{ID: id}
	switch s.format {
	case FormatMFJSON:
		doc, err := t.AsMFJSON(s.mfjson)
		if err != nil {
			return fmt.Errorf("trip %d: %w", id, err)
		}
		line.JSON = json.RawMessage(doc)
	default:
		hex, err := t.AsHexWKB(meos.DefaultWKBVariant)
		if err != nil {
			return fmt.Errorf("trip %d: %w", id, err)
		}
		line.JSON = hex
	}

	out, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("trip %d: %w", id, err)
	}
	out = append(out, '\n')
	_, err = s.w.Write(out)
	return err
}

// Close flushes buffered lines.
func (s *LineSink) Close() error {
	return s.w.Flush()
}

// FGBSink collects trips and writes them as a FlatGeobuf layer on Close.
type FGBSink struct {
	w     io.Writer
	opts  *fgb.Options
	trips []fgb.Trip
}

// NewFGBSink returns a sink writing a FlatGeobuf layer to w.
func NewFGBSink(w io.Writer, opts *fgb.Options) *FGBSink {
	return &FGBSink{w: w, opts: opts}
}

// WriteTrip implements Sink.
func (s *FGBSink) WriteTrip(_ context.Context, id int64, t meos.Temporal) error {
	trip, err := TripFeature(id, t)
	if err != nil {
		return err
	}
	s.trips = append(s.trips, trip)
	return nil
}

// Trips returns the trips collected so far.
func (s *FGBSink) Trips() []fgb.Trip {
	return s.trips
}

// Close writes the collected trips, or an empty layer when there are none.
func (s *FGBSink) Close() error {
	return fgb.WriteTrips(s.w, s.trips, s.opts)
}

// TripFeature converts a temporal point into a FlatGeobuf trip feature.
func TripFeature(id int64, t meos.Temporal) (fgb.Trip, error) {
	geom, err := meos.Trajectory(t)
	if err != nil {
		return fgb.Trip{}, fmt.Errorf("trip %d: %w", id, err)
	}
	hex, err := t.AsHexWKB(meos.DefaultWKBVariant)
	if err != nil {
		return fgb.Trip{}, fmt.Errorf("trip %d: %w", id, err)
	}
	return fgb.Trip{
		MMSI:     id,
		Start:    t.Start(),
		End:      t.End(),
		Instants: t.NumInstants(),
		HexWKB:   hex,
		Geometry: geom,
	}, nil
}
