// Package ingest turns AIS position reports into temporal point trips.
//
// Records are decoded from CSV, converted to posits (one timestamped
// position of one vessel) and fed to a batching policy that builds
// sequences and hands them to a Sink.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	meos "github.com/tingold/orb-meos"
)

// Common errors returned by this package.
var (
	ErrNoInputs      = errors.New("ingest: no CSV inputs found")
	ErrInvalidRecord = errors.New("ingest: invalid record")
	ErrBatchSize     = errors.New("ingest: invalid batch size")
)

// SRID is the spatial reference of AIS positions (WGS 84).
const SRID = 4326

// AISRecord is one row of a MarineCadastre style AIS CSV export. Extra
// columns are ignored and a missing SOG column decodes as zero.
type AISRecord struct {
	MMSI         int64   `csv:"MMSI"`
	BaseDateTime string  `csv:"BaseDateTime"`
	Lat          float64 `csv:"LAT"`
	Lon          float64 `csv:"LON"`
	SOG          float64 `csv:"SOG"`
}

var errLimitReached = errors.New("ingest: record limit reached")

// ReadRecords decodes records from r and calls fn for each one, stopping
// after limit records when limit is positive. It returns the number of
// records passed to fn. An error from fn stops decoding and is returned.
func ReadRecords(r io.Reader, limit int, fn func(AISRecord) error) (int, error) {
	n := 0
	err := gocsv.UnmarshalToCallbackWithError(r, func(rec AISRecord) error {
		if limit > 0 && n >= limit {
			return errLimitReached
		}
		if err := fn(rec); err != nil {
			return err
		}
		n++
		return nil
	})
	if errors.Is(err, errLimitReached) {
		err = nil
	}
	return n, err
}

// ReadFiles reads every file in paths in order, sharing one record limit
// across all of them.
func ReadFiles(paths []string, limit int, fn func(AISRecord) error) (int, error) {
	total := 0
	for _, path := range paths {
		if limit > 0 && total >= limit {
			break
		}
		remaining := 0
		if limit > 0 {
			remaining = limit - total
		}
		n, err := readFile(path, remaining, fn)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func readFile(path string, limit int, fn func(AISRecord) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	Logger().Debug("reading records", zap.String("path", path))
	n, err := ReadRecords(f, limit, fn)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", path, err)
	}
	return n, nil
}

// ExpandInputs resolves path to the list of CSV files to read: the file
// itself, or every *.csv file of a directory in lexical order.
func ExpandInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	matches, err := filepath.Glob(filepath.Join(path, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, path)
	}
	sort.Strings(matches)
	return matches, nil
}

// Posit is one timestamped position of one vessel. Native timestamps have
// microsecond resolution; Time is truncated to it before posits are
// compared or encoded.
type Posit struct {
	MMSI int64
	Time time.Time
	Lon  float64
	Lat  float64
}

var baseDateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07",
}

// PositFromRecord validates rec and converts it to a posit. Timestamps
// without a zone are UTC.
func PositFromRecord(rec AISRecord) (Posit, error) {
	if rec.MMSI <= 0 {
		return Posit{}, fmt.Errorf("%w: MMSI %d", ErrInvalidRecord, rec.MMSI)
	}
	if rec.Lat < -90 || rec.Lat > 90 || rec.Lon < -180 || rec.Lon > 180 {
		return Posit{}, fmt.Errorf("%w: position (%g, %g) out of range", ErrInvalidRecord, rec.Lon, rec.Lat)
	}
	s := strings.TrimSpace(rec.BaseDateTime)
	for _, layout := range baseDateTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return Posit{MMSI: rec.MMSI, Time: ts.UTC().Truncate(time.Microsecond), Lon: rec.Lon, Lat: rec.Lat}, nil
		}
	}
	return Posit{}, fmt.Errorf("%w: timestamp %q", ErrInvalidRecord, rec.BaseDateTime)
}

// truncated returns p with Time at native timestamp resolution.
func (p Posit) truncated() Posit {
	p.Time = p.Time.Truncate(time.Microsecond)
	return p
}

// WKT formats the posit as a temporal point instant literal, for example
// "SRID=4326;Point(-73.5 40.25)@2023-06-01 12:00:00+00".
func (p Posit) WKT() string {
	var b strings.Builder
	b.WriteString("SRID=")
	b.WriteString(strconv.Itoa(SRID))
	b.WriteString(";Point(")
	b.WriteString(strconv.FormatFloat(p.Lon, 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p.Lat, 'f', -1, 64))
	b.WriteString(")@")
	b.WriteString(p.Time.UTC().Format("2006-01-02 15:04:05.999999"))
	b.WriteString("+00")
	return b.String()
}

// Instant parses the posit into a native instant owned by the caller.
func (p Posit) Instant(rt *meos.Runtime) (*meos.Instant, error) {
	return rt.ParseInstant(p.WKT())
}

// makeSequence builds a linear sequence from posits already ordered by
// strictly increasing time. Intermediate instants are released before
// returning.
func makeSequence(rt *meos.Runtime, posits []Posit, opts meos.SequenceOptions) (*meos.Sequence, error) {
	instants := make([]*meos.Instant, 0, len(posits))
	defer func() {
		for _, inst := range instants {
			_ = inst.Close()
		}
	}()

	for _, p := range posits {
		inst, err := p.Instant(rt)
		if err != nil {
			return nil, fmt.Errorf("posit %s: %w", p.WKT(), err)
		}
		instants = append(instants, inst)
	}
	return rt.MakeSequence(instants, opts)
}
