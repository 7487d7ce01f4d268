package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecords(t *testing.T) {
	f, err := os.Open("testdata/ais.csv")
	require.NoError(t, err)
	defer f.Close()

	var recs []AISRecord
	n, err := ReadRecords(f, 0, func(rec AISRecord) error {
		recs = append(recs, rec)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	require.Len(t, recs, 8)

	assert.Equal(t, AISRecord{
		MMSI:         367000001,
		BaseDateTime: "2023-06-01T00:00:00",
		Lat:          40.25,
		Lon:          -73.5,
		SOG:          10.2,
	}, recs[0])
}

func TestReadRecords_Limit(t *testing.T) {
	f, err := os.Open("testdata/ais.csv")
	require.NoError(t, err)
	defer f.Close()

	calls := 0
	n, err := ReadRecords(f, 3, func(AISRecord) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, calls)
}

func TestReadRecords_CallbackError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ReadRecords(strings.NewReader("MMSI,BaseDateTime,LAT,LON\n1,2023-06-01T00:00:00,1,2\n"), 0,
		func(AISRecord) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestReadRecords_NoSOGColumn(t *testing.T) {
	var got []AISRecord
	_, err := ReadRecords(strings.NewReader("MMSI,BaseDateTime,LAT,LON\n7,2023-06-01T00:00:00,1.5,2.5\n"), 0,
		func(rec AISRecord) error {
			got = append(got, rec)
			return nil
		})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].SOG)
	assert.Equal(t, 2.5, got[0].Lon)
}

func TestReadFiles_SharedLimit(t *testing.T) {
	n, err := ReadFiles([]string{"testdata/ais.csv", "testdata/ais.csv"}, 10, func(AISRecord) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("MMSI\n"), 0o644))
	}

	files, err := ExpandInputs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")}, files)

	single, err := ExpandInputs(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Len(t, single, 1)

	_, err = ExpandInputs(t.TempDir())
	assert.ErrorIs(t, err, ErrNoInputs)

	_, err = ExpandInputs(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestPositFromRecord(t *testing.T) {
	p, err := PositFromRecord(AISRecord{MMSI: 1, BaseDateTime: "2023-06-01T12:30:00", Lat: 40.25, Lon: -73.5})
	require.NoError(t, err)
	assert.True(t, p.Time.Equal(time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC)))

	p, err = PositFromRecord(AISRecord{MMSI: 1, BaseDateTime: "2023-06-01 12:30:00", Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.Equal(t, 12, p.Time.Hour())

	p, err = PositFromRecord(AISRecord{MMSI: 1, BaseDateTime: "2023-06-01T12:30:00.123456789Z", Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.Equal(t, 123456000, p.Time.Nanosecond())

	tests := []struct {
		name string
		rec  AISRecord
	}{
		{"NoMMSI", AISRecord{BaseDateTime: "2023-06-01T00:00:00"}},
		{"Latitude", AISRecord{MMSI: 1, BaseDateTime: "2023-06-01T00:00:00", Lat: 91}},
		{"Longitude", AISRecord{MMSI: 1, BaseDateTime: "2023-06-01T00:00:00", Lon: -181}},
		{"Timestamp", AISRecord{MMSI: 1, BaseDateTime: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PositFromRecord(tt.rec)
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func TestPosit_WKT(t *testing.T) {
	p := Posit{
		MMSI: 1,
		Time: time.Date(2023, 6, 1, 12, 0, 0, 500000000, time.UTC),
		Lon:  -73.5,
		Lat:  40.25,
	}
	assert.Equal(t, "SRID=4326;Point(-73.5 40.25)@2023-06-01 12:00:00.5+00", p.WKT())

	p.Time = time.Date(2023, 6, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, "SRID=4326;Point(-73.5 40.25)@2023-06-01 12:00:00+00", p.WKT())
}

func TestPosit_Instant(t *testing.T) {
	rt, _ := newTestRuntime(t)

	p := Posit{MMSI: 1, Time: time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC), Lon: 1, Lat: 2}
	inst, err := p.Instant(rt)
	require.NoError(t, err)
	defer inst.Close()

	assert.Equal(t, 4326, inst.SRID())
	assert.True(t, inst.Start().Equal(p.Time))
}
