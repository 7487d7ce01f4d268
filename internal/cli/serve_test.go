package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTripsFGB converts the test CSV into a FlatGeobuf file and returns
// its bytes.
func writeTripsFGB(t *testing.T) []byte {
	t.Helper()

	out := filepath.Join(t.TempDir(), "trips.fgb")
	_, _, err := execute(t, "trips", "--encoding", "fgb", testCSV, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return data
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestTripServer(t *testing.T) {
	data := writeTripsFGB(t)

	srv, err := NewTripServer(data)
	require.NoError(t, err)
	defer srv.Close()

	t.Run("raw file", func(t *testing.T) {
		rec := get(t, srv, "/trips.fgb")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, data, body)
	})

	t.Run("all trips", func(t *testing.T) {
		rec := get(t, srv, "/trips.geojson")
		require.Equal(t, http.StatusOK, rec.Code)

		fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
		require.NoError(t, err)
		assert.Len(t, fc.Features, 3)
	})

	t.Run("bbox search", func(t *testing.T) {
		rec := get(t, srv, "/trips.geojson?bbox=-73.6,40.2,-73.4,40.3")
		require.Equal(t, http.StatusOK, rec.Code)

		fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
		require.NoError(t, err)
		require.Len(t, fc.Features, 1)
		assert.Equal(t, float64(367000001), fc.Features[0].Properties["mmsi"])
		_, isLine := fc.Features[0].Geometry.(orb.LineString)
		assert.True(t, isLine)
	})

	t.Run("bad bbox", func(t *testing.T) {
		rec := get(t, srv, "/trips.geojson?bbox=1,2,3")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("header", func(t *testing.T) {
		rec := get(t, srv, "/header")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"FeaturesCount":3`)
	})

	t.Run("method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trips.fgb", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestTripServer_EmptyLayer(t *testing.T) {
	out := filepath.Join(t.TempDir(), "trips.fgb")
	stdout, _, err := execute(t, "trips", "--encoding", "fgb", "--min-trip-size", "10", testCSV, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 0 trips")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	srv, err := NewTripServer(data)
	require.NoError(t, err)
	defer srv.Close()

	for _, target := range []string{"/trips.geojson", "/trips.geojson?bbox=-180,-90,180,90"} {
		rec := get(t, srv, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
		require.NoError(t, err)
		assert.Empty(t, fc.Features, target)
	}
}

func TestNewTripServer_InvalidData(t *testing.T) {
	_, err := NewTripServer([]byte("not a flatgeobuf file"))
	assert.Error(t, err)
}

func TestParseBBox(t *testing.T) {
	b, err := parseBBox("-74, 39.5, -72, 41")
	require.NoError(t, err)
	assert.Equal(t, orb.Bound{Min: orb.Point{-74, 39.5}, Max: orb.Point{-72, 41}}, b)

	_, err = parseBBox("1,2,x,4")
	assert.Error(t, err)
	_, err = parseBBox("3,0,1,1")
	assert.Error(t, err)
}
