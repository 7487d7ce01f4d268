package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	meos "github.com/tingold/orb-meos"
	"github.com/tingold/orb-meos/internal/memnative"
)

// newTestRuntime initializes a runtime over an in-memory engine and checks
// on cleanup that every allocation was freed.
func newTestRuntime(t *testing.T) (*meos.Runtime, *memnative.Engine) {
	t.Helper()

	engine := memnative.New()
	rt, err := meos.Initialize(&meos.Config{TimeZone: "UTC", Native: engine})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := rt.Finalize(); err != nil && !errors.Is(err, meos.ErrNotInitialized) {
			t.Errorf("Finalize failed: %v", err)
		}
		if live := engine.Live(); live != 0 {
			t.Errorf("%d native allocations leaked", live)
		}
	})
	return rt, engine
}

var baseTime = time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

// posit returns a posit of vessel id at baseTime plus minute minutes.
func posit(id int64, minute int, lon, lat float64) Posit {
	return Posit{
		MMSI: id,
		Time: baseTime.Add(time.Duration(minute) * time.Minute),
		Lon:  lon,
		Lat:  lat,
	}
}

type recordedTrip struct {
	id       int64
	text     string
	instants int
	start    time.Time
}

// recordingSink keeps the text of every trip it receives.
type recordingSink struct {
	trips []recordedTrip
	err   error
}

func (s *recordingSink) WriteTrip(_ context.Context, id int64, t meos.Temporal) error {
	if s.err != nil {
		return s.err
	}
	text, err := t.AsText(6)
	if err != nil {
		return err
	}
	s.trips = append(s.trips, recordedTrip{
		id:       id,
		text:     text,
		instants: t.NumInstants(),
		start:    t.Start(),
	})
	return nil
}

func (s *recordingSink) ids() []int64 {
	out := make([]int64, len(s.trips))
	for i, tr := range s.trips {
		out[i] = tr.id
	}
	return out
}
