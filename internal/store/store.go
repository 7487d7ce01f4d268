// Package store persists vessel trips built by the ingest policies, in an
// embedded SQLite database or in a MobilityDB enabled PostgreSQL server.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	meos "github.com/tingold/orb-meos"
)

// Common errors returned by this package.
var (
	ErrDriver = errors.New("store: unknown driver")
	ErrNoRun  = errors.New("store: trip has no run id")
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Run describes one ingestion run.
type Run struct {
	ID        string
	Source    string
	StartedAt time.Time
}

// NewRun returns a run with a fresh time ordered id.
func NewRun(source string) Run {
	return Run{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Source:    source,
		StartedAt: time.Now().UTC(),
	}
}

// Trip is one stored batch of a vessel track.
type Trip struct {
	RunID      string
	MMSI       int64
	Start      time.Time
	End        time.Time
	Instants   int
	WKB        []byte // Extended little endian WKB of the temporal point
	Trajectory orb.Geometry
}

// TripStore persists trips.
type TripStore interface {
	BeginRun(ctx context.Context, run Run) error
	PutTrip(ctx context.Context, trip Trip) error
	Close() error
}

// Open opens the store for driver at dsn: a file path for "sqlite", a
// connection string for "postgres".
func Open(ctx context.Context, driver, dsn string) (TripStore, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite, "sqlite3":
		s, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres, "postgresql", "pg":
		p, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrDriver, driver)
}

// TripFromTemporal converts a temporal point into a stored trip.
func TripFromTemporal(runID string, id int64, t meos.Temporal) (Trip, error) {
	wkb, err := t.AsWKB(meos.DefaultWKBVariant)
	if err != nil {
		return Trip{}, fmt.Errorf("trip %d: %w", id, err)
	}
	geom, err := meos.Trajectory(t)
	if err != nil {
		return Trip{}, fmt.Errorf("trip %d: %w", id, err)
	}
	return Trip{
		RunID:      runID,
		MMSI:       id,
		Start:      t.Start(),
		End:        t.End(),
		Instants:   t.NumInstants(),
		WKB:        wkb,
		Trajectory: geom,
	}, nil
}

// Sink writes every trip it receives to a TripStore under one run.
type Sink struct {
	Store TripStore
	RunID string
}

// WriteTrip implements ingest.Sink.
func (s *Sink) WriteTrip(ctx context.Context, id int64, t meos.Temporal) error {
	trip, err := TripFromTemporal(s.RunID, id, t)
	if err != nil {
		return err
	}
	return s.Store.PutTrip(ctx, trip)
}
