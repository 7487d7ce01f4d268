package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb/encoding/ewkb"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - runs and trips tables
const currentSchemaVersion = 1

// trajectorySRID is the SRID written into stored trajectories.
const trajectorySRID = 4326

// SQLite stores trips in an embedded database file.
// Uses WAL mode so readers can run while a load is writing.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path and
// applies pragmas and the schema. It is safe to call on an existing file.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	Logger().Debug("opened sqlite store", zap.String("path", path))
	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// BeginRun records run. Recording the same run twice is a no-op.
func (s *SQLite) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, started_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Source, run.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// PutTrip stores trip, replacing a stored batch of the same vessel that
// starts at the same instant.
func (s *SQLite) PutTrip(ctx context.Context, trip Trip) error {
	if trip.RunID == "" {
		return ErrNoRun
	}
	traj, err := ewkb.Marshal(trip.Trajectory, trajectorySRID)
	if err != nil {
		return fmt.Errorf("encode trajectory of %d: %w", trip.MMSI, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trips (mmsi, start_us, end_us, instants, run_id, tgeompoint, trajectory)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mmsi, start_us) DO UPDATE SET
			end_us = excluded.end_us,
			instants = excluded.instants,
			run_id = excluded.run_id,
			tgeompoint = excluded.tgeompoint,
			trajectory = excluded.trajectory
	`, trip.MMSI, trip.Start.UnixMicro(), trip.End.UnixMicro(), trip.Instants, trip.RunID, trip.WKB, traj)
	if err != nil {
		return fmt.Errorf("write trip %d: %w", trip.MMSI, err)
	}
	return nil
}

// Trips returns the stored batches of a vessel ordered by start time.
func (s *SQLite) Trips(ctx context.Context, mmsi int64) ([]Trip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mmsi, start_us, end_us, instants, run_id, tgeompoint, trajectory
		FROM trips
		WHERE mmsi = ?
		ORDER BY start_us
	`, mmsi)
	if err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		var (
			trip           Trip
			startUS, endUS int64
			traj           []byte
		)
		if err := rows.Scan(&trip.MMSI, &startUS, &endUS, &trip.Instants, &trip.RunID, &trip.WKB, &traj); err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		trip.Start = time.UnixMicro(startUS).UTC()
		trip.End = time.UnixMicro(endUS).UTC()
		if trip.Trajectory, _, err = ewkb.Unmarshal(traj); err != nil {
			return nil, fmt.Errorf("decode trajectory of %d: %w", trip.MMSI, err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// Counts returns the number of stored runs, distinct vessels and trips.
func (s *SQLite) Counts(ctx context.Context) (runs, vessels, trips int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM runs),
			(SELECT COUNT(DISTINCT mmsi) FROM trips),
			(SELECT COUNT(*) FROM trips)
	`).Scan(&runs, &vessels, &trips)
	if err != nil {
		err = fmt.Errorf("count trips: %w", err)
	}
	return runs, vessels, trips, err
}
