package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Statements creating the MobilityDB trips table.
var createTripTable = []string{
	"CREATE SCHEMA IF NOT EXISTS ais",
	"CREATE TABLE IF NOT EXISTS ais.trips (MMSI integer PRIMARY KEY, trip public.tgeompoint)",
}

const dropTripTable = "DROP TABLE IF EXISTS ais.trips"

// Batches of the same vessel are merged into its stored trip.
const upsertTrip = `INSERT INTO ais.trips (MMSI, trip) VALUES ($1, public.tgeompointFromBinary($2))
ON CONFLICT (MMSI) DO UPDATE SET trip = public.update(trips.trip, EXCLUDED.trip, true)`

// Postgres stores trips in a MobilityDB enabled PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to dsn and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	Logger().Debug("opened postgres store", zap.String("host", cfg.ConnConfig.Host))
	return &Postgres{pool: pool}, nil
}

// CreateTripTable creates ais.trips, dropping an existing table first when
// reset is set.
func (p *Postgres) CreateTripTable(ctx context.Context, reset bool) error {
	stmts := createTripTable
	if reset {
		stmts = append([]string{createTripTable[0], dropTripTable}, createTripTable[1:]...)
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create trip table: %w", err)
		}
	}
	return nil
}

// BeginRun creates the trip table if needed. The MobilityDB schema has no
// run table, so the run is only logged.
func (p *Postgres) BeginRun(ctx context.Context, run Run) error {
	if err := p.CreateTripTable(ctx, false); err != nil {
		return err
	}
	Logger().Info("begin run",
		zap.String("run", run.ID),
		zap.String("source", run.Source),
	)
	return nil
}

// PutTrip merges trip into the stored trip of its vessel.
func (p *Postgres) PutTrip(ctx context.Context, trip Trip) error {
	if _, err := p.pool.Exec(ctx, upsertTrip, trip.MMSI, trip.WKB); err != nil {
		return fmt.Errorf("write trip %d: %w", trip.MMSI, err)
	}
	return nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
