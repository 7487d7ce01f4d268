// Package config loads the orb-meos YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/tingold/orb-meos/internal/ingest"
	"github.com/tingold/orb-meos/internal/store"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid configuration")

// Batching policies of the trips command.
const (
	PolicyBatch = "batch"
	PolicyTrack = "track"
)

// Config is the configuration file of the orb-meos command.
type Config struct {
	TimeZone string      `yaml:"timezone"`
	Trips    TripsConfig `yaml:"trips"`
	Load     LoadConfig  `yaml:"load"`
	Serve    ServeConfig `yaml:"serve"`
}

// TripsConfig configures CSV to file conversion.
type TripsConfig struct {
	Format      string `yaml:"format"`
	Policy      string `yaml:"policy"`
	Limit       int    `yaml:"limit"`
	BatchSize   int    `yaml:"batch_size"`
	MinTripSize int    `yaml:"min_trip_size"`
	Keep        int    `yaml:"keep"`
}

// LoadConfig configures loading CSV into a trip store.
type LoadConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	Reset       bool   `yaml:"reset"`
	Limit       int    `yaml:"limit"`
	BatchSize   int    `yaml:"batch_size"`
	MinTripSize int    `yaml:"min_trip_size"`
	MaxTripSize int    `yaml:"max_trip_size"`
}

// ServeConfig configures the trip file server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	batch := ingest.DefaultBatchOptions()
	track := ingest.DefaultTrackOptions()
	load := ingest.DefaultLoadOptions()
	return &Config{
		TimeZone: "UTC",
		Trips: TripsConfig{
			Format:      "hex",
			Policy:      PolicyBatch,
			BatchSize:   batch.BatchSize,
			MinTripSize: batch.MinTripSize,
			Keep:        track.Keep,
		},
		Load: LoadConfig{
			Driver:      store.DriverSQLite,
			DSN:         "trips.db",
			BatchSize:   load.BatchSize,
			MinTripSize: load.MinTripSize,
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
	}
}

// Load reads path over the defaults. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Sprintf("timezone %q: %v", c.TimeZone, err))
	}

	if _, err := ingest.ParseFormat(c.Trips.Format); err != nil {
		errs = append(errs, fmt.Sprintf("trips.format %q is not hex, mfjson or fgb", c.Trips.Format))
	}
	switch c.Trips.Policy {
	case PolicyBatch, PolicyTrack:
	default:
		errs = append(errs, fmt.Sprintf("trips.policy %q is not %s or %s", c.Trips.Policy, PolicyBatch, PolicyTrack))
	}
	if c.Trips.BatchSize < 1 {
		errs = append(errs, "trips.batch_size must be positive")
	}
	if c.Trips.Policy == PolicyTrack && (c.Trips.Keep < 1 || c.Trips.Keep >= c.Trips.BatchSize) {
		errs = append(errs, "trips.keep must be between 1 and batch_size-1")
	}
	if c.Trips.Limit < 0 || c.Trips.MinTripSize < 0 {
		errs = append(errs, "trips.limit and trips.min_trip_size cannot be negative")
	}

	switch strings.ToLower(c.Load.Driver) {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		errs = append(errs, fmt.Sprintf("load.driver %q is not %s or %s", c.Load.Driver, store.DriverSQLite, store.DriverPostgres))
	}
	if c.Load.DSN == "" {
		errs = append(errs, "load.dsn is required")
	}
	if c.Load.BatchSize < 1 {
		errs = append(errs, "load.batch_size must be positive")
	}
	if c.Load.Limit < 0 || c.Load.MinTripSize < 0 || c.Load.MaxTripSize < 0 {
		errs = append(errs, "load.limit, load.min_trip_size and load.max_trip_size cannot be negative")
	}

	if c.Serve.Addr == "" {
		errs = append(errs, "serve.addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// BatchOptions returns the trips settings of the batch policy.
func (c *Config) BatchOptions() ingest.BatchOptions {
	return ingest.BatchOptions{
		BatchSize:   c.Trips.BatchSize,
		MinTripSize: c.Trips.MinTripSize,
	}
}

// TrackOptions returns the trips settings of the track policy.
func (c *Config) TrackOptions() ingest.TrackOptions {
	return ingest.TrackOptions{
		BatchSize: c.Trips.BatchSize,
		Keep:      c.Trips.Keep,
	}
}

// LoadOptions returns the load settings.
func (c *Config) LoadOptions() ingest.LoadOptions {
	return ingest.LoadOptions{
		BatchSize:   c.Load.BatchSize,
		MinTripSize: c.Load.MinTripSize,
		MaxTripSize: c.Load.MaxTripSize,
		Limit:       c.Load.Limit,
	}
}
