package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	meos "github.com/tingold/orb-meos"
	"github.com/tingold/orb-meos/internal/config"
	"github.com/tingold/orb-meos/internal/ingest"
	"github.com/tingold/orb-meos/internal/store"
)

// LoadResult summarizes a load run.
type LoadResult struct {
	RunID    string        `json:"run_id"`
	Files    int           `json:"files"`
	Records  int           `json:"records"`
	Invalid  int           `json:"invalid"`
	Dropped  int           `json:"dropped"`
	Vessels  int           `json:"vessels"`
	Trips    int           `json:"trips"`
	Posits   int           `json:"posits"`
	Duration time.Duration `json:"duration_ns"`
}

func (r LoadResult) String() string {
	return fmt.Sprintf("committed %d tracks containing %d posits in %v (run %s)",
		r.Vessels, r.Posits, r.Duration, r.RunID)
}

type loadFlags struct {
	driver      string
	dsn         string
	reset       bool
	limit       int
	batchSize   int
	minTripSize int
	maxTripSize int
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	defaults := config.Default().Load
	flags := &loadFlags{}

	cmd := &cobra.Command{
		Use:   "load <input.csv|dir>",
		Short: "Load AIS CSV into a trip store",
		Long: `Load AIS position reports into a SQLite or MobilityDB trip store.

Posits are grouped per vessel and ordered by time. Repeated timestamps are
dropped, tracks are truncated to --max-trip-size and vessels with fewer than
--min-trip-size posits are skipped. Each vessel is stored in sequences of
--batch-size posits. A directory input reads every *.csv file in it.

Progress goes to stderr: "." every 500 vessels, "+" every 10,000 posits.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			overrideString(cmd, "driver", &cfg.Load.Driver, flags.driver)
			overrideString(cmd, "dsn", &cfg.Load.DSN, flags.dsn)
			if cmd.Flags().Changed("reset") {
				cfg.Load.Reset = flags.reset
			}
			overrideInt(cmd, "limit", &cfg.Load.Limit, flags.limit)
			overrideInt(cmd, "batch-size", &cfg.Load.BatchSize, flags.batchSize)
			overrideInt(cmd, "min-trip-size", &cfg.Load.MinTripSize, flags.minTripSize)
			overrideInt(cmd, "max-trip-size", &cfg.Load.MaxTripSize, flags.maxTripSize)
			if err := cfg.Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid options", err)
			}

			f := newFormatter(rootOpts, cmd)
			if w := engineWarning(strings.ToLower(cfg.Load.Driver)); w != "" {
				Logger().Warn(w)
				fmt.Fprintln(f.GetErrWriter(), w)
			}
			return withRuntime(cfg, func(rt *meos.Runtime) error {
				result, err := runLoad(cmd.Context(), rt, cfg, args[0], f.GetErrWriter())
				if err != nil {
					return err
				}
				if f.Format != "json" {
					fmt.Fprintln(f.GetErrWriter())
				}
				return f.Success(result)
			})
		},
	}

	cmd.Flags().StringVar(&flags.driver, "driver", defaults.Driver, "trip store driver (sqlite|postgres)")
	cmd.Flags().StringVar(&flags.dsn, "dsn", defaults.DSN, "SQLite file or PostgreSQL connection string")
	cmd.Flags().BoolVar(&flags.reset, "reset", defaults.Reset, "drop and recreate the MobilityDB trip table")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", defaults.Limit, "maximum number of vessels to load (0 loads all)")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", defaults.BatchSize, "maximum number of posits per stored sequence")
	cmd.Flags().IntVar(&flags.minTripSize, "min-trip-size", defaults.MinTripSize, "skip vessels with fewer posits")
	cmd.Flags().IntVar(&flags.maxTripSize, "max-trip-size", defaults.MaxTripSize, "truncate vessels to this many posits (0 keeps all)")

	return cmd
}

func runLoad(ctx context.Context, rt *meos.Runtime, cfg *config.Config, input string, progress io.Writer) (LoadResult, error) {
	start := time.Now()
	run := store.NewRun(input)
	result := LoadResult{RunID: run.ID}

	paths, err := ingest.ExpandInputs(input)
	if err != nil {
		return result, WrapExitError(ExitCommandError, "read input", err)
	}
	result.Files = len(paths)

	posits, invalid, err := ingest.ReadPosits(paths, 0)
	if err != nil {
		return result, WrapExitError(ExitCommandError, "read records", err)
	}
	result.Records = len(posits) + invalid
	result.Invalid = invalid

	opts := cfg.LoadOptions()
	tracks, dropped := ingest.GroupTracks(posits, opts)
	result.Dropped = dropped
	Logger().Info("aggregated records",
		zap.Int("tracks", len(tracks)),
		zap.Int("records", result.Records),
		zap.Int("files", result.Files),
		zap.Duration("took", time.Since(start)),
	)
	if len(tracks) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	s, err := store.Open(ctx, cfg.Load.Driver, cfg.Load.DSN)
	if err != nil {
		return result, WrapExitError(ExitCommandError, "open store", err)
	}
	defer s.Close()

	if pg, ok := s.(*store.Postgres); ok && cfg.Load.Reset {
		if err := pg.CreateTripTable(ctx, true); err != nil {
			return result, WrapExitError(ExitFailure, "reset trip table", err)
		}
	}
	if err := s.BeginRun(ctx, run); err != nil {
		return result, WrapExitError(ExitFailure, "begin run", err)
	}

	loader, err := ingest.NewLoader(rt, &store.Sink{Store: s, RunID: run.ID}, opts, progress)
	if err != nil {
		return result, WrapExitError(ExitCommandError, "invalid options", err)
	}
	stats, err := loader.Load(ctx, tracks)
	result.Vessels = stats.Vessels
	result.Trips = stats.Trips
	result.Posits = stats.Posits
	result.Duration = time.Since(start)
	if err != nil {
		return result, WrapExitError(ExitFailure, "load trips", err)
	}
	return result, nil
}
