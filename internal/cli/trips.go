package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	meos "github.com/tingold/orb-meos"
	"github.com/tingold/orb-meos/internal/config"
	"github.com/tingold/orb-meos/internal/ingest"
)

// TripsResult summarizes a trips run.
type TripsResult struct {
	Output  string `json:"output"`
	Format  string `json:"format"`
	Policy  string `json:"policy"`
	Records int    `json:"records"`
	Invalid int    `json:"invalid"`
	Vessels int    `json:"vessels"`
	Trips   int    `json:"trips"`
	Posits  int    `json:"posits"`
	Dropped int    `json:"dropped"`
	Skipped int    `json:"skipped"`
}

func (r TripsResult) String() string {
	return fmt.Sprintf("Total vessels: %d\nwrote %d trips (%d posits) to %s as %s; %d records read, %d invalid, %d dropped, %d skipped",
		r.Vessels, r.Trips, r.Posits, r.Output, r.Format, r.Records, r.Invalid, r.Dropped, r.Skipped)
}

type tripsFlags struct {
	encoding    string
	policy      string
	limit       int
	batchSize   int
	minTripSize int
	keep        int
}

// NewTripsCommand creates the trips command.
func NewTripsCommand(rootOpts *RootOptions) *cobra.Command {
	defaults := config.Default().Trips
	flags := &tripsFlags{}

	cmd := &cobra.Command{
		Use:   "trips <input.csv|dir> <output>",
		Short: "Convert AIS CSV into one temporal point per vessel batch",
		Long: `Read AIS position reports and write vessel trips to a file.

With the batch policy, posits are buffered per vessel and a sequence is
written every --batch-size posits. With the track policy, each vessel keeps
one growing sequence that is written and restarted from its last --keep
instants when it holds --batch-size instants.

Encodings: hex (one {"id","json"} line per trip holding hex WKB), mfjson
(the same lines holding MF-JSON) and fgb (a FlatGeobuf layer).`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			overrideString(cmd, "encoding", &cfg.Trips.Format, flags.encoding)
			overrideString(cmd, "policy", &cfg.Trips.Policy, flags.policy)
			overrideInt(cmd, "limit", &cfg.Trips.Limit, flags.limit)
			overrideInt(cmd, "batch-size", &cfg.Trips.BatchSize, flags.batchSize)
			overrideInt(cmd, "min-trip-size", &cfg.Trips.MinTripSize, flags.minTripSize)
			overrideInt(cmd, "keep", &cfg.Trips.Keep, flags.keep)
			if err := cfg.Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid options", err)
			}

			return withRuntime(cfg, func(rt *meos.Runtime) error {
				result, err := runTrips(cmd.Context(), rt, cfg, args[0], args[1])
				if err != nil {
					return err
				}
				return newFormatter(rootOpts, cmd).Success(result)
			})
		},
	}

	cmd.Flags().StringVarP(&flags.encoding, "encoding", "e", defaults.Format, "output encoding (hex|mfjson|fgb)")
	cmd.Flags().StringVar(&flags.policy, "policy", defaults.Policy, "batching policy (batch|track)")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", defaults.Limit, "maximum number of records to read (0 reads all)")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", defaults.BatchSize, "maximum number of posits per trip")
	cmd.Flags().IntVar(&flags.minTripSize, "min-trip-size", defaults.MinTripSize, "skip trips with fewer posits (batch policy)")
	cmd.Flags().IntVar(&flags.keep, "keep", defaults.Keep, "instants kept when a sequence restarts (track policy)")

	return cmd
}

// adder is a batching policy.
type adder interface {
	Add(ctx context.Context, p ingest.Posit) error
	Stats() ingest.Stats
}

func runTrips(ctx context.Context, rt *meos.Runtime, cfg *config.Config, input, output string) (TripsResult, error) {
	result := TripsResult{Output: output, Policy: cfg.Trips.Policy}

	format, err := ingest.ParseFormat(cfg.Trips.Format)
	if err != nil {
		return result, WrapExitError(ExitCommandError, "invalid encoding", err)
	}
	result.Format = format.String()

	paths, err := ingest.ExpandInputs(input)
	if err != nil {
		return result, WrapExitError(ExitCommandError, "read input", err)
	}

	f, err := os.Create(output)
	if err != nil {
		return result, WrapExitError(ExitCommandError, "create output", err)
	}
	defer f.Close()

	sink, err := ingest.NewFileSink(f, format)
	if err != nil {
		return result, WrapExitError(ExitCommandError, "create output", err)
	}

	var (
		policy adder
		finish func(context.Context) error
	)
	switch cfg.Trips.Policy {
	case config.PolicyTrack:
		tr, err := ingest.NewTracker(rt, sink, cfg.TrackOptions())
		if err != nil {
			return result, WrapExitError(ExitCommandError, "invalid options", err)
		}
		policy, finish = tr, tr.Close
	default:
		b, err := ingest.NewBatcher(rt, sink, cfg.BatchOptions())
		if err != nil {
			return result, WrapExitError(ExitCommandError, "invalid options", err)
		}
		policy, finish = b, b.Flush
	}

	result.Records, err = ingest.ReadFiles(paths, cfg.Trips.Limit, func(rec ingest.AISRecord) error {
		p, err := ingest.PositFromRecord(rec)
		if err != nil {
			result.Invalid++
			Logger().Debug("skipping record", zap.Error(err))
			return nil
		}
		return policy.Add(ctx, p)
	})
	if err != nil {
		_ = finish(ctx)
		return result, WrapExitError(ExitFailure, "read records", err)
	}
	if err := finish(ctx); err != nil {
		return result, WrapExitError(ExitFailure, "write trips", err)
	}
	if err := sink.Close(); err != nil {
		return result, WrapExitError(ExitFailure, "write trips", err)
	}
	if err := f.Close(); err != nil {
		return result, WrapExitError(ExitFailure, "close output", err)
	}

	stats := policy.Stats()
	result.Vessels = stats.Vessels
	result.Trips = stats.Trips
	result.Posits = stats.Posits
	result.Dropped = stats.Dropped
	result.Skipped = stats.Skipped
	return result, nil
}
