// Package cli implements the orb-meos command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	meos "github.com/tingold/orb-meos"
	"github.com/tingold/orb-meos/internal/config"
	"github.com/tingold/orb-meos/internal/ingest"
	"github.com/tingold/orb-meos/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // YAML configuration file (optional)
	TimeZone string // Overrides the configured time zone
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of orb-meos.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "orb-meos",
		Short: "Temporal point tools built on MEOS",
		Long: `Build, convert and store temporal point trips with MEOS.

Reads AIS position reports from CSV, groups them per vessel into temporal
point sequences and writes them as hex WKB, MF-JSON or FlatGeobuf, or into
a SQLite or MobilityDB trip store.

` + engineHelp(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return setupLogging(opts.Verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.TimeZone, "tz", "", "time zone for parsing and printing (default from config, UTC)")

	cmd.AddCommand(NewHelloCommand(opts))
	cmd.AddCommand(NewTripsCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// engineHelp describes the native engine this binary was built with.
func engineHelp() string {
	if meos.DefaultEngine == meos.EngineLibMEOS {
		return "Native engine: libmeos."
	}
	return `Native engine: reference (in-memory). This binary was built without the
meos build tag; its hex WKB is not MEOS's and cannot be read by MobilityDB.
Build with "-tags meos" against libmeos for production use.`
}

// engineWarning returns a warning when trips written to driver would not
// be readable by their consumer, or "".
func engineWarning(driver string) string {
	if meos.DefaultEngine == meos.EngineLibMEOS || driver != store.DriverPostgres {
		return ""
	}
	return "warning: loading into MobilityDB with the reference engine; build with -tags meos to write MEOS WKB"
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setupLogging installs a development logger on stderr in verbose mode and
// a no-op logger otherwise.
func setupLogging(verbose bool) error {
	l := zap.NewNop()
	if verbose {
		var err error
		if l, err = zap.NewDevelopment(); err != nil {
			return WrapExitError(ExitCommandError, "create logger", err)
		}
	}
	SetLogger(l)
	ingest.SetLogger(l)
	store.SetLogger(l)
	return nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadConfig returns the configuration file named by --config, or the
// defaults, with the global flag overrides applied.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return nil, WrapExitError(ExitCommandError, "load config", err)
		}
	}
	if opts.TimeZone != "" {
		cfg.TimeZone = opts.TimeZone
	}
	return cfg, nil
}

// withRuntime runs fn with an initialized MEOS runtime and finalizes it
// afterwards.
func withRuntime(cfg *config.Config, fn func(rt *meos.Runtime) error) error {
	mcfg := meos.DefaultConfig()
	mcfg.TimeZone = cfg.TimeZone
	rt, err := meos.Initialize(mcfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "initialize meos", err)
	}
	Logger().Debug("initialized runtime",
		zap.String("engine", meos.DefaultEngine),
		zap.String("timezone", cfg.TimeZone),
	)
	defer func() {
		if err := rt.Finalize(); err != nil {
			Logger().Warn("finalize meos", zap.Error(err))
		}
	}()
	return fn(rt)
}

// overrideInt copies a flag value over a config value when the flag was
// given on the command line.
func overrideInt(cmd *cobra.Command, name string, dst *int, v int) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}

func overrideString(cmd *cobra.Command, name string, dst *string, v string) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}
