package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	meos "github.com/tingold/orb-meos"
)

// helloValues are parsed and printed by the hello command, one per
// temporal variant and interpolation.
var helloValues = []string{
	"POINT(1 1)@2000-01-01",
	"{POINT(1 1)@2000-01-01, POINT(2 2)@2000-01-02}",
	"[POINT(1 1)@2000-01-01, POINT(2 2)@2000-01-02]",
	"Interp=Step;[POINT(1 1)@2000-01-01, POINT(2 2)@2000-01-02]",
	"{[POINT(1 1)@2000-01-01, POINT(2 2)@2000-01-02], [POINT(3 3)@2000-01-03, POINT(3 3)@2000-01-04]}",
	"Interp=Step;{[POINT(1 1)@2000-01-01, POINT(2 2)@2000-01-02], [POINT(3 3)@2000-01-03, POINT(3 3)@2000-01-04]}",
}

// HelloValue is one printed value of the hello command.
type HelloValue struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	MFJSON string `json:"mfjson"`
}

// NewHelloCommand creates the hello command.
func NewHelloCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "Print one temporal point of each kind as MF-JSON",
		Long: `Parse an instant, discrete, linear and step sequences and sequence sets,
and print the kind of each followed by its MF-JSON encoding.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			return withRuntime(cfg, func(rt *meos.Runtime) error {
				values, err := helloWorld(rt)
				if err != nil {
					return WrapExitError(ExitFailure, "hello", err)
				}
				f := newFormatter(rootOpts, cmd)
				if f.Format == "json" {
					return f.Success(values)
				}
				return writeHello(f.Writer, values)
			})
		},
	}
}

func helloWorld(rt *meos.Runtime) ([]HelloValue, error) {
	out := make([]HelloValue, 0, len(helloValues))
	for _, text := range helloValues {
		v, err := rt.Parse(text)
		if err != nil {
			return nil, err
		}
		mfjson, err := v.AsMFJSON(meos.DefaultMFJSONOptions())
		if err != nil {
			_ = v.Close()
			return nil, err
		}
		out = append(out, HelloValue{Title: helloTitle(v), Text: text, MFJSON: mfjson})
		if err := v.Close(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func helloTitle(v meos.Temporal) string {
	if v.Variant() == meos.VariantInstant {
		return v.Variant().String()
	}
	return fmt.Sprintf("%s with %s Interpolation", v.Variant(), v.Interp())
}

func writeHello(w io.Writer, values []HelloValue) error {
	for _, v := range values {
		if _, err := fmt.Fprintf(w, "===========\n%s\n===========\n%s\n", v.Title, v.MFJSON); err != nil {
			return err
		}
	}
	return nil
}
