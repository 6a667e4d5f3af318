package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/dxexplorer/internal/visibility"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Fields  bool // Append the field catalog
	Visible bool // Hide components whose visibility condition is false
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <response.json>",
		Short: "Compile a saved response and show its form",
		Long: `Compile a saved DX API response body offline and print the case
summary, reference warnings and the component outline.

Exit codes:
  0 - Response compiled
  1 - Response does not compile
  2 - Command error (file not found, etc.)

Examples:
  dxexplorer inspect response.json
  dxexplorer inspect response.json --fields --visible
  dxexplorer inspect response.json --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Fields, "fields", false, "print the field catalog")
	cmd.Flags().BoolVar(&opts.Visible, "visible", false, "omit components hidden by their visibility condition")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger, err := opts.newLogger("dev")
	if err != nil {
		return f.Fail(err, nil)
	}
	defer logger.Sync()

	sess, err := loadOffline(path, logger)
	if err != nil {
		return f.Fail(err, nil)
	}
	snap := sess.Snapshot()

	if f.IsJSON() {
		return f.Success(newFormReport(snap, nil))
	}

	view := formView{Color: opts.Color, Fields: opts.Fields}
	if opts.Visible {
		ev, err := visibility.NewEvaluator(logger)
		if err != nil {
			return f.Fail(err, nil)
		}
		view.Visibility = ev
	}
	return writeForm(f.Writer, snap, view)
}
