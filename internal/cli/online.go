package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dxexplorer/internal/client"
	"github.com/roach88/dxexplorer/internal/compiler"
	"github.com/roach88/dxexplorer/internal/session"
)

// NewCaseTypesCommand creates the casetypes command.
func NewCaseTypesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "casetypes",
		Short: "List the case types the application allows creating",
		Long: `Log in and list the case types offered by the server.

Examples:
  dxexplorer casetypes
  dxexplorer casetypes --config staging.yaml --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnline(cmd, rootOpts, func(ctx context.Context, live *liveSession) error {
				return live.Do(ctx, client.NewCall(client.CallRefreshCaseTypes))
			}, writeCaseTypes)
		},
	}
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var fields bool
	cmd := &cobra.Command{
		Use:   "create <caseTypeID>",
		Short: "Create a case and show its first form",
		Long: `Log in, create a case of the given type, and print the resulting form.
A single assignment with a single action is opened automatically.

Examples:
  dxexplorer create MyOrg-MyApp-Work-Request
  dxexplorer create MyOrg-MyApp-Work-Request --fields`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnline(cmd, rootOpts, func(ctx context.Context, live *liveSession) error {
				return live.Do(ctx, session.CreateCaseCall(args[0]))
			}, formWriter(rootOpts, fields))
		},
	}
	cmd.Flags().BoolVar(&fields, "fields", false, "print the field catalog")
	return cmd
}

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	var fields bool
	cmd := &cobra.Command{
		Use:   "open <assignmentID> [actionID]",
		Short: "Open an assignment, or one of its actions",
		Long: `Log in and open an assignment. With an action ID the action's form is
opened instead.

Examples:
  dxexplorer open ASSIGN-WORKLIST R-1001!FLOW
  dxexplorer open ASSIGN-WORKLIST R-1001!FLOW Review`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnline(cmd, rootOpts, func(ctx context.Context, live *liveSession) error {
				if len(args) == 2 {
					return live.Do(ctx, session.OpenActionCall(args[0], args[1]))
				}
				return live.Do(ctx, session.OpenAssignmentCall(args[0]))
			}, formWriter(rootOpts, fields))
		},
	}
	cmd.Flags().BoolVar(&fields, "fields", false, "print the field catalog")
	return cmd
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "submit <assignmentID> <actionID>",
		Short: "Fill in an action's form and submit it",
		Long: `Log in, open the action, apply --set edits, and submit. Nothing is sent
when a required field in the root view is still empty.

Exit codes:
  0 - Submitted
  1 - Validation failed, or the server rejected a call
  2 - Command error (bad config, refused edit, etc.)

Examples:
  dxexplorer submit "ASSIGN-WORKLIST R-1001!FLOW" Review --set MyOrg-MyApp-Work-Request.FirstName=Ada`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			edits, err := parseSets(sets)
			if err != nil {
				return rootOpts.formatter(cmd).Fail(err, nil)
			}
			var problems []compiler.ValidationError
			return runOnline(cmd, rootOpts, func(ctx context.Context, live *liveSession) error {
				if err := live.Do(ctx, session.OpenActionCall(args[0], args[1])); err != nil {
					return err
				}
				sess := live.Session()
				if err := applyEdits(sess, edits); err != nil {
					return err
				}
				call, ps, err := sess.PrepareSubmit()
				if err != nil {
					problems = ps
					if len(ps) > 0 {
						return NewExitError(ExitFailure, ErrCodeValidation,
							fmt.Sprintf("%d required field(s) empty", len(ps)))
					}
					return WrapExitError(ExitCommandError, ErrCodeValidation, "cannot submit", err)
				}
				return live.Do(ctx, call)
			}, func(f *OutputFormatter, live *liveSession) error {
				if len(problems) > 0 && !f.IsJSON() {
					writeProblems(f.GetErrWriter(), problems)
				}
				return formWriter(rootOpts, false)(f, live)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "set a field before submitting (key=value, repeatable)")
	return cmd
}

// runOnline logs in, runs steps against a live session, and writes the
// resulting state with write. The state is written even when steps fail,
// so the flash message explaining the failure is shown.
func runOnline(cmd *cobra.Command, opts *RootOptions,
	steps func(context.Context, *liveSession) error,
	write func(*OutputFormatter, *liveSession) error,
) error {
	f := opts.formatter(cmd)
	live, ctx, err := startLive(cmd.Context(), opts)
	if err != nil {
		return f.Fail(err, nil)
	}

	runErr := live.Login(ctx)
	if runErr == nil {
		runErr = steps(ctx, live)
	}
	if runErr == nil || !f.IsJSON() {
		if werr := write(f, live); werr != nil && runErr == nil {
			runErr = werr
		}
	}
	if cerr := live.Close(); cerr != nil && runErr == nil {
		runErr = WrapExitError(ExitFailure, ErrCodeJournal, "session did not shut down cleanly", cerr)
	}
	if runErr != nil {
		return f.Fail(runErr, nil)
	}
	return nil
}

// formWriter writes the session's current form.
func formWriter(opts *RootOptions, fields bool) func(*OutputFormatter, *liveSession) error {
	return func(f *OutputFormatter, live *liveSession) error {
		snap := live.Session().Snapshot()
		if f.IsJSON() {
			return f.SuccessWithSession(live.engine.SessionID(), newFormReport(snap, nil))
		}
		return writeForm(f.Writer, snap, formView{Color: opts.Color, Fields: fields})
	}
}

func writeCaseTypes(f *OutputFormatter, live *liveSession) error {
	snap := live.Session().Snapshot()
	if f.IsJSON() {
		return f.SuccessWithSession(live.engine.SessionID(), snap.CaseTypes)
	}
	if snap.Flash != "" {
		fmt.Fprintf(f.Writer, "! %s\n", snap.Flash)
	}
	for _, ct := range snap.CaseTypes {
		fmt.Fprintf(f.Writer, "%s\t%s\n", ct.ID, ct.Name)
	}
	return nil
}
