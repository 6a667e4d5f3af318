package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dxexplorer/internal/model"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Sets []string // key=value edits applied before validating
}

// ValidateResult is the JSON payload of the validate command.
type ValidateResult struct {
	Valid      bool              `json:"valid"`
	Problems   []string          `json:"problems"`
	Submission map[string]string `json:"submission,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <response.json>",
		Short: "Check whether a saved form is ready to submit",
		Long: `Compile a saved response, apply --set edits, and check every required
field in the root view. Views the root only references are not checked.
When the form is valid and an action is open, the submission content is
printed.

Exit codes:
  0 - Form is ready to submit
  1 - Required fields are empty, or the response does not compile
  2 - Command error (file not found, refused edit, etc.)

Examples:
  dxexplorer validate response.json
  dxexplorer validate response.json --set MyOrg-MyApp-Work-Request.Subject=Urgent`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "set a field before validating (key=value, repeatable)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	edits, err := parseSets(opts.Sets)
	if err != nil {
		return f.Fail(err, nil)
	}
	logger, err := opts.newLogger("dev")
	if err != nil {
		return f.Fail(err, nil)
	}
	defer logger.Sync()

	sess, err := loadOffline(path, logger)
	if err != nil {
		return f.Fail(err, nil)
	}
	if err := applyEdits(sess, edits); err != nil {
		return f.Fail(err, nil)
	}

	problems, err := sess.Validate()
	if err != nil {
		return f.Fail(WrapExitError(ExitFailure, ErrCodeValidation, "cannot validate", err), nil)
	}
	result := ValidateResult{Valid: len(problems) == 0, Problems: []string{}}
	for _, p := range problems {
		result.Problems = append(result.Problems, p.Field)
	}
	if result.Valid {
		// Submission needs an open action; a valid form without one is still valid.
		if call, err := sess.Submission(); err == nil {
			result.Submission = call.Content
		}
	}

	if f.IsJSON() {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		w := f.Writer
		if result.Valid {
			fmt.Fprintln(w, "✓ Form is ready to submit")
			for _, key := range model.SortedKeys(result.Submission) {
				fmt.Fprintf(w, "  %s = %q\n", key, result.Submission[key])
			}
		} else {
			fmt.Fprintf(w, "✗ %d required field(s) empty\n", len(problems))
			writeProblems(w, problems)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, ErrCodeValidation, fmt.Sprintf("%d required field(s) empty", len(problems)))
	}
	return nil
}
