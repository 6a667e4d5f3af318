// Package cli implements the dxexplorer command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dxexplorer/internal/config"
	"github.com/roach88/dxexplorer/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // Config file path
	Color   bool   // Style text output
	Resume  string // Journaled session id to continue; online commands only

	// logger overrides the logger built from the flags; set by tests.
	logger *logging.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the explorer CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dxexplorer",
		Short: "DX API explorer",
		Long: `Explore DX API case-management responses.

Responses are compiled into a typed component graph: references are
resolved by key, sigils such as @P, @FL and @ASSOCIATED are expanded,
and malformed nodes are isolated. Offline commands work on saved response
bodies; online commands talk to the server named in the config file and
journal every call.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, ErrCodeArgs,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", config.DefaultPath, "config file")
	cmd.PersistentFlags().BoolVar(&opts.Color, "color", false, "style text output")

	// Offline
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	// Online
	cmd.AddCommand(withResume(NewCaseTypesCommand(opts), opts))
	cmd.AddCommand(withResume(NewCreateCommand(opts), opts))
	cmd.AddCommand(withResume(NewOpenCommand(opts), opts))
	cmd.AddCommand(withResume(NewSubmitCommand(opts), opts))
	cmd.AddCommand(withResume(NewShellCommand(opts), opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// formatter returns the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// newLogger returns the command logger for a log mode.
func (o *RootOptions) newLogger(mode string) (*logging.Logger, error) {
	if o.logger != nil {
		return o.logger, nil
	}
	return logging.New(mode, o.Verbose)
}
