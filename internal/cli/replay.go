package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/roach88/dxexplorer/internal/engine"
	"github.com/roach88/dxexplorer/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	SessionID string // optional - specific session only
}

// ReplaySessionResult is the replay outcome of one journaled session.
type ReplaySessionResult struct {
	SessionID     string              `json:"session_id"`
	Server        string              `json:"server"`
	Calls         int                 `json:"calls"`
	Failed        int                 `json:"failed"` // Steps whose body no longer compiles
	Status        string              `json:"status"` // Final session status
	Deterministic bool                `json:"deterministic"`
	Steps         []engine.ReplayStep `json:"steps,omitempty"`
}

// ReplayReport holds the overall replay result.
type ReplayReport struct {
	Sessions      []ReplaySessionResult `json:"sessions"`
	TotalSessions int                   `json:"total_sessions"`
	AllReplayed   bool                  `json:"all_replayed"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Recompile journaled responses",
		Long: `Replay the call journal: every recorded response is compiled again and
applied to a fresh session, twice, to check that the current compiler
still accepts it and rebuilds the same state.

Exit codes:
  0 - Every call replayed
  1 - A recorded response no longer compiles, or replay is not deterministic
  2 - Command error (journal not found, etc.)

Examples:
  dxexplorer replay --db ./dx.db
  dxexplorer replay --db ./dx.db --session 0192e4d1-...
  dxexplorer replay --db ./dx.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "replay one session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	if _, err := os.Stat(opts.Database); errors.Is(err, os.ErrNotExist) {
		return f.Fail(WrapExitError(ExitCommandError, ErrCodeNotFound, "journal not found", err), nil)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, ErrCodeJournal, "failed to open journal", err), nil)
	}
	defer st.Close()

	var sessions []store.Session
	if opts.SessionID != "" {
		sess, err := st.ReadSession(ctx, opts.SessionID)
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, ErrCodeNotFound,
				fmt.Sprintf("session %s not found", opts.SessionID), err), nil)
		}
		sessions = []store.Session{sess}
	} else {
		sessions, err = st.ListSessions(ctx)
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, ErrCodeJournal, "failed to list sessions", err), nil)
		}
	}

	report := ReplayReport{
		Sessions:      make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions: len(sessions),
		AllReplayed:   true,
	}
	for _, s := range sessions {
		res, err := replaySession(ctx, st, s, opts.Verbose)
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, ErrCodeJournal,
				fmt.Sprintf("failed to replay session %s", s.ID), err), nil)
		}
		if res.Failed > 0 || !res.Deterministic {
			report.AllReplayed = false
		}
		report.Sessions = append(report.Sessions, res)
	}

	if f.IsJSON() {
		if err := f.Success(report); err != nil {
			return err
		}
	} else {
		writeReplayText(f.Writer, report, opts.Verbose)
	}

	if !report.AllReplayed {
		return NewExitError(ExitFailure, ErrCodeJournal, "replay found calls that no longer reproduce")
	}
	return nil
}

// replaySession replays one session twice and compares the step outcomes.
func replaySession(ctx context.Context, st *store.Store, s store.Session, keepSteps bool) (ReplaySessionResult, error) {
	first, err := engine.Replay(ctx, st, s.ID, nil)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("first replay failed: %w", err)
	}
	second, err := engine.Replay(ctx, st, s.ID, nil)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("second replay failed: %w", err)
	}

	res := ReplaySessionResult{
		SessionID:     s.ID,
		Server:        s.Server,
		Calls:         len(first.Steps),
		Status:        first.Session.Snapshot().Status.String(),
		Deterministic: cmp.Equal(first.Steps, second.Steps),
	}
	for _, step := range first.Steps {
		if step.Error != "" {
			res.Failed++
		}
	}
	if keepSteps || res.Failed > 0 {
		res.Steps = first.Steps
	}
	return res, nil
}

func writeReplayText(w io.Writer, report ReplayReport, verbose bool) {
	if report.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions found in journal.")
		return
	}
	fmt.Fprintf(w, "Replayed %d session(s)\n\n", report.TotalSessions)
	for _, s := range report.Sessions {
		mark := "✓"
		if s.Failed > 0 || !s.Deterministic {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s  %s  %d call(s)  final status %s\n", mark, s.SessionID, s.Server, s.Calls, s.Status)
		if !s.Deterministic {
			fmt.Fprintln(w, "    replay is not deterministic")
		}
		for _, step := range s.Steps {
			if step.Error == "" && !verbose {
				continue
			}
			fmt.Fprintf(w, "    seq %d %s %s -> %s", step.Seq, step.Type, step.Endpoint, step.Status)
			if step.Error != "" {
				fmt.Fprintf(w, " error: %s", step.Error)
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)
	if report.AllReplayed {
		fmt.Fprintln(w, "✓ All calls replayed")
	} else {
		fmt.Fprintln(w, "✗ Some calls no longer reproduce")
	}
}
