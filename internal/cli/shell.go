package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dxexplorer/internal/client"
	"github.com/roach88/dxexplorer/internal/engine"
	"github.com/roach88/dxexplorer/internal/session"
)

const shellPrompt = "dx> "

const shellHelp = `Commands:
  login                          log in with the configured credentials
  casetypes                      refresh and list case types
  create <caseTypeID>            create a case
  assignment <assignmentID>      open an assignment
  action [assignmentID] <action> open an action (of the open assignment by default)
  set <key>=<value>              edit a field of the open form
  show                           print the open form
  fields                         print the field catalog
  validate                       list empty required fields
  submit                         validate and submit the open action
  last                           describe the last call
  help                           show this text
  quit                           end the session`

// NewShellCommand creates the interactive shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Explore the server interactively",
		Long: `Start an interactive session against the configured server. Every call
goes through one session and, when a journal is configured, is recorded
for later replay.

Type "help" at the prompt for the command list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			live, ctx, err := startLive(cmd.Context(), rootOpts)
			if err != nil {
				return f.Fail(err, nil)
			}
			sh := &shell{live: live, out: f.Writer, color: rootOpts.Color}
			runErr := sh.run(ctx, cmd.InOrStdin())
			if cerr := live.Close(); cerr != nil && runErr == nil {
				runErr = WrapExitError(ExitFailure, ErrCodeJournal, "session did not shut down cleanly", cerr)
			}
			return runErr
		},
	}
}

type shell struct {
	live  *liveSession
	out   io.Writer
	color bool
}

// run reads commands until quit, end of input, or the engine stopping.
// Command failures are printed and the loop continues.
func (sh *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(sh.out, "session %s\n", sh.live.engine.SessionID())
	for {
		fmt.Fprint(sh.out, shellPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := sh.exec(ctx, line); err != nil {
			if engine.IsStopped(err) || ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
}

func (sh *shell) exec(ctx context.Context, line string) error {
	args := strings.Fields(line)
	name, args := args[0], args[1:]
	sess := sh.live.Session()

	switch name {
	case "help":
		fmt.Fprintln(sh.out, shellHelp)
		return nil

	case "login":
		return sh.call(ctx, client.NewCall(client.CallLogin), false)

	case "casetypes":
		if err := sh.call(ctx, client.NewCall(client.CallRefreshCaseTypes), false); err != nil {
			return err
		}
		for _, ct := range sess.Snapshot().CaseTypes {
			fmt.Fprintf(sh.out, "  %s\t%s\n", ct.ID, ct.Name)
		}
		return nil

	case "create":
		if len(args) != 1 {
			return fmt.Errorf("usage: create <caseTypeID>")
		}
		return sh.call(ctx, session.CreateCaseCall(args[0]), true)

	case "assignment":
		if len(args) < 1 {
			return fmt.Errorf("usage: assignment <assignmentID>")
		}
		// Assignment IDs may contain spaces.
		return sh.call(ctx, session.OpenAssignmentCall(strings.Join(args, " ")), true)

	case "action":
		switch len(args) {
		case 0:
			return fmt.Errorf("usage: action [assignmentID] <actionID>")
		case 1:
			assignment := sess.Snapshot().OpenAssignmentID
			if assignment == "" {
				return fmt.Errorf("no assignment is open")
			}
			return sh.call(ctx, session.OpenActionCall(assignment, args[0]), true)
		default:
			last := len(args) - 1
			return sh.call(ctx, session.OpenActionCall(strings.Join(args[:last], " "), args[last]), true)
		}

	case "set":
		edits, err := parseSets([]string{strings.TrimSpace(strings.TrimPrefix(line, "set"))})
		if err != nil {
			return err
		}
		return applyEdits(sess, edits)

	case "show", "fields":
		return writeForm(sh.out, sess.Snapshot(), formView{Color: sh.color, Fields: name == "fields"})

	case "validate":
		problems, err := sess.Validate()
		if err != nil {
			return err
		}
		if len(problems) == 0 {
			fmt.Fprintln(sh.out, "✓ Form is ready to submit")
			return nil
		}
		fmt.Fprintf(sh.out, "✗ %d required field(s) empty\n", len(problems))
		writeProblems(sh.out, problems)
		return nil

	case "submit":
		call, problems, err := sess.PrepareSubmit()
		if err != nil {
			writeProblems(sh.out, problems)
			return err
		}
		return sh.call(ctx, call, true)

	case "last":
		call := sess.Snapshot().LastCall
		if call == nil {
			fmt.Fprintln(sh.out, "no calls yet")
			return nil
		}
		fmt.Fprintf(sh.out, "%s (%s) status %d\n", call.Describe(), call.Type, call.StatusCode)
		fmt.Fprintln(sh.out, "request headers:")
		fmt.Fprint(sh.out, client.FormatHeaders(call.RequestHeaders))
		fmt.Fprintln(sh.out, "response headers:")
		fmt.Fprint(sh.out, client.FormatHeaders(call.ResponseHeaders))
		return nil

	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
}

// call sends a call and prints the flash and, when show is set, the form.
// A failed call is not an error for the shell: the flash explains it.
func (sh *shell) call(ctx context.Context, call *client.NetCall, show bool) error {
	err := sh.live.engine.Do(ctx, call)
	if err != nil && (engine.IsStopped(err) || ctx.Err() != nil) {
		return err
	}
	snap := sh.live.Session().Snapshot()
	if show && err == nil {
		return writeForm(sh.out, snap, formView{Color: sh.color})
	}
	if snap.Flash != "" {
		fmt.Fprintf(sh.out, "! %s\n", snap.Flash)
	} else if err != nil {
		fmt.Fprintf(sh.out, "! %v\n", err)
	} else {
		fmt.Fprintf(sh.out, "ok (%s)\n", snap.Status)
	}
	return nil
}
