package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/dxexplorer/internal/client"
	"github.com/roach88/dxexplorer/internal/config"
	"github.com/roach88/dxexplorer/internal/engine"
	"github.com/roach88/dxexplorer/internal/logging"
	"github.com/roach88/dxexplorer/internal/session"
	"github.com/roach88/dxexplorer/internal/store"
)

// fieldEdit is one --set key=value.
type fieldEdit struct {
	Key   string
	Value string
}

// parseSets parses --set arguments, keeping their order.
func parseSets(sets []string) ([]fieldEdit, error) {
	edits := make([]fieldEdit, 0, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, NewExitError(ExitCommandError, ErrCodeArgs,
				fmt.Sprintf("invalid --set %q: want key=value", s))
		}
		edits = append(edits, fieldEdit{Key: key, Value: value})
	}
	return edits, nil
}

// applyEdits applies edits in order, stopping at the first refusal.
func applyEdits(sess *session.Session, edits []fieldEdit) error {
	for _, e := range edits {
		if err := sess.Edit(e.Key, e.Value); err != nil {
			return WrapExitError(ExitCommandError, ErrCodeArgs, "edit refused", err)
		}
	}
	return nil
}

// loadOffline compiles a saved response body into a fresh session, as if
// it were the reply to creating a case.
func loadOffline(path string, logger *logging.Logger) (*session.Session, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, WrapExitError(ExitCommandError, ErrCodeNotFound, "response file not found", err)
		}
		return nil, WrapExitError(ExitCommandError, ErrCodeGeneric, "failed to read response", err)
	}

	sess := session.New(logger)
	call := session.CreateCaseCall("")
	call.Succeeded = true
	call.ResponseBody = string(body)
	if err := sess.Apply(call); err != nil {
		return nil, WrapExitError(ExitFailure, ErrCodeCompile, "response does not compile", err)
	}
	return sess, nil
}

// loadConfig reads the config file named by --config.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	return cfg, nil
}

// liveSession is an engine talking to the configured server, running on its
// own goroutine until Close.
type liveSession struct {
	cfg     *config.Config
	engine  *engine.Engine
	journal *store.Store
	logger  *logging.Logger
	group   *errgroup.Group
}

// startLive loads the config, opens the journal if one is configured, and
// starts the engine. The returned context is canceled if the engine fails.
func startLive(ctx context.Context, opts *RootOptions) (*liveSession, context.Context, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logger, err := opts.newLogger(cfg.LogMode)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, ErrCodeConfig, "failed to build logger", err)
	}
	c, err := client.New(cfg.ClientOptions(logger))
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, ErrCodeConfig, "invalid client settings", err)
	}

	engOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMaxCalls(cfg.MaxCalls),
	}
	var st *store.Store
	if cfg.Journal != "" {
		st, err = store.Open(cfg.Journal)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, ErrCodeJournal, "failed to open journal", err)
		}
		engOpts = append(engOpts, engine.WithJournal(st, cfg.Server, cfg.OAuth2.UserID))
	}

	sess := session.New(logger)
	if opts.Resume != "" {
		if st == nil {
			return nil, nil, NewExitError(ExitCommandError, ErrCodeArgs, "--resume needs a journal in the config")
		}
		var last int64
		sess, last, err = resumeSession(ctx, st, cfg.Server, opts.Resume, logger)
		if err != nil {
			_ = st.Close()
			return nil, nil, err
		}
		engOpts = append(engOpts,
			engine.WithSessionID(opts.Resume),
			engine.WithClock(engine.NewClockAt(last)))
		logger.Info("resuming session", "session", opts.Resume, "last_seq", last)
	}

	eng := engine.New(c, sess, engOpts...)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })

	logger.Debug("session started", "session", eng.SessionID(), "server", cfg.Server, "journal", cfg.Journal)
	return &liveSession{
		cfg:     cfg,
		engine:  eng,
		journal: st,
		logger:  logger,
		group:   g,
	}, gctx, nil
}

// resumeSession rebuilds a journaled session by replaying its calls and
// returns it with the seq of its last call, so new calls extend the same
// journal in order.
func resumeSession(ctx context.Context, st *store.Store, server, id string, logger *logging.Logger) (*session.Session, int64, error) {
	rec, err := st.ReadSession(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, NewExitError(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("session %s is not in the journal", id))
	}
	if err != nil {
		return nil, 0, WrapExitError(ExitCommandError, ErrCodeJournal, "failed to read journal", err)
	}
	if rec.Server != server {
		return nil, 0, NewExitError(ExitCommandError, ErrCodeArgs,
			fmt.Sprintf("session %s was recorded against %s, not %s", id, rec.Server, server))
	}
	last, err := st.LastSeq(ctx, id)
	if err != nil {
		return nil, 0, WrapExitError(ExitCommandError, ErrCodeJournal, "failed to read journal", err)
	}
	replayed, err := engine.Replay(ctx, st, id, logger)
	if err != nil {
		return nil, 0, WrapExitError(ExitCommandError, ErrCodeJournal, "failed to replay session", err)
	}
	return replayed.Session, last, nil
}

// withResume adds the --resume flag to an online command.
func withResume(cmd *cobra.Command, opts *RootOptions) *cobra.Command {
	cmd.Flags().StringVar(&opts.Resume, "resume", "", "continue the journaled session with this id")
	return cmd
}

// Session returns the session the engine applies responses to.
func (l *liveSession) Session() *session.Session {
	return l.engine.Session()
}

// Do sends call and waits for it to be applied. A transport failure or a
// response that does not compile becomes an ExitFailure.
func (l *liveSession) Do(ctx context.Context, call *client.NetCall) error {
	if err := l.engine.Do(ctx, call); err != nil {
		if call.Succeeded {
			return WrapExitError(ExitFailure, ErrCodeCompile, call.Type.String()+" response does not compile", err)
		}
		return WrapExitError(ExitFailure, ErrCodeCall, call.Type.String()+" failed", err)
	}
	return nil
}

// Login performs the password grant.
func (l *liveSession) Login(ctx context.Context) error {
	return l.Do(ctx, client.NewCall(client.CallLogin))
}

// Close stops the engine and closes the journal.
func (l *liveSession) Close() error {
	l.engine.Stop()
	err := l.group.Wait()
	if l.journal != nil {
		if cerr := l.journal.Close(); err == nil {
			err = cerr
		}
	}
	l.logger.Sync()
	return err
}
