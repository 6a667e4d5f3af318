package engine

import (
	"context"

	"github.com/roach88/dxexplorer/internal/client"
	"github.com/roach88/dxexplorer/internal/logging"
	"github.com/roach88/dxexplorer/internal/session"
	"github.com/roach88/dxexplorer/internal/store"
)

// Executor performs a call against the server and fills in its outputs.
// Implemented by *client.Client.
type Executor interface {
	Execute(ctx context.Context, call *client.NetCall) error
}

// Engine executes calls for one session on a single worker goroutine.
//
// Thread-safety model:
//   - Do(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Stop(): safe from any goroutine
type Engine struct {
	exec    Executor
	session *session.Session
	journal Journal
	clock   Sequencer
	queue   *callQueue
	quota   *callQuota
	logger  *logging.Logger

	ids       IDGenerator
	sessionID string
	server    string
	userID    string

	// Worker-owned
	sessionWritten bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal records the session and every executed call in j.
func WithJournal(j Journal, server, userID string) Option {
	return func(e *Engine) {
		e.journal = j
		e.server = server
		e.userID = userID
	}
}

// WithClock sets the logical clock, for resuming a journaled session.
func WithClock(c Sequencer) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator sets the session id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithSessionID uses an existing session id instead of generating one.
func WithSessionID(id string) Option {
	return func(e *Engine) { e.sessionID = id }
}

// WithMaxCalls sets the call quota. Zero disables it.
func WithMaxCalls(n int) Option {
	return func(e *Engine) { e.quota = newCallQuota(n) }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine executing calls with exec and applying them to sess.
func New(exec Executor, sess *session.Session, opts ...Option) *Engine {
	e := &Engine{
		exec:    exec,
		session: sess,
		clock:   NewClock(),
		queue:   newCallQueue(),
		quota:   newCallQuota(DefaultMaxCalls),
		ids:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger)
	if e.sessionID == "" {
		e.sessionID = e.ids.Generate()
	}
	return e
}

// SessionID returns the id calls are journaled under.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Session returns the session the engine applies responses to.
func (e *Engine) Session() *session.Session {
	return e.session
}

// Do submits call and waits until it has been executed and applied.
//
// The returned error is the transport error if the call failed, otherwise
// the error from applying the response. A canceled ctx abandons the wait;
// a call not yet started is then skipped.
func (e *Engine) Do(ctx context.Context, call *client.NetCall) error {
	req := newRequest(ctx, call)
	if !e.queue.Enqueue(req) {
		return newStoppedError(e.sessionID)
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run is the worker loop. It blocks until ctx is canceled or Stop is called.
// After Stop, requests already queued are still executed and Run returns
// once the queue is empty. When ctx is canceled, requests still queued fail
// with ENGINE_STOPPED.
//
// On journal failure the error is logged and processing continues; the
// call itself has already happened and is still applied.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Debug("engine starting", "session", e.sessionID)
	defer e.failPending()

	for {
		if err := ctx.Err(); err != nil {
			e.logger.Debug("engine stopping: context cancelled", "session", e.sessionID)
			return err
		}
		if req, ok := e.queue.TryDequeue(); ok {
			e.process(req)
			continue
		}

		select {
		case <-ctx.Done():
			// Checked at the top of the loop

		case <-e.queue.Wait():
			// The signal channel closes with the queue, firing immediately
			if e.queue.Len() == 0 && e.stopped() {
				e.logger.Debug("engine stopping: queue closed", "session", e.sessionID)
				return nil
			}
		}
	}
}

// Stop closes the queue to new requests. Run returns after draining it.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) stopped() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

func (e *Engine) failPending() {
	e.queue.Close()
	for _, req := range e.queue.Drain() {
		req.done <- newStoppedError(e.sessionID)
	}
}

// process executes, journals and applies one request.
// Called only from the Run goroutine.
func (e *Engine) process(req *request) {
	call := req.call
	if err := req.ctx.Err(); err != nil {
		req.done <- err
		return
	}
	if err := e.quota.Check(e.sessionID); err != nil {
		req.done <- &RuntimeError{
			Code:      ErrCodeQuotaExceeded,
			Message:   "call not executed",
			SessionID: e.sessionID,
			Err:       err,
		}
		return
	}

	call.Seq = e.clock.Next()
	execErr := e.exec.Execute(req.ctx, call)

	e.record(context.WithoutCancel(req.ctx), call)

	applyErr := e.session.Apply(call)
	e.logger.Info("call executed",
		"session", e.sessionID,
		"seq", call.Seq,
		"type", call.Type.String(),
		"endpoint", call.Endpoint,
		"status", call.StatusCode,
		"succeeded", call.Succeeded)

	if execErr != nil {
		req.done <- execErr
		return
	}
	req.done <- applyErr
}

// record journals call when a journal is attached.
func (e *Engine) record(ctx context.Context, call *client.NetCall) {
	if e.journal == nil {
		return
	}
	if !e.sessionWritten {
		err := e.journal.WriteSession(ctx, store.Session{
			ID:         e.sessionID,
			Server:     e.server,
			UserID:     e.userID,
			StartedSeq: call.Seq - 1,
		})
		if err != nil {
			e.logJournalError(call, err)
			return
		}
		e.sessionWritten = true
	}

	rec, err := RecordOf(e.sessionID, call)
	if err == nil {
		err = e.journal.WriteCall(ctx, rec)
	}
	if err != nil {
		e.logJournalError(call, err)
	}
}

func (e *Engine) logJournalError(call *client.NetCall, err error) {
	e.logger.Error("journal write failed", "error", &RuntimeError{
		Code:      ErrCodeJournal,
		Message:   "call not journaled",
		SessionID: e.sessionID,
		Seq:       call.Seq,
		Err:       err,
	})
}
