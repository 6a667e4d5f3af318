package harness

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/dxexplorer/internal/client"
	"github.com/roach88/dxexplorer/internal/engine"
	"github.com/roach88/dxexplorer/internal/logging"
	"github.com/roach88/dxexplorer/internal/session"
	"github.com/roach88/dxexplorer/internal/store"
	"github.com/roach88/dxexplorer/internal/testutil"
)

// reply is the recorded server answer to the next call.
type reply struct {
	source string
	body   string
	etag   string
	status int
}

// recordedServer answers calls from scenario files instead of the network.
// The harness sets next before each Engine.Do; the engine's queue orders
// that write before the worker's read.
type recordedServer struct {
	next reply
}

func (r *recordedServer) Execute(_ context.Context, call *client.NetCall) error {
	rep := r.next
	r.next = reply{}

	if call.ResponseHeaders == nil {
		call.ResponseHeaders = make(http.Header)
	}
	call.Method = "RECORDED"
	call.Endpoint = rep.source
	call.StatusCode = rep.status
	call.ResponseBody = rep.body
	if rep.etag != "" {
		call.ResponseHeaders.Set("etag", rep.etag)
	}

	if rep.status < 200 || rep.status > 299 {
		call.Succeeded = false
		call.ErrorMessage = http.StatusText(rep.status)
		return &client.CallError{Type: call.Type, StatusCode: rep.status, Status: call.ErrorMessage}
	}
	call.ETag = rep.etag
	call.Succeeded = true
	return nil
}

// Harness runs one scenario against a fresh session, engine and in-memory
// journal.
type Harness struct {
	scenario *Scenario
	store    *store.Store
	engine   *engine.Engine
	session  *session.Session
	server   *recordedServer
	logger   *logging.Logger
}

// Run executes a scenario and returns the result.
//
// Each step's call goes through the engine, so it is stamped by a
// deterministic clock and journaled. After the last step the journal is
// replayed into a second session, which must reach the same navigation
// state as the live one.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := logging.Nop()
	sess := session.New(logger)
	server := &recordedServer{}
	eng := engine.New(server, sess,
		engine.WithJournal(st, "recorded", "harness"),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithIDGenerator(testutil.NewFixedSessionGenerator(scenario.SessionID)),
		engine.WithLogger(logger),
	)

	h := &Harness{
		scenario: scenario,
		store:    st,
		engine:   eng,
		session:  sess,
		server:   server,
		logger:   logger,
	}

	result := NewResult(scenario.Name)
	result.SessionID = eng.SessionID()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })

	var stepErr error
	for i := range scenario.Steps {
		step := &scenario.Steps[i]
		sr, err := h.runStep(gctx, i, step)
		if err != nil {
			stepErr = fmt.Errorf("step %d: %w", i+1, err)
			break
		}
		result.Steps = append(result.Steps, sr)
		if step.Expect != nil {
			for _, msg := range checkExpect(i, step.Expect, sr, h.session) {
				result.AddError(msg)
			}
		}
	}

	eng.Stop()
	if err := g.Wait(); err != nil && stepErr == nil {
		stepErr = fmt.Errorf("engine: %w", err)
	}
	if stepErr != nil {
		return nil, stepErr
	}

	result.Final = sess.Snapshot()
	if err := h.checkJournal(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// runStep applies edits, then sends the step's call. Expected failures
// (rejected edits, failed calls, parse errors) are reported in the step
// result; only problems with the scenario itself are returned.
func (h *Harness) runStep(ctx context.Context, i int, step *Step) (StepResult, error) {
	sr := StepResult{Index: i + 1}
	var failures []error

	keys := make([]string, 0, len(step.Edits))
	for k := range step.Edits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := h.session.Edit(k, step.Edits[k]); err != nil {
			failures = append(failures, err)
		}
	}

	var call *client.NetCall
	switch {
	case step.Submit:
		c, problems, err := h.session.PrepareSubmit()
		for _, p := range problems {
			sr.Problems = append(sr.Problems, p.Field)
		}
		if err != nil {
			failures = append(failures, err)
			break
		}
		call = c
		sr.Submission = c.Content
	case step.Call != "":
		c, err := buildCall(step)
		if err != nil {
			return sr, err
		}
		call = c
	}

	if call != nil {
		rep, err := h.reply(step)
		if err != nil {
			return sr, err
		}
		h.server.next = rep
		if err := h.engine.Do(ctx, call); err != nil {
			if engine.IsStopped(err) || errors.Is(err, context.Canceled) {
				return sr, err
			}
			failures = append(failures, err)
		}
		sr.Call = call.Type.String()
		sr.Seq = call.Seq
	}

	if len(failures) > 0 {
		sr.Error = errors.Join(failures...).Error()
	}
	snap := h.session.Snapshot()
	sr.Status = snap.Status.String()
	sr.Flash = snap.Flash
	return sr, nil
}

func (h *Harness) reply(step *Step) (reply, error) {
	rep := reply{source: step.Response, etag: step.ETag, status: step.Status}
	if rep.status == 0 {
		rep.status = http.StatusOK
	}
	if step.Response != "" {
		data, err := os.ReadFile(h.scenario.responsePath(step.Response))
		if err != nil {
			return reply{}, fmt.Errorf("read response: %w", err)
		}
		rep.body = string(data)
	}
	return rep, nil
}

func buildCall(step *Step) (*client.NetCall, error) {
	t, ok := client.ParseCallType(step.Call)
	if !ok {
		return nil, fmt.Errorf("unknown call %q", step.Call)
	}
	switch t {
	case client.CallCreateCase:
		return session.CreateCaseCall(step.WorkTypeID), nil
	case client.CallOpenAssignment:
		return session.OpenAssignmentCall(step.ID1), nil
	case client.CallOpenAssignmentAction:
		return session.OpenActionCall(step.ID1, step.ID2), nil
	case client.CallSubmitAssignmentAction:
		return nil, fmt.Errorf("use submit: true to submit")
	}
	return client.NewCall(t), nil
}

// checkJournal verifies every sent call was journaled and that replaying the
// journal reproduces the live navigation state.
func (h *Harness) checkJournal(ctx context.Context, result *Result) error {
	calls, err := h.store.ReadCalls(ctx, result.SessionID)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	result.Journaled = len(calls)

	sent := 0
	for _, sr := range result.Steps {
		if sr.Call != "" {
			sent++
		}
	}
	if sent != len(calls) {
		result.AddError(fmt.Sprintf("journal: %d calls sent, %d journaled", sent, len(calls)))
	}
	if len(calls) == 0 {
		return nil
	}

	replayed, err := engine.Replay(ctx, h.store, result.SessionID, h.logger)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	live := result.Final
	again := replayed.Session.Snapshot()
	if got, want := navigation(again), navigation(live); got != want {
		result.AddError(fmt.Sprintf("replay: reached %s, live session is at %s", got, want))
	}
	return nil
}

// navigation summarizes the state a replay must reproduce.
func navigation(s session.Snapshot) string {
	root := ""
	if s.Response != nil {
		root = s.Response.RootKey
	}
	return fmt.Sprintf("%s/%q/%q/%q", s.Status, s.OpenAssignmentID, s.OpenActionID, root)
}
