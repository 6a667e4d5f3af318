package engine

import (
	"context"
	"fmt"

	"github.com/roach88/dxexplorer/internal/logging"
	"github.com/roach88/dxexplorer/internal/session"
	"github.com/roach88/dxexplorer/internal/store"
)

// CallReader reads the journaled calls of a session in execution order.
// Implemented by *store.Store.
type CallReader interface {
	ReadCalls(ctx context.Context, sessionID string) ([]store.Call, error)
}

// ReplayStep is the outcome of re-applying one journaled call.
type ReplayStep struct {
	Seq        int64  `json:"seq"`
	Type       string `json:"type"`
	Endpoint   string `json:"endpoint"`
	Succeeded  bool   `json:"succeeded"` // The original call succeeded
	Applied    bool   `json:"applied"`   // The response compiled and was applied
	Error      string `json:"error,omitempty"`
	Flash      string `json:"flash,omitempty"`
	Status     string `json:"status"` // Session status after the step
	Components int    `json:"components"`
}

// ReplayResult is the outcome of replaying a whole session.
type ReplayResult struct {
	SessionID string           `json:"session_id"`
	Steps     []ReplayStep     `json:"steps"`
	Session   *session.Session `json:"-"`
	LastSeq   int64            `json:"last_seq"`
}

// Replay re-applies every journaled call of sessionID to a fresh session.
//
// Replay uses the same Session.Apply path as live execution: each recorded
// body is compiled from scratch. A body that no longer compiles is reported
// on its step and replay continues, exactly as the live session would have
// kept its previous state.
func Replay(ctx context.Context, r CallReader, sessionID string, logger *logging.Logger) (*ReplayResult, error) {
	records, err := r.ReadCalls(ctx, sessionID)
	if err != nil {
		return nil, &RuntimeError{Code: ErrCodeReplay, Message: "read journal", SessionID: sessionID, Err: err}
	}

	sess := session.New(logger)
	result := &ReplayResult{
		SessionID: sessionID,
		Steps:     make([]ReplayStep, 0, len(records)),
		Session:   sess,
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay cancelled: %w", err)
		}
		call, err := CallFromRecord(rec)
		if err != nil {
			return nil, &RuntimeError{Code: ErrCodeReplay, Message: "decode call", SessionID: sessionID, Seq: rec.Seq, Err: err}
		}

		step := ReplayStep{
			Seq:       rec.Seq,
			Type:      rec.Type,
			Endpoint:  rec.Endpoint,
			Succeeded: rec.Succeeded,
		}
		if err := sess.Apply(call); err != nil {
			step.Error = err.Error()
		} else {
			step.Applied = rec.Succeeded
		}

		snap := sess.Snapshot()
		step.Flash = snap.Flash
		step.Status = snap.Status.String()
		if snap.Response != nil {
			step.Components = len(snap.Response.Components)
		}
		result.Steps = append(result.Steps, step)
		result.LastSeq = rec.Seq
	}
	return result, nil
}
