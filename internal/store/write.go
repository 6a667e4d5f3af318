package store

import (
	"context"
	"fmt"
	"net/http"
)

// Session is one explorer session recorded in the journal.
type Session struct {
	ID         string `json:"id"`
	Server     string `json:"server"`
	UserID     string `json:"user_id,omitempty"`
	StartedSeq int64  `json:"started_seq"`
}

// Call is one journaled request/response pair.
type Call struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	Seq        int64  `json:"seq"`
	Type       string `json:"type"`
	ID1        string `json:"id1,omitempty"`
	ID2        string `json:"id2,omitempty"`
	WorkTypeID string `json:"work_type_id,omitempty"`

	Method         string      `json:"method"`
	Endpoint       string      `json:"endpoint"`
	RequestHeaders http.Header `json:"request_headers"`
	RequestBody    string      `json:"request_body"`

	Succeeded       bool        `json:"succeeded"`
	StatusCode      int         `json:"status"`
	ETag            string      `json:"etag,omitempty"`
	ResponseHeaders http.Header `json:"response_headers"`
	ResponseBody    string      `json:"response_body"`
	ErrorMessage    string      `json:"error_message,omitempty"`
}

// WriteSession inserts a session record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting a session is
// silently ignored.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, server, user_id, started_seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sess.ID, sess.Server, sess.UserID, sess.StartedSeq)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteCall appends a call to the journal.
// Uses ON CONFLICT(id) DO NOTHING for idempotency. A different call at an
// already used (session, seq) position is a constraint violation.
//
// Note: The session referenced by SessionID must exist (foreign key constraint).
func (s *Store) WriteCall(ctx context.Context, c Call) error {
	reqHeaders, err := marshalHeaders(c.RequestHeaders)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}
	respHeaders, err := marshalHeaders(c.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calls
		(id, session_id, seq, type, id1, id2, work_type_id, method, endpoint,
		 request_headers, request_body, succeeded, status, etag,
		 response_headers, response_body, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.SessionID,
		c.Seq,
		c.Type,
		c.ID1,
		c.ID2,
		c.WorkTypeID,
		c.Method,
		c.Endpoint,
		reqHeaders,
		c.RequestBody,
		c.Succeeded,
		c.StatusCode,
		c.ETag,
		respHeaders,
		c.ResponseBody,
		c.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("write call %s: %w", c.ID, err)
	}
	return nil
}
