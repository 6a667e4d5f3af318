package store

import (
	"context"
	"database/sql"
	"fmt"
)

const callColumns = `id, session_id, seq, type, id1, id2, work_type_id, method, endpoint,
	request_headers, request_body, succeeded, status, etag,
	response_headers, response_body, error_message`

// ReadSession retrieves a single session by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, server, user_id, started_seq
		FROM sessions
		WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Server, &sess.UserID, &sess.StartedSeq)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// ListSessions returns every session. UUIDv7 ids sort by creation time.
//
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, server, user_id, started_seq
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Server, &sess.UserID, &sess.StartedSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadCalls returns the calls of a session in execution order:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the session has no calls.
func (s *Store) ReadCalls(ctx context.Context, sessionID string) ([]Call, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+callColumns+`
		FROM calls
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []Call{}
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// ReadCall retrieves a single call by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCall(ctx context.Context, id string) (Call, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+callColumns+` FROM calls WHERE id = ?`, id)
	return scanCall(row)
}

// LastSeq returns the highest seq journaled for a session, or 0.
func (s *Store) LastSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM calls WHERE session_id = ?`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCall(row scanner) (Call, error) {
	var (
		c           Call
		reqHeaders  string
		respHeaders string
	)
	err := row.Scan(
		&c.ID,
		&c.SessionID,
		&c.Seq,
		&c.Type,
		&c.ID1,
		&c.ID2,
		&c.WorkTypeID,
		&c.Method,
		&c.Endpoint,
		&reqHeaders,
		&c.RequestBody,
		&c.Succeeded,
		&c.StatusCode,
		&c.ETag,
		&respHeaders,
		&c.ResponseBody,
		&c.ErrorMessage,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Call{}, err
		}
		return Call{}, fmt.Errorf("scan call: %w", err)
	}
	if c.RequestHeaders, err = unmarshalHeaders(reqHeaders); err != nil {
		return Call{}, err
	}
	if c.ResponseHeaders, err = unmarshalHeaders(respHeaders); err != nil {
		return Call{}, err
	}
	return c, nil
}
