package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxCalls bounds the calls one session may execute. Scripted shells
// that loop on a failing submit stop here instead of hammering the server.
const DefaultMaxCalls = 1000

// callQuota counts executed calls against a limit.
// Only the worker goroutine touches it.
type callQuota struct {
	max     int
	current int
}

func newCallQuota(max int) *callQuota {
	return &callQuota{max: max}
}

// Check increments the counter and fails once the limit is passed.
func (q *callQuota) Check(sessionID string) error {
	q.current++
	if q.max > 0 && q.current > q.max {
		return &CallsExceededError{SessionID: sessionID, Calls: q.current, Limit: q.max}
	}
	return nil
}

// CallsExceededError is returned when a session exceeds its call quota.
type CallsExceededError struct {
	SessionID string
	Calls     int
	Limit     int
}

// Error implements the error interface.
func (e *CallsExceededError) Error() string {
	return fmt.Sprintf("session %s exceeded call quota: %d calls > %d limit",
		e.SessionID, e.Calls, e.Limit)
}

// IsCallsExceededError returns true if the error is a CallsExceededError.
// Uses errors.As to handle wrapped errors.
func IsCallsExceededError(err error) bool {
	var ce *CallsExceededError
	return errors.As(err, &ce)
}
