package client

import (
	"errors"
	"fmt"
)

// CallError reports a call the server answered with a failure status, or one
// that could not be sent because the client is not logged in.
type CallError struct {
	Type       CallType
	StatusCode int // 0 when the request was never sent
	Status     string
}

func (e *CallError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Type, e.Status)
	}
	return fmt.Sprintf("%s: %d %s", e.Type, e.StatusCode, e.Status)
}

// IsStatus reports whether err is a *CallError with the given status code.
func IsStatus(err error, code int) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.StatusCode == code
	}
	return false
}
