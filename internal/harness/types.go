package harness

import (
	"github.com/roach88/dxexplorer/internal/session"
)

// StepResult is what one step did.
type StepResult struct {
	Index  int    `json:"index"`
	Call   string `json:"call,omitempty"` // Empty when no call was sent
	Seq    int64  `json:"seq,omitempty"`
	Status string `json:"status"`
	Flash  string `json:"flash,omitempty"`
	Error  string `json:"error,omitempty"`

	Problems   []string          `json:"problems,omitempty"`
	Submission map[string]string `json:"submission,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	Scenario  string       `json:"scenario"`
	SessionID string       `json:"session_id"`
	Pass      bool         `json:"pass"`
	Steps     []StepResult `json:"steps"`
	Errors    []string     `json:"errors,omitempty"`

	// Journaled is the number of calls written to the journal.
	Journaled int `json:"journaled"`

	// Final is the session state after the last step.
	Final session.Snapshot `json:"-"`
}

// NewResult creates a passing result.
func NewResult(name string) *Result {
	return &Result{
		Scenario: name,
		Pass:     true,
		Steps:    []StepResult{},
		Errors:   []string{},
	}
}

// AddError records a failed check and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
