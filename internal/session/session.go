// Package session holds the explorer's application state and applies
// server responses to it.
//
// Every response is compiled into a fresh *compiler.Response; the session
// swaps it in only when compilation succeeds. Snapshots handed out to readers
// are never mutated afterwards: edits copy the catalogs they touch.
package session

import (
	"fmt"
	"sync"

	"github.com/roach88/dxexplorer/internal/client"
	"github.com/roach88/dxexplorer/internal/compiler"
	"github.com/roach88/dxexplorer/internal/logging"
	"github.com/roach88/dxexplorer/internal/model"
)

// Flash messages shown after a call.
const (
	FlashNoCaseTypes      = "Not constellation compatible and/or no case types defined."
	FlashValidationFailed = "Validation failed. Did you fill out all required fields?"
)

// failurePrefix is prepended to the error message of a failed call.
var failurePrefix = map[client.CallType]string{
	client.CallCreateCase:             "Failed to create case: ",
	client.CallOpenAssignment:         "Failed to open assignment: ",
	client.CallOpenAssignmentAction:   "Failed to open assignment action: ",
	client.CallSubmitAssignmentAction: "Failed to submit assignment action: ",
}

// Snapshot is a consistent, read-only view of the session.
type Snapshot struct {
	Status           model.Status
	OpenAssignmentID string
	OpenActionID     string
	ETag             string
	Flash            string
	CaseTypes        []model.CaseType
	Response         *compiler.Response // nil until a case has been loaded
	LastCall         *client.NetCall
}

// Root returns the root component of the current response, or nil.
func (s *Snapshot) Root() *model.Component {
	return s.Response.Root()
}

// Session is the mutable application state.
type Session struct {
	mu     sync.Mutex
	logger *logging.Logger

	status           model.Status
	openAssignmentID string
	openActionID     string
	etag             string
	flash            string
	caseTypes        []model.CaseType
	resp             *compiler.Response
	lastCall         *client.NetCall
}

// New returns a logged-out session.
func New(logger *logging.Logger) *Session {
	return &Session{logger: logging.OrNop(logger)}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	types := make([]model.CaseType, len(s.caseTypes))
	copy(types, s.caseTypes)
	return Snapshot{
		Status:           s.status,
		OpenAssignmentID: s.openAssignmentID,
		OpenActionID:     s.openActionID,
		ETag:             s.etag,
		Flash:            s.flash,
		CaseTypes:        types,
		Response:         s.resp,
		LastCall:         s.lastCall,
	}
}

// Flash returns the current flash message.
func (s *Session) Flash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flash
}

// Apply folds a completed call into the session.
//
// A failed call only sets the flash message. A successful call moves the
// state machine and compiles the response body; if compilation fails the
// error is returned, the flash names it, and all previous state is kept.
func (s *Session) Apply(call *client.NetCall) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flash = ""
	s.lastCall = call

	if !call.Succeeded {
		s.flash = failurePrefix[call.Type] + call.ErrorMessage
		s.logger.Info("call failed", "type", call.Type.String(), "error", call.ErrorMessage)
		return nil
	}

	switch call.Type {
	case client.CallLogin:
		s.status = model.StatusLoggedIn
		s.openAssignmentID = ""
		s.openActionID = ""
		return nil

	case client.CallRefreshCaseTypes:
		types, ok, err := compiler.ParseCaseTypes([]byte(call.ResponseBody))
		if err != nil {
			return s.parseFailed(call, err)
		}
		if !ok {
			s.flash = FlashNoCaseTypes
		}
		s.caseTypes = types
		return nil

	case client.CallCreateCase:
		return s.parse(call, call.ETag, compiler.ParseOptions{
			Status: model.StatusOpenCase,
		})

	case client.CallOpenAssignment:
		return s.parse(call, call.ETag, compiler.ParseOptions{
			Status:           model.StatusOpenAssignment,
			OpenAssignmentID: call.ID1,
		})

	case client.CallOpenAssignmentAction:
		return s.parse(call, call.ETag, compiler.ParseOptions{
			Status:           model.StatusOpenAction,
			OpenAssignmentID: call.ID1,
			OpenActionID:     call.ID2,
		})

	case client.CallSubmitAssignmentAction:
		// The submit response carries the next step of the case.
		etag := s.etag
		if tag := call.ResponseHeaders.Get("etag"); tag != "" {
			etag = tag
		}
		return s.parse(call, etag, compiler.ParseOptions{
			Status:           model.StatusOpenCase,
			OpenAssignmentID: call.ID1,
		})
	}
	return fmt.Errorf("session: unsupported call type %s", call.Type)
}

// parse compiles the call's body and commits it with etag.
func (s *Session) parse(call *client.NetCall, etag string, opts compiler.ParseOptions) error {
	opts.Logger = s.logger
	resp, err := compiler.ParseResponse([]byte(call.ResponseBody), opts)
	if err != nil {
		return s.parseFailed(call, err)
	}

	// Bodies without uiResources leave the previous form in place.
	if !resp.HasResources && s.resp != nil && s.resp.HasResources {
		prev := s.resp
		resp.HasResources = true
		resp.Fields = prev.Fields
		resp.Paragraphs = prev.Paragraphs
		resp.Components = prev.Components
		resp.RootKey = prev.RootKey
		resp.ActionButtons = prev.ActionButtons
	}

	s.resp = resp
	s.status = resp.Status
	s.openAssignmentID = resp.OpenAssignmentID
	s.openActionID = resp.OpenActionID
	s.etag = etag
	s.logger.Debug("applied response",
		"type", call.Type.String(),
		"status", s.status.String(),
		"assignment", s.openAssignmentID,
		"action", s.openActionID)
	return nil
}

func (s *Session) parseFailed(call *client.NetCall, err error) error {
	s.flash = "Failed to parse response: " + err.Error()
	s.logger.Warn("response not applied", "type", call.Type.String(), "error", err)
	return fmt.Errorf("%s: %w", call.Type, err)
}

// Edit sets the data of the field with the given key and marks it dirty.
// The value is mirrored into the case content under the field's id.
func (s *Session) Edit(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resp == nil || !s.resp.HasResources {
		return ErrNoResources
	}
	f, ok := s.resp.Fields[key]
	if !ok {
		return &EditError{Key: key, Reason: "no such field"}
	}
	if f.IsSpecial {
		return &EditError{Key: key, Reason: "field is special"}
	}
	if f.IsClassKey {
		return &EditError{Key: key, Reason: "field is a class key"}
	}

	edited := *f
	edited.Data = value
	edited.IsDirty = true

	fields := make(model.FieldMap, len(s.resp.Fields))
	for k, v := range s.resp.Fields {
		fields[k] = v
	}
	fields[key] = &edited

	content := s.resp.Content.Clone()
	content[edited.ID] = value

	next := *s.resp
	next.Fields = fields
	next.Content = content
	if s.resp.CaseInfo != nil {
		ci := *s.resp.CaseInfo
		ci.Content = content
		next.CaseInfo = &ci
	}
	s.resp = &next
	return nil
}

// Validate reports the required fields of the root view that are still
// empty. Only the root's child sequence is checked; references are not
// followed. An empty result means the form may be submitted.
func (s *Session) Validate() ([]compiler.ValidationError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *Session) validateLocked() ([]compiler.ValidationError, error) {
	if s.resp == nil || !s.resp.HasResources {
		return nil, ErrNoResources
	}
	root := s.resp.Root()
	if compiler.ValidateComponent(root, s.resp.Fields) {
		return []compiler.ValidationError{}, nil
	}
	return compiler.Problems(root, s.resp.Fields), nil
}

// Submission builds the submit call for the open action from every dirty
// field that is neither special nor a class key.
func (s *Session) Submission() (*client.NetCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissionLocked()
}

func (s *Session) submissionLocked() (*client.NetCall, error) {
	if s.status != model.StatusOpenAction || s.openAssignmentID == "" || s.openActionID == "" {
		return nil, ErrNoOpenAction
	}
	if s.resp == nil {
		return nil, ErrNoResources
	}
	content := make(map[string]string)
	for _, key := range model.SortedKeys(s.resp.Fields) {
		f := s.resp.Fields[key]
		if f.IsDirty && !f.IsSpecial && !f.IsClassKey {
			content[f.ID] = f.Data
		}
	}
	call := client.NewCall(client.CallSubmitAssignmentAction)
	call.ID1 = s.openAssignmentID
	call.ID2 = s.openActionID
	call.ETag = s.etag
	call.Content = content
	return call, nil
}

// PrepareSubmit validates the form and returns the submit call. On a
// validation failure the flash is set and ErrValidationFailed is returned
// together with the problems.
func (s *Session) PrepareSubmit() (*client.NetCall, []compiler.ValidationError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	problems, err := s.validateLocked()
	if err != nil {
		return nil, nil, err
	}
	if len(problems) > 0 {
		s.flash = FlashValidationFailed
		return nil, problems, ErrValidationFailed
	}
	call, err := s.submissionLocked()
	return call, nil, err
}

// OpenAssignmentCall returns a call opening the assignment with the given id.
func OpenAssignmentCall(id string) *client.NetCall {
	call := client.NewCall(client.CallOpenAssignment)
	call.ID1 = id
	return call
}

// OpenActionCall returns a call opening an action of an assignment.
func OpenActionCall(assignmentID, actionID string) *client.NetCall {
	call := client.NewCall(client.CallOpenAssignmentAction)
	call.ID1 = assignmentID
	call.ID2 = actionID
	return call
}

// CreateCaseCall returns a call creating a case of the given type.
func CreateCaseCall(caseTypeID string) *client.NetCall {
	call := client.NewCall(client.CallCreateCase)
	call.WorkTypeID = caseTypeID
	return call
}
