package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dxexplorer/internal/client"
)

// Scenario is a recorded conversation with the server: a sequence of
// responses, edits and submissions, each followed by expectations about the
// session state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// SessionID is the journal session id. Defaults to testutil.DefaultSessionID.
	SessionID string `yaml:"session_id,omitempty"`

	// Golden compares the step transcript and final outline against
	// testdata/golden/<name>.golden.
	Golden bool `yaml:"golden,omitempty"`

	Steps []Step `yaml:"steps"`

	// dir resolves response paths. Empty for scenarios built in code.
	dir string
}

// Step performs, in order: its edits, then either a submission or a call.
type Step struct {
	// Call is a call type name such as "create_case". The server's reply
	// is read from Response.
	Call       string `yaml:"call,omitempty"`
	ID1        string `yaml:"id1,omitempty"`
	ID2        string `yaml:"id2,omitempty"`
	WorkTypeID string `yaml:"work_type_id,omitempty"`

	// Submit validates the form and sends the submission as the call.
	Submit bool `yaml:"submit,omitempty"`

	// Edits maps field keys to new values.
	Edits map[string]string `yaml:"edits,omitempty"`

	// Response is a JSON body file, relative to the scenario file.
	Response string `yaml:"response,omitempty"`

	// ETag is returned in the reply's etag header.
	ETag string `yaml:"etag,omitempty"`

	// Status, when not 2xx, makes the server reject the call.
	Status int `yaml:"status,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists what must hold after a step. Unset fields are not checked.
type Expect struct {
	Status         string `yaml:"status,omitempty"`
	OpenAssignment string `yaml:"open_assignment,omitempty"`
	OpenAction     string `yaml:"open_action,omitempty"`
	Root           string `yaml:"root,omitempty"`
	ETag           string `yaml:"etag,omitempty"`

	// Flash and Error are substring matches. An empty Error means the step
	// must not fail.
	Flash string `yaml:"flash,omitempty"`
	Error string `yaml:"error,omitempty"`

	// Valid checks submit readiness; Problems lists the blocking field keys.
	Valid    *bool    `yaml:"valid,omitempty"`
	Problems []string `yaml:"problems,omitempty"`

	Components   []string          `yaml:"components,omitempty"`
	Broken       []string          `yaml:"broken,omitempty"`
	FieldsAbsent []string          `yaml:"fields_absent,omitempty"`
	Fields       map[string]string `yaml:"fields,omitempty"`
	CaseTypes    []string          `yaml:"case_types,omitempty"`
	Submission   map[string]string `yaml:"submission,omitempty"`
}

// LoadScenario reads and validates a scenario file. Unknown keys are
// rejected so typos do not silently disable a check.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.dir = filepath.Dir(path)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// responsePath resolves a step's response file.
func (s *Scenario) responsePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(s, &step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(s *Scenario, step *Step) error {
	if step.Submit && step.Call != "" {
		return fmt.Errorf("call and submit are exclusive")
	}
	if step.Call == "" && !step.Submit {
		if len(step.Edits) == 0 && step.Expect == nil {
			return fmt.Errorf("step does nothing")
		}
		if step.Response != "" {
			return fmt.Errorf("response given without call or submit")
		}
		return nil
	}

	if step.Call != "" {
		t, ok := client.ParseCallType(step.Call)
		if !ok {
			return fmt.Errorf("unknown call %q", step.Call)
		}
		switch t {
		case client.CallSubmitAssignmentAction:
			return fmt.Errorf("use submit: true to submit")
		case client.CallCreateCase:
			if step.WorkTypeID == "" {
				return fmt.Errorf("create_case requires work_type_id")
			}
		case client.CallOpenAssignment:
			if step.ID1 == "" {
				return fmt.Errorf("open_assignment requires id1")
			}
		case client.CallOpenAssignmentAction:
			if step.ID1 == "" || step.ID2 == "" {
				return fmt.Errorf("open_assignment_action requires id1 and id2")
			}
		}
	}

	if step.Response != "" {
		if _, err := os.Stat(s.responsePath(step.Response)); err != nil {
			return fmt.Errorf("response file: %w", err)
		}
	}
	return nil
}
