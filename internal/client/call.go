package client

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// CallType identifies one of the DX API operations the explorer performs.
type CallType int

const (
	CallLogin CallType = iota + 1
	CallRefreshCaseTypes
	CallCreateCase
	CallOpenAssignment
	CallOpenAssignmentAction
	CallSubmitAssignmentAction
)

var callTypeStrings = map[CallType]string{
	CallLogin:                  "login",
	CallRefreshCaseTypes:       "refresh_case_types",
	CallCreateCase:             "create_case",
	CallOpenAssignment:         "open_assignment",
	CallOpenAssignmentAction:   "open_assignment_action",
	CallSubmitAssignmentAction: "submit_assignment_action",
}

func (t CallType) String() string {
	if s, ok := callTypeStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("CallType(%d)", int(t))
}

// ParseCallType returns the call type named s.
func ParseCallType(s string) (CallType, bool) {
	for t, name := range callTypeStrings {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// NetCall describes one request to the server and, once executed, its result.
//
// Inputs are set by the caller; outputs are filled in by Client.Execute.
type NetCall struct {
	Type CallType

	// Inputs
	ID1        string // Assignment ID
	ID2        string // Action ID
	WorkTypeID string // Case type ID for create_case
	ETag       string // Concurrency token; input for submit, output otherwise
	Content    map[string]string

	// Outputs
	Seq             int64 // Logical time of execution, set by the engine
	Method          string
	Endpoint        string // Path relative to the server
	RequestHeaders  http.Header
	RequestBody     string
	Succeeded       bool
	StatusCode      int
	ErrorMessage    string
	ResponseHeaders http.Header
	ResponseBody    string
}

// NewCall returns a call of the given type with empty header maps.
func NewCall(t CallType) *NetCall {
	return &NetCall{
		Type:            t,
		RequestHeaders:  make(http.Header),
		ResponseHeaders: make(http.Header),
	}
}

// Describe returns "METHOD - endpoint" for display.
func (c *NetCall) Describe() string {
	return c.Method + " - " + c.Endpoint
}

// maxHeaderValue is the display width of a header value before truncation.
const maxHeaderValue = 25

// FormatHeaders renders headers one per line as "key: value", sorted by key.
// Values longer than 25 characters are truncated and suffixed with "...".
func FormatHeaders(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		value := strings.Join(h[k], ", ")
		if len(value) > maxHeaderValue {
			value = value[:maxHeaderValue] + "..."
		}
		fmt.Fprintf(&b, "%s: %s\n", strings.ToLower(k), value)
	}
	return b.String()
}
