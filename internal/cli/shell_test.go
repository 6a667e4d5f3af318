package cli

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShell_Session(t *testing.T) {
	fx := newFakeDX(t)
	cfg, _ := writeConfig(t, fx)

	script := strings.Join([]string{
		"help",
		"login",
		"casetypes",
		"create " + testCaseType,
		"validate",
		"submit",
		"set " + testSubject + "=Urgent",
		"validate",
		"submit",
		"last",
		"frobnicate",
		"quit",
		"show",
	}, "\n")
	res := runCLI(t, script, "shell", "--config", cfg)
	require.NoError(t, res.Err)

	out := res.Stdout
	assert.Contains(t, out, "session ")
	assert.Contains(t, out, "create <caseTypeID>")
	assert.Contains(t, out, "ok (logged_in)")
	assert.Contains(t, out, "MyOrg-MyApp-Work-Claim\tClaim")
	assert.Contains(t, out, "View: pyEmbedAssignment[DefaultForm]")
	assert.Contains(t, out, "✗ 1 required field(s) empty")
	assert.Contains(t, out, "error: validation failed")
	assert.Contains(t, out, "✓ Form is ready to submit")
	assert.Contains(t, out, `TextInput: Subject * = "Urgent"`)
	assert.Contains(t, out, `TextInput: First name * = ""`)
	assert.Contains(t, out, "PATCH - /prweb/api/application/v2/assignments/")
	assert.Contains(t, out, "if-match: \"1\"")
	assert.Contains(t, out, `error: unknown command "frobnicate" (try help)`)

	var patches []seenRequest
	for _, r := range fx.seen() {
		if r.Method == http.MethodPatch {
			patches = append(patches, r)
		}
	}
	require.Len(t, patches, 1, "the first submit must be refused locally")
	var body struct {
		Content map[string]string `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(patches[0].Body), &body))
	assert.Equal(t, map[string]string{"Subject": "Urgent"}, body.Content)
}

func TestShell_CommandErrors(t *testing.T) {
	fx := newFakeDX(t)
	cfg, _ := writeConfig(t, fx)

	tests := []struct {
		line string
		want string
	}{
		{"create", "error: usage: create <caseTypeID>"},
		{"action", "error: usage: action [assignmentID] <actionID>"},
		{"action " + testAction, "error: no assignment is open"},
		{"set nothing", `error: invalid --set "nothing": want key=value`},
		{"show", "(no case loaded)"},
		{"last", "no calls yet"},
		{"assignment " + testAssignment, "! Failed to open assignment: "},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res := runCLI(t, tt.line+"\n", "shell", "--config", cfg)
			require.NoError(t, res.Err)
			assert.Contains(t, res.Stdout, tt.want)
		})
	}
}
