package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.json"), []byte(`{}`), 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: minimal
description: one call
steps:
  - call: open_assignment
    id1: ASSIGN-1
    response: body.json
    expect:
      status: open_assignment
      valid: true
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "ASSIGN-1", s.Steps[0].ID1)
	require.NotNil(t, s.Steps[0].Expect.Valid)
	assert.True(t, *s.Steps[0].Expect.Valid)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "body.json"), s.responsePath("body.json"))
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing name",
			body:    "description: d\nsteps:\n  - call: login\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			body:    "name: n\nsteps:\n  - call: login\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			body:    "name: n\ndescription: d\nsteps: []\n",
			wantErr: "steps list is required",
		},
		{
			name:    "unknown key",
			body:    "name: n\ndescription: d\nstep:\n  - call: login\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown call",
			body:    "name: n\ndescription: d\nsteps:\n  - call: delete_case\n",
			wantErr: `unknown call "delete_case"`,
		},
		{
			name:    "call and submit",
			body:    "name: n\ndescription: d\nsteps:\n  - call: login\n    submit: true\n",
			wantErr: "call and submit are exclusive",
		},
		{
			name:    "submit as call",
			body:    "name: n\ndescription: d\nsteps:\n  - call: submit_assignment_action\n",
			wantErr: "use submit: true",
		},
		{
			name:    "create without type",
			body:    "name: n\ndescription: d\nsteps:\n  - call: create_case\n",
			wantErr: "create_case requires work_type_id",
		},
		{
			name:    "action without id2",
			body:    "name: n\ndescription: d\nsteps:\n  - call: open_assignment_action\n    id1: A\n",
			wantErr: "requires id1 and id2",
		},
		{
			name:    "missing response file",
			body:    "name: n\ndescription: d\nsteps:\n  - call: refresh_case_types\n    response: nope.json\n",
			wantErr: "response file",
		},
		{
			name:    "empty step",
			body:    "name: n\ndescription: d\nsteps:\n  - etag: x\n",
			wantErr: "step does nothing",
		},
		{
			name:    "response without call",
			body:    "name: n\ndescription: d\nsteps:\n  - response: body.json\n    edits: {A.B: c}\n",
			wantErr: "response given without call or submit",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	names := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"create_and_submit", "failed_action_keeps_state", "malformed_root"}, names)

	_, err = LoadDir(t.TempDir())
	assert.Error(t, err)
}
