package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_Text(t *testing.T) {
	res := runCLI(t, "", "inspect", testdataPath("create_case.json"))
	require.NoError(t, res.Err)

	out := res.Stdout
	assert.Contains(t, out, "R-1001")
	assert.Contains(t, out, "open_action")
	assert.Contains(t, out, "View: pyEmbedAssignment[DefaultForm]")
	assert.Contains(t, out, `TextInput: Surname * = "Smith"`)
	assert.Contains(t, out, "Reference: Legacy[View] [broken: Unsupported context: @BOGUS xyz]")
	assert.NotContains(t, out, "KEY", "field table only with --fields")
}

func TestInspect_Fields(t *testing.T) {
	res := runCLI(t, "", "inspect", testdataPath("create_case.json"), "--fields")
	require.NoError(t, res.Err)

	assert.Contains(t, res.Stdout, "KEY")
	assert.Contains(t, res.Stdout, testFirstName)
}

func TestInspect_JSON(t *testing.T) {
	res := runCLI(t, "", "inspect", testdataPath("create_case.json"), "--format", "json")
	require.NoError(t, res.Err)

	resp := decodeJSON(t, res.Stdout)
	assert.Equal(t, "ok", resp.Status)

	var report FormReport
	require.NoError(t, json.Unmarshal(resp.Data, &report))
	assert.Equal(t, "open_action", report.Status)
	assert.Equal(t, testAssignment, report.OpenAssignmentID)
	assert.Equal(t, testAction, report.OpenActionID)
	assert.Equal(t, "MyOrg-MyApp-Work-Request.pyEmbedAssignment", report.Root)
	assert.Contains(t, report.Components, "MyOrg-MyApp-Work-Request.Details")
	require.NotNil(t, report.Buttons)
	require.Len(t, report.Buttons.Main, 1)
	assert.Equal(t, "finishAssignment", report.Buttons.Main[0].JSAction)
}

func TestInspect_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantExit int
		wantCode string
	}{
		{"missing file", "nope.json", ExitCommandError, ErrCodeNotFound},
		{"bad root context", "../../harness/testdata/responses/bad_root_context.json", ExitFailure, ErrCodeCompile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", "inspect", testdataPath(tt.file), "--format", "json")

			require.Error(t, res.Err)
			assert.Equal(t, tt.wantExit, GetExitCode(res.Err))
			resp := decodeJSON(t, res.Stdout)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		file           string
		args           []string
		wantExit       int
		wantValid      bool
		wantProblems   []string
		wantSubmission map[string]string
	}{
		{
			name:         "required field empty",
			file:         "request_form.json",
			wantExit:     ExitFailure,
			wantProblems: []string{testSubject},
		},
		{
			name:           "filled in",
			file:           "request_form.json",
			args:           []string{"--set", testSubject + "=Urgent"},
			wantExit:       ExitSuccess,
			wantValid:      true,
			wantProblems:   []string{},
			wantSubmission: map[string]string{"Subject": "Urgent"},
		},
		{
			name:         "blank value is still empty",
			file:         "request_form.json",
			args:         []string{"--set", testSubject + "="},
			wantExit:     ExitFailure,
			wantProblems: []string{testSubject},
		},
		{
			name:         "referenced view not checked",
			file:         "create_case.json",
			wantExit:     ExitSuccess,
			wantValid:    true,
			wantProblems: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"validate", testdataPath(tt.file), "--format", "json"}, tt.args...)
			res := runCLI(t, "", args...)

			assert.Equal(t, tt.wantExit, GetExitCode(res.Err))
			resp := decodeJSON(t, res.Stdout)
			var result ValidateResult
			require.NoError(t, json.Unmarshal(resp.Data, &result))
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantProblems, result.Problems)
			assert.Equal(t, tt.wantSubmission, result.Submission)
		})
	}
}

func TestValidate_Text(t *testing.T) {
	res := runCLI(t, "", "validate", testdataPath("request_form.json"))
	require.Error(t, res.Err)
	assert.Contains(t, res.Stdout, "✗ 1 required field(s) empty")
	assert.Contains(t, res.Stdout, testSubject)

	res = runCLI(t, "", "validate", testdataPath("request_form.json"), "--set", testSubject+"=Urgent")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Stdout, "✓ Form is ready to submit")
	assert.Contains(t, res.Stdout, `Subject = "Urgent"`)
}

func TestValidate_RefusedEdits(t *testing.T) {
	tests := []struct {
		name string
		set  string
	}{
		{"malformed", "FirstName"},
		{"unknown field", "MyOrg-MyApp-Work-Request.Nope=x"},
		{"special field", "MyOrg-MyApp-Work-Request.pyID=R-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", "validate", testdataPath("create_case.json"), "--set", tt.set)

			require.Error(t, res.Err)
			assert.Equal(t, ExitCommandError, GetExitCode(res.Err))
			assert.Equal(t, ErrCodeArgs, errCodeOf(res.Err))
		})
	}
}
