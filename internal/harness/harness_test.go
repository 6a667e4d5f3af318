package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/dxexplorer/internal/model"
	"github.com/roach88/dxexplorer/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			if s.Golden {
				result := RunWithGolden(t, s)
				assert.True(t, result.Pass)
				return
			}
			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.Empty(t, result.Errors)
			assert.True(t, result.Pass)
		})
	}
}

func TestRun_JournalsEveryCall(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/create_and_submit.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "scenario-create-and-submit", result.SessionID)
	assert.Equal(t, 4, result.Journaled)
	require.Len(t, result.Steps, 5)
	assert.Equal(t, "", result.Steps[3].Call)
	assert.Equal(t, []string{"MyOrg-MyApp-Work-Request.Subject"}, result.Steps[3].Problems)
	assert.Equal(t, map[string]string{"Subject": "Address change"}, result.Steps[4].Submission)
	assert.Equal(t, model.StatusOpenCase, result.Final.Status)
}

func TestRun_DefaultSessionID(t *testing.T) {
	s := &Scenario{
		Name:        "login_only",
		Description: "login",
		Steps:       []Step{{Call: "login"}},
	}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, testutil.DefaultSessionID, result.SessionID)
	assert.True(t, result.Pass)
	assert.Equal(t, 1, result.Journaled)
}

func TestRun_FailedExpectations(t *testing.T) {
	s := &Scenario{
		Name:        "wrong",
		Description: "expectations that do not hold",
		dir:         "testdata/responses",
		Steps: []Step{
			{Call: "login", Expect: &Expect{Status: "open_case"}},
			{
				Call:       "create_case",
				WorkTypeID: "MyOrg-MyApp-Work-Request",
				Response:   "create_case.json",
				Expect: &Expect{
					OpenAction:   "Approve",
					Broken:       []string{},
					FieldsAbsent: []string{"MyOrg-MyApp-Work-Request.pyID"},
					Error:        "boom",
				},
			},
		},
	}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "step 1: status")
	assert.Contains(t, result.Errors[1], "step 2: open_action")
	assert.Contains(t, result.Errors[2], "step 2: error")
	assert.Contains(t, result.Errors[3], "step 2: broken")
	assert.Contains(t, result.Errors[4], "step 2: fields_absent")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scenario{
		Name:        "cancelled",
		Description: "context cancelled before the first call",
		Steps:       []Step{{Call: "login"}},
	}
	_, err := Run(ctx, s)
	assert.Error(t, err)
}
