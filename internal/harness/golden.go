package harness

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dxexplorer/internal/render"
)

// Transcript renders the step results followed by the final form outline.
// It is the content compared against golden files.
func Transcript(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario %s (session %s)\n", result.Scenario, result.SessionID)
	for _, sr := range result.Steps {
		call := "local"
		if sr.Call != "" {
			call = fmt.Sprintf("%s seq=%d", sr.Call, sr.Seq)
		}
		fmt.Fprintf(&buf, "%d %s status=%s", sr.Index, call, sr.Status)
		if sr.Flash != "" {
			fmt.Fprintf(&buf, " flash=%q", sr.Flash)
		}
		if sr.Error != "" {
			fmt.Fprintf(&buf, " error=%q", sr.Error)
		}
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
	if err := render.Outline(&buf, result.Final.Response, render.Options{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario, fails the test on any failed
// expectation, and compares the transcript against
// testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("run %s: %v", scenario.Name, err)
	}
	for _, e := range result.Errors {
		t.Error(e)
	}

	transcript, err := Transcript(result)
	if err != nil {
		t.Fatalf("transcript %s: %v", scenario.Name, err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, transcript)
	return result
}
