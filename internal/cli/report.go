package cli

import (
	"fmt"
	"io"

	"github.com/roach88/dxexplorer/internal/compiler"
	"github.com/roach88/dxexplorer/internal/model"
	"github.com/roach88/dxexplorer/internal/render"
	"github.com/roach88/dxexplorer/internal/session"
	"github.com/roach88/dxexplorer/internal/visibility"
)

// FormReport is the JSON form of a session snapshot.
type FormReport struct {
	Status           string                      `json:"status"`
	OpenAssignmentID string                      `json:"open_assignment_id,omitempty"`
	OpenActionID     string                      `json:"open_action_id,omitempty"`
	ETag             string                      `json:"etag,omitempty"`
	Flash            string                      `json:"flash,omitempty"`
	CaseTypes        []model.CaseType            `json:"case_types,omitempty"`
	Case             *model.CaseInfo             `json:"case,omitempty"`
	Root             string                      `json:"root,omitempty"`
	Fields           model.FieldMap              `json:"fields,omitempty"`
	Components       []string                    `json:"components,omitempty"`
	Buttons          *model.ActionButtons        `json:"action_buttons,omitempty"`
	Warnings         []compiler.ReferenceWarning `json:"reference_warnings,omitempty"`
	Problems         []compiler.ValidationError  `json:"problems,omitempty"`
}

// newFormReport summarizes snap. problems may be nil.
func newFormReport(snap session.Snapshot, problems []compiler.ValidationError) FormReport {
	r := FormReport{
		Status:           snap.Status.String(),
		OpenAssignmentID: snap.OpenAssignmentID,
		OpenActionID:     snap.OpenActionID,
		ETag:             snap.ETag,
		Flash:            snap.Flash,
		CaseTypes:        snap.CaseTypes,
		Problems:         problems,
	}
	if resp := snap.Response; resp != nil {
		r.Case = resp.CaseInfo
		if resp.HasResources {
			r.Root = resp.RootKey
			r.Fields = resp.Fields
			r.Components = model.SortedKeys(resp.Components)
			buttons := resp.ActionButtons
			r.Buttons = &buttons
			r.Warnings = compiler.AnalyzeReferences(resp.Components)
		}
	}
	return r
}

// formView controls the text rendering of a snapshot.
type formView struct {
	Color      bool
	Fields     bool
	Visibility *visibility.Evaluator
}

// writeForm renders snap as text: flash, case summary, reference warnings,
// and the outline.
func writeForm(w io.Writer, snap session.Snapshot, view formView) error {
	if snap.Flash != "" {
		fmt.Fprintf(w, "! %s\n\n", snap.Flash)
	}
	if err := render.Summary(w, snap.Response, view.Color); err != nil {
		return err
	}
	resp := snap.Response
	if resp == nil || !resp.HasResources {
		return nil
	}

	for _, warn := range compiler.AnalyzeReferences(resp.Components) {
		fmt.Fprintf(w, "%s: %s\n", warn.Level, warn.Message)
	}
	fmt.Fprintln(w)
	if err := render.Outline(w, resp, render.Options{Color: view.Color, Visibility: view.Visibility}); err != nil {
		return err
	}
	if view.Fields {
		fmt.Fprintln(w)
		return render.Fields(w, resp.Fields, view.Color)
	}
	return nil
}

// writeProblems lists validation problems, one per line.
func writeProblems(w io.Writer, problems []compiler.ValidationError) {
	for _, p := range problems {
		fmt.Fprintf(w, "  %s: %s\n", p.Field, p.Message)
	}
}
