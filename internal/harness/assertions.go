package harness

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/dxexplorer/internal/compiler"
	"github.com/roach88/dxexplorer/internal/model"
	"github.com/roach88/dxexplorer/internal/session"
)

// AssertionError is one failed expectation.
type AssertionError struct {
	Step     int    // 1-based
	Check    string // Expect key, such as "status"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "step %d: %s\n", e.Step, e.Check)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checker accumulates failures for one step.
type checker struct {
	step   int
	errors []string
}

func (c *checker) fail(check, expected, actual string) {
	err := &AssertionError{Step: c.step, Check: check, Expected: expected, Actual: actual}
	c.errors = append(c.errors, err.Error())
}

func (c *checker) equal(check, expected, actual string) {
	if expected != "" && expected != actual {
		c.fail(check, strconv.Quote(expected), strconv.Quote(actual))
	}
}

func (c *checker) diff(check string, expected, actual any, opts ...cmp.Option) {
	if d := cmp.Diff(expected, actual, opts...); d != "" {
		c.fail(check, fmt.Sprintf("%v", expected), fmt.Sprintf("%v (-want +got)\n%s", actual, d))
	}
}

// checkExpect evaluates exp against the step result and the session after
// the step, returning one message per failed check.
func checkExpect(index int, exp *Expect, sr StepResult, sess *session.Session) []string {
	c := &checker{step: index + 1}
	snap := sess.Snapshot()

	c.equal("status", exp.Status, snap.Status.String())
	c.equal("open_assignment", exp.OpenAssignment, snap.OpenAssignmentID)
	c.equal("open_action", exp.OpenAction, snap.OpenActionID)
	c.equal("etag", exp.ETag, snap.ETag)
	if exp.Root != "" {
		root := ""
		if snap.Response != nil {
			root = snap.Response.RootKey
		}
		c.equal("root", exp.Root, root)
	}

	if exp.Flash != "" && !strings.Contains(snap.Flash, exp.Flash) {
		c.fail("flash", "containing "+strconv.Quote(exp.Flash), strconv.Quote(snap.Flash))
	}
	switch {
	case exp.Error == "" && sr.Error != "":
		c.fail("error", "none", sr.Error)
	case exp.Error != "" && !strings.Contains(sr.Error, exp.Error):
		c.fail("error", "containing "+strconv.Quote(exp.Error), strconv.Quote(sr.Error))
	}

	if exp.Valid != nil || exp.Problems != nil {
		checkValidity(c, exp, sess)
	}

	if exp.Components != nil || exp.Broken != nil || exp.FieldsAbsent != nil || exp.Fields != nil {
		checkResources(c, exp, snap.Response)
	}

	if exp.CaseTypes != nil {
		ids := make([]string, 0, len(snap.CaseTypes))
		for _, ct := range snap.CaseTypes {
			ids = append(ids, ct.ID)
		}
		c.diff("case_types", exp.CaseTypes, ids)
	}
	if exp.Submission != nil {
		c.diff("submission", exp.Submission, sr.Submission, cmpopts.EquateEmpty())
	}
	return c.errors
}

func checkValidity(c *checker, exp *Expect, sess *session.Session) {
	problems, err := sess.Validate()
	if err != nil {
		c.fail("valid", "a loaded form", err.Error())
		return
	}
	keys := make([]string, 0, len(problems))
	for _, p := range problems {
		keys = append(keys, p.Field)
	}
	if exp.Valid != nil && *exp.Valid != (len(problems) == 0) {
		c.fail("valid", strconv.FormatBool(*exp.Valid), "problems "+strings.Join(keys, ", "))
	}
	if exp.Problems != nil {
		sort.Strings(keys)
		c.diff("problems", exp.Problems, keys, cmpopts.EquateEmpty(), cmpopts.SortSlices(func(a, b string) bool { return a < b }))
	}
}

func checkResources(c *checker, exp *Expect, resp *compiler.Response) {
	if resp == nil || !resp.HasResources {
		c.fail("resources", "a loaded form", "none")
		return
	}
	for _, key := range exp.Components {
		if _, ok := resp.Components[key]; !ok {
			c.fail("components", key, "absent")
		}
	}
	if exp.Broken != nil {
		c.diff("broken", exp.Broken, brokenKeys(resp.Components), cmpopts.EquateEmpty(), cmpopts.SortSlices(func(a, b string) bool { return a < b }))
	}
	for _, key := range exp.FieldsAbsent {
		if _, ok := resp.Fields[key]; ok {
			c.fail("fields_absent", key+" absent", "present")
		}
	}
	for _, key := range model.SortedKeys(exp.Fields) {
		f, ok := resp.Fields[key]
		if !ok {
			c.fail("fields", key, "absent")
			continue
		}
		if f.Data != exp.Fields[key] {
			c.fail("fields", key+" = "+strconv.Quote(exp.Fields[key]), strconv.Quote(f.Data))
		}
	}
}

// brokenKeys returns the keys of every broken reference in the graph.
func brokenKeys(components model.ComponentMap) []string {
	seen := make(map[string]bool)
	var walk func(c *model.Component)
	walk = func(c *model.Component) {
		if c.IsBroken {
			seen[c.Key] = true
		}
		for _, child := range c.Children {
			walk(child)
		}
	}
	for _, c := range components {
		walk(c)
	}
	return model.SortedKeys(seen)
}
