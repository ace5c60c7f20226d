package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tabq/internal/engine"
	"github.com/roach88/tabq/internal/ir"
)

// AssertionError is returned when an assertion or step expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type or "step N"
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkExpect compares one step's outcome with its expectation and returns
// the failure messages.
func checkExpect(index int, exp Expect, st StepTrace, res engine.Result, err error) []string {
	label := fmt.Sprintf("step %d (%s %s)", index, st.Kind, st.Input)
	var failures []string
	fail := func(what, expected, actual string) {
		failures = append(failures, (&AssertionError{
			Type:     label + " " + what,
			Expected: expected,
			Actual:   actual,
		}).Error())
	}

	if exp.Error != "" {
		if err == nil {
			fail("error", exp.Error, "no error")
		} else if st.Error != exp.Error {
			fail("error", exp.Error, st.Error)
		}
		return failures
	}
	if err != nil {
		fail("error", "no error", err.Error())
		return failures
	}

	if exp.Rows != nil && !slices.Equal(*exp.Rows, st.Rows) {
		fail("rows", fmt.Sprint(*exp.Rows), fmt.Sprint(st.Rows))
	}

	if exp.Column != "" {
		got := make([]string, len(res.Rows))
		for i, r := range res.Rows {
			got[i] = ir.Format(r.Get(exp.Column))
		}
		if !slices.Equal(exp.Values, got) {
			fail("values of "+exp.Column, fmt.Sprint(exp.Values), fmt.Sprint(got))
		}
	}

	if exp.Groups != nil {
		keys := make([]string, len(st.Groups))
		for i, g := range st.Groups {
			keys[i] = g.Key
		}
		if !slices.Equal(exp.Groups, keys) {
			fail("groups", fmt.Sprint(exp.Groups), fmt.Sprint(keys))
		}
	}

	if exp.Warnings != nil && *exp.Warnings != len(st.Warnings) {
		fail("warning count", fmt.Sprint(*exp.Warnings), fmt.Sprintf("%d %q", len(st.Warnings), st.Warnings))
	}

	if exp.Warning != "" && !slices.ContainsFunc(st.Warnings, func(w string) bool {
		return strings.Contains(w, exp.Warning)
	}) {
		fail("warning", fmt.Sprintf("a warning containing %q", exp.Warning), fmt.Sprintf("%q", st.Warnings))
	}

	if exp.Query != nil && *exp.Query != st.Query {
		fail("current query", fmt.Sprintf("%q", *exp.Query), fmt.Sprintf("%q", st.Query))
	}

	return failures
}

// EvaluateAssertions checks the final engine state and returns the failure
// messages. Evaluation continues after a failure.
func EvaluateAssertions(eng *engine.Engine, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertEditCount:
			err = assertEditCount(eng, a)
		case AssertEditContains:
			err = assertEditContains(eng, a)
		case AssertCell:
			err = assertCell(eng, a)
		case AssertCurrentQuery:
			err = assertCurrentQuery(eng, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func assertEditCount(eng *engine.Engine, a Assertion) error {
	if n := len(eng.Edits()); n != a.Count {
		return &AssertionError{
			Type:     AssertEditCount,
			Expected: fmt.Sprintf("%d edits", a.Count),
			Actual:   fmt.Sprintf("%d edits", n),
		}
	}
	return nil
}

func assertEditContains(eng *engine.Engine, a Assertion) error {
	for _, e := range eng.Edits() {
		if e.RowID == a.Row && e.Column == a.Column && ir.Format(e.New) == a.Value {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEditContains,
		Expected: fmt.Sprintf("edit row %d %s -> %q", a.Row, a.Column, a.Value),
		Actual:   "not found in edit log",
	}
}

func assertCell(eng *engine.Engine, a Assertion) error {
	rows := eng.Rows()
	if a.Row < 0 || a.Row >= len(rows) {
		return &AssertionError{
			Type:     AssertCell,
			Expected: fmt.Sprintf("row %d", a.Row),
			Actual:   fmt.Sprintf("dataset has %d rows", len(rows)),
		}
	}
	if got := ir.Format(rows[a.Row].Get(a.Column)); got != a.Value {
		return &AssertionError{
			Type:     AssertCell,
			Expected: fmt.Sprintf("row %d %s = %q", a.Row, a.Column, a.Value),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}

func assertCurrentQuery(eng *engine.Engine, a Assertion) error {
	if got := eng.CurrentQuery(); got != a.Query {
		return &AssertionError{
			Type:     AssertCurrentQuery,
			Expected: fmt.Sprintf("%q", a.Query),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}
