package harness

import (
	"github.com/roach88/tabq/internal/engine"
	"github.com/roach88/tabq/internal/ir"
)

// StepTrace records what one scenario step produced.
type StepTrace struct {
	Step     int          `json:"step"`
	Kind     string       `json:"kind"` // "query", "alter", "mutate" or "flush"
	Input    string       `json:"input"`
	Query    string       `json:"query,omitempty"` // Canonical current query after the step
	Rows     []int        `json:"rows,omitempty"`
	Groups   []GroupTrace `json:"groups,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
	Error    string       `json:"error,omitempty"` // Error code, or message for untyped errors
}

// GroupTrace is one group of a grouped result.
type GroupTrace struct {
	Key  string `json:"key"`
	Rows []int  `json:"rows"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds one entry per step, in order.
	Trace []StepTrace `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Edits holds the edits flushed during the run followed by the edit
	// log still pending at the end.
	Edits []ir.Edit `json:"edits"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepTrace{},
		Errors: []string{},
		Edits:  []ir.Edit{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// traceResult fills the row, group and warning fields from an engine result.
func traceResult(st *StepTrace, res engine.Result) {
	st.Warnings = res.Warnings
	if res.Grouped() {
		for _, g := range res.Groups {
			st.Groups = append(st.Groups, GroupTrace{Key: g.Key, Rows: rowIDs(g.Rows)})
		}
		return
	}
	st.Rows = rowIDs(res.Rows)
}

func rowIDs(rows []ir.Row) []int {
	ids := make([]int, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
