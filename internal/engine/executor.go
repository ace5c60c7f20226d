package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/tabq/internal/clause"
	"github.com/roach88/tabq/internal/index"
	"github.com/roach88/tabq/internal/ir"
	"github.com/roach88/tabq/internal/plugin"
)

// Warnings returned by the executor itself.
const (
	WarnEmptyQuery   = "empty query; returning the full dataset"
	WarnEmptyDataset = "dataset is empty"
)

// Result is the outcome of one query.
//
// Rows holds the surviving rows in result order. When the query groups,
// Groups partitions those same rows and Rows keeps candidate order.
type Result struct {
	Rows     []ir.Row
	Groups   []Group
	Warnings []string
}

// Group is one partition of a grouped result.
type Group struct {
	Key   string   // Display form of Value
	Value ir.Value // Shared cell value of the group
	Rows  []ir.Row
}

// Grouped reports whether the query had an effective group clause.
func (r Result) Grouped() bool {
	return r.Groups != nil
}

// GroupMap returns the groupKey -> rows mapping of a grouped result, or
// nil for a flat one.
func (r Result) GroupMap() map[string][]ir.Row {
	if r.Groups == nil {
		return nil
	}
	m := make(map[string][]ir.Row, len(r.Groups))
	for _, g := range r.Groups {
		m[g.Key] = g.Rows
	}
	return m
}

// Query compiles and runs q. On success q becomes the current query for
// the mutation API.
func (e *Engine) Query(q string) (Result, error) {
	compiled, err := e.Compile(q)
	if err != nil {
		return Result{}, err
	}

	res, err := e.apply(compiled.Query)
	if err != nil {
		return Result{}, err
	}
	res.Warnings = append(slices.Clone(compiled.Warnings), res.Warnings...)
	return res, nil
}

// Run executes an already compiled clause list without touching the
// current query.
func (e *Engine) Run(q clause.Query) (Result, error) {
	return e.execute(q)
}

// apply runs q and remembers it as the current query when it succeeds.
func (e *Engine) apply(q clause.Query) (Result, error) {
	res, err := e.execute(q)
	if err != nil {
		return Result{}, err
	}
	e.current = q
	return res, nil
}

func (e *Engine) execute(q clause.Query) (Result, error) {
	var res Result
	warn := func(msg string) {
		slog.Warn("query degraded", slog.String("reason", msg))
		res.Warnings = append(res.Warnings, msg)
	}

	if len(e.rows) == 0 {
		warn(WarnEmptyDataset)
		res.Rows = []ir.Row{}
		return res, nil
	}
	if len(q) == 0 {
		warn(WarnEmptyQuery)
		res.Rows = cloneRows(e.rows)
		return res, nil
	}
	for _, w := range clause.Validate(q).Warnings {
		warn(w)
	}

	// 1. Select
	candidates := index.Full(len(e.rows))
	for _, sel := range q.Selects() {
		p, err := e.pluginFor(sel.Field)
		if err != nil {
			return Result{}, err
		}
		column, _ := e.index.Column(sel.Field)
		candidates = p.Evaluate(sel, column, e.rows, candidates)
	}

	// 2. Range
	ids := candidates.IDs()
	if r, ok := q.Range(); ok {
		start, end := r.Window(len(ids))
		ids = ids[start:end]
	}

	rows := make([]ir.Row, len(ids))
	for i, id := range ids {
		rows[i] = e.rows[id]
	}

	// 3. Group
	if g, ok := q.Group(); ok {
		res.Groups = groupRows(rows, g.Field)
		res.Rows = cloneRows(rows)
		slog.Debug("query executed",
			slog.String("query", q.String()),
			slog.Int("rows", len(rows)),
			slog.Int("groups", len(res.Groups)))
		return res, nil
	}

	// 4. Sort
	if s, ok := q.Sort(); ok {
		p, err := e.pluginFor(s.Field)
		if err != nil {
			return Result{}, err
		}
		rows = p.Sort(s, rows)
	}

	// 5. Search
	if f, ok := q.Fuzzy(); ok {
		rows = e.search(rows, f.Text)
	}

	res.Rows = cloneRows(rows)
	slog.Debug("query executed",
		slog.String("query", q.String()),
		slog.Int("rows", len(rows)))
	return res, nil
}

// groupRows partitions rows by their value in field. Groups appear in
// order of first occurrence and keep row order within each group.
func groupRows(rows []ir.Row, field string) []Group {
	groups := []Group{}
	byKey := make(map[ir.Value]int)
	for _, r := range rows {
		v := r.Get(field)
		i, ok := byKey[v]
		if !ok {
			i = len(groups)
			byKey[v] = i
			groups = append(groups, Group{Key: ir.Format(v), Value: v})
		}
		groups[i].Rows = append(groups[i].Rows, r.Clone())
	}
	return groups
}

// search keeps rows where any non-hidden column contains text, ignoring
// case. Order is preserved.
func (e *Engine) search(rows []ir.Row, text string) []ir.Row {
	fold := cases.Fold()
	needle := fold.String(text)

	var visible []string
	for _, h := range e.headers {
		if !h.IsHidden {
			visible = append(visible, h.Name)
		}
	}

	out := make([]ir.Row, 0, len(rows))
	for _, r := range rows {
		for _, col := range visible {
			if strings.Contains(fold.String(ir.Format(r.Get(col))), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func (e *Engine) pluginFor(column string) (plugin.Plugin, error) {
	pos, ok := e.columns[column]
	if !ok {
		return nil, ir.NewError(ir.ErrCodeUnknownColumn, "no column %q", column).WithField(column)
	}
	p, err := e.registry.Get(e.headers[pos].Type)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", column, err)
	}
	return p, nil
}
