package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/tabq/internal/clause"
)

// The mutation API edits the current clause list and re-runs it. Field
// names go through the header matcher, so "first_name" and "First Name"
// address the same clauses. A mutation that cannot be bound (unknown field,
// invalid value) leaves the current query unchanged and reports why in the
// result warnings.

// CurrentQuery renders the current clause list canonically.
func (e *Engine) CurrentQuery() string {
	return e.current.String()
}

// CurrentClauses returns the current clause list.
func (e *Engine) CurrentClauses() clause.Query {
	return e.current
}

// RunCurrentQuery re-executes the current clause list, e.g. after edits.
func (e *Engine) RunCurrentQuery() (Result, error) {
	return e.apply(e.current)
}

// AddSelect appends "field operator value" to the current query.
func (e *Engine) AddSelect(field, operator, value string) (Result, error) {
	return e.mutateSelect(field, operator, value, clause.Query.WithSelect)
}

// SetSelect replaces every select on field with "field operator value".
func (e *Engine) SetSelect(field, operator, value string) (Result, error) {
	return e.mutateSelect(field, operator, value, clause.Query.ReplaceSelects)
}

func (e *Engine) mutateSelect(field, operator, value string, merge func(clause.Query, clause.Select) clause.Query) (Result, error) {
	compiled, err := e.parser.ParseSelect(field, operator, value)
	if err != nil {
		return Result{}, err
	}

	q := e.current
	for _, sel := range compiled.Query.Selects() {
		q = merge(q, sel)
	}
	return e.applyWithWarnings(q, compiled.Warnings)
}

// RemoveSelect drops the selects on field. An empty operator or value acts
// as a wildcard, so RemoveSelect("age", "", "") drops every age filter and
// RemoveSelect("age", ">", "26") only the exact clause.
func (e *Engine) RemoveSelect(field, operator, value string) (Result, error) {
	name := field
	if h, ok := e.parser.Resolve(field); ok {
		name = h.Name
	}
	return e.apply(e.current.WithoutSelects(clause.SelectMatch{Field: name, Operator: operator, Value: value}))
}

// SetSort replaces the sort clause. direction is "asc", "desc" or empty
// for ascending.
func (e *Engine) SetSort(field, direction string) (Result, error) {
	h, ok := e.parser.Resolve(field)
	if !ok {
		return e.rejectMutation("unknown field %q; sort unchanged", field)
	}
	dir, ok := clause.ParseDirection(direction)
	if !ok {
		return e.rejectMutation("invalid sort direction %q; sort unchanged", direction)
	}
	return e.apply(e.current.WithSort(clause.Sort{Field: h.Name, Direction: dir}))
}

// RemoveSort drops the sort clause.
func (e *Engine) RemoveSort() (Result, error) {
	return e.apply(e.current.WithoutSort())
}

// SetRange replaces the range clause.
func (e *Engine) SetRange(r clause.Range) (Result, error) {
	return e.apply(e.current.WithRange(r))
}

// RemoveRange drops the range clause.
func (e *Engine) RemoveRange() (Result, error) {
	return e.apply(e.current.WithoutRange())
}

// SetGroup replaces the group clause.
func (e *Engine) SetGroup(field string) (Result, error) {
	h, ok := e.parser.Resolve(field)
	if !ok {
		return e.rejectMutation("unknown field %q; group unchanged", field)
	}
	if !h.IsGroupable {
		return e.rejectMutation("field %q is not groupable; group unchanged", h.Name)
	}
	return e.apply(e.current.WithGroup(clause.Group{Field: h.Name}))
}

// RemoveGroup drops the group clause.
func (e *Engine) RemoveGroup() (Result, error) {
	return e.apply(e.current.WithoutGroup())
}

// SetSearch replaces the search clause.
func (e *Engine) SetSearch(text string) (Result, error) {
	if text == "" {
		return e.RemoveSearch()
	}
	return e.apply(e.current.WithFuzzy(clause.Fuzzy{Text: text}))
}

// RemoveSearch drops the search clause.
func (e *Engine) RemoveSearch() (Result, error) {
	return e.apply(e.current.WithoutFuzzy())
}

// ParseRange parses the argument of a range clause ("5", "2-4", "3-").
func (e *Engine) ParseRange(arg string) (clause.Range, error) {
	compiled, err := e.parser.Parse("range " + arg)
	if err != nil {
		return clause.Range{}, err
	}
	r, ok := compiled.Query.Range()
	if !ok {
		return clause.Range{}, fmt.Errorf("invalid range %q", arg)
	}
	return r, nil
}

func (e *Engine) applyWithWarnings(q clause.Query, warnings []string) (Result, error) {
	res, err := e.apply(q)
	if err != nil {
		return Result{}, err
	}
	res.Warnings = append(append([]string(nil), warnings...), res.Warnings...)
	return res, nil
}

func (e *Engine) rejectMutation(format string, args ...any) (Result, error) {
	msg := fmt.Sprintf(format, args...)
	slog.Warn("query mutation rejected", slog.String("reason", msg))
	return e.applyWithWarnings(e.current, []string{msg})
}
