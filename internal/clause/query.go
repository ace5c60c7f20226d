package clause

import (
	"strings"

	"github.com/roach88/tabq/internal/ir"
)

// Query is an ordered list of clauses. Multiple Select clauses AND together;
// for the other kinds only the first occurrence takes effect.
//
// Query values are treated as immutable: every With/Without helper returns
// a new slice and leaves the receiver untouched.
type Query []Clause

// Selects returns the Select clauses in order.
func (q Query) Selects() []Select {
	var out []Select
	for _, c := range q {
		if s, ok := c.(Select); ok {
			out = append(out, s)
		}
	}
	return out
}

// Sort returns the first Sort clause.
func (q Query) Sort() (Sort, bool) { return first[Sort](q) }

// Range returns the first Range clause.
func (q Query) Range() (Range, bool) { return first[Range](q) }

// Group returns the first Group clause.
func (q Query) Group() (Group, bool) { return first[Group](q) }

// Fuzzy returns the first Fuzzy clause.
func (q Query) Fuzzy() (Fuzzy, bool) { return first[Fuzzy](q) }

func first[T Clause](q Query) (T, bool) {
	for _, c := range q {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// without returns q minus every clause for which drop returns true.
func (q Query) without(drop func(Clause) bool) Query {
	out := make(Query, 0, len(q))
	for _, c := range q {
		if !drop(c) {
			out = append(out, c)
		}
	}
	return out
}

func isKind[T Clause](c Clause) bool {
	_, ok := c.(T)
	return ok
}

// WithSelect appends s to the query.
func (q Query) WithSelect(s Select) Query {
	out := make(Query, 0, len(q)+1)
	out = append(out, q...)
	return append(out, s)
}

// ReplaceSelects drops every Select on s.Field and appends s.
func (q Query) ReplaceSelects(s Select) Query {
	return q.WithoutSelects(SelectMatch{Field: s.Field}).WithSelect(s)
}

// SelectMatch identifies Select clauses for removal. Empty Operator or
// Value act as wildcards; Field must always match exactly.
type SelectMatch struct {
	Field    string
	Operator string
	Value    string
}

// Matches reports whether s is covered by m. Value matches either the raw
// literal or its parsed display form.
func (m SelectMatch) Matches(s Select) bool {
	if s.Field != m.Field {
		return false
	}
	if m.Operator != "" && s.Operator != m.Operator {
		return false
	}
	if m.Value != "" && s.Raw != m.Value && ir.Format(s.Value) != m.Value {
		return false
	}
	return true
}

// WithoutSelects drops the Select clauses matched by m.
func (q Query) WithoutSelects(m SelectMatch) Query {
	return q.without(func(c Clause) bool {
		s, ok := c.(Select)
		return ok && m.Matches(s)
	})
}

// WithSort replaces any Sort clause with s.
func (q Query) WithSort(s Sort) Query { return append(q.WithoutSort(), s) }

// WithoutSort drops every Sort clause.
func (q Query) WithoutSort() Query { return q.without(isKind[Sort]) }

// WithRange replaces any Range clause with r.
func (q Query) WithRange(r Range) Query { return append(q.WithoutRange(), r) }

// WithoutRange drops every Range clause.
func (q Query) WithoutRange() Query { return q.without(isKind[Range]) }

// WithGroup replaces any Group clause with g.
func (q Query) WithGroup(g Group) Query { return append(q.WithoutGroup(), g) }

// WithoutGroup drops every Group clause.
func (q Query) WithoutGroup() Query { return q.without(isKind[Group]) }

// WithFuzzy replaces any Fuzzy clause with f.
func (q Query) WithFuzzy(f Fuzzy) Query { return append(q.WithoutFuzzy(), f) }

// WithoutFuzzy drops every Fuzzy clause.
func (q Query) WithoutFuzzy() Query { return q.without(isKind[Fuzzy]) }

// String renders the canonical query: selects in order, then the effective
// sort, range, group and search clauses, joined by " and ".
func (q Query) String() string {
	parts := make([]string, 0, len(q))
	for _, s := range q.Selects() {
		parts = append(parts, s.String())
	}
	if s, ok := q.Sort(); ok {
		parts = append(parts, s.String())
	}
	if r, ok := q.Range(); ok {
		parts = append(parts, r.String())
	}
	if g, ok := q.Group(); ok {
		parts = append(parts, g.String())
	}
	if f, ok := q.Fuzzy(); ok {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, " and ")
}
