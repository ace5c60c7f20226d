// Package plugin implements the type plugin registry.
//
// Each logical column type (string, number, boolean, date, ...) has one
// Plugin. The plugin owns everything type-specific about a column: literal
// validation, value parsing, the operator set, per-row predicates, bulk
// evaluation against the inverted index, and sorting. Header.Type names the
// plugin that owns a column.
//
// Plugins are stateless per call and registered once at startup. A later
// registration under the same name replaces the earlier one unless the
// caller asks not to override.
package plugin

import (
	"github.com/roach88/tabq/internal/clause"
	"github.com/roach88/tabq/internal/index"
	"github.com/roach88/tabq/internal/ir"
)

// Base operator symbols every plugin must support.
const (
	OpEqual    = "=="
	OpNotEqual = "!="
	OpIn       = "in"
)

// Ordered operator symbols (number and date).
const (
	OpGreater      = ">"
	OpLess         = "<"
	OpGreaterEqual = ">="
	OpLessEqual    = "<="
	OpBetween      = "><"
)

// String operator symbols.
const (
	OpPrefix      = "%="
	OpSuffix      = "=%"
	OpContains    = "*="
	OpNotContains = "!*="
)

// BaseOperators is the operator set every plugin must include.
var BaseOperators = []string{OpEqual, OpNotEqual, OpIn}

// Plugin is the capability set of one column type.
type Plugin interface {
	// Name is the registry key and the Header.Type that selects this plugin.
	Name() string

	// Operators lists the supported operator symbols, base operators first.
	Operators() []string

	// CheckOperator reports whether op is in Operators.
	CheckOperator(op string) bool

	// Validate reports whether a query literal can be parsed. It returns
	// false, never panics, on malformed input.
	Validate(raw string) bool

	// ParseValue converts a query literal or an import cell into the
	// column's canonical value. It is total: nil, empty and unparseable
	// input yield ir.Null.
	ParseValue(raw any) ir.Value

	// EvaluateCondition is the single-row predicate.
	EvaluateCondition(cell ir.Value, op string, cmp ir.Value) bool

	// Evaluate narrows candidates to the rows satisfying sel. column may be
	// nil when the dataset is not indexed. rows[i].ID must equal i.
	Evaluate(sel clause.Select, column index.Column, rows []ir.Row, candidates *index.Set) *index.Set

	// Sort returns rows ordered by s. The input slice is not modified.
	Sort(s clause.Sort, rows []ir.Row) []ir.Row
}

// ListOperator reports whether op takes a comma-separated list literal.
func ListOperator(op string) bool {
	return op == OpIn || op == OpBetween
}

// isNullLiteral reports whether a query literal names the empty value.
func isNullLiteral(raw string) bool {
	switch raw {
	case "null", "NULL", "empty", "EMPTY":
		return true
	}
	return false
}

// operatorSet is the shared CheckOperator implementation.
type operatorSet []string

func (s operatorSet) has(op string) bool {
	for _, o := range s {
		if o == op {
			return true
		}
	}
	return false
}
