package plugin

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/roach88/tabq/internal/clause"
	"github.com/roach88/tabq/internal/index"
	"github.com/roach88/tabq/internal/ir"
)

// StringPlugin handles text columns.
//
// == and != compare exactly. The prefix, suffix and substring operators
// compare Unicode case-folded text, so "name %= a" matches "Ann".
// Sorting uses locale-aware collation for the configured language.
type StringPlugin struct {
	lang language.Tag
}

// NewStringPlugin returns a string plugin collating for lang
// (language.Und for the root collation).
func NewStringPlugin(lang language.Tag) *StringPlugin {
	return &StringPlugin{lang: lang}
}

var stringOperators = operatorSet{
	OpEqual, OpNotEqual, OpIn,
	OpPrefix, OpSuffix, OpContains, OpNotContains,
}

func (p *StringPlugin) Name() string { return "string" }

func (p *StringPlugin) Operators() []string { return append([]string(nil), stringOperators...) }

func (p *StringPlugin) CheckOperator(op string) bool { return stringOperators.has(op) }

// Validate accepts any literal; text cannot be malformed.
func (p *StringPlugin) Validate(raw string) bool { return true }

func (p *StringPlugin) ParseValue(raw any) ir.Value {
	switch val := raw.(type) {
	case nil:
		return ir.Null{}
	case string:
		if val == "" || isNullLiteral(val) {
			return ir.Null{}
		}
		return ir.String(val)
	case ir.Value:
		if ir.IsNull(val) {
			return ir.Null{}
		}
		return ir.String(ir.Format(val))
	default:
		return ir.String(formatAny(val))
	}
}

func (p *StringPlugin) EvaluateCondition(cell ir.Value, op string, cmp ir.Value) bool {
	if result, handled := baseCondition(cell, op, cmp); handled {
		return result
	}

	fold := cases.Fold()
	text := fold.String(ir.Format(cell))
	needle := fold.String(ir.Format(cmp))

	switch op {
	case OpPrefix:
		return strings.HasPrefix(text, needle)
	case OpSuffix:
		return strings.HasSuffix(text, needle)
	case OpContains:
		return strings.Contains(text, needle)
	case OpNotContains:
		return !strings.Contains(text, needle)
	}
	return false
}

func (p *StringPlugin) Evaluate(sel clause.Select, column index.Column, rows []ir.Row, candidates *index.Set) *index.Set {
	return Evaluate(p.EvaluateCondition, sel, column, rows, candidates)
}

func (p *StringPlugin) Sort(s clause.Sort, rows []ir.Row) []ir.Row {
	// Collators keep scratch buffers; one per call keeps the plugin stateless.
	col := collate.New(p.lang)
	return SortRows(rows, s.Field, s.Direction, func(a, b ir.Value) int {
		return col.CompareString(ir.Format(a), ir.Format(b))
	})
}
