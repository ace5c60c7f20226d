package plugin

import (
	"strings"

	"github.com/roach88/tabq/internal/clause"
	"github.com/roach88/tabq/internal/index"
	"github.com/roach88/tabq/internal/ir"
)

// BooleanPlugin handles true/false columns. Literals true, yes, 1 and
// false, no, 0 are accepted in any case. false sorts before true.
type BooleanPlugin struct{}

var booleanOperators = operatorSet{OpEqual, OpNotEqual, OpIn}

func (BooleanPlugin) Name() string { return "boolean" }

func (BooleanPlugin) Operators() []string { return append([]string(nil), booleanOperators...) }

func (BooleanPlugin) CheckOperator(op string) bool { return booleanOperators.has(op) }

func (BooleanPlugin) Validate(raw string) bool {
	if isNullLiteral(raw) {
		return true
	}
	_, ok := parseBool(raw)
	return ok
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0":
		return false, true
	}
	return false, false
}

func (BooleanPlugin) ParseValue(raw any) ir.Value {
	switch val := raw.(type) {
	case nil, ir.Null:
		return ir.Null{}
	case ir.Bool:
		return val
	case bool:
		return ir.Bool(val)
	case float64:
		return numericBool(val)
	case int:
		return numericBool(float64(val))
	case int64:
		return numericBool(float64(val))
	case ir.Number:
		return numericBool(float64(val))
	case ir.Value:
		return boolFromString(ir.Format(val))
	case string:
		return boolFromString(val)
	default:
		return ir.Null{}
	}
}

func numericBool(f float64) ir.Value {
	switch f {
	case 0:
		return ir.Bool(false)
	case 1:
		return ir.Bool(true)
	}
	return ir.Null{}
}

func boolFromString(s string) ir.Value {
	b, ok := parseBool(s)
	if !ok {
		return ir.Null{}
	}
	return ir.Bool(b)
}

func (BooleanPlugin) EvaluateCondition(cell ir.Value, op string, cmp ir.Value) bool {
	result, _ := baseCondition(cell, op, cmp)
	return result
}

func boolKey(v ir.Value) (float64, bool) {
	b, ok := v.(ir.Bool)
	if !ok {
		return 0, false
	}
	if b {
		return 1, true
	}
	return 0, true
}

func (p BooleanPlugin) Evaluate(sel clause.Select, column index.Column, rows []ir.Row, candidates *index.Set) *index.Set {
	return Evaluate(p.EvaluateCondition, sel, column, rows, candidates)
}

func (BooleanPlugin) Sort(s clause.Sort, rows []ir.Row) []ir.Row {
	return SortRows(rows, s.Field, s.Direction, keyComparator(boolKey))
}
