package plugin

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/tabq/internal/clause"
	"github.com/roach88/tabq/internal/index"
	"github.com/roach88/tabq/internal/ir"
)

// NumberPlugin handles numeric columns. Integers and decimals share the
// float64 representation of ir.Number.
type NumberPlugin struct{}

var orderedOperators = operatorSet{
	OpEqual, OpNotEqual, OpIn,
	OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpBetween,
}

func (NumberPlugin) Name() string { return "number" }

func (NumberPlugin) Operators() []string { return append([]string(nil), orderedOperators...) }

func (NumberPlugin) CheckOperator(op string) bool { return orderedOperators.has(op) }

func (NumberPlugin) Validate(raw string) bool {
	if isNullLiteral(raw) {
		return true
	}
	_, ok := parseNumber(raw)
	return ok
}

func (NumberPlugin) ParseValue(raw any) ir.Value {
	switch val := raw.(type) {
	case nil, ir.Null:
		return ir.Null{}
	case ir.Number:
		return val
	case ir.Value:
		return numberFromString(ir.Format(val))
	case float64:
		return ir.Number(val)
	case float32:
		return ir.Number(val)
	case int:
		return ir.Number(val)
	case int32:
		return ir.Number(val)
	case int64:
		return ir.Number(val)
	case json.Number:
		return numberFromString(string(val))
	case bool:
		if val {
			return ir.Number(1)
		}
		return ir.Number(0)
	case string:
		return numberFromString(val)
	default:
		return numberFromString(formatAny(val))
	}
}

func numberFromString(s string) ir.Value {
	f, ok := parseNumber(s)
	if !ok {
		return ir.Null{}
	}
	return ir.Number(f)
}

// parseNumber accepts decimal and exponent notation with surrounding space.
// NaN and infinities are rejected so every Number stays comparable.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (NumberPlugin) EvaluateCondition(cell ir.Value, op string, cmp ir.Value) bool {
	if result, handled := baseCondition(cell, op, cmp); handled {
		return result
	}
	return orderedCondition(cell, op, cmp, numberKey)
}

func numberKey(v ir.Value) (float64, bool) {
	n, ok := v.(ir.Number)
	return float64(n), ok
}

func (p NumberPlugin) Evaluate(sel clause.Select, column index.Column, rows []ir.Row, candidates *index.Set) *index.Set {
	return Evaluate(p.EvaluateCondition, sel, column, rows, candidates)
}

func (NumberPlugin) Sort(s clause.Sort, rows []ir.Row) []ir.Row {
	return SortRows(rows, s.Field, s.Direction, keyComparator(numberKey))
}

// keyComparator orders values by a numeric key. Values without a key sort
// before those with one, mirroring Null.
func keyComparator(key func(ir.Value) (float64, bool)) Comparator {
	return func(a, b ir.Value) int {
		ka, okA := key(a)
		kb, okB := key(b)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return -1
		case !okB:
			return 1
		}
		return compareFloat(ka, kb)
	}
}
