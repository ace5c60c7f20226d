package plugin

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/roach88/tabq/internal/clause"
	"github.com/roach88/tabq/internal/index"
	"github.com/roach88/tabq/internal/ir"
)

// DateLayouts are the accepted date literal layouts, tried in order.
var DateLayouts = []string{
	ir.DateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses s against DateLayouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DatePlugin handles calendar-day columns. Every value is truncated to its
// UTC day, so comparisons ignore time of day.
//
// Import cells that are JSON numbers are read as Unix milliseconds.
type DatePlugin struct{}

func (DatePlugin) Name() string { return "date" }

func (DatePlugin) Operators() []string { return append([]string(nil), orderedOperators...) }

func (DatePlugin) CheckOperator(op string) bool { return orderedOperators.has(op) }

func (DatePlugin) Validate(raw string) bool {
	if isNullLiteral(raw) {
		return true
	}
	_, ok := ParseDate(raw)
	return ok
}

func (DatePlugin) ParseValue(raw any) ir.Value {
	switch val := raw.(type) {
	case nil, ir.Null:
		return ir.Null{}
	case ir.Date:
		return val
	case ir.Number:
		return ir.NewDate(time.UnixMilli(int64(val)))
	case ir.Value:
		return dateFromString(ir.Format(val))
	case time.Time:
		return ir.NewDate(val)
	case float64:
		return ir.NewDate(time.UnixMilli(int64(val)))
	case int64:
		return ir.NewDate(time.UnixMilli(val))
	case int:
		return ir.NewDate(time.UnixMilli(int64(val)))
	case json.Number:
		ms, err := val.Int64()
		if err != nil {
			return ir.Null{}
		}
		return ir.NewDate(time.UnixMilli(ms))
	case string:
		return dateFromString(val)
	default:
		return ir.Null{}
	}
}

func dateFromString(s string) ir.Value {
	t, ok := ParseDate(s)
	if !ok {
		return ir.Null{}
	}
	return ir.NewDate(t)
}

func (DatePlugin) EvaluateCondition(cell ir.Value, op string, cmp ir.Value) bool {
	if result, handled := baseCondition(cell, op, cmp); handled {
		return result
	}
	return orderedCondition(cell, op, cmp, dateKey)
}

func dateKey(v ir.Value) (float64, bool) {
	d, ok := v.(ir.Date)
	return float64(d), ok
}

func (p DatePlugin) Evaluate(sel clause.Select, column index.Column, rows []ir.Row, candidates *index.Set) *index.Set {
	return Evaluate(p.EvaluateCondition, sel, column, rows, candidates)
}

func (DatePlugin) Sort(s clause.Sort, rows []ir.Row) []ir.Row {
	return SortRows(rows, s.Field, s.Direction, keyComparator(dateKey))
}
