package engine

import (
	"log/slog"
	"strings"

	"github.com/roach88/tabq/internal/ir"
)

// AlterData sets column of row rowID to value and records the edit.
//
// value is parsed by the column's plugin (strings are validated first, so
// "abc" is rejected for a number column while "null" clears the cell).
// Any other value the plugin cannot parse is rejected too; only nil, "" and
// the null keywords clear a cell. All checks run before anything changes:
// the row update, the index repair and the edit record happen together or
// not at all. Setting a cell to the value it already holds records nothing
// and returns an edit with an empty ID.
func (e *Engine) AlterData(rowID int, column string, value any) (ir.Edit, error) {
	if rowID < 0 || rowID >= len(e.rows) {
		return ir.Edit{}, ir.NewError(ir.ErrCodeUnknownRow, "no row with internal id %d", rowID)
	}

	h, ok := e.Header(column)
	if !ok {
		return ir.Edit{}, ir.NewError(ir.ErrCodeUnknownColumn, "no column %q", column).WithField(column)
	}
	if !h.IsEditable {
		return ir.Edit{}, ir.NewError(ir.ErrCodeNotEditable, "column %q is not editable", h.Name).WithField(h.Name)
	}

	p, err := e.registry.Get(h.Type)
	if err != nil {
		return ir.Edit{}, err
	}
	if s, isString := value.(string); isString && s != "" && !p.Validate(s) {
		return ir.Edit{}, ir.NewError(ir.ErrCodeInvalidValue,
			"%q is not a valid %s value", s, p.Name()).WithField(h.Name)
	}
	next := p.ParseValue(value)
	if ir.IsNull(next) && !clearsCell(value) {
		return ir.Edit{}, ir.NewError(ir.ErrCodeInvalidValue,
			"%v is not a valid %s value", value, p.Name()).WithField(h.Name)
	}

	if h.IsUnique && !ir.IsNull(next) {
		if other, taken := e.holder(h.Name, next, rowID); taken {
			return ir.Edit{}, ir.NewError(ir.ErrCodeUniqueViolation,
				"value %q already held by row %d", ir.Format(next), other).WithField(h.Name)
		}
	}

	row := e.rows[rowID]
	prev := row.Get(h.Name)
	if ir.Equal(prev, next) {
		return ir.Edit{RowID: rowID, Column: h.Name, Previous: prev, New: next}, nil
	}
	row.Cells[h.Name] = next
	if e.index != nil {
		e.index.Repair(rowID, h.Name, prev, next)
	}
	edit, _ := e.tracker.Add(rowID, h.Name, prev, next)

	slog.Debug("cell altered",
		slog.Int("row", rowID),
		slog.String("column", h.Name),
		slog.String("previous", ir.Format(prev)),
		slog.String("new", ir.Format(next)))
	return edit, nil
}

// clearsCell reports whether value asks for the empty value rather than
// failing to parse.
func clearsCell(value any) bool {
	switch v := value.(type) {
	case nil, ir.Null:
		return true
	case string:
		switch strings.TrimSpace(v) {
		case "", "null", "NULL", "empty", "EMPTY":
			return true
		}
	}
	return false
}

// holder returns a row other than exclude holding v in column.
func (e *Engine) holder(column string, v ir.Value, exclude int) (int, bool) {
	if col, ok := e.index.Column(column); ok {
		for _, id := range col.Lookup(v).IDs() {
			if id != exclude {
				return id, true
			}
		}
		return 0, false
	}
	for _, r := range e.rows {
		if r.ID != exclude && ir.Equal(r.Get(column), v) {
			return r.ID, true
		}
	}
	return 0, false
}

// Edits returns the tracked edit log.
func (e *Engine) Edits() []ir.Edit {
	return e.tracker.Edits()
}

// FlushEdits returns the edit log and clears it. The sync collaborator
// calls this after persisting or sending the edits.
func (e *Engine) FlushEdits() []ir.Edit {
	return e.tracker.Flush()
}
