// Package edits records accepted cell edits for downstream sync.
//
// The log is kept minimal after every append: at most one edit per
// (row, column), the most recent, and never an edit whose previous value
// equals its new value.
package edits

import (
	"log/slog"
	"slices"

	"github.com/roach88/tabq/internal/ir"
)

// Tracker is the edit log. It is not safe for concurrent use.
type Tracker struct {
	ids   IDGenerator
	clock *Clock
	log   []ir.Edit
}

// NewTracker returns an empty tracker. A nil ids uses UUIDv7Generator and
// a nil clock starts at zero.
func NewTracker(ids IDGenerator, clock *Clock) *Tracker {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	if clock == nil {
		clock = NewClock()
	}
	return &Tracker{ids: ids, clock: clock}
}

// Add stamps and records an edit of column on rowID, then collapses the
// log. It returns the stamped edit and whether it remains in the log (a
// no-op edit does not).
func (t *Tracker) Add(rowID int, column string, previous, next ir.Value) (ir.Edit, bool) {
	e := ir.Edit{
		ID:       t.ids.Generate(),
		Seq:      t.clock.Next(),
		RowID:    rowID,
		Column:   column,
		Previous: previous,
		New:      next,
	}

	t.log = Collapse(append(t.log, e))

	kept := slices.ContainsFunc(t.log, func(x ir.Edit) bool { return x.ID == e.ID })
	slog.Debug("edit recorded",
		slog.String("id", e.ID),
		slog.Int64("seq", e.Seq),
		slog.Int("row", rowID),
		slog.String("column", column),
		slog.Bool("kept", kept))
	return e, kept
}

// Collapse keeps the latest edit per (row, column) and drops no-op edits.
// The survivors keep their relative order.
func Collapse(log []ir.Edit) []ir.Edit {
	seen := make(map[ir.EditKey]bool, len(log))
	out := make([]ir.Edit, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- {
		e := log[i]
		if seen[e.Key()] {
			continue
		}
		seen[e.Key()] = true
		if ir.Equal(e.Previous, e.New) {
			continue
		}
		out = append(out, e)
	}
	slices.Reverse(out)
	return out
}

// Edits returns a copy of the current log.
func (t *Tracker) Edits() []ir.Edit {
	return slices.Clone(t.log)
}

// Len returns the number of tracked edits.
func (t *Tracker) Len() int {
	return len(t.log)
}

// Flush returns the log and clears it.
func (t *Tracker) Flush() []ir.Edit {
	out := t.log
	t.log = nil
	return out
}

// Clock returns the tracker's clock.
func (t *Tracker) Clock() *Clock {
	return t.clock
}
