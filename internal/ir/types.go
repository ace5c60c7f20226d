package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// InternalIDKey is the JSON key carrying a row's internal id.
const InternalIDKey = "internal_id"

// Row is one record of the dataset.
//
// ID is the stable position assigned at import. It is never reused and is
// not part of the visible columns.
type Row struct {
	ID    int
	Cells map[string]Value
}

// Get returns the cell value for column, or Null when the row has none.
func (r Row) Get(column string) Value {
	if v, ok := r.Cells[column]; ok && v != nil {
		return v
	}
	return Null{}
}

// Clone returns a copy whose cell map can be mutated independently.
func (r Row) Clone() Row {
	cells := make(map[string]Value, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return Row{ID: r.ID, Cells: cells}
}

// MarshalJSON renders the row as an object with sorted keys plus
// "internal_id".
func (r Row) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r.Cells))
	for k := range r.Cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, k := range keys {
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := MarshalValue(r.Cells[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
		buf.WriteByte(',')
	}
	fmt.Fprintf(&buf, "%q:%d}", InternalIDKey, r.ID)
	return buf.Bytes(), nil
}

// Header is the per-column metadata of a dataset.
type Header struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // plugin key
	IsUnique    bool   `json:"isUnique"`
	IsGroupable bool   `json:"isGroupable"`
	IsHidden    bool   `json:"isHidden"`
	IsEditable  bool   `json:"isEditable"`
	Position    int    `json:"position"`
}

// Edit is one accepted cell change, recorded for downstream sync.
type Edit struct {
	ID       string
	Seq      int64 // Logical clock, strictly increasing per tracker
	RowID    int
	Column   string
	Previous Value
	New      Value
}

// Key identifies the cell an edit touches.
func (e Edit) Key() EditKey {
	return EditKey{RowID: e.RowID, Column: e.Column}
}

// EditKey is the (row, column) pair edits are collapsed on.
type EditKey struct {
	RowID  int
	Column string
}

// MarshalJSON implements json.Marshaler for Edit.
func (e Edit) MarshalJSON() ([]byte, error) {
	prev, err := MarshalValue(e.Previous)
	if err != nil {
		return nil, fmt.Errorf("marshal previous value: %w", err)
	}
	next, err := MarshalValue(e.New)
	if err != nil {
		return nil, fmt.Errorf("marshal new value: %w", err)
	}
	return json.Marshal(struct {
		ID       string          `json:"id"`
		Seq      int64           `json:"seq"`
		RowID    int             `json:"row_id"`
		Column   string          `json:"column"`
		Previous json.RawMessage `json:"previous"`
		New      json.RawMessage `json:"new"`
	}{e.ID, e.Seq, e.RowID, e.Column, prev, next})
}
