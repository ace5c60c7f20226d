// Package importer decodes raw import payloads into records and derives
// column headers.
//
// Supported payload types are JSON (an array of objects), CSV (first record
// is the header line) and Parquet. Decoding keeps the column order of the
// source so headers get stable positions.
package importer

import (
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/tabq/internal/ir"
	"github.com/roach88/tabq/internal/plugin"
)

// Type names a payload encoding.
type Type string

const (
	JSON    Type = "json"
	CSV     Type = "csv"
	Parquet Type = "parquet"
)

// Types lists the supported payload types.
var Types = []Type{JSON, CSV, Parquet}

// ParseType maps a type name (any case) to a Type.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// TypeFromPath guesses the payload type from a file extension.
func TypeFromPath(path string) (Type, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}
	return ParseType(ext[1:])
}

// Payload is a decoded import: records in source order and every column
// name in first-seen order.
type Payload struct {
	Columns []string
	Records []map[string]any
}

// Decode decodes raw according to t.
//
// It returns an UNKNOWN_IMPORT_TYPE error for an unsupported type and a
// MALFORMED_PAYLOAD error when raw cannot be decoded.
func Decode(raw []byte, t Type) (Payload, error) {
	switch t {
	case JSON:
		return DecodeJSON(raw)
	case CSV:
		return DecodeCSV(raw)
	case Parquet:
		return DecodeParquet(raw)
	default:
		return Payload{}, ir.NewError(ir.ErrCodeUnknownImportType,
			"unknown import type %q (supported: json, csv, parquet)", t)
	}
}

func malformed(t Type, format string, args ...any) *ir.Error {
	err := ir.NewError(ir.ErrCodeMalformedPayload, format, args...)
	err.Details = map[string]string{"type": string(t)}
	return err
}

// columnOrder collects column names in first-seen order.
type columnOrder struct {
	names []string
	seen  map[string]bool
}

func (c *columnOrder) add(name string) {
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[name] {
		return
	}
	c.seen[name] = true
	c.names = append(c.names, name)
}

// Headers derives one header per column. Declared columns use their
// declaration; the rest get a detected type. Declared columns absent from
// the payload are appended after the payload columns in name order.
func (p Payload) Headers(decls ir.HeaderDecls) []ir.Header {
	columns := append([]string(nil), p.Columns...)

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var extra []string
	for name := range decls {
		if !present[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	columns = append(columns, extra...)

	headers := make([]ir.Header, len(columns))
	for pos, name := range columns {
		if decl, ok := decls[name]; ok && decl.Type != "" {
			headers[pos] = decl.Header(name, pos)
			continue
		}
		headers[pos] = ir.HeaderDecl{Type: p.detect(name)}.Header(name, pos)
	}
	return headers
}

// detect types a column from its first non-empty cell.
func (p Payload) detect(column string) string {
	for _, rec := range p.Records {
		v, ok := rec[column]
		if !ok || isEmpty(v) {
			continue
		}
		return DetectType(v)
	}
	return "string"
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	}
	return false
}

// DetectType returns the plugin name for a cell: booleans (and the strings
// "true"/"false") are boolean, numbers and numeric strings are number,
// times and date-like strings are date, everything else is string.
func DetectType(v any) string {
	switch val := v.(type) {
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64:
		return "number"
	case time.Time:
		return "date"
	case string:
		s := strings.TrimSpace(val)
		switch {
		case strings.EqualFold(s, "true") || strings.EqualFold(s, "false"):
			return "boolean"
		case looksNumeric(s):
			return "number"
		case looksDate(s):
			return "date"
		}
	}
	return "string"
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

func looksDate(s string) bool {
	_, ok := plugin.ParseDate(s)
	return ok
}
