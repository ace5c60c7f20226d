package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/roach88/tabq/internal/engine"
	"github.com/roach88/tabq/internal/ir"
)

// idColumn heads the row id column in text tables.
const idColumn = "#"

// visibleHeaders drops hidden columns, keeping position order.
func visibleHeaders(headers []ir.Header) []ir.Header {
	out := make([]ir.Header, 0, len(headers))
	for _, h := range headers {
		if !h.IsHidden {
			out = append(out, h)
		}
	}
	return out
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	return table
}

// renderRows writes rows as a table of the visible columns.
func renderRows(w io.Writer, headers []ir.Header, rows []ir.Row, withIDs bool) {
	cols := visibleHeaders(headers)

	names := make([]string, 0, len(cols)+1)
	if withIDs {
		names = append(names, idColumn)
	}
	for _, h := range cols {
		names = append(names, h.Name)
	}

	table := newTable(w, names)
	for _, row := range rows {
		record := make([]string, 0, len(names))
		if withIDs {
			record = append(record, strconv.Itoa(row.ID))
		}
		for _, h := range cols {
			record = append(record, ir.Format(row.Get(h.Name)))
		}
		table.Append(record)
	}
	table.Render()
}

// renderResult writes a flat result as one table and a grouped result as
// one titled table per group. Warnings follow the rows.
func renderResult(w io.Writer, headers []ir.Header, res engine.Result, withIDs bool) {
	if res.Grouped() {
		for _, g := range res.Groups {
			key := g.Key
			if key == "" {
				key = "(empty)"
			}
			fmt.Fprintf(w, "== %s (%d)\n", key, len(g.Rows))
			renderRows(w, headers, g.Rows, withIDs)
			fmt.Fprintln(w)
		}
	} else {
		renderRows(w, headers, res.Rows, withIDs)
	}
	fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

// renderHeaders writes the column metadata table, hidden columns included.
func renderHeaders(w io.Writer, headers []ir.Header) {
	table := newTable(w, []string{"Position", "Name", "Type", "Unique", "Groupable", "Hidden", "Editable"})
	for _, h := range headers {
		table.Append([]string{
			strconv.Itoa(h.Position),
			h.Name,
			h.Type,
			strconv.FormatBool(h.IsUnique),
			strconv.FormatBool(h.IsGroupable),
			strconv.FormatBool(h.IsHidden),
			strconv.FormatBool(h.IsEditable),
		})
	}
	table.Render()
}

// renderEdits writes an edit log table.
func renderEdits(w io.Writer, log []ir.Edit) {
	table := newTable(w, []string{"Seq", "ID", "Row", "Column", "Previous", "New"})
	for _, e := range log {
		table.Append([]string{
			strconv.FormatInt(e.Seq, 10),
			e.ID,
			strconv.Itoa(e.RowID),
			e.Column,
			ir.Format(e.Previous),
			ir.Format(e.New),
		})
	}
	table.Render()
}

// resultData is the JSON payload of a query result.
type resultData struct {
	Count  int         `json:"count"`
	Rows   []ir.Row    `json:"rows,omitempty"`
	Groups []groupData `json:"groups,omitempty"`
	Query  string      `json:"query,omitempty"`
}

type groupData struct {
	Key  string   `json:"key"`
	Rows []ir.Row `json:"rows"`
}

func newResultData(res engine.Result, query string) resultData {
	data := resultData{Count: len(res.Rows), Query: query}
	if res.Grouped() {
		data.Groups = make([]groupData, len(res.Groups))
		for i, g := range res.Groups {
			data.Groups[i] = groupData{Key: g.Key, Rows: g.Rows}
		}
		return data
	}
	data.Rows = res.Rows
	return data
}
