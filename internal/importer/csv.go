package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// DecodeCSV decodes comma-separated records. The first record names the
// columns. Ragged rows are tolerated: missing trailing cells are absent
// from the record and surplus cells are dropped.
func DecodeCSV(raw []byte) (Payload, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Payload{}, malformed(CSV, "empty input")
		}
		return Payload{}, malformed(CSV, "read header: %v", err)
	}

	var order columnOrder
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return Payload{}, malformed(CSV, "column %d has an empty name", i+1)
		}
		if order.seen[name] {
			return Payload{}, malformed(CSV, "duplicate column %q", name)
		}
		order.add(name)
	}

	p := Payload{Columns: order.names}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Payload{}, malformed(CSV, "record %d: %v", line, err)
		}
		if len(rec) > len(header) {
			slog.Debug("csv record has surplus cells",
				slog.Int("line", line),
				slog.Int("cells", len(rec)),
				slog.Int("columns", len(header)))
		}

		cells := make(map[string]any, len(header))
		for i, name := range order.names {
			if i < len(rec) {
				cells[name] = rec[i]
			}
		}
		p.Records = append(p.Records, cells)
	}

	return p, nil
}
