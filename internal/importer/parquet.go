package importer

import (
	"bytes"
	"errors"
	"io"

	"github.com/segmentio/parquet-go"
)

// DecodeParquet decodes a Parquet file held in memory. Columns follow the
// schema's field order.
func DecodeParquet(raw []byte) (Payload, error) {
	pqFile, err := parquet.OpenFile(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return Payload{}, malformed(Parquet, "open parquet file: %v", err)
	}

	var order columnOrder
	for _, field := range pqFile.Schema().Fields() {
		order.add(field.Name())
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	p := Payload{Columns: order.names}
	for {
		row := make(map[string]interface{})
		if err := reader.Read(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Payload{}, malformed(Parquet, "read row %d: %v", len(p.Records), err)
		}
		for k, v := range row {
			row[k] = normalizeParquet(v)
		}
		p.Records = append(p.Records, row)
	}

	return p, nil
}

// normalizeParquet maps Parquet physical values onto the cell types the
// plugins parse.
func normalizeParquet(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	}
	return v
}
