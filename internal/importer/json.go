package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// DecodeJSON decodes an array of objects. Key order is read from the token
// stream so columns keep the order of the first object. A single top-level
// object is accepted as a one-record payload.
func DecodeJSON(raw []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return Payload{}, malformed(JSON, "read json: %v", err)
	}

	var p Payload
	var order columnOrder

	switch tok {
	case json.Delim('['):
		for i := 0; dec.More(); i++ {
			open, err := dec.Token()
			if err != nil {
				return Payload{}, malformed(JSON, "record %d: %v", i, err)
			}
			if open != json.Delim('{') {
				return Payload{}, malformed(JSON, "record %d: expected object, got %v", i, open)
			}
			rec, err := decodeObject(dec, &order)
			if err != nil {
				return Payload{}, malformed(JSON, "record %d: %v", i, err)
			}
			p.Records = append(p.Records, rec)
		}
		if _, err := dec.Token(); err != nil {
			return Payload{}, malformed(JSON, "read json: %v", err)
		}
	case json.Delim('{'):
		rec, err := decodeObject(dec, &order)
		if err != nil {
			return Payload{}, malformed(JSON, "record 0: %v", err)
		}
		p.Records = append(p.Records, rec)
	default:
		return Payload{}, malformed(JSON, "expected array of objects, got %v", tok)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Payload{}, malformed(JSON, "unexpected data after payload")
	}

	p.Columns = order.names
	return p, nil
}

// decodeObject reads the members of an object whose opening brace has
// been consumed.
func decodeObject(dec *json.Decoder, order *columnOrder) (map[string]any, error) {
	rec := make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("object key is not a string")
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		rec[key] = v
		order.add(key)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return rec, nil
}
