package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical display layout for Date values.
const DateLayout = "2006-01-02"

// Value is a sealed interface representing a typed cell or literal.
// Only Null, String, Number, Bool, Date and List implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null is the sentinel "empty" value. Missing cells, JSON null and
// unparseable import cells all become Null.
type Null struct{}

func (Null) irValue() {}

// String is a text value.
type String string

func (String) irValue() {}

// Number is a numeric value. Integers and decimals share one representation
// so that "30" and 30.0 land in the same index bucket.
type Number float64

func (Number) irValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) irValue() {}

// Date is a calendar day, stored as Unix milliseconds at UTC midnight.
type Date int64

func (Date) irValue() {}

// NewDate truncates t to its UTC calendar day.
func NewDate(t time.Time) Date {
	u := t.UTC()
	return Date(time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).UnixMilli())
}

// Time returns the day as a UTC time at midnight.
func (d Date) Time() time.Time {
	return time.UnixMilli(int64(d)).UTC()
}

// List is an ordered set of literals used by the "in" and "><" operators.
// Lists are not comparable and must never be used as index keys.
type List []Value

func (List) irValue() {}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Equal compares two values. Lists compare element-wise; everything else
// uses Go equality, so Number(1) != String("1").
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	la, aList := a.(List)
	lb, bList := b.(List)
	if aList || bList {
		if !aList || !bList || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

// Format renders a value as display text. This is the string form used by
// fuzzy search, group keys and the canonical query string.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case String:
		return string(val)
	case Number:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Date:
		return val.Time().Format(DateLayout)
	case List:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Format(elem)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Kind returns the stable type tag of a value, used for storage encoding.
func Kind(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Date:
		return "date"
	case List:
		return "list"
	default:
		return "unknown"
	}
}

// MarshalValue marshals a Value to JSON bytes.
// Dates are rendered as "YYYY-MM-DD" strings.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Number:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("number %v has no JSON form", f)
		}
		return json.Marshal(f)
	case Bool:
		return json.Marshal(bool(val))
	case Date:
		return json.Marshal(Format(val))
	case List:
		parts := make([]json.RawMessage, len(val))
		for i, elem := range val {
			b, err := MarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			parts[i] = b
		}
		return json.Marshal(parts)
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// EncodeValue splits a scalar value into a kind tag and text form that
// DecodeValue reverses exactly.
func EncodeValue(v Value) (kind, text string) {
	switch val := v.(type) {
	case Date:
		return Kind(v), strconv.FormatInt(int64(val), 10)
	default:
		return Kind(v), Format(v)
	}
}

// DecodeValue rebuilds a scalar value from its EncodeValue form.
func DecodeValue(kind, text string) (Value, error) {
	switch kind {
	case "null":
		return Null{}, nil
	case "string":
		return String(text), nil
	case "number":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("decode number %q: %w", text, err)
		}
		return Number(f), nil
	case "bool":
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("decode bool %q: %w", text, err)
		}
		return Bool(b), nil
	case "date":
		ms, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode date %q: %w", text, err)
		}
		return Date(ms), nil
	default:
		return nil, fmt.Errorf("unsupported value kind %q", kind)
	}
}
