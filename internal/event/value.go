package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Value is a single header parameter value as sent by the server.
//
// DICOM header values arrive as strings, numbers, booleans, null or
// arrays (sets are serialized as lists). Value keeps the raw JSON so a
// record can be re-emitted unchanged, and derives a display string on
// demand.
type Value struct {
	raw json.RawMessage
}

// StringValue creates a Value holding a JSON string.
func StringValue(s string) Value {
	raw, _ := json.Marshal(s)
	return Value{raw: raw}
}

// RawValue creates a Value from raw JSON bytes.
// Returns an error if raw is not valid JSON.
func RawValue(raw []byte) (Value, error) {
	if !json.Valid(raw) {
		return Value{}, fmt.Errorf("invalid JSON value %q", raw)
	}
	return Value{raw: bytes.Clone(raw)}, nil
}

// Raw returns the raw JSON bytes. A zero Value returns "null".
func (v Value) Raw() json.RawMessage {
	if len(v.raw) == 0 {
		return json.RawMessage("null")
	}
	return v.raw
}

// IsNull reports whether the value is absent or JSON null.
func (v Value) IsNull() bool {
	return len(v.raw) == 0 || string(v.raw) == "null"
}

// String returns the display form of the value:
// strings verbatim, numbers as their literal, booleans as true/false,
// null as the empty string, arrays comma-joined.
func (v Value) String() string {
	if v.IsNull() {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(v.raw))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return string(v.raw)
	}
	return display(decoded)
}

func display(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = display(elem)
		}
		return strings.Join(parts, ",")
	default:
		out, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(out)
	}
}

// Equal reports whether two values have the same display form.
func (v Value) Equal(other Value) bool {
	return v.String() == other.String()
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.Raw(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = bytes.Clone(data)
	return nil
}

// Params maps header parameter names to values.
// Keys outside any known vocabulary are preserved.
type Params map[string]Value

// String returns the display form of a parameter, or "" if absent.
func (p Params) String(name string) string {
	v, ok := p[name]
	if !ok {
		return ""
	}
	return v.String()
}

// Has reports whether the parameter is present.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Keys returns the parameter names in byte order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Clone returns a copy of the map. Values share their raw bytes, which
// are never mutated.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
