package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the allowed argument types.
type Value interface {
	payloadValue()
}

// String is a string argument.
type String string

// Int is an integer argument. Identifiers are carried as Int.
type Int int64

// Bool is a boolean argument.
type Bool bool

// Object is a set of named arguments.
type Object map[string]Value

func (String) payloadValue() {}
func (Int) payloadValue()    {}
func (Bool) payloadValue()   {}
func (Object) payloadValue() {}

// SortedKeys returns keys ordered by UTF-16 code units.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// String returns the named string argument, or "" when absent or mistyped.
func (o Object) String(key string) string {
	if v, ok := o[key].(String); ok {
		return string(v)
	}
	return ""
}

// Int returns the named integer argument, or 0 when absent or mistyped.
func (o Object) Int(key string) int64 {
	if v, ok := o[key].(Int); ok {
		return int64(v)
	}
	return 0
}

// Bool returns the named boolean argument.
func (o Object) Bool(key string) bool {
	if v, ok := o[key].(Bool); ok {
		return bool(v)
	}
	return false
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// UnmarshalJSON decodes an object, keeping integers exact.
func (o *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = make(Object, len(raw))
	for k, v := range raw {
		val, err := decodeValue(v)
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		(*o)[k] = val
	}
	return nil
}

// MarshalJSON encodes the object canonically.
func (o Object) MarshalJSON() ([]byte, error) {
	return Marshal(o)
}

func decodeValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case '{':
		var obj Object
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		return obj, nil
	case 'n':
		return nil, fmt.Errorf("null is not allowed")
	case '[':
		return nil, fmt.Errorf("arrays are not allowed")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return nil, err
	}
	i, err := n.Int64()
	if err != nil {
		return nil, fmt.Errorf("not an integer: %s", data)
	}
	return Int(i), nil
}
