package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// Kind names the shape of a Value. It is the object type of the dynamic
// pipeline category.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindList   Kind = "list"
	KindRecord Kind = "record"

	// KindAny matches every kind. Only polymorphic stages use it.
	KindAny Kind = "any"
)

var validKinds = map[Kind]bool{
	KindString: true,
	KindInt:    true,
	KindBool:   true,
	KindList:   true,
	KindRecord: true,
	KindAny:    true,
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !validKinds[k] {
		return "", fmt.Errorf("unknown kind %q (want string, int, bool, list, record or any)", s)
	}
	return k, nil
}

// Accepts reports whether a value of kind k can be fed to a stage that
// expects want.
func (want Kind) Accepts(k Kind) bool {
	return want == KindAny || k == KindAny || want == k
}

// Value is a sealed interface over the values that flow through pipelines.
// Only String, Int, Bool, List and Record implement it. There are no floats
// and no null.
type Value interface {
	Kind() Kind
	value()
}

// String is a string value.
type String string

// Int is an integer value. Always int64.
type Int int64

// Bool is a boolean value.
type Bool bool

// List is an ordered sequence of values.
type List []Value

// Record maps string keys to values. Use SortedKeys for deterministic
// iteration.
type Record map[string]Value

func (String) Kind() Kind { return KindString }
func (Int) Kind() Kind    { return KindInt }
func (Bool) Kind() Kind   { return KindBool }
func (List) Kind() Kind   { return KindList }
func (Record) Kind() Kind { return KindRecord }

func (String) value() {}
func (Int) value()    {}
func (Bool) value()   {}
func (List) value()   {}
func (Record) value() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's string comparison orders by UTF-8 bytes, which differs outside the BMP.
func (r Record) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// ParseValue decodes external JSON into a Value. Floats and null are
// rejected.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return FromNative(raw)
}

// MustParse is like ParseValue but panics on error. Tests only.
func MustParse(s string) Value {
	v, err := ParseValue([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

// FromNative converts a decoded Go value into a Value. It accepts what
// encoding/json (with UseNumber), yaml.v3 and cue's Decode produce.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a value: only string, int, bool, list, record allowed")
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return Int(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are not values: %s", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return Int(n), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are not values: %v", val)
	case []any:
		out := make(List, len(val))
		for i, elem := range val {
			e, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			out[i] = e
		}
		return out, nil
	case map[string]any:
		out := make(Record, len(val))
		for k, elem := range val {
			e, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("record[%q]: %w", k, err)
			}
			out[k] = e
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// UnmarshalJSON implements json.Unmarshaler for List.
func (l *List) UnmarshalJSON(data []byte) error {
	v, err := ParseValue(data)
	if err != nil {
		return err
	}
	list, ok := v.(List)
	if !ok {
		return fmt.Errorf("expected list, got %s", v.Kind())
	}
	*l = list
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Record.
func (r *Record) UnmarshalJSON(data []byte) error {
	v, err := ParseValue(data)
	if err != nil {
		return err
	}
	rec, ok := v.(Record)
	if !ok {
		return fmt.Errorf("expected record, got %s", v.Kind())
	}
	*r = rec
	return nil
}

// MarshalJSON implements json.Marshaler for List using canonical form.
func (l List) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(l)
}

// MarshalJSON implements json.Marshaler for Record using canonical form.
func (r Record) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(r)
}

// Format renders v as canonical JSON, or a placeholder if it cannot be
// rendered. Used for logs and text output.
func Format(v Value) string {
	if v == nil {
		return "<none>"
	}
	b, err := MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<invalid %T>", v)
	}
	return string(b)
}
