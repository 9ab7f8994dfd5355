package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind discriminates the three Value shapes.
type Kind int

const (
	// KindLeaf is a scalar result, possibly absent.
	KindLeaf Kind = iota
	// KindList is an ordered sequence of results.
	KindList
	// KindMap is a named mapping of results.
	KindMap
)

// Value is the recursive extraction result. Its shape always mirrors the
// Compiled it was produced from: a many rule yields a List, a rule with
// children yields a Map per node, and a plain rule yields a Leaf.
//
// A Leaf distinguishes "absent" (no matched node, missing attribute, or a
// failed match regex) from an empty string. Values are freshly allocated per
// evaluation and share nothing with the input document.
type Value struct {
	kind    Kind
	leaf    string
	present bool // leaf holds a real value
	list    []Value
	fields  []mapField
}

type mapField struct {
	name  string
	value Value
}

// Leaf returns a present scalar Value.
func Leaf(s string) Value { return Value{kind: KindLeaf, leaf: s, present: true} }

// AbsentLeaf returns the scalar Value representing "nothing extracted".
func AbsentLeaf() Value { return Value{kind: KindLeaf} }

// List returns an ordered sequence Value.
func List(elems ...Value) Value { return Value{kind: KindList, list: elems} }

// Map returns a named mapping Value. Field order follows the given names;
// callers that need determinism should pass sorted names (evaluation does).
func Map(names []string, values []Value) Value {
	if len(names) != len(values) {
		panic("extract: Map called with mismatched names and values")
	}
	fields := make([]mapField, len(names))
	for i := range names {
		fields[i] = mapField{name: names[i], value: values[i]}
	}
	return Value{kind: KindMap, fields: fields}
}

// Kind reports the value's shape.
func (v Value) Kind() Kind { return v.kind }

// Leaf returns the scalar content and whether it is present.
// It is only meaningful for KindLeaf.
func (v Value) Leaf() (string, bool) { return v.leaf, v.present }

// Len returns the element count for a List or the field count for a Map.
func (v Value) Len() int {
	if v.kind == KindMap {
		return len(v.fields)
	}
	return len(v.list)
}

// Index returns the i-th element of a List.
func (v Value) Index(i int) Value { return v.list[i] }

// Field returns the named entry of a Map.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.name == name {
			return f.value, true
		}
	}
	return Value{}, false
}

// FieldNames returns the Map's field names in their stored order.
func (v Value) FieldNames() []string {
	names := make([]string, len(v.fields))
	for i, f := range v.fields {
		names[i] = f.name
	}
	return names
}

// Equal reports structural and content equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindLeaf:
		return v.present == o.present && v.leaf == o.leaf
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	default:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].name != o.fields[i].name || !v.fields[i].value.Equal(o.fields[i].value) {
				return false
			}
		}
		return true
	}
}

// Interface converts the Value to a plain Go form made of string, nil,
// []any and map[string]any, ready for any structured-text encoder.
//
// An absent leaf becomes nil at the top level and is omitted from Lists and
// Maps, so encoders that cannot represent null (TOML) stay usable.
func (v Value) Interface() any {
	switch v.kind {
	case KindLeaf:
		if !v.present {
			return nil
		}
		return v.leaf
	case KindList:
		out := make([]any, 0, len(v.list))
		for _, e := range v.list {
			if e.kind == KindLeaf && !e.present {
				continue
			}
			out = append(out, e.Interface())
		}
		return out
	default:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			if f.value.kind == KindLeaf && !f.value.present {
				continue
			}
			out[f.name] = f.value.Interface()
		}
		return out
	}
}

// MarshalJSON encodes the value as scalar/array/object per its shape.
// Map fields are written in stored order; absent leaf fields are omitted.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindLeaf:
		if !v.present {
			return []byte("null"), nil
		}
		return json.Marshal(v.leaf)
	case KindList:
		if len(v.list) == 0 {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		var buf bytes.Buffer
		buf.WriteByte('{')
		first := true
		for _, f := range v.fields {
			if f.value.kind == KindLeaf && !f.value.present {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			name, err := json.Marshal(f.name)
			if err != nil {
				return nil, err
			}
			buf.Write(name)
			buf.WriteByte(':')
			fv, err := json.Marshal(f.value)
			if err != nil {
				return nil, err
			}
			buf.Write(fv)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
}

// UnmarshalJSON decodes the mirrored schema back into a Value: null becomes
// an absent Leaf, a string a present Leaf, an array a List and an object a
// Map (fields in sorted name order, matching evaluation output).
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out, err := valueFromInterface(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func valueFromInterface(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return AbsentLeaf(), nil
	case string:
		return Leaf(t), nil
	case []any:
		elems := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := valueFromInterface(e)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, ev)
		}
		return List(elems...), nil
	case map[string]any:
		names := make([]string, 0, len(t))
		for name := range t {
			names = append(names, name)
		}
		sort.Strings(names)
		values := make([]Value, len(names))
		for i, name := range names {
			fv, err := valueFromInterface(t[name])
			if err != nil {
				return Value{}, err
			}
			values[i] = fv
		}
		return Map(names, values), nil
	default:
		return Value{}, fmt.Errorf("decode value: unsupported scalar %T", raw)
	}
}
