package ciconfig

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is one node of a configuration document.
//
// The zero Value is null. Values are immutable once built.
type Value struct {
	kind Kind
	path string
	line int

	// KindScalar
	text string
	raw  interface{}

	// KindSequence
	items []Value

	// KindMapping
	keys   []string
	fields map[string]Value

	// Keys that came from a YAML merge key and may still be overridden.
	mergedKeys map[string]bool
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) Path() string { return v.path }

// Line in the source document, or 0 when the value wasn't parsed from text.
func (v Value) Line() int { return v.line }

func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) IsScalar() bool   { return v.kind == KindScalar }
func (v Value) IsMapping() bool  { return v.kind == KindMapping }

func (v Value) shapeError(want string) error {
	return &ShapeError{Path: v.path, Line: v.line, Want: want, Got: v.kind}
}

// AsString returns the text of a scalar.
func (v Value) AsString() (string, error) {
	if v.kind != KindScalar {
		return "", v.shapeError("string")
	}
	return v.text, nil
}

// AsSequence returns the items of a sequence.
func (v Value) AsSequence() ([]Value, error) {
	if v.kind != KindSequence {
		return nil, v.shapeError("list")
	}
	return append([]Value{}, v.items...), nil
}

// AsStringList returns a sequence of scalars as strings.
//
// A lone scalar is a ShapeError; callers that accept either form check
// IsScalar first.
func (v Value) AsStringList() ([]string, error) {
	items, err := v.AsSequence()
	if err != nil {
		return nil, v.shapeError("list of strings")
	}
	res := make([]string, len(items))
	for i, item := range items {
		s, err := item.AsString()
		if err != nil {
			return nil, err
		}
		res[i] = s
	}
	return res, nil
}

// Keys of a mapping in source order. Nil for anything else.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	return append([]string{}, v.keys...)
}

// Field looks up a key of a mapping.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	f, ok := v.fields[key]
	return f, ok
}

// Has reports whether a mapping has the key with a non-null value.
func (v Value) Has(key string) bool {
	f, ok := v.Field(key)
	return ok && !f.IsNull()
}

// Get returns the value for key, or a null Value carrying the would-be path.
func (v Value) Get(key string) Value {
	if f, ok := v.Field(key); ok {
		return f
	}
	return Value{kind: KindNull, path: childPath(v.path, key), line: v.line}
}

// String returns the required string field key of a mapping.
func (v Value) String(key string) (string, error) {
	if v.kind != KindMapping {
		return "", v.shapeError("mapping")
	}
	if !v.Has(key) {
		return "", &MissingFieldError{Path: v.path, Field: key, Line: v.line}
	}
	return v.fields[key].AsString()
}

// OptionalString returns the string field key, reporting whether it was set.
func (v Value) OptionalString(key string) (string, bool, error) {
	if !v.Has(key) {
		return "", false, nil
	}
	s, err := v.fields[key].AsString()
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// Raw converts the value to plain Go values: map[string]interface{},
// []interface{}, scalars, or nil.
func (v Value) Raw() interface{} {
	switch v.kind {
	case KindScalar:
		return v.raw
	case KindSequence:
		res := make([]interface{}, len(v.items))
		for i, item := range v.items {
			res[i] = item.Raw()
		}
		return res
	case KindMapping:
		res := make(map[string]interface{}, len(v.keys))
		for _, k := range v.keys {
			res[k] = v.fields[k].Raw()
		}
		return res
	}
	return nil
}

// RawList converts a sequence with Raw, treating null as empty.
func (v Value) RawList() ([]interface{}, error) {
	if v.IsNull() {
		return []interface{}{}, nil
	}
	if v.kind != KindSequence {
		return nil, v.shapeError("list")
	}
	return v.Raw().([]interface{}), nil
}

// FromInterface builds a document from decoded Go values.
//
// Maps produce mappings with sorted keys, since Go maps carry no order.
func FromInterface(in interface{}) (Value, error) {
	return fromInterface(in, "")
}

// FromInterfaceAt is FromInterface for a document found at path, so errors
// about it name where it came from.
func FromInterfaceAt(in interface{}, path string) (Value, error) {
	return fromInterface(in, path)
}

func MustFromInterface(in interface{}) Value {
	v, err := FromInterface(in)
	if err != nil {
		panic(err)
	}
	return v
}

func fromInterface(in interface{}, path string) (Value, error) {
	switch x := in.(type) {
	case nil:
		return Value{kind: KindNull, path: path}, nil
	case Value:
		return rebase(x, path), nil
	case string, bool, int, int64, uint64, float64:
		return Value{kind: KindScalar, path: path, text: fmt.Sprint(x), raw: x}, nil
	case []string:
		items := make([]interface{}, len(x))
		for i, s := range x {
			items[i] = s
		}
		return fromInterface(items, path)
	case []interface{}:
		v := Value{kind: KindSequence, path: path, items: make([]Value, len(x))}
		for i, item := range x {
			child, err := fromInterface(item, indexPath(path, i))
			if err != nil {
				return Value{}, err
			}
			v.items[i] = child
		}
		return v, nil
	case []map[string]interface{}:
		items := make([]interface{}, len(x))
		for i, m := range x {
			items[i] = m
		}
		return fromInterface(items, path)
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		v := Value{kind: KindMapping, path: path, keys: keys, fields: make(map[string]Value, len(x))}
		for _, k := range keys {
			child, err := fromInterface(x[k], childPath(path, k))
			if err != nil {
				return Value{}, err
			}
			v.fields[k] = child
		}
		return v, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, item := range x {
			m[fmt.Sprint(k)] = item
		}
		return fromInterface(m, path)
	}
	return Value{}, errors.Errorf("%s: unsupported configuration value of type %T", displayPath(path), in)
}

// rebase rewrites the paths of a subtree so it can be embedded under path.
func rebase(v Value, path string) Value {
	v.path = path
	switch v.kind {
	case KindSequence:
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			items[i] = rebase(item, indexPath(path, i))
		}
		v.items = items
	case KindMapping:
		fields := make(map[string]Value, len(v.fields))
		for _, k := range v.keys {
			fields[k] = rebase(v.fields[k], childPath(path, k))
		}
		v.fields = fields
	}
	return v
}

func childPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}
