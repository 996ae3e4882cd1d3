package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Value is a sealed interface over the JSON value types a document may hold.
// Only Null, String, Int, Bool, Array, and Object implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents a JSON null.
type Null struct{}

func (Null) value() {}

// String represents a JSON string.
type String string

func (String) value() {}

// Int represents a JSON integer. Always int64 - classification payloads
// never carry floats, and a float at this boundary is a decode error.
type Int int64

func (Int) value() {}

// Bool represents a JSON boolean.
type Bool bool

func (Bool) value() {}

// Array represents a JSON array of Values.
type Array []Value

func (Array) value() {}

// Object represents a JSON object. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// SortedKeys returns the object's keys in ascending byte order.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve walks a dot-separated path into the object and returns the value
// at the leaf. A missing key or a non-object intermediate segment resolves
// to nothing.
func (o Object) Resolve(path string) (Value, bool) {
	segments := strings.Split(path, ".")
	current := o
	for i := 0; i < len(segments)-1; i++ {
		next, ok := current[segments[i]]
		if !ok {
			return nil, false
		}
		obj, ok := next.(Object)
		if !ok {
			return nil, false
		}
		current = obj
	}

	v, ok := current[segments[len(segments)-1]]
	if !ok {
		return nil, false
	}
	return v, true
}

// Set stores a value at a top-level key. The enforcement layer uses this for
// exactly one mutation: stamping the classificationMarked flag on writes.
func (o Object) Set(key string, v Value) {
	o[key] = v
}

// Decode parses JSON bytes into an Object with strict number handling.
// Floats are rejected - every number must fit in int64.
func Decode(data []byte) (Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	v, err := convert(raw)
	if err != nil {
		return nil, err
	}

	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("document root must be a JSON object, got %T", v)
	}
	return obj, nil
}

// convert recursively converts a decoded Go value into a Value.
func convert(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %q not allowed in document", val)
		}
		return Int(n), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			converted, err := convert(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = converted
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			converted, err := convert(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = converted
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// Marshal serializes a Value to JSON with object keys in sorted order so
// dumps and stored bodies are byte-stable.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalInto(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalInto(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Null:
		buf.WriteString("null")
		return nil
	case String:
		b, err := json.Marshal(string(val))
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	case Int:
		fmt.Fprintf(buf, "%d", int64(val))
		return nil
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalInto(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case Object:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("marshal key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := marshalInto(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unknown Value type: %T", v)
	}
}

// Strings converts an Array of scalar values to their string forms.
// Non-scalar elements report an error.
func (a Array) Strings() ([]string, error) {
	out := make([]string, len(a))
	for i, elem := range a {
		switch val := elem.(type) {
		case String:
			out[i] = string(val)
		case Int:
			out[i] = fmt.Sprintf("%d", int64(val))
		case Bool:
			out[i] = fmt.Sprintf("%t", bool(val))
		default:
			return nil, fmt.Errorf("array element %d is not a scalar: %T", i, elem)
		}
	}
	return out, nil
}
