package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Measurement is one named size, e.g. {"cintura", 72.5}.
// Value is a string, float64, bool or nil.
type Measurement struct {
	Name  string
	Value interface{}
}

// Measurements is an ordered set of garment measurements. Which keys exist
// depends on the garment, so it is kept schemaless. JSON key order is kept
// through encoding and storage.
type Measurements []Measurement

// Get returns the value stored under name.
func (m Measurements) Get(name string) (interface{}, bool) {
	for _, e := range m {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under name, or appends it.
func (m *Measurements) Set(name string, value interface{}) {
	for i := range *m {
		if (*m)[i].Name == name {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, Measurement{Name: name, Value: value})
}

// Clone returns an independent copy.
func (m Measurements) Clone() Measurements {
	if m == nil {
		return nil
	}
	out := make(Measurements, len(m))
	copy(out, m)
	return out
}

// MarshalJSON writes an object with keys in stored order. A nil set is {}.
func (m Measurements) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("measurement %q: %w", e.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of primitive values, keeping key order.
// Nested objects and arrays are rejected. JSON null decodes to an empty set.
func (m *Measurements) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = Measurements{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("measurements must be an object")
	}

	out := Measurements{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		val, err := primitive(valTok)
		if err != nil {
			return fmt.Errorf("measurement %q: %w", key, err)
		}
		out.Set(key, val)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

func primitive(tok json.Token) (interface{}, error) {
	switch v := tok.(type) {
	case nil, string, bool:
		return v, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil || math.IsInf(f, 0) {
			return nil, fmt.Errorf("number %s out of range", v)
		}
		return f, nil
	case json.Delim:
		return nil, fmt.Errorf("value must be a string, number, boolean or null")
	default:
		return nil, fmt.Errorf("unsupported value %v", v)
	}
}

// NormalizeValue converts numeric types coming back from a store into the
// float64 used by the JSON representation.
func NormalizeValue(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
