// Package normalizer resolves report columns to canonical fields and coerces
// their values into numbers.
package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the scalar type held by a Value
type Kind uint8

const (
	KindBlank Kind = iota
	KindText
	KindNumber
)

// Value is a single cell value as produced by the record source.
// The zero Value is blank.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Text returns a text value
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Number returns a numeric value
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Kind returns the value kind
func (v Value) Kind() Kind {
	return v.kind
}

// IsEmpty reports whether the value is blank or an empty string.
// A numeric zero is not empty.
func (v Value) IsEmpty() bool {
	return v.kind == KindBlank || (v.kind == KindText && v.text == "")
}

// String renders the value as text
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON encodes blanks as "", text as a string and numbers as numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	default:
		return []byte(`""`), nil
	}
}

// UnmarshalJSON decodes any JSON scalar into a Value
func (v *Value) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		*v = Value{}
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*v = Text(s)
	case bytes.Equal(raw, []byte("true")) || bytes.Equal(raw, []byte("false")):
		*v = Text(string(raw))
	case raw[0] == '{' || raw[0] == '[':
		*v = Text(string(raw))
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return fmt.Errorf("invalid cell value %s: %w", raw, err)
		}
		*v = Number(f)
	}
	return nil
}

// Cell is one column of a row
type Cell struct {
	Column string
	Value  Value
}

// Row is an ordered mapping of column names to values, one record of an
// exported report. No schema is assumed.
type Row []Cell

// Get returns the value stored under the exact column name
func (r Row) Get(column string) (Value, bool) {
	for _, c := range r {
		if c.Column == column {
			return c.Value, true
		}
	}
	return Value{}, false
}

// Set replaces the value of an existing column or appends a new one
func (r Row) Set(column string, v Value) Row {
	for i := range r {
		if r[i].Column == column {
			r[i].Value = v
			return r
		}
	}
	return append(r, Cell{Column: column, Value: v})
}

// Columns returns column names in row order
func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, c := range r {
		cols[i] = c.Column
	}
	return cols
}

// MarshalJSON encodes the row as a JSON object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Column)
		if err != nil {
			return nil, err
		}
		val, err := c.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into a row, keeping key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row must be a JSON object")
	}

	row := make(Row, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected row key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		row = append(row, Cell{Column: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = row
	return nil
}

// lowerColumns returns the lowercased column names in row order
func (r Row) lowerColumns() []string {
	cols := make([]string, len(r))
	for i, c := range r {
		cols[i] = strings.ToLower(c.Column)
	}
	return cols
}
