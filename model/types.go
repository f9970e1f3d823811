package model

import (
	"fmt"
	"strings"
)

// ColumnType identifies the declared type of a table column.
type ColumnType uint8

const (
	// TypeInvalid represents an invalid column type.
	TypeInvalid ColumnType = iota
	// TypeInt represents a 64-bit integer column.
	TypeInt
	// TypeFloat represents a 64-bit floating point column.
	TypeFloat
	// TypeString represents a variable-length string column.
	TypeString
	// TypeBool represents a boolean column.
	TypeBool
	// TypeBytes represents a raw byte column.
	TypeBytes
)

// String returns a human-readable name for the column type.
func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeFloat:
		return "FLOAT"
	case TypeString:
		return "STRING"
	case TypeBool:
		return "BOOL"
	case TypeBytes:
		return "BYTES"
	default:
		return "INVALID"
	}
}

// Column describes one column of a declared schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered list of typed columns a scan produces rows for.
// It is immutable after construction.
type Schema struct {
	columns  []Column
	ordinals map[string]int
}

// NewSchema creates a schema from the given columns, in order.
func NewSchema(columns ...Column) Schema {
	ordinals := make(map[string]int, len(columns))
	for i, c := range columns {
		ordinals[c.Name] = i
	}
	return Schema{
		columns:  columns,
		ordinals: ordinals,
	}
}

// Width returns the number of columns.
func (s Schema) Width() int {
	return len(s.columns)
}

// Column returns the column at ordinal i.
func (s Schema) Column(i int) Column {
	return s.columns[i]
}

// Ordinal returns the position of the named column.
func (s Schema) Ordinal(name string) (int, bool) {
	i, ok := s.ordinals[name]
	return i, ok
}

// Names returns the column names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// String returns a compact representation like "Schema(id INT, name STRING)".
func (s Schema) String() string {
	parts := make([]string, len(s.columns))
	for i, c := range s.columns {
		parts[i] = fmt.Sprintf("%s %s", c.Name, c.Type)
	}
	return "Schema(" + strings.Join(parts, ", ") + ")"
}

// Row is a positional record conforming to a schema.
//
// Rows produced by the bucket-local fast path alias a buffer that is reused
// on the next advance; callers that retain a row across iteration must copy
// it first.
type Row []any

// NewRow allocates a row sized for the schema.
func NewRow(s Schema) Row {
	return make(Row, s.Width())
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}
