package core

import (
	"fmt"
	"math"
	"time"
)

// DType is the logical data type of a column.
type DType string

// Logical column types.
const (
	DTypeInt       DType = "int"
	DTypeFloat     DType = "float"
	DTypeBool      DType = "bool"
	DTypeString    DType = "string"
	DTypeTimestamp DType = "timestamp"
	DTypeBytes     DType = "bytes"
	DTypeUnknown   DType = "unknown"
)

// Column is a named, typed vector of values. A nil entry is a null.
type Column struct {
	Name   string
	DType  DType
	Values []any
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	return len(c.Values)
}

// ForeignKey declares that Column references the primary key of Table.
type ForeignKey struct {
	Column string
	Table  string
}

// Table is a columnar dataset with key and time metadata.
type Table struct {
	Name        string
	Columns     []*Column
	PrimaryKey  string       // empty when the table has no primary key
	ForeignKeys []ForeignKey // declaration order is preserved
	TimeColumn  string       // empty when the table is not temporal

	// rows is the row count of a view that kept no columns.
	rows int
}

// NumRows returns the row count, taken from the first column. A feature
// view without columns reports the row count of its source table.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return t.rows
	}
	return t.Columns[0].Len()
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// IsKeyColumn reports whether name is the primary key or a foreign key.
func (t *Table) IsKeyColumn(name string) bool {
	if name == t.PrimaryKey && name != "" {
		return true
	}
	for _, fk := range t.ForeignKeys {
		if fk.Column == name {
			return true
		}
	}
	return false
}

// FeatureColumns returns a view of the table without its key columns.
// The returned table shares column storage with t and must not be mutated.
func (t *Table) FeatureColumns() *Table {
	cols := make([]*Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !t.IsKeyColumn(c.Name) {
			cols = append(cols, c)
		}
	}
	return &Table{
		Name:       t.Name,
		Columns:    cols,
		TimeColumn: t.TimeColumn,
		rows:       t.NumRows(),
	}
}

// Validate checks column lengths, that declared key and time columns exist,
// and that primary-key values are unique and non-null.
func (t *Table) Validate() error {
	n := t.NumRows()
	for _, c := range t.Columns {
		if c.Len() != n {
			return fmt.Errorf("table %s: column %s has %d values, expected %d", t.Name, c.Name, c.Len(), n)
		}
	}

	if t.PrimaryKey != "" {
		pk, ok := t.Column(t.PrimaryKey)
		if !ok {
			return fmt.Errorf("table %s: primary key column %s not found", t.Name, t.PrimaryKey)
		}
		seen := make(map[any]struct{}, pk.Len())
		for i, v := range pk.Values {
			if v == nil {
				return fmt.Errorf("table %s: null primary key at row %d", t.Name, i)
			}
			k := KeyOf(v)
			if _, dup := seen[k]; dup {
				return fmt.Errorf("table %s: duplicate primary key %v at row %d", t.Name, v, i)
			}
			seen[k] = struct{}{}
		}
	}

	for _, fk := range t.ForeignKeys {
		if _, ok := t.Column(fk.Column); !ok {
			return fmt.Errorf("table %s: foreign key column %s not found", t.Name, fk.Column)
		}
	}

	if t.TimeColumn != "" {
		if _, ok := t.Column(t.TimeColumn); !ok {
			return fmt.Errorf("table %s: time column %s not found", t.Name, t.TimeColumn)
		}
	}

	return nil
}

// KeyOf returns a comparable lookup key for a key value, so that an int32
// foreign key matches an int64 primary key with the same value.
func KeyOf(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return keyOfUint(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return keyOfUint(x)
	case float32:
		return keyOfFloat(float64(x))
	case float64:
		return keyOfFloat(x)
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC()
	default:
		return v
	}
}

// keyOfUint folds unsigned values onto int64 when they fit.
func keyOfUint(u uint64) any {
	if u > math.MaxInt64 {
		return u
	}
	return int64(u)
}

// keyOfFloat folds integral floats onto int64 so CSV-inferred keys match.
func keyOfFloat(f float64) any {
	if f == float64(int64(f)) {
		return int64(f)
	}
	return f
}
