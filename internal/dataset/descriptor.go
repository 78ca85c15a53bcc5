// Package dataset describes which tables of a database form a relational
// dataset and loads them into a core.Database.
package dataset

import (
	"fmt"
	"os"
	"time"

	"github.com/jakubpeleska/relbench/internal/timeutil"
	"github.com/jakubpeleska/relbench/pkg/core"
	"gopkg.in/yaml.v3"
)

// Descriptor is the YAML dataset file.
//
//	name: shop
//	val_timestamp: 2024-06-01
//	test_timestamp: 2024-09-01
//	tables:
//	  - name: orders
//	    primary_key: order_id
//	    time_column: ordered_at
//	    foreign_keys:
//	      customer_id: customers
//	      product_id: products
type Descriptor struct {
	Name          string      `yaml:"name"`
	ValTimestamp  string      `yaml:"val_timestamp,omitempty"`
	TestTimestamp string      `yaml:"test_timestamp,omitempty"`
	Tables        []TableSpec `yaml:"tables"`
}

// TableSpec selects one table. Empty key fields are introspected from the
// database constraints.
type TableSpec struct {
	Name        string      `yaml:"name"`
	PrimaryKey  string      `yaml:"primary_key,omitempty"`
	ForeignKeys ForeignKeys `yaml:"foreign_keys,omitempty"`
	TimeColumn  string      `yaml:"time_column,omitempty"`
	Columns     []string    `yaml:"columns,omitempty"`
}

// ForeignKeys is an ordered column -> table mapping. Declaration order is
// kept so edge groups come out in a stable order.
type ForeignKeys []core.ForeignKey

// UnmarshalYAML decodes a mapping node, keeping key order.
func (f *ForeignKeys) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: foreign_keys must be a mapping of column to table", node.Line)
	}
	out := make(ForeignKeys, 0, len(node.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var col, table string
		if err := node.Content[i].Decode(&col); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&table); err != nil {
			return err
		}
		if seen[col] {
			return fmt.Errorf("line %d: duplicate foreign key column %q", node.Content[i].Line, col)
		}
		seen[col] = true
		out = append(out, core.ForeignKey{Column: col, Table: table})
	}
	*f = out
	return nil
}

// MarshalYAML encodes the keys as an ordered mapping.
func (f ForeignKeys) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, fk := range f {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: fk.Column},
			&yaml.Node{Kind: yaml.ScalarNode, Value: fk.Table},
		)
	}
	return node, nil
}

// Parse decodes and validates a descriptor.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse dataset descriptor: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ReadFile reads and parses the descriptor at path.
func ReadFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset descriptor: %w", err)
	}
	return Parse(data)
}

// Validate checks table names and split timestamps.
func (d *Descriptor) Validate() error {
	seen := make(map[string]bool)
	for i, t := range d.Tables {
		if t.Name == "" {
			return fmt.Errorf("tables[%d]: name is required", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("tables[%d]: duplicate table %q", i, t.Name)
		}
		seen[t.Name] = true
	}
	val, test, err := d.SplitTimestamps()
	if err != nil {
		return err
	}
	if !val.IsZero() && !test.IsZero() && test.Before(val) {
		return fmt.Errorf("test_timestamp %s is before val_timestamp %s", d.TestTimestamp, d.ValTimestamp)
	}
	return nil
}

// SplitTimestamps returns the parsed validation and test cutoffs. Unset
// values are the zero time.
func (d *Descriptor) SplitTimestamps() (val, test time.Time, err error) {
	if val, err = parseOptional(d.ValTimestamp); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("val_timestamp: %w", err)
	}
	if test, err = parseOptional(d.TestTimestamp); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("test_timestamp: %w", err)
	}
	return val, test, nil
}

// Split names the partition a timestamp falls in: "train" before the
// validation cutoff, "val" before the test cutoff, "test" after.
func (d *Descriptor) Split(t time.Time) string {
	val, test, err := d.SplitTimestamps()
	if err != nil {
		return ""
	}
	switch {
	case !test.IsZero() && !t.Before(test):
		return "test"
	case !val.IsZero() && !t.Before(val):
		return "val"
	default:
		return "train"
	}
}

// Table returns the spec for name.
func (d *Descriptor) Table(name string) (TableSpec, bool) {
	for _, t := range d.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSpec{}, false
}

func parseOptional(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, ok, err := timeutil.Normalize(s)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, nil
	}
	return t, nil
}
