package core

import "fmt"

// Database is an ordered mapping from table name to Table.
// Iteration follows insertion order.
type Database struct {
	tables []*Table
	index  map[string]int
}

// NewDatabase creates a database from tables in the given order.
func NewDatabase(tables ...*Table) (*Database, error) {
	db := &Database{index: make(map[string]int, len(tables))}
	for _, t := range tables {
		if err := db.Add(t); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Add appends a table. Table names must be unique.
func (d *Database) Add(t *Table) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("table name is required")
	}
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if _, exists := d.index[t.Name]; exists {
		return fmt.Errorf("duplicate table %q", t.Name)
	}
	d.index[t.Name] = len(d.tables)
	d.tables = append(d.tables, t)
	return nil
}

// Table returns the named table.
func (d *Database) Table(name string) (*Table, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.tables[i], true
}

// Tables returns the tables in database order.
func (d *Database) Tables() []*Table {
	out := make([]*Table, len(d.tables))
	copy(out, d.tables)
	return out
}

// Names returns the table names in database order.
func (d *Database) Names() []string {
	names := make([]string, len(d.tables))
	for i, t := range d.tables {
		names[i] = t.Name
	}
	return names
}

// Len returns the number of tables.
func (d *Database) Len() int {
	return len(d.tables)
}

// Validate validates every table and checks that each foreign key names an
// existing table with a primary key.
func (d *Database) Validate() error {
	for _, t := range d.tables {
		if err := t.Validate(); err != nil {
			return err
		}
		for _, fk := range t.ForeignKeys {
			target, ok := d.Table(fk.Table)
			if !ok {
				return &ReferentialIntegrityError{
					Table:       t.Name,
					Column:      fk.Column,
					TargetTable: fk.Table,
					Reason:      "target table does not exist",
				}
			}
			if target.PrimaryKey == "" {
				return &ReferentialIntegrityError{
					Table:       t.Name,
					Column:      fk.Column,
					TargetTable: fk.Table,
					Reason:      "target table has no primary key",
				}
			}
		}
	}
	return nil
}
