package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jakubpeleska/relbench/pkg/core"
)

// Load reads the tables named by desc through a into a Database, in
// descriptor order. A nil descriptor, or one without tables, loads every
// table the adapter lists.
//
// Keys declared in the descriptor replace introspected ones. Introspected
// foreign keys that point outside the loaded tables are dropped.
func Load(ctx context.Context, a core.Adapter, desc *Descriptor, logger *slog.Logger) (*core.Database, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	specs, err := tableSpecs(ctx, a, desc)
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(specs))
	for _, s := range specs {
		names[s.Name] = true
	}

	db := new(core.Database)
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tbl, err := loadTable(ctx, a, spec, names, logger)
		if err != nil {
			return nil, err
		}
		if err := db.Add(tbl); err != nil {
			return nil, err
		}
		logger.Debug("loaded table",
			"table", tbl.Name,
			"rows", tbl.NumRows(),
			"primary_key", tbl.PrimaryKey,
			"foreign_keys", len(tbl.ForeignKeys),
			"time_column", tbl.TimeColumn)
	}
	return db, nil
}

func tableSpecs(ctx context.Context, a core.Adapter, desc *Descriptor) ([]TableSpec, error) {
	if desc != nil && len(desc.Tables) > 0 {
		return desc.Tables, nil
	}
	names, err := a.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	specs := make([]TableSpec, len(names))
	for i, n := range names {
		specs[i] = TableSpec{Name: n}
	}
	return specs, nil
}

func loadTable(ctx context.Context, a core.Adapter, spec TableSpec, loaded map[string]bool, logger *slog.Logger) (*core.Table, error) {
	columns := spec.Columns
	if len(columns) > 0 {
		meta, err := a.GetTableMetadata(ctx, spec.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to load table %s: %w", spec.Name, err)
		}
		columns = withKeyColumns(columns, spec, meta)
	}

	tbl, err := a.ReadTable(ctx, spec.Name, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", spec.Name, err)
	}

	if spec.PrimaryKey != "" {
		tbl.PrimaryKey = spec.PrimaryKey
	}
	if len(spec.ForeignKeys) > 0 {
		tbl.ForeignKeys = slices.Clone([]core.ForeignKey(spec.ForeignKeys))
	} else {
		kept := tbl.ForeignKeys[:0]
		for _, fk := range tbl.ForeignKeys {
			if !loaded[fk.Table] {
				logger.Debug("dropping foreign key to unloaded table",
					"table", tbl.Name, "column", fk.Column, "target", fk.Table)
				continue
			}
			kept = append(kept, fk)
		}
		tbl.ForeignKeys = kept
	}
	tbl.TimeColumn = spec.TimeColumn
	return tbl, nil
}

// withKeyColumns appends key and time columns missing from columns.
func withKeyColumns(columns []string, spec TableSpec, meta *core.TableMetadata) []string {
	out := slices.Clone(columns)
	add := func(name string) {
		if name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}

	if spec.PrimaryKey != "" {
		add(spec.PrimaryKey)
	} else {
		add(meta.PrimaryKey)
	}
	fks := []core.ForeignKey(spec.ForeignKeys)
	if len(fks) == 0 {
		fks = meta.ForeignKeys
	}
	for _, fk := range fks {
		add(fk.Column)
	}
	add(spec.TimeColumn)
	return out
}
