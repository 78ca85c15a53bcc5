package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jakubpeleska/relbench/pkg/core"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query and table reading implementations.
type BaseSQLAdapter struct {
	DB      *sql.DB
	Cfg     core.AdapterConfig
	Dialect Dialect
	Logger  *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection", "dialect", b.Dialect.Name)
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string) (*core.Rows, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Schema returns the configured schema or the dialect default.
func (b *BaseSQLAdapter) Schema() string {
	if b.Cfg.Schema != "" {
		return b.Cfg.Schema
	}
	return b.Dialect.DefaultSchema
}

// ListTablesCommon lists base tables of the configured schema through
// information_schema.tables.
func (b *BaseSQLAdapter) ListTablesCommon(ctx context.Context) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	//nolint:gosec // Placeholders come from the dialect
	query := fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, b.Dialect.Placeholder(1))

	rows, err := b.DB.QueryContext(ctx, query, b.Schema())
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return names, nil
}

// GetColumnsCommon reads column metadata through information_schema.columns.
func (b *BaseSQLAdapter) GetColumnsCommon(ctx context.Context, schema, table string) ([]core.ColumnInfo, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	//nolint:gosec // Placeholders come from the dialect
	query := fmt.Sprintf(`
		SELECT 
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns 
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, b.Dialect.Placeholder(1), b.Dialect.Placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.ColumnInfo
	for rows.Next() {
		var col core.ColumnInfo
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", schema, table)
	}
	return columns, nil
}

// CountRows returns the row count of a table, or 0 if it can not be read.
func (b *BaseSQLAdapter) CountRows(ctx context.Context, schema, table string) int64 {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", QualifiedName(schema, table)) //nolint:gosec // identifiers are quoted
	var rowCount int64
	if err := b.DB.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		// Non-fatal error, just set to 0
		return 0
	}
	return rowCount
}

// ReadTableCommon reads the selected columns of a table into a core.Table,
// in the order given by meta unless selected narrows it. Key metadata is
// copied from meta.
func (b *BaseSQLAdapter) ReadTableCommon(ctx context.Context, meta *core.TableMetadata, selected []string) (*core.Table, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	infos, err := selectColumns(meta, selected)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(infos))
	for i, c := range infos {
		names[i] = QuoteIdent(c.Name)
	}

	orderBy := ""
	if meta.PrimaryKey != "" {
		orderBy = " ORDER BY " + QuoteIdent(meta.PrimaryKey)
	}
	//nolint:gosec // identifiers are quoted
	query := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(names, ", "), QualifiedName(meta.Schema, meta.Name), orderBy)

	if b.Logger != nil {
		b.Logger.Debug("reading table", "table", meta.Name, "columns", len(infos))
	}

	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", meta.Name, err)
	}
	defer func() { _ = rows.Close() }()

	cols := make([]*core.Column, len(infos))
	for i, c := range infos {
		cols[i] = &core.Column{Name: c.Name, DType: DTypeForSQLType(c.Type)}
	}

	values := make([]any, len(infos))
	ptrs := make([]any, len(infos))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", meta.Name, err)
		}
		for i, v := range values {
			nv, err := NormalizeValue(v, cols[i].DType)
			if err != nil {
				return nil, fmt.Errorf("table %s column %s: %w", meta.Name, cols[i].Name, err)
			}
			cols[i].Values = append(cols[i].Values, nv)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows of %s: %w", meta.Name, err)
	}

	tbl := &core.Table{
		Name:    meta.Name,
		Columns: cols,
	}
	if hasColumn(infos, meta.PrimaryKey) {
		tbl.PrimaryKey = meta.PrimaryKey
	}
	for _, fk := range meta.ForeignKeys {
		if hasColumn(infos, fk.Column) {
			tbl.ForeignKeys = append(tbl.ForeignKeys, fk)
		}
	}
	return tbl, nil
}

// AddConstraint records a single-column PRIMARY KEY or FOREIGN KEY
// constraint on meta. Other constraint kinds are ignored.
func AddConstraint(meta *core.TableMetadata, kind, column, referenced string) {
	switch strings.ToUpper(kind) {
	case "PRIMARY KEY":
		meta.PrimaryKey = column
		for i := range meta.Columns {
			if meta.Columns[i].Name == column {
				meta.Columns[i].PrimaryKey = true
			}
		}
	case "FOREIGN KEY":
		meta.ForeignKeys = append(meta.ForeignKeys, core.ForeignKey{Column: column, Table: referenced})
	}
}

func selectColumns(meta *core.TableMetadata, selected []string) ([]core.ColumnInfo, error) {
	if len(selected) == 0 {
		return meta.Columns, nil
	}
	out := make([]core.ColumnInfo, 0, len(selected))
	for _, name := range selected {
		found := false
		for _, c := range meta.Columns {
			if c.Name == name {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("column %s not found in table %s", name, meta.Name)
		}
	}
	return out, nil
}

func hasColumn(infos []core.ColumnInfo, name string) bool {
	if name == "" {
		return false
	}
	for _, c := range infos {
		if c.Name == name {
			return true
		}
	}
	return false
}
