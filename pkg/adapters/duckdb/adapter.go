// Package duckdb provides a DuckDB database adapter.
//
// Importing the package registers the adapter under the name "duckdb".
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jakubpeleska/relbench/pkg/adapter"
	"github.com/jakubpeleska/relbench/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

// Dialect is the DuckDB SQL dialect.
var Dialect = adapter.Dialect{
	Name:          "duckdb",
	DefaultSchema: "main",
	Placeholder:   adapter.QuestionPlaceholder,
}

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Dialect: Dialect, Logger: logger},
	}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	// duckdb's database/sql driver uses an empty DSN for in-memory databases
	dsn := path
	if path == ":memory:" {
		dsn = ""
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	// A single connection keeps session settings and in-memory state together
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	for _, stmt := range params.SetupStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply duckdb setting %q: %w", stmt, err)
		}
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// ListTables returns the base tables of the configured schema.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.ListTablesCommon(ctx)
}

// GetTableMetadata retrieves columns and single-column key constraints.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, tableName := adapter.ParseQualifiedName(table, a.Dialect)
	if a.Cfg.Schema != "" && !strings.Contains(table, ".") {
		schema = a.Cfg.Schema
	}

	columns, err := a.GetColumnsCommon(ctx, schema, tableName)
	if err != nil {
		return nil, err
	}

	meta := &adapter.Metadata{
		Schema:  schema,
		Name:    tableName,
		Columns: columns,
	}
	if err := a.loadConstraints(ctx, meta); err != nil {
		return nil, err
	}
	meta.RowCount = a.CountRows(ctx, schema, tableName)

	return meta, nil
}

// loadConstraints fills primary and foreign keys from duckdb_constraints().
// Composite keys are skipped.
func (a *Adapter) loadConstraints(ctx context.Context, meta *adapter.Metadata) error {
	query := `
		SELECT
			constraint_type,
			constraint_column_names[1],
			referenced_table
		FROM duckdb_constraints()
		WHERE schema_name = ? AND table_name = ?
			AND constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY')
			AND len(constraint_column_names) = 1
		ORDER BY constraint_index
	`

	rows, err := a.DB.QueryContext(ctx, query, meta.Schema, meta.Name)
	if err != nil {
		return fmt.Errorf("failed to query constraints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var kind, column string
		var referenced sql.NullString
		if err := rows.Scan(&kind, &column, &referenced); err != nil {
			return fmt.Errorf("failed to scan constraint: %w", err)
		}
		adapter.AddConstraint(meta, kind, column, referenced.String)
	}
	return rows.Err()
}

// ReadTable reads a table into memory.
func (a *Adapter) ReadTable(ctx context.Context, table string, columns []string) (*core.Table, error) {
	meta, err := a.GetTableMetadata(ctx, table)
	if err != nil {
		return nil, err
	}
	return a.ReadTableCommon(ctx, meta, columns)
}

// LoadCSV loads data from a CSV file into a table.
// DuckDB will automatically infer the schema from the CSV file.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto('%s', header=true)",
		adapter.QuoteIdent(tableName),
		strings.ReplaceAll(absPath, "'", "''"),
	)

	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}

	return nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
