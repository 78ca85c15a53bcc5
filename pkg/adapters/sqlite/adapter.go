// Package sqlite provides a SQLite database adapter built on the pure Go
// modernc.org/sqlite driver.
//
// Importing the package registers the adapter under the name "sqlite".
package sqlite

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jakubpeleska/relbench/pkg/adapter"
	"github.com/jakubpeleska/relbench/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

func init() {
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

// Dialect is the SQLite SQL dialect.
var Dialect = adapter.Dialect{
	Name:          "sqlite",
	DefaultSchema: "main",
	Placeholder:   adapter.QuestionPlaceholder,
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Dialect: Dialect, Logger: logger},
	}
}

// Connect opens the database file, or an in-memory database for ":memory:"
// or an empty path.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	// Every new connection to ":memory:" is a fresh database
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// ListTables returns the user tables of the database.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
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

// GetTableMetadata retrieves columns and single-column key constraints
// through PRAGMA table_info and PRAGMA foreign_key_list.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, tableName := adapter.ParseQualifiedName(table, a.Dialect)
	meta := &adapter.Metadata{Schema: schema, Name: tableName}

	if err := a.loadColumns(ctx, meta); err != nil {
		return nil, err
	}
	if err := a.loadForeignKeys(ctx, meta); err != nil {
		return nil, err
	}
	meta.RowCount = a.CountRows(ctx, schema, tableName)

	return meta, nil
}

func (a *Adapter) loadColumns(ctx context.Context, meta *adapter.Metadata) error {
	query := fmt.Sprintf("PRAGMA %s.table_info(%s)", adapter.QuoteIdent(meta.Schema), adapter.QuoteIdent(meta.Name))
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pkCols []string
	for rows.Next() {
		var (
			cid       int
			col       adapter.ColumnInfo
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position = cid + 1
		col.Nullable = notNull == 0 && pk == 0
		if pk > 0 {
			pkCols = append(pkCols, col.Name)
		}
		meta.Columns = append(meta.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(meta.Columns) == 0 {
		return fmt.Errorf("table %s.%s not found", meta.Schema, meta.Name)
	}
	if len(pkCols) == 1 {
		adapter.AddConstraint(meta, "PRIMARY KEY", pkCols[0], "")
	}
	return nil
}

// loadForeignKeys records single-column foreign keys. Composite keys are
// skipped.
func (a *Adapter) loadForeignKeys(ctx context.Context, meta *adapter.Metadata) error {
	query := fmt.Sprintf("PRAGMA %s.foreign_key_list(%s)", adapter.QuoteIdent(meta.Schema), adapter.QuoteIdent(meta.Name))
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type fkRow struct{ from, table string }
	var ids []int
	byID := make(map[int][]fkRow)
	for rows.Next() {
		var (
			id, seq                   int
			table, from               string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if _, ok := byID[id]; !ok {
			ids = append(ids, id)
		}
		byID[id] = append(byID[id], fkRow{from: from, table: table})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating foreign keys: %w", err)
	}

	// PRAGMA foreign_key_list lists constraints in reverse declaration order
	for i := len(ids) - 1; i >= 0; i-- {
		fks := byID[ids[i]]
		if len(fks) != 1 {
			a.Logger.Debug("skipping composite foreign key", "table", meta.Name, "references", fks[0].table)
			continue
		}
		adapter.AddConstraint(meta, "FOREIGN KEY", fks[0].from, fks[0].table)
	}
	return nil
}

// ReadTable reads a table into memory.
func (a *Adapter) ReadTable(ctx context.Context, table string, columns []string) (*core.Table, error) {
	meta, err := a.GetTableMetadata(ctx, table)
	if err != nil {
		return nil, err
	}
	return a.ReadTableCommon(ctx, meta, columns)
}

// LoadCSV loads a CSV file with a header row into a new table, replacing
// any existing table of that name. Column types are inferred from the
// values: INTEGER, REAL, or TEXT. Empty fields load as NULL.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	file, err := os.Open(absPath) //nolint:gosec // seed paths come from the dataset descriptor
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("CSV file %s has no header", filePath)
	}
	headers, data := records[0], records[1:]

	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	quoted := adapter.QuoteIdent(tableName)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}

	colDefs := make([]string, len(headers))
	placeholders := make([]string, len(headers))
	for i, h := range headers {
		colDefs[i] = adapter.QuoteIdent(strings.TrimSpace(h)) + " " + inferColumnType(data, i)
		placeholders[i] = "?"
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(colDefs, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoted, strings.Join(placeholders, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(headers))
	for n, rec := range data {
		for i := range args {
			if i < len(rec) && rec[i] != "" {
				args[i] = rec[i]
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", n+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit CSV load: %w", err)
	}
	a.Logger.Debug("loaded csv", "table", tableName, "rows", len(data))
	return nil
}

// inferColumnType picks the narrowest of INTEGER, REAL and TEXT that holds
// every non-empty value of column i.
func inferColumnType(data [][]string, i int) string {
	isInt, isFloat := true, true
	for _, rec := range data {
		if i >= len(rec) || rec[i] == "" {
			continue
		}
		if isInt {
			if _, err := strconv.ParseInt(rec[i], 10, 64); err != nil {
				isInt = false
			}
		}
		if !isInt {
			if _, err := strconv.ParseFloat(rec[i], 64); err != nil {
				isFloat = false
				break
			}
		}
	}
	switch {
	case isInt:
		return "INTEGER"
	case isFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
