// Package postgres provides a PostgreSQL database adapter.
//
// Importing the package registers the adapter under the names "postgres"
// and "postgresql".
package postgres

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jakubpeleska/relbench/pkg/adapter"
	"github.com/jakubpeleska/relbench/pkg/core"
)

func init() {
	factory := func(logger *slog.Logger) adapter.Adapter { return New(logger) }
	adapter.Register("postgres", factory)
	adapter.Register("postgresql", factory)
}

// Dialect is the PostgreSQL SQL dialect.
var Dialect = adapter.Dialect{
	Name:          "postgres",
	DefaultSchema: "public",
	Placeholder:   adapter.DollarPlaceholder,
}

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Dialect: Dialect, Logger: logger},
	}
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
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

const constraintQuery = `
	SELECT
		tc.constraint_name,
		tc.constraint_type,
		kcu.column_name,
		COALESCE(ccu.table_name, '')
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON kcu.constraint_name = tc.constraint_name
		AND kcu.constraint_schema = tc.constraint_schema
	LEFT JOIN information_schema.constraint_column_usage ccu
		ON tc.constraint_type = 'FOREIGN KEY'
		AND ccu.constraint_name = tc.constraint_name
		AND ccu.constraint_schema = tc.constraint_schema
	WHERE tc.table_schema = $1 AND tc.table_name = $2
		AND tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY')
	ORDER BY tc.constraint_name, kcu.ordinal_position
`

type constraintRow struct {
	kind, column, referenced string
}

// loadConstraints fills primary and foreign keys from information_schema.
// Composite keys are skipped.
func (a *Adapter) loadConstraints(ctx context.Context, meta *adapter.Metadata) error {
	rows, err := a.DB.QueryContext(ctx, constraintQuery, meta.Schema, meta.Name)
	if err != nil {
		return fmt.Errorf("failed to query constraints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var order []string
	byName := make(map[string][]constraintRow)
	for rows.Next() {
		var name string
		var r constraintRow
		if err := rows.Scan(&name, &r.kind, &r.column, &r.referenced); err != nil {
			return fmt.Errorf("failed to scan constraint: %w", err)
		}
		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}
		byName[name] = append(byName[name], r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating constraints: %w", err)
	}

	for _, name := range order {
		cols := byName[name]
		if len(cols) != 1 {
			a.Logger.Debug("skipping composite constraint", "table", meta.Name, "constraint", name)
			continue
		}
		adapter.AddConstraint(meta, cols[0].kind, cols[0].column, cols[0].referenced)
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

// LoadCSV loads data from a CSV file into a table using COPY FROM STDIN.
// All columns are created as TEXT type.
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

	headers, err := csv.NewReader(file).Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	if err := a.createTextTable(ctx, tableName, headers); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to reset file: %w", err)
	}

	if err := a.copyFromCSV(ctx, tableName, file); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}

	return nil
}

// createTextTable creates or replaces a table with all TEXT columns.
func (a *Adapter) createTextTable(ctx context.Context, tableName string, columns []string) error {
	quoted := adapter.QuoteIdent(tableName)
	if _, err := a.DB.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return err
	}

	colDefs := make([]string, len(columns))
	for i, col := range columns {
		colDefs[i] = adapter.QuoteIdent(strings.TrimSpace(col)) + " TEXT"
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(colDefs, ", "))
	_, err := a.DB.ExecContext(ctx, createSQL)
	return err
}

// copyFromCSV streams the file through the pgx COPY protocol.
func (a *Adapter) copyFromCSV(ctx context.Context, tableName string, file *os.File) error {
	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		pgxConn, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		copySQL := fmt.Sprintf("COPY %s FROM STDIN WITH (FORMAT csv, HEADER true)", adapter.QuoteIdent(tableName))
		_, err := pgxConn.Conn().PgConn().CopyFrom(ctx, file, copySQL)
		return err
	})
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
