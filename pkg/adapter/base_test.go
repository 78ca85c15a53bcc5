package adapter

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDialect = Dialect{Name: "test", DefaultSchema: "main", Placeholder: QuestionPlaceholder}

func newMockBase(t *testing.T) (*BaseSQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &BaseSQLAdapter{DB: db, Dialect: testDialect}, mock
}

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		setupDB bool
	}{
		{name: "close with nil DB", setupDB: false},
		{name: "close with open DB", setupDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			assert.NoError(t, base.Close())
		})
	}
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		errMsg    string
	}{
		{
			name:    "exec without connection",
			setupDB: false,
			sql:     "SELECT 1",
			errMsg:  "database connection not established",
		},
		{
			name:    "exec success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE users").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			sql: "CREATE TABLE users (id INT)",
		},
		{
			name:    "exec with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INVALID SQL").WillReturnError(assert.AnError)
			},
			sql:    "INVALID SQL",
			errMsg: "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				var mock sqlmock.Sqlmock
				base, mock = newMockBase(t)
				tt.setupMock(mock)
			}

			err := base.Exec(ctx, tt.sql)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_Query(t *testing.T) {
	base, mock := newMockBase(t)
	mock.ExpectQuery("SELECT id, name FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "alice").AddRow(2, "bob"))

	rows, err := base.Query(context.Background(), "SELECT id, name FROM users")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	count := 0
	for rows.Next() {
		count++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 2, count)

	_, err = (&BaseSQLAdapter{}).Query(context.Background(), "SELECT 1")
	assert.ErrorContains(t, err, "database connection not established")
}

func TestBaseSQLAdapter_ListTablesCommon(t *testing.T) {
	base, mock := newMockBase(t)
	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("main").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders").AddRow("users"))

	names, err := base.ListTablesCommon(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_GetColumnsCommon(t *testing.T) {
	t.Run("columns found", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery("FROM information_schema.columns").
			WithArgs("main", "users").
			WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
				AddRow("id", "BIGINT", "NO", 1).
				AddRow("name", "VARCHAR", "YES", 2))

		cols, err := base.GetColumnsCommon(context.Background(), "main", "users")
		require.NoError(t, err)
		assert.Equal(t, []core.ColumnInfo{
			{Name: "id", Type: "BIGINT", Nullable: false, Position: 1},
			{Name: "name", Type: "VARCHAR", Nullable: true, Position: 2},
		}, cols)
	})

	t.Run("table missing", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery("FROM information_schema.columns").
			WithArgs("main", "ghost").
			WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}))

		_, err := base.GetColumnsCommon(context.Background(), "main", "ghost")
		assert.ErrorContains(t, err, "table main.ghost not found")
	})
}

func TestBaseSQLAdapter_ReadTableCommon(t *testing.T) {
	meta := &core.TableMetadata{
		Schema: "main",
		Name:   "orders",
		Columns: []core.ColumnInfo{
			{Name: "id", Type: "BIGINT"},
			{Name: "user_id", Type: "BIGINT"},
			{Name: "note", Type: "VARCHAR"},
			{Name: "placed_at", Type: "TIMESTAMP"},
		},
		PrimaryKey:  "id",
		ForeignKeys: []core.ForeignKey{{Column: "user_id", Table: "users"}},
	}
	placed := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("all columns", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "user_id", "note", "placed_at" FROM "main"."orders" ORDER BY "id"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "note", "placed_at"}).
				AddRow(int64(1), int64(10), []byte("first"), placed).
				AddRow(int64(2), nil, nil, placed.Add(time.Hour)))

		tbl, err := base.ReadTableCommon(context.Background(), meta, nil)
		require.NoError(t, err)

		assert.Equal(t, "orders", tbl.Name)
		assert.Equal(t, "id", tbl.PrimaryKey)
		assert.Equal(t, meta.ForeignKeys, tbl.ForeignKeys)
		assert.Equal(t, 2, tbl.NumRows())

		note, _ := tbl.Column("note")
		assert.Equal(t, core.DTypeString, note.DType)
		assert.Equal(t, []any{"first", nil}, note.Values)

		at, _ := tbl.Column("placed_at")
		assert.Equal(t, core.DTypeTimestamp, at.DType)
		assert.Equal(t, placed, at.Values[0])
	})

	t.Run("selected columns drop unselected keys", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "note" FROM "main"."orders" ORDER BY "id"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "note"}).AddRow(int64(1), "x"))

		tbl, err := base.ReadTableCommon(context.Background(), meta, []string{"id", "note"})
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "note"}, tbl.ColumnNames())
		assert.Empty(t, tbl.ForeignKeys)
	})

	t.Run("unknown selected column", func(t *testing.T) {
		base, _ := newMockBase(t)
		_, err := base.ReadTableCommon(context.Background(), meta, []string{"total"})
		assert.ErrorContains(t, err, "column total not found")
	})
}

func TestParseQualifiedName(t *testing.T) {
	schema, name := ParseQualifiedName("sales.orders", testDialect)
	assert.Equal(t, "sales", schema)
	assert.Equal(t, "orders", name)

	schema, name = ParseQualifiedName("orders", testDialect)
	assert.Equal(t, "main", schema)
	assert.Equal(t, "orders", name)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"orders"`, QuoteIdent("orders"))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
	assert.Equal(t, `"orders"`, QualifiedName("", "orders"))
	assert.Equal(t, `"s"."t"`, QualifiedName("s", "t"))
}

func TestAddConstraint(t *testing.T) {
	meta := &core.TableMetadata{
		Name:    "orders",
		Columns: []core.ColumnInfo{{Name: "order_id"}, {Name: "customer_id"}},
	}

	AddConstraint(meta, "PRIMARY KEY", "order_id", "")
	AddConstraint(meta, "foreign key", "customer_id", "customers")
	AddConstraint(meta, "UNIQUE", "customer_id", "")

	assert.Equal(t, "order_id", meta.PrimaryKey)
	assert.True(t, meta.Columns[0].PrimaryKey)
	assert.False(t, meta.Columns[1].PrimaryKey)
	assert.Equal(t, []core.ForeignKey{{Column: "customer_id", Table: "customers"}}, meta.ForeignKeys)
}
