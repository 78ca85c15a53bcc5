package adapter_test

import (
	"context"
	"testing"

	"github.com/jakubpeleska/relbench/pkg/adapter"
	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/jakubpeleska/relbench/pkg/adapters/duckdb"
	_ "github.com/jakubpeleska/relbench/pkg/adapters/postgres"
	_ "github.com/jakubpeleska/relbench/pkg/adapters/sqlite"
)

func TestSelfRegistration(t *testing.T) {
	tests := []struct {
		name        string
		adapterName string
		expected    bool
	}{
		{"duckdb registered", "duckdb", true},
		{"postgres registered", "postgres", true},
		{"sqlite registered", "sqlite", true},
		{"unknown not registered", "unknown_db", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.IsRegistered(tt.adapterName))
		})
	}
}

func TestNewAdapter_CaseInsensitive(t *testing.T) {
	a, err := adapter.NewAdapter(core.AdapterConfig{Type: "DuckDB"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("connects in-memory sqlite", func(t *testing.T) {
		a, err := adapter.Open(ctx, core.AdapterConfig{Type: "sqlite", Path: ":memory:"}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = a.Close() })

		require.NoError(t, a.Exec(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"))
		tables, err := a.ListTables(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"users"}, tables)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := adapter.Open(ctx, core.AdapterConfig{Type: "oracle"}, nil)
		var unknown *adapter.UnknownAdapterError
		require.ErrorAs(t, err, &unknown)
		assert.Contains(t, unknown.Available, "sqlite")
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := adapter.Open(ctx, core.AdapterConfig{Type: "sqlite", Path: t.TempDir() + "/missing/dir/db.sqlite"}, nil)
		assert.Error(t, err)
	})
}
