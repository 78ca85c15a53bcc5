package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/jakubpeleska/relbench/pkg/adapters/duckdb"
	_ "github.com/jakubpeleska/relbench/pkg/adapters/postgres"
	_ "github.com/jakubpeleska/relbench/pkg/adapters/sqlite"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "relbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultSchemaForType(t *testing.T) {
	tests := []struct {
		dbType   string
		expected string
	}{
		{"duckdb", "main"},
		{"DuckDB", "main"},
		{"sqlite", "main"},
		{"postgres", "public"},
		{"postgresql", "public"},
		{"unknown", "main"},
	}
	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultSchemaForType(tt.dbType))
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RELBENCH_TEST_HOST", "db.internal")

	assert.Equal(t, "db.internal", expandEnvVars("${RELBENCH_TEST_HOST}"))
	assert.Equal(t, "host=db.internal:5432", expandEnvVars("host=${RELBENCH_TEST_HOST}:5432"))
	assert.Equal(t, "${RELBENCH_TEST_MISSING}", expandEnvVars("${RELBENCH_TEST_MISSING}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "seeds_dir", envKey("RELBENCH_SEEDS_DIR"))
	assert.Equal(t, "edge_index", envKey("RELBENCH_EDGE_INDEX"))
	assert.Equal(t, "target.type", envKey("RELBENCH_TARGET_TYPE"))
	assert.Equal(t, "target.database", envKey("RELBENCH_TARGET_DATABASE"))
}

func TestMergeTargetConfig(t *testing.T) {
	base := &core.TargetConfig{
		Type:     "postgres",
		Host:     "localhost",
		Port:     5432,
		Database: "shop",
		Options:  map[string]string{"sslmode": "disable"},
		Params:   map[string]any{"a": 1},
	}
	override := &core.TargetConfig{
		Host:    "prod.internal",
		Schema:  "analytics",
		Options: map[string]string{"connect_timeout": "5"},
		Params:  map[string]any{"a": 2},
	}

	merged := MergeTargetConfig(base, override)
	assert.Equal(t, "postgres", merged.Type)
	assert.Equal(t, "prod.internal", merged.Host)
	assert.Equal(t, 5432, merged.Port)
	assert.Equal(t, "shop", merged.Database)
	assert.Equal(t, "analytics", merged.Schema)
	assert.Equal(t, map[string]string{"sslmode": "disable", "connect_timeout": "5"}, merged.Options)
	assert.Equal(t, 2, merged.Params["a"])

	// base is untouched
	assert.Equal(t, "localhost", base.Host)
	assert.Len(t, base.Options, 1)

	assert.Same(t, override, MergeTargetConfig(nil, override))
	assert.Same(t, base, MergeTargetConfig(base, nil))
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "target:\n  type: duckdb\n")
	root := filepath.Dir(cfgPath)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, "dataset.yaml"), cfg.Dataset)
	assert.Equal(t, filepath.Join(root, "seeds"), cfg.SeedsDir)
	assert.Equal(t, filepath.Join(root, ".relbench", "state.db"), cfg.StatePath)
	assert.Equal(t, "row", cfg.EdgeIndex)
	assert.Equal(t, 1, cfg.Parallelism)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Equal(t, "main", cfg.Target.Schema)
	assert.Empty(t, cfg.Target.Database)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_FileValues(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, `dataset: data/f1.yaml
edge_index: key
parallelism: 4
target:
  type: sqlite
  database: f1.db
`)
	root := filepath.Dir(cfgPath)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "data", "f1.yaml"), cfg.Dataset)
	assert.Equal(t, "key", cfg.EdgeIndex)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "sqlite", cfg.Target.Type)
	assert.Equal(t, filepath.Join(root, "f1.db"), cfg.Target.Database)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Environments(t *testing.T) {
	content := `target:
  type: duckdb
  database: dev.duckdb
environments:
  prod:
    dataset: prod.yaml
    target:
      database: prod.duckdb
      schema: prod
`

	t.Run("default environment", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, content)
		cfg, err := LoadConfigWithTarget(cfgPath, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "dev.duckdb", filepath.Base(cfg.Target.Database))
		assert.Equal(t, "main", cfg.Target.Schema)
	})

	t.Run("override to prod", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, content)
		cfg, err := LoadConfigWithTarget(cfgPath, "prod", nil)
		require.NoError(t, err)
		assert.Equal(t, "prod.duckdb", filepath.Base(cfg.Target.Database))
		assert.Equal(t, "prod", cfg.Target.Schema)
		assert.Equal(t, "prod.yaml", filepath.Base(cfg.Dataset))
	})

	t.Run("unknown environment keeps base", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, content)
		cfg, err := LoadConfigWithTarget(cfgPath, "nonexistent", nil)
		require.NoError(t, err)
		assert.Equal(t, "duckdb", cfg.Target.Type)
		assert.Equal(t, "dev.duckdb", filepath.Base(cfg.Target.Database))
	})
}

func TestLoadConfig_InvalidTarget(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, "target:\n  type: mysql\n")
		_, err := LoadConfig(cfgPath, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid target configuration")
		assert.Contains(t, err.Error(), "mysql")
		assert.Contains(t, err.Error(), "relbench.yaml")
	})

	t.Run("postgres without database", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, "target:\n  type: postgres\n  host: localhost\n")
		_, err := LoadConfig(cfgPath, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is required")
	})

	t.Run("bad yaml", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, "target: [\n")
		_, err := LoadConfig(cfgPath, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})
}

func TestLoadConfig_TargetEnvVars(t *testing.T) {
	ResetConfig()
	t.Setenv("RELBENCH_TEST_PG_USER", "reader")
	t.Setenv("RELBENCH_TEST_PG_PASSWORD", "secret123")

	cfgPath := writeConfig(t, `target:
  type: postgres
  host: localhost
  database: shop
  user: ${RELBENCH_TEST_PG_USER}
  password: ${RELBENCH_TEST_PG_PASSWORD}
`)
	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "reader", cfg.Target.User)
	assert.Equal(t, "secret123", cfg.Target.Password)
	assert.Equal(t, 5432, cfg.Target.Port)
	assert.Equal(t, "public", cfg.Target.Schema)
	assert.Equal(t, "shop", cfg.Target.Database)
}

func newTestFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("edge-index", "", "edge index")
	flags.String("state", "", "state path")
	flags.String("database", "", "database")
	flags.String("seeds-dir", "", "seeds directory")
	flags.Int("parallelism", 0, "parallelism")
	return flags
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "edge_index: row\ntarget:\n  type: duckdb\n")
	t.Setenv("RELBENCH_EDGE_INDEX", "row")

	flags := newTestFlags()
	require.NoError(t, flags.Set("edge-index", "key"))
	require.NoError(t, flags.Set("parallelism", "3"))
	require.NoError(t, flags.Set("database", ":memory:"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.EdgeIndex, "flag value should override config file and env var")
	assert.Equal(t, 3, cfg.Parallelism)
	assert.Equal(t, ":memory:", cfg.Target.Database)
}

func TestLoadConfig_StateFlag(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "target:\n  type: duckdb\n")

	flags := newTestFlags()
	state := filepath.Join(t.TempDir(), "custom.db")
	require.NoError(t, flags.Set("state", state))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)
	assert.Equal(t, state, cfg.StatePath)
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "edge_index: row\ntarget:\n  type: duckdb\n")
	t.Setenv("RELBENCH_EDGE_INDEX", "key")
	t.Setenv("RELBENCH_TARGET_SCHEMA", "staging")

	cfg, err := LoadConfig(cfgPath, newTestFlags())
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.EdgeIndex, "env var should be used when flag is not set")
	assert.Equal(t, "staging", cfg.Target.Schema)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{Dataset: "dataset.yaml", EdgeIndex: "row", Parallelism: 1, OutputFormat: "auto"}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Dataset = ""
	assert.ErrorContains(t, cfg.Validate(), "dataset is required")

	cfg = valid()
	cfg.EdgeIndex = "dense"
	assert.ErrorContains(t, cfg.Validate(), "unknown mode")

	cfg = valid()
	cfg.Parallelism = -1
	assert.ErrorContains(t, cfg.Validate(), "must not be negative")

	cfg = valid()
	cfg.OutputFormat = "xml"
	assert.ErrorContains(t, cfg.Validate(), "unknown output format")
}

func TestConfig_ValidatePaths(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Dataset: filepath.Join(dir, "missing.yaml"), SeedsDir: filepath.Join(dir, "seeds")}

	assert.ErrorContains(t, cfg.ValidateDataset(), "dataset descriptor does not exist")
	assert.ErrorContains(t, cfg.ValidateSeeds(), "seeds directory does not exist")

	require.NoError(t, os.WriteFile(cfg.Dataset, []byte("name: x\n"), 0600))
	require.NoError(t, os.Mkdir(cfg.SeedsDir, 0750))
	assert.NoError(t, cfg.ValidateDataset())
	assert.NoError(t, cfg.ValidateSeeds())
}

func TestGetLogger(t *testing.T) {
	logger := GetLogger(context.Background())
	require.NotNil(t, logger)

	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
