package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jakubpeleska/relbench/internal/cli/config"
	"github.com/jakubpeleska/relbench/internal/cli/output"
	intconfig "github.com/jakubpeleska/relbench/internal/config"
	"github.com/jakubpeleska/relbench/internal/dataset"
	"github.com/jakubpeleska/relbench/internal/state"
	"github.com/jakubpeleska/relbench/pkg/adapter"
	"github.com/spf13/cobra"

	// Register adapters
	_ "github.com/jakubpeleska/relbench/pkg/adapters/duckdb"
	_ "github.com/jakubpeleska/relbench/pkg/adapters/postgres"
	_ "github.com/jakubpeleska/relbench/pkg/adapters/sqlite"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	target := &config.TargetConfig{
		Type:     getEnvOrDefault("RELBENCH_TARGET_TYPE", intconfig.DefaultTargetType),
		Database: os.Getenv("RELBENCH_TARGET_DATABASE"),
	}
	intconfig.ApplyTargetDefaults(target)

	return &config.Config{
		Dataset:      getEnvOrDefault("RELBENCH_DATASET", config.DefaultDataset),
		SeedsDir:     getEnvOrDefault("RELBENCH_SEEDS_DIR", config.DefaultSeedsDir),
		StatePath:    getEnvOrDefault("RELBENCH_STATE_PATH", config.DefaultStateFile),
		EdgeIndex:    getEnvOrDefault("RELBENCH_EDGE_INDEX", config.DefaultEdgeIndex),
		Parallelism:  1,
		Environment:  getEnvOrDefault("RELBENCH_ENVIRONMENT", config.DefaultEnv),
		Verbose:      os.Getenv("RELBENCH_VERBOSE") == "true",
		OutputFormat: os.Getenv("RELBENCH_OUTPUT"),
		Target:       target,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openAdapter connects to the configured target.
func openAdapter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, error) {
	a, err := adapter.Open(ctx, cfg.Target.AdapterConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s target: %w", cfg.Target.Type, err)
	}
	return a, nil
}

// openStore opens and migrates the state database, creating its directory.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return store, nil
}

// loadDescriptor reads and validates the dataset descriptor.
func loadDescriptor(cfg *config.Config) (*dataset.Descriptor, error) {
	if err := cfg.ValidateDataset(); err != nil {
		return nil, err
	}
	desc, err := dataset.ReadFile(cfg.Dataset)
	if err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset %s: %w", cfg.Dataset, err)
	}
	return desc, nil
}
