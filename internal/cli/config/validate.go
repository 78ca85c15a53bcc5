package config

import (
	"fmt"
	"os"

	"github.com/jakubpeleska/relbench/internal/builder"
	"github.com/jakubpeleska/relbench/internal/cli/output"
	intconfig "github.com/jakubpeleska/relbench/internal/config"
)

// DefaultSchemaForType returns the default schema for a database type.
func DefaultSchemaForType(dbType string) string {
	return intconfig.DefaultSchemaForType(dbType)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dataset == "" {
		return fmt.Errorf("dataset is required")
	}
	if _, err := builder.ParseEdgeIndexMode(c.EdgeIndex); err != nil {
		return err
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative, got %d", c.Parallelism)
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	return nil
}

// ValidateDataset checks that the dataset descriptor exists.
func (c *Config) ValidateDataset() error {
	if _, err := os.Stat(c.Dataset); os.IsNotExist(err) {
		return fmt.Errorf("dataset descriptor does not exist: %s\nHint: Create it or use --dataset to specify a different path", c.Dataset)
	}
	return nil
}

// ValidateSeeds checks that the seeds directory exists.
func (c *Config) ValidateSeeds() error {
	if _, err := os.Stat(c.SeedsDir); os.IsNotExist(err) {
		return fmt.Errorf("seeds directory does not exist: %s\nHint: Create the directory or use --seeds-dir to specify a different path", c.SeedsDir)
	}
	return nil
}
