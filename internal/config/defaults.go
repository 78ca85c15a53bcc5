// Package config holds the defaults and target validation shared by the CLI
// and the library packages.
package config

import (
	"strings"

	"github.com/jakubpeleska/relbench/pkg/core"
)

// Default configuration values.
const (
	DefaultTargetType   = "duckdb"
	DefaultSeedsDir     = "seeds"
	DefaultDatasetFile  = "dataset.yaml"
	DefaultStateFile    = ".relbench/state.db"
	DefaultEdgeIndex    = "row"
	DefaultPostgresPort = 5432
)

var defaultSchemas = map[string]string{
	"duckdb":     "main",
	"sqlite":     "main",
	"postgres":   "public",
	"postgresql": "public",
}

// DefaultSchemaForType returns the default schema for a database type,
// "main" for unknown types.
func DefaultSchemaForType(dbType string) string {
	if s, ok := defaultSchemas[strings.ToLower(dbType)]; ok {
		return s
	}
	return "main"
}

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}

	if t.Type == "" {
		t.Type = DefaultTargetType
	}
	t.Type = strings.ToLower(t.Type)

	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}

	if (t.Type == "postgres" || t.Type == "postgresql") && t.Port == 0 {
		t.Port = DefaultPostgresPort
	}
}
