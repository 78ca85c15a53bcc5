// Package config provides configuration management for the relbench CLI.
//
// Shared target types live in pkg/core and are re-exported here via type
// aliases for convenience.
package config

import (
	sharedcfg "github.com/jakubpeleska/relbench/internal/config"
	"github.com/jakubpeleska/relbench/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	Dataset      string               `koanf:"dataset"`
	SeedsDir     string               `koanf:"seeds_dir"`
	StatePath    string               `koanf:"state_path"`
	EdgeIndex    string               `koanf:"edge_index"`
	Parallelism  int                  `koanf:"parallelism"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Dataset  string        `koanf:"dataset"`
	SeedsDir string        `koanf:"seeds_dir"`
	Target   *TargetConfig `koanf:"target"`
}

// Default configuration values.
const (
	DefaultDataset   = sharedcfg.DefaultDatasetFile
	DefaultSeedsDir  = sharedcfg.DefaultSeedsDir
	DefaultStateFile = sharedcfg.DefaultStateFile
	DefaultEdgeIndex = sharedcfg.DefaultEdgeIndex
	DefaultEnv       = "dev"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Config file names, in lookup order.
var configFileNames = []string{"relbench.yaml", "relbench.yml"}
