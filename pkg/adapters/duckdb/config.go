package duckdb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "httpfs", "json")
	Extensions []string `mapstructure:"extensions"`

	// Secrets for reading seed files from cloud storage
	Secrets []SecretConfig `mapstructure:"secrets"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// SecretConfig defines a DuckDB secret for cloud storage.
type SecretConfig struct {
	// Type: "s3", "gcs", "azure", "r2"
	Type string `mapstructure:"type"`

	// Provider: "config", "credential_chain", etc.
	Provider string `mapstructure:"provider"`

	// Region for S3 buckets
	Region string `mapstructure:"region,omitempty"`

	// KeyID for explicit credentials (prefer credential_chain)
	KeyID string `mapstructure:"key_id,omitempty"`

	// Secret for explicit credentials (prefer credential_chain)
	Secret string `mapstructure:"secret,omitempty"`

	// Endpoint for S3-compatible services (MinIO, etc.)
	Endpoint string `mapstructure:"endpoint,omitempty"`
}

// ParseParams decodes adapter params into Params.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}

// SetupStatements returns the statements that apply p to a fresh session,
// in a stable order: extensions, settings, then secrets.
func (p *Params) SetupStatements() []string {
	var stmts []string
	for _, ext := range p.Extensions {
		stmts = append(stmts, fmt.Sprintf("INSTALL %s", ext), fmt.Sprintf("LOAD %s", ext))
	}

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", k, escapeLiteral(p.Settings[k])))
	}

	for _, s := range p.Secrets {
		stmts = append(stmts, s.createStatement())
	}
	return stmts
}

func (s SecretConfig) createStatement() string {
	parts := []string{"TYPE " + s.Type}
	if s.Provider != "" {
		parts = append(parts, "PROVIDER "+s.Provider)
	}
	opt := func(name, v string) {
		if v != "" {
			parts = append(parts, fmt.Sprintf("%s '%s'", name, escapeLiteral(v)))
		}
	}
	opt("KEY_ID", s.KeyID)
	opt("SECRET", s.Secret)
	opt("REGION", s.Region)
	opt("ENDPOINT", s.Endpoint)
	return fmt.Sprintf("CREATE SECRET (%s)", strings.Join(parts, ", "))
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
