package config

import (
	"fmt"
	"strings"

	"github.com/jakubpeleska/relbench/pkg/adapter"
	"github.com/jakubpeleska/relbench/pkg/core"
)

// ValidateTarget checks that the target names a registered adapter and
// carries the fields that adapter needs.
func ValidateTarget(t *core.TargetConfig) error {
	if t == nil {
		return fmt.Errorf("target is required")
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	typ := strings.ToLower(t.Type)
	if !adapter.IsRegistered(typ) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	if (typ == "postgres" || typ == "postgresql") && t.Database == "" {
		return fmt.Errorf("target database is required for %s", typ)
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target port %d out of range", t.Port)
	}
	return nil
}
