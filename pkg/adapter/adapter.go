// Package adapter provides the database adapter contract used to read
// relational tables and their key constraints.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves with this package on import.
package adapter

import (
	"github.com/jakubpeleska/relbench/pkg/core"
)

// Type aliases for the core adapter types.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// ColumnInfo is an alias for core.ColumnInfo.
	ColumnInfo = core.ColumnInfo

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows

	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter
)
