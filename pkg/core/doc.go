// Package core defines the shared language of the relbench system.
//
// This package contains:
//   - Domain entities (Table, Column, Database, TimeWindow, Build)
//   - Service interfaces (Adapter, Store, Materializer, GraphSink)
//   - Configuration types (AdapterConfig, TargetConfig)
//   - The error taxonomy shared by every component
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
