package builder

import (
	"fmt"
	"log/slog"

	"github.com/jakubpeleska/relbench/pkg/core"
)

// EdgeIndexMode selects how foreign-key edges are indexed.
type EdgeIndexMode string

const (
	// EdgeIndexRow indexes both edge endpoints by row position: the source
	// is the row in the referencing table, the target is the row holding the
	// matching primary key in the referenced table.
	EdgeIndexRow EdgeIndexMode = "row"

	// EdgeIndexKey uses the raw key values as indices: the referencing
	// table's own primary key as source and the foreign-key value as target.
	// Only meaningful when keys are already dense row positions.
	EdgeIndexKey EdgeIndexMode = "key"
)

// Edge group relation prefixes.
const (
	ForwardPrefix = "f2p::"
	ReversePrefix = "p2f::"
)

// Config controls graph construction.
type Config struct {
	// EdgeIndex selects edge indexing; empty means EdgeIndexRow.
	EdgeIndex EdgeIndexMode

	// Parallelism bounds how many tables are processed at once.
	// Values below 2 build sequentially.
	Parallelism int

	// Materializer converts feature columns; nil uses frame.NewMaterializer.
	Materializer core.Materializer

	// Logger receives progress logs; nil discards them.
	Logger *slog.Logger
}

// ParseEdgeIndexMode parses a mode name.
func ParseEdgeIndexMode(s string) (EdgeIndexMode, error) {
	switch EdgeIndexMode(s) {
	case "", EdgeIndexRow:
		return EdgeIndexRow, nil
	case EdgeIndexKey:
		return EdgeIndexKey, nil
	default:
		return "", &core.ValueError{Param: "edge_index", Reason: fmt.Sprintf("unknown mode %q (want row or key)", s)}
	}
}
