package core

// FeaturePayload is the opaque materialized representation of a table's
// feature columns.
type FeaturePayload interface {
	NumRows() int
}

// Materializer turns a table stripped of key columns into a feature payload.
// Implementations return *FeatureConversionError for unsupported columns.
type Materializer interface {
	Materialize(t *Table) (FeaturePayload, error)
}

// EdgeType identifies an edge group: (source table, relation, target table).
type EdgeType struct {
	Src string
	Rel string
	Dst string
}

// GraphSink receives the node and edge groups of a built graph.
type GraphSink interface {
	// AddNodeGroup stores the node group for one table. time is nil for
	// tables without a time column.
	AddNodeGroup(name string, tf FeaturePayload, numNodes int, time []int64) error

	// AddEdgeGroup stores a 2xE edge index for one edge type.
	AddEdgeGroup(et EdgeType, src, dst []int64) error
}
