package hetero

// Batch is a set of disjoint subgraphs produced by temporal neighbor
// sampling. InputID holds, per seed node, its position in the global seed
// space; the same node may appear several times with different InputTime.
type Batch struct {
	Graph     *Graph
	InputID   []int64
	InputTime []int64

	// Y holds the labels attached after sampling, aligned with InputID.
	// It is a []int64 or []float64 depending on the task.
	Y any
}

// NewBatch creates a batch for the given seed positions.
func NewBatch(g *Graph, inputID []int64, inputTime []int64) *Batch {
	return &Batch{Graph: g, InputID: inputID, InputTime: inputTime}
}
