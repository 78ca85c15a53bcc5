// Package hetero provides the heterogeneous graph built from a relational
// database and the sampled batches drawn from it.
package hetero

import (
	"fmt"
	"sort"

	"github.com/jakubpeleska/relbench/pkg/core"
)

// NodeStore holds one node group.
type NodeStore struct {
	Name     string
	TF       core.FeaturePayload
	NumNodes int
	// Time holds one unix timestamp per node; nil for non-temporal tables.
	Time []int64
}

// EdgeStore holds one edge group as a 2xE index.
type EdgeStore struct {
	Type      core.EdgeType
	EdgeIndex [2][]int64
}

// NumEdges returns the number of edges.
func (e *EdgeStore) NumEdges() int {
	return len(e.EdgeIndex[0])
}

// Graph is a heterogeneous graph: node groups keyed by name and edge groups
// keyed by edge type. Insertion order is kept for deterministic iteration.
type Graph struct {
	nodes     map[string]*NodeStore
	nodeOrder []string
	edges     map[core.EdgeType]*EdgeStore
	edgeOrder []core.EdgeType
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*NodeStore),
		edges: make(map[core.EdgeType]*EdgeStore),
	}
}

// AddNodeGroup stores a node group.
func (g *Graph) AddNodeGroup(name string, tf core.FeaturePayload, numNodes int, ts []int64) error {
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("node group %q already exists", name)
	}
	if ts != nil && len(ts) != numNodes {
		return fmt.Errorf("node group %q: %d timestamps for %d nodes", name, len(ts), numNodes)
	}
	g.nodes[name] = &NodeStore{Name: name, TF: tf, NumNodes: numNodes, Time: ts}
	g.nodeOrder = append(g.nodeOrder, name)
	return nil
}

// AddEdgeGroup stores an edge group.
func (g *Graph) AddEdgeGroup(et core.EdgeType, src, dst []int64) error {
	if _, exists := g.edges[et]; exists {
		return fmt.Errorf("edge group %s already exists", FormatEdgeType(et))
	}
	if len(src) != len(dst) {
		return fmt.Errorf("edge group %s: %d sources for %d targets", FormatEdgeType(et), len(src), len(dst))
	}
	g.edges[et] = &EdgeStore{Type: et, EdgeIndex: [2][]int64{src, dst}}
	g.edgeOrder = append(g.edgeOrder, et)
	return nil
}

// Node returns the named node group.
func (g *Graph) Node(name string) (*NodeStore, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Edge returns the edge group of the given type.
func (g *Graph) Edge(et core.EdgeType) (*EdgeStore, bool) {
	e, ok := g.edges[et]
	return e, ok
}

// NodeTypes returns node group names in insertion order.
func (g *Graph) NodeTypes() []string {
	out := make([]string, len(g.nodeOrder))
	copy(out, g.nodeOrder)
	return out
}

// EdgeTypes returns edge types in insertion order.
func (g *Graph) EdgeTypes() []core.EdgeType {
	out := make([]core.EdgeType, len(g.edgeOrder))
	copy(out, g.edgeOrder)
	return out
}

// EdgesOf returns the edge types that have name as source or target,
// sorted by their formatted name.
func (g *Graph) EdgesOf(name string) []core.EdgeType {
	var out []core.EdgeType
	for _, et := range g.edgeOrder {
		if et.Src == name || et.Dst == name {
			out = append(out, et)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return FormatEdgeType(out[i]) < FormatEdgeType(out[j])
	})
	return out
}

// NumNodes returns the total number of nodes.
func (g *Graph) NumNodes() int64 {
	var n int64
	for _, ns := range g.nodes {
		n += int64(ns.NumNodes)
	}
	return n
}

// NumEdges returns the total number of edges.
func (g *Graph) NumEdges() int64 {
	var n int64
	for _, es := range g.edges {
		n += int64(es.NumEdges())
	}
	return n
}

// Summary returns the graph size.
func (g *Graph) Summary() core.BuildSummary {
	return core.BuildSummary{
		NodeGroups: len(g.nodes),
		EdgeGroups: len(g.edges),
		NumNodes:   g.NumNodes(),
		NumEdges:   g.NumEdges(),
	}
}

// EdgeGroupStats returns per edge group sizes in insertion order.
func (g *Graph) EdgeGroupStats() []core.EdgeGroupStat {
	stats := make([]core.EdgeGroupStat, 0, len(g.edgeOrder))
	for _, et := range g.edgeOrder {
		stats = append(stats, core.EdgeGroupStat{Type: et, NumEdges: int64(g.edges[et].NumEdges())})
	}
	return stats
}

// FormatEdgeType renders an edge type as "src -[rel]-> dst".
func FormatEdgeType(et core.EdgeType) string {
	return fmt.Sprintf("%s -[%s]-> %s", et.Src, et.Rel, et.Dst)
}

// Ensure Graph implements core.GraphSink
var _ core.GraphSink = (*Graph)(nil)
