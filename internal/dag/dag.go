// Package dag builds the dependency graph between the tables of a
// relational database: a table depends on every table its foreign keys
// reference. It supports cycle detection, topological ordering and
// dependency levels.
package dag

import (
	"fmt"
	"slices"
	"sort"

	"github.com/jakubpeleska/relbench/pkg/core"
)

// Node is a table in the graph.
type Node struct {
	// Name is the table name
	Name string
	// Table is the table itself, nil for graphs built by hand
	Table *core.Table
}

// Graph is a table dependency graph. Edges run from the referenced table
// (parent) to the referencing table (child). Self-references are kept
// apart since they never affect ordering.
type Graph struct {
	order    []string
	nodes    map[string]*Node
	edges    map[string][]string // parent -> children (referencing tables)
	parents  map[string][]string // child -> parents (referenced tables)
	selfRefs map[string][]string // table -> self-referencing columns
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		edges:    make(map[string][]string),
		parents:  make(map[string][]string),
		selfRefs: make(map[string][]string),
	}
}

// FromDatabase builds the graph of db. A foreign key to a table outside db
// is a *core.ReferentialIntegrityError.
func FromDatabase(db *core.Database) (*Graph, error) {
	g := NewGraph()
	for _, t := range db.Tables() {
		g.AddNode(t.Name, t)
	}
	for _, t := range db.Tables() {
		for _, fk := range t.ForeignKeys {
			if fk.Table == t.Name {
				g.selfRefs[t.Name] = append(g.selfRefs[t.Name], fk.Column)
				continue
			}
			if _, ok := g.nodes[fk.Table]; !ok {
				return nil, &core.ReferentialIntegrityError{
					Table:       t.Name,
					Column:      fk.Column,
					TargetTable: fk.Table,
					Reason:      "target table does not exist",
				}
			}
			if err := g.AddEdge(fk.Table, t.Name); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// AddNode adds a table to the graph, replacing the table of an existing node.
func (g *Graph) AddNode(name string, table *core.Table) {
	if n, exists := g.nodes[name]; exists {
		n.Table = table
		return
	}
	g.order = append(g.order, name)
	g.nodes[name] = &Node{Name: name, Table: table}
}

// AddEdge records that child references parent.
func (g *Graph) AddEdge(parent, child string) error {
	if _, exists := g.nodes[parent]; !exists {
		return fmt.Errorf("parent node %q does not exist", parent)
	}
	if _, exists := g.nodes[child]; !exists {
		return fmt.Errorf("child node %q does not exist", child)
	}
	if parent == child {
		return fmt.Errorf("self-loop detected: %s", parent)
	}

	if !slices.Contains(g.edges[parent], child) {
		g.edges[parent] = append(g.edges[parent], child)
	}
	if !slices.Contains(g.parents[child], parent) {
		g.parents[child] = append(g.parents[child], parent)
	}
	return nil
}

// Node returns a node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Names returns node names in insertion order.
func (g *Graph) Names() []string {
	return slices.Clone(g.order)
}

// Parents returns the tables name references.
func (g *Graph) Parents(name string) []string {
	return slices.Clone(g.parents[name])
}

// Children returns the tables that reference name.
func (g *Graph) Children(name string) []string {
	return slices.Clone(g.edges[name])
}

// SelfReferences returns the columns of name that reference name itself.
func (g *Graph) SelfReferences(name string) []string {
	return slices.Clone(g.selfRefs[name])
}

// NodeCount returns the number of tables.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct table-to-table references,
// self-references excluded.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// Cycle returns a reference cycle, first and last element equal, or nil if
// the graph is acyclic.
func (g *Graph) Cycle() []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	from := make(map[string]string)

	var cycle []string
	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, child := range g.edges[id] {
			if !visited[child] {
				from[child] = id
				if dfs(child) {
					return true
				}
			} else if onStack[child] {
				cycle = []string{child}
				for curr := id; curr != child; curr = from[curr] {
					cycle = append(cycle, curr)
				}
				cycle = append(cycle, child)
				slices.Reverse(cycle)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, id := range g.sortedNames() {
		if !visited[id] && dfs(id) {
			return cycle
		}
	}
	return nil
}

// CycleError reports a reference cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %v", e.Path)
}

// TopologicalSort returns tables with referenced tables before the tables
// that reference them. Ties are broken by name. Returns *CycleError if the
// references form a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		parents := slices.Clone(g.parents[id])
		sort.Strings(parents)
		for _, p := range parents {
			visit(p)
		}
		result = append(result, g.nodes[id])
	}

	for _, id := range g.sortedNames() {
		visit(id)
	}
	return result, nil
}

// Levels groups tables by dependency depth. Level 0 holds tables without
// foreign keys to other tables.
func (g *Graph) Levels() ([][]string, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	assigned := make(map[string]int)
	var level func(id string) int
	level = func(id string) int {
		if l, ok := assigned[id]; ok {
			return l
		}
		l := 0
		for _, p := range g.parents[id] {
			l = max(l, level(p)+1)
		}
		assigned[id] = l
		return l
	}

	var levels [][]string
	for _, id := range g.sortedNames() {
		l := level(id)
		for len(levels) <= l {
			levels = append(levels, []string{})
		}
		levels[l] = append(levels[l], id)
	}
	return levels, nil
}

// Upstream returns every table name transitively references.
func (g *Graph) Upstream(name string) []string {
	return g.reach(name, g.parents)
}

// Downstream returns every table that transitively references name.
func (g *Graph) Downstream(name string) []string {
	return g.reach(name, g.edges)
}

func (g *Graph) reach(name string, next map[string][]string) []string {
	seen := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		for _, n := range next[id] {
			if !seen[n] {
				seen[n] = true
				walk(n)
			}
		}
	}
	walk(name)
	delete(seen, name)

	result := make([]string, 0, len(seen))
	for id := range seen {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// Roots returns tables that reference no other table.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.sortedNames() {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Leaves returns tables no other table references.
func (g *Graph) Leaves() []string {
	var leaves []string
	for _, id := range g.sortedNames() {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

func (g *Graph) sortedNames() []string {
	names := slices.Clone(g.order)
	sort.Strings(names)
	return names
}
