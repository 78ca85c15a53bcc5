// Package builder models a relational database as a heterogeneous graph:
// one node group per table and a forward and a reverse edge group per
// foreign key.
package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jakubpeleska/relbench/internal/timeutil"
	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/jakubpeleska/relbench/pkg/frame"
	"github.com/jakubpeleska/relbench/pkg/hetero"
	"golang.org/x/sync/errgroup"
)

// Builder builds graphs from databases.
type Builder struct {
	mode         EdgeIndexMode
	parallelism  int
	materializer core.Materializer
	logger       *slog.Logger
}

// New creates a builder from cfg.
func New(cfg Config) (*Builder, error) {
	mode, err := ParseEdgeIndexMode(string(cfg.EdgeIndex))
	if err != nil {
		return nil, err
	}
	mat := cfg.Materializer
	if mat == nil {
		mat = frame.NewMaterializer()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		mode:         mode,
		parallelism:  cfg.Parallelism,
		materializer: mat,
		logger:       logger,
	}, nil
}

// MakePKeyFKeyGraph builds the graph of db into a new hetero.Graph.
func MakePKeyFKeyGraph(ctx context.Context, db *core.Database, cfg Config) (*hetero.Graph, error) {
	b, err := New(cfg)
	if err != nil {
		return nil, err
	}
	g := hetero.NewGraph()
	if err := b.Build(ctx, db, g); err != nil {
		return nil, err
	}
	return g, nil
}

// edgeGroup is one pending edge group.
type edgeGroup struct {
	typ      core.EdgeType
	src, dst []int64
}

// tableResult is everything one table contributes to the graph.
type tableResult struct {
	name     string
	tf       core.FeaturePayload
	numNodes int
	time     []int64
	edges    []edgeGroup
}

// Build writes the node and edge groups of db to sink, in database order.
// Nothing is written unless every table succeeds.
func (b *Builder) Build(ctx context.Context, db *core.Database, sink core.GraphSink) error {
	if err := db.Validate(); err != nil {
		return err
	}

	tables := db.Tables()
	b.logger.Debug("building graph", "tables", len(tables), "edge_index", string(b.mode))

	var pkIndex map[string]map[any]int
	if b.mode == EdgeIndexRow {
		pkIndex = primaryKeyIndexes(db)
	}

	results := make([]*tableResult, len(tables))
	eg, egctx := errgroup.WithContext(ctx)
	if b.parallelism > 1 {
		eg.SetLimit(b.parallelism)
	} else {
		eg.SetLimit(1)
	}
	for i, t := range tables {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			res, err := b.buildTable(t, pkIndex)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		if err := sink.AddNodeGroup(res.name, res.tf, res.numNodes, res.time); err != nil {
			return fmt.Errorf("failed to add node group %s: %w", res.name, err)
		}
	}
	for _, res := range results {
		for _, e := range res.edges {
			if err := sink.AddEdgeGroup(e.typ, e.src, e.dst); err != nil {
				return fmt.Errorf("failed to add edge group %s: %w", hetero.FormatEdgeType(e.typ), err)
			}
		}
	}

	return nil
}

func (b *Builder) buildTable(t *core.Table, pkIndex map[string]map[any]int) (*tableResult, error) {
	b.logger.Debug("materializing table", "table", t.Name, "rows", t.NumRows())

	tf, err := b.materializer.Materialize(t.FeatureColumns())
	if err != nil {
		return nil, err
	}

	if tf.NumRows() != t.NumRows() {
		return nil, fmt.Errorf("table %s: feature payload has %d rows, expected %d", t.Name, tf.NumRows(), t.NumRows())
	}

	res := &tableResult{name: t.Name, tf: tf, numNodes: t.NumRows()}

	if t.TimeColumn != "" {
		col, _ := t.Column(t.TimeColumn)
		ts, err := timeutil.UnixSeconds(col.Values)
		if err != nil {
			return nil, fmt.Errorf("table %s: time column %s: %w", t.Name, t.TimeColumn, err)
		}
		res.time = ts
	}

	for _, fk := range t.ForeignKeys {
		var src, dst []int64
		switch b.mode {
		case EdgeIndexKey:
			src, dst, err = keyEdges(t, fk)
		default:
			src, dst, err = rowEdges(t, fk, pkIndex[fk.Table])
		}
		if err != nil {
			return nil, err
		}

		// fkey -> pkey edges
		res.edges = append(res.edges, edgeGroup{
			typ: core.EdgeType{Src: t.Name, Rel: ForwardPrefix + fk.Column, Dst: fk.Table},
			src: src,
			dst: dst,
		})
		// pkey -> fkey edges
		res.edges = append(res.edges, edgeGroup{
			typ: core.EdgeType{Src: fk.Table, Rel: ReversePrefix + fk.Column, Dst: t.Name},
			src: dst,
			dst: src,
		})

		b.logger.Debug("added edges", "table", t.Name, "fkey", fk.Column, "target", fk.Table, "edges", len(src))
	}

	return res, nil
}

// primaryKeyIndexes maps, for every table referenced by a foreign key, each
// primary-key value to its row position.
func primaryKeyIndexes(db *core.Database) map[string]map[any]int {
	referenced := make(map[string]bool)
	for _, t := range db.Tables() {
		for _, fk := range t.ForeignKeys {
			referenced[fk.Table] = true
		}
	}

	out := make(map[string]map[any]int, len(referenced))
	for name := range referenced {
		t, _ := db.Table(name)
		pk, _ := t.Column(t.PrimaryKey)
		idx := make(map[any]int, pk.Len())
		for row, v := range pk.Values {
			idx[core.KeyOf(v)] = row
		}
		out[name] = idx
	}
	return out
}

// rowEdges pairs each row position with the row of the referenced key.
// Rows with a null foreign key have no edge.
func rowEdges(t *core.Table, fk core.ForeignKey, targetIdx map[any]int) (src, dst []int64, err error) {
	col, _ := t.Column(fk.Column)
	src = make([]int64, 0, col.Len())
	dst = make([]int64, 0, col.Len())
	for row, v := range col.Values {
		if v == nil {
			continue
		}
		target, ok := targetIdx[core.KeyOf(v)]
		if !ok {
			return nil, nil, &core.ReferentialIntegrityError{
				Table:       t.Name,
				Column:      fk.Column,
				TargetTable: fk.Table,
				Value:       v,
				Row:         row,
				Reason:      "no matching primary key",
			}
		}
		src = append(src, int64(row))
		dst = append(dst, int64(target))
	}
	return src, dst, nil
}

// keyEdges pairs the table's own primary-key value with the raw foreign-key
// value. Rows with a null foreign key have no edge.
func keyEdges(t *core.Table, fk core.ForeignKey) (src, dst []int64, err error) {
	if t.PrimaryKey == "" {
		return nil, nil, &core.ValueError{
			Param:  "edge_index",
			Reason: fmt.Sprintf("key indexing needs a primary key on table %s", t.Name),
		}
	}
	pk, _ := t.Column(t.PrimaryKey)
	col, _ := t.Column(fk.Column)
	src = make([]int64, 0, col.Len())
	dst = make([]int64, 0, col.Len())
	for row, v := range col.Values {
		if v == nil {
			continue
		}
		s, ok := asIndex(pk.Values[row])
		if !ok {
			return nil, nil, &core.IndexError{What: fmt.Sprintf("%s.%s row %d", t.Name, t.PrimaryKey, row), Index: pk.Values[row], Len: -1}
		}
		d, ok := asIndex(v)
		if !ok {
			return nil, nil, &core.IndexError{What: fmt.Sprintf("%s.%s row %d", t.Name, fk.Column, row), Index: v, Len: -1}
		}
		src = append(src, s)
		dst = append(dst, d)
	}
	return src, dst, nil
}

// asIndex accepts integral key values.
func asIndex(v any) (int64, bool) {
	k, ok := core.KeyOf(v).(int64)
	return k, ok
}
