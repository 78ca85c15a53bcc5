// Package label attaches per-seed target labels to sampled batches.
//
// A batch is made of disjoint subgraphs sampled at different timestamps, so
// the same node can appear several times with different labels. Labels can
// therefore not live on the graph and are gathered into each batch by the
// batch's seed positions.
package label

import (
	"fmt"

	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/jakubpeleska/relbench/pkg/hetero"
)

// Label is a class id or a regression target.
type Label interface {
	~int64 | ~float64
}

// TargetLabelTransform gathers labels into batches.
type TargetLabelTransform[T Label] struct {
	labels []T
}

// NewTargetLabelTransform captures a copy of labels.
func NewTargetLabelTransform[T Label](labels []T) *TargetLabelTransform[T] {
	captured := make([]T, len(labels))
	copy(captured, labels)
	return &TargetLabelTransform[T]{labels: captured}
}

// Len returns the number of captured labels.
func (tr *TargetLabelTransform[T]) Len() int {
	return len(tr.labels)
}

// Apply sets batch.Y to labels[batch.InputID] and returns the batch.
// An out-of-range id returns *core.IndexError and leaves the batch unchanged.
func (tr *TargetLabelTransform[T]) Apply(batch *hetero.Batch) (*hetero.Batch, error) {
	y, err := tr.Gather(batch.InputID)
	if err != nil {
		return nil, err
	}
	batch.Y = y
	return batch, nil
}

// Gather returns labels[ids] as a new slice.
func (tr *TargetLabelTransform[T]) Gather(ids []int64) ([]T, error) {
	y := make([]T, len(ids))
	for i, id := range ids {
		if id < 0 || id >= int64(len(tr.labels)) {
			return nil, &core.IndexError{What: fmt.Sprintf("input_id[%d]", i), Index: id, Len: len(tr.labels)}
		}
		y[i] = tr.labels[id]
	}
	return y, nil
}

// Y returns the labels attached to batch as []T.
func Y[T Label](batch *hetero.Batch) ([]T, bool) {
	y, ok := batch.Y.([]T)
	return y, ok
}
