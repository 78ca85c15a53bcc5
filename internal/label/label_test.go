package label

import (
	"errors"
	"testing"

	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/jakubpeleska/relbench/pkg/hetero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetLabelTransform_Apply(t *testing.T) {
	tr := NewTargetLabelTransform([]int64{10, 11, 12, 13})

	first, err := tr.Apply(hetero.NewBatch(nil, []int64{3, 0, 3}, nil))
	require.NoError(t, err)
	second, err := tr.Apply(hetero.NewBatch(nil, []int64{1, 2}, nil))
	require.NoError(t, err)

	y1, ok := Y[int64](first)
	require.True(t, ok)
	assert.Equal(t, []int64{13, 10, 13}, y1)

	y2, ok := Y[int64](second)
	require.True(t, ok)
	assert.Equal(t, []int64{11, 12}, y2)

	// earlier results are not affected by later calls
	assert.Equal(t, []int64{13, 10, 13}, y1)
}

func TestTargetLabelTransform_Float(t *testing.T) {
	tr := NewTargetLabelTransform([]float64{0.5, 1.5})

	b, err := tr.Apply(hetero.NewBatch(nil, []int64{1, 1, 0}, nil))
	require.NoError(t, err)

	y, ok := Y[float64](b)
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, 1.5, 0.5}, y)

	_, ok = Y[int64](b)
	assert.False(t, ok)
}

func TestTargetLabelTransform_CopiesLabels(t *testing.T) {
	labels := []int64{1, 2, 3}
	tr := NewTargetLabelTransform(labels)
	labels[0] = 99

	y, err := tr.Gather([]int64{0})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, y)

	y[0] = 42
	again, err := tr.Gather([]int64{0})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, again)
}

func TestTargetLabelTransform_OutOfRange(t *testing.T) {
	tr := NewTargetLabelTransform([]int64{1, 2})

	for _, ids := range [][]int64{{0, 2}, {-1}} {
		batch := hetero.NewBatch(nil, ids, nil)
		_, err := tr.Apply(batch)

		var ie *core.IndexError
		require.True(t, errors.As(err, &ie), "ids %v", ids)
		assert.Equal(t, 2, ie.Len)
		assert.Nil(t, batch.Y)
	}
}

func TestTargetLabelTransform_EmptyBatch(t *testing.T) {
	tr := NewTargetLabelTransform([]int64{1})

	b, err := tr.Apply(hetero.NewBatch(nil, nil, nil))
	require.NoError(t, err)

	y, ok := Y[int64](b)
	require.True(t, ok)
	assert.Empty(t, y)
	assert.Equal(t, 1, tr.Len())
}
