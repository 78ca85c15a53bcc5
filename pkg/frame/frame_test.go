package frame

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializer_Materialize(t *testing.T) {
	tbl := &core.Table{
		Name: "products",
		Columns: []*core.Column{
			{Name: "price", DType: core.DTypeFloat, Values: []any{1.5, nil, 3.0}},
			{Name: "in_stock", DType: core.DTypeBool, Values: []any{true, false, true}},
			{Name: "category", DType: core.DTypeString, Values: []any{"toys", "books", "toys"}},
			{Name: "brand", DType: core.DTypeString, Values: []any{nil, "acme", "acme"}},
			{Name: "added", DType: core.DTypeTimestamp, Values: []any{time.Unix(10, 0), nil, time.Unix(30, 0)}},
		},
	}

	payload, err := NewMaterializer().Materialize(tbl)
	require.NoError(t, err)

	tf, ok := payload.(*TensorFrame)
	require.True(t, ok)

	assert.Equal(t, 3, tf.NumRows())
	assert.Equal(t, 5, tf.NumCols())
	assert.Equal(t, []string{"price", "in_stock"}, tf.ColNames[STypeNumerical])
	assert.Equal(t, []string{"category", "brand"}, tf.ColNames[STypeCategorical])
	assert.Equal(t, []string{"added"}, tf.ColNames[STypeTimestamp])

	assert.Equal(t, 1.5, tf.Numerical[0][0])
	assert.True(t, math.IsNaN(tf.Numerical[1][0]))
	assert.Equal(t, []float64{3.0, 1}, tf.Numerical[2])

	assert.Equal(t, [][]int64{{0, MissingCategory}, {1, 0}, {0, 0}}, tf.Categorical)
	assert.Equal(t, []string{"toys", "books"}, tf.Vocab["category"])
	assert.Equal(t, []string{"acme"}, tf.Vocab["brand"])

	assert.Equal(t, [][]int64{{10}, {MissingTimestamp}, {30}}, tf.Timestamp)
}

func TestMaterializer_EmptyTable(t *testing.T) {
	payload, err := NewMaterializer().Materialize(&core.Table{Name: "empty"})
	require.NoError(t, err)
	assert.Equal(t, 0, payload.NumRows())
}

func TestMaterializer_ConversionErrors(t *testing.T) {
	tests := []struct {
		name string
		col  *core.Column
	}{
		{
			name: "bytes dtype",
			col:  &core.Column{Name: "blob", DType: core.DTypeBytes, Values: []any{[]byte("x")}},
		},
		{
			name: "unknown dtype",
			col:  &core.Column{Name: "geom", DType: core.DTypeUnknown, Values: []any{"POINT(0 0)"}},
		},
		{
			name: "string in numeric column",
			col:  &core.Column{Name: "qty", DType: core.DTypeInt, Values: []any{"three"}},
		},
		{
			name: "number in categorical column",
			col:  &core.Column{Name: "tag", DType: core.DTypeString, Values: []any{int64(3)}},
		},
		{
			name: "string in timestamp column",
			col:  &core.Column{Name: "at", DType: core.DTypeTimestamp, Values: []any{"yesterday"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := &core.Table{Name: "t", Columns: []*core.Column{tt.col}}

			_, err := NewMaterializer().Materialize(tbl)

			var fce *core.FeatureConversionError
			require.True(t, errors.As(err, &fce), "got %v", err)
			assert.Equal(t, "t", fce.Table)
			assert.Equal(t, tt.col.Name, fce.Column)
		})
	}
}
