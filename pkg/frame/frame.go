// Package frame provides the default tabularization step: it turns the
// feature columns of a table into a TensorFrame of numeric arrays grouped by
// semantic type.
package frame

import (
	"fmt"
	"math"
	"time"

	"github.com/jakubpeleska/relbench/pkg/core"
)

// SType is the semantic type a column is encoded as.
type SType string

// Semantic types.
const (
	STypeNumerical   SType = "numerical"
	STypeCategorical SType = "categorical"
	STypeTimestamp   SType = "timestamp"
)

// MissingTimestamp marks a null entry in a timestamp feature.
const MissingTimestamp = math.MinInt64

// MissingCategory marks a null entry in a categorical feature.
const MissingCategory = -1

// TensorFrame is the materialized feature payload of one table.
// Each feature matrix is row-major with one column per feature column.
type TensorFrame struct {
	numRows int

	// Numerical holds float features; nulls are NaN.
	Numerical [][]float64
	// Categorical holds category codes; nulls are MissingCategory.
	Categorical [][]int64
	// Timestamp holds unix seconds; nulls are MissingTimestamp.
	Timestamp [][]int64

	// ColNames lists the source columns per semantic type, in matrix order.
	ColNames map[SType][]string
	// Vocab maps a categorical column to its categories, indexed by code.
	Vocab map[string][]string
}

// NumRows returns the number of rows.
func (tf *TensorFrame) NumRows() int {
	return tf.numRows
}

// NumCols returns the total number of encoded feature columns.
func (tf *TensorFrame) NumCols() int {
	n := 0
	for _, names := range tf.ColNames {
		n += len(names)
	}
	return n
}

// Materializer is the default core.Materializer.
type Materializer struct{}

// NewMaterializer creates a new materializer.
func NewMaterializer() *Materializer {
	return &Materializer{}
}

// Materialize encodes every column of t. The table is not modified.
func (m *Materializer) Materialize(t *core.Table) (core.FeaturePayload, error) {
	n := t.NumRows()
	tf := &TensorFrame{
		numRows:     n,
		Numerical:   makeRows[float64](n),
		Categorical: makeRows[int64](n),
		Timestamp:   makeRows[int64](n),
		ColNames:    make(map[SType][]string),
		Vocab:       make(map[string][]string),
	}

	for _, col := range t.Columns {
		stype, err := InferSType(col.DType)
		if err != nil {
			return nil, &core.FeatureConversionError{Table: t.Name, Column: col.Name, DType: col.DType, Err: err}
		}

		switch stype {
		case STypeNumerical:
			vals, err := encodeNumerical(col)
			if err != nil {
				return nil, &core.FeatureConversionError{Table: t.Name, Column: col.Name, DType: col.DType, Err: err}
			}
			appendColumn(tf.Numerical, vals)
		case STypeCategorical:
			codes, vocab, err := encodeCategorical(col)
			if err != nil {
				return nil, &core.FeatureConversionError{Table: t.Name, Column: col.Name, DType: col.DType, Err: err}
			}
			appendColumn(tf.Categorical, codes)
			tf.Vocab[col.Name] = vocab
		case STypeTimestamp:
			secs, err := encodeTimestamp(col)
			if err != nil {
				return nil, &core.FeatureConversionError{Table: t.Name, Column: col.Name, DType: col.DType, Err: err}
			}
			appendColumn(tf.Timestamp, secs)
		}
		tf.ColNames[stype] = append(tf.ColNames[stype], col.Name)
	}

	return tf, nil
}

// InferSType maps a logical dtype to the semantic type it is encoded as.
func InferSType(dt core.DType) (SType, error) {
	switch dt {
	case core.DTypeInt, core.DTypeFloat, core.DTypeBool:
		return STypeNumerical, nil
	case core.DTypeString:
		return STypeCategorical, nil
	case core.DTypeTimestamp:
		return STypeTimestamp, nil
	default:
		return "", fmt.Errorf("unsupported dtype %q", dt)
	}
}

func makeRows[T any](n int) [][]T {
	rows := make([][]T, n)
	for i := range rows {
		rows[i] = []T{}
	}
	return rows
}

func appendColumn[T any](rows [][]T, vals []T) {
	for i := range rows {
		rows[i] = append(rows[i], vals[i])
	}
}

func encodeNumerical(col *core.Column) ([]float64, error) {
	out := make([]float64, col.Len())
	for i, v := range col.Values {
		switch x := v.(type) {
		case nil:
			out[i] = math.NaN()
		case bool:
			if x {
				out[i] = 1
			}
		case int:
			out[i] = float64(x)
		case int8:
			out[i] = float64(x)
		case int16:
			out[i] = float64(x)
		case int32:
			out[i] = float64(x)
		case int64:
			out[i] = float64(x)
		case uint8:
			out[i] = float64(x)
		case uint16:
			out[i] = float64(x)
		case uint32:
			out[i] = float64(x)
		case uint64:
			out[i] = float64(x)
		case float32:
			out[i] = float64(x)
		case float64:
			out[i] = x
		default:
			return nil, fmt.Errorf("row %d: value of type %T is not numeric", i, v)
		}
	}
	return out, nil
}

func encodeCategorical(col *core.Column) ([]int64, []string, error) {
	out := make([]int64, col.Len())
	codes := make(map[string]int64)
	var vocab []string
	for i, v := range col.Values {
		var s string
		switch x := v.(type) {
		case nil:
			out[i] = MissingCategory
			continue
		case string:
			s = x
		case []byte:
			s = string(x)
		default:
			return nil, nil, fmt.Errorf("row %d: value of type %T is not a string", i, v)
		}
		code, ok := codes[s]
		if !ok {
			code = int64(len(vocab))
			codes[s] = code
			vocab = append(vocab, s)
		}
		out[i] = code
	}
	return out, vocab, nil
}

func encodeTimestamp(col *core.Column) ([]int64, error) {
	out := make([]int64, col.Len())
	for i, v := range col.Values {
		switch x := v.(type) {
		case nil:
			out[i] = MissingTimestamp
		case time.Time:
			out[i] = x.Unix()
		case int64:
			out[i] = x
		default:
			return nil, fmt.Errorf("row %d: value of type %T is not a timestamp", i, v)
		}
	}
	return out, nil
}

// Ensure Materializer implements core.Materializer
var _ core.Materializer = (*Materializer)(nil)
