package timeutil

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUnixTime(t *testing.T) {
	want := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	withNanos := time.Date(2021, 3, 4, 5, 6, 7, 999, time.UTC)
	inZone := want.In(time.FixedZone("CET", 3600))

	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"rfc3339 string", "2021-03-04T05:06:07Z", want},
		{"sql datetime string", "2021-03-04 05:06:07", want},
		{"fractional seconds string", "2021-03-04 05:06:07.250", want},
		{"date only", "2021-03-04", time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"time value", withNanos, want},
		{"time in other zone", inZone, want},
		{"time pointer", &withNanos, want},
		{"unix seconds", want.Unix(), want},
		{"unix seconds float", float64(want.Unix()) + 0.5, want},
		{"nil", nil, nil},
		{"empty string", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToUnixTime([]any{tt.input})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestToUnixTime_Idempotent(t *testing.T) {
	input := []any{
		"2020-01-01 10:00:00.123",
		time.Date(2019, 6, 1, 0, 0, 0, 5, time.Local),
		int64(1700000000),
		nil,
	}

	once, err := ToUnixTime(input)
	require.NoError(t, err)
	twice, err := ToUnixTime(once)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestToUnixTime_DoesNotMutateInput(t *testing.T) {
	input := []any{"2020-01-01", nil}

	_, err := ToUnixTime(input)
	require.NoError(t, err)

	assert.Equal(t, []any{"2020-01-01", nil}, input)
}

func TestToUnixTime_ParseError(t *testing.T) {
	_, err := ToUnixTime([]any{"2020-01-01", "not a timestamp"})
	require.Error(t, err)

	var pe *core.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Row)
	assert.Equal(t, "not a timestamp", pe.Value)
}

func TestToUnixTime_UnsupportedType(t *testing.T) {
	_, err := ToUnixTime([]any{struct{}{}})

	var pe *core.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 0, pe.Row)
}

func TestNormalize_IntegerWidths(t *testing.T) {
	want := time.Unix(120, 0).UTC()

	for _, v := range []any{
		int(120), int8(120), int16(120), int32(120), int64(120),
		uint(120), uint8(120), uint16(120), uint32(120), uint64(120),
		float32(120.75), float64(120.75),
	} {
		t.Run(fmt.Sprintf("%T", v), func(t *testing.T) {
			got, ok, err := Normalize(v)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalize_NullsAndRange(t *testing.T) {
	_, ok, err := Normalize(float32(math.NaN()))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = Normalize(uint64(math.MaxInt64) + 1)
	assert.ErrorContains(t, err, "out of range")

	got, err := ToUnixTime([]any{uint32(10), int16(-5)})
	require.NoError(t, err)
	assert.Equal(t, []any{time.Unix(10, 0).UTC(), time.Unix(-5, 0).UTC()}, got)
}

func TestUnixSeconds(t *testing.T) {
	got, err := UnixSeconds([]any{"1970-01-01 00:00:10", int64(20), time.Unix(30, 0)})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, got)

	_, err = UnixSeconds([]any{int64(1), nil})
	var pe *core.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Row)
}
