package sampler

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingWindows(t *testing.T) {
	tests := []struct {
		name        string
		start, end  int64
		size        int64
		stride      int64
		wantOffsets []int64
	}{
		{
			name:        "overlapping windows stop before the bound",
			start:       0,
			end:         100,
			size:        20,
			stride:      10,
			wantOffsets: []int64{0, 10, 20, 30, 40, 50, 60, 70},
		},
		{
			name:        "stride equals size",
			start:       0,
			end:         100,
			size:        25,
			stride:      25,
			wantOffsets: []int64{0, 25, 50},
		},
		{
			name:        "gapped windows",
			start:       1000,
			end:         1100,
			size:        10,
			stride:      40,
			wantOffsets: []int64{1000, 1040, 1080},
		},
		{
			name:        "window equals range",
			start:       0,
			end:         100,
			size:        100,
			stride:      10,
			wantOffsets: []int64{},
		},
		{
			name:        "window exceeds range",
			start:       0,
			end:         100,
			size:        150,
			stride:      10,
			wantOffsets: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RollingWindows(time.Unix(tt.start, 0), time.Unix(tt.end, 0), tt.size, tt.stride)
			require.NoError(t, err)

			assert.Equal(t, tt.wantOffsets, Offsets(got))
			for _, w := range got {
				assert.Equal(t, time.Duration(tt.size)*time.Second, w.Size())
				assert.True(t, w.Offset.Unix() < tt.end-tt.size)
				assert.Equal(t, time.UTC, w.Offset.Location())
			}
		})
	}
}

func TestRollingWindows_ExactPairs(t *testing.T) {
	got, err := RollingWindows(time.Unix(0, 0), time.Unix(100, 0), 20, 10)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 10, 20, 30, 40, 50, 60, 70}, Offsets(got))
	assert.Equal(t, []int64{20, 30, 40, 50, 60, 70, 80, 90}, Cutoffs(got))
}

func TestRollingWindows_SecondPrecision(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 750_000_000, time.FixedZone("X", 7200))
	end := start.Add(time.Hour)

	got, err := RollingWindows(start, end, 600, 600)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	assert.Equal(t, 0, got[0].Offset.Nanosecond())
	assert.Equal(t, time.Date(2023, 12, 31, 22, 0, 0, 0, time.UTC), got[0].Offset)
}

func TestRollingWindows_HugeStride(t *testing.T) {
	got, err := RollingWindows(time.Unix(1, 0), time.Unix(100, 0), 20, math.MaxInt64)
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, Offsets(got))
	assert.Equal(t, []int64{21}, Cutoffs(got))

	got, err = RollingWindows(time.Unix(0, 0), time.Unix(100, 0), 20, math.MaxInt64/2+1)
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, Offsets(got))
}

func TestRollingWindows_HugeWindow(t *testing.T) {
	got, err := RollingWindows(time.Unix(-100, 0), time.Unix(-10, 0), math.MaxInt64, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRollingWindows_InvalidArgs(t *testing.T) {
	tests := []struct {
		name   string
		size   int64
		stride int64
		param  string
	}{
		{"zero stride", 10, 0, "stride"},
		{"negative stride", 10, -5, "stride"},
		{"negative window", -1, 5, "window_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RollingWindows(time.Unix(0, 0), time.Unix(100, 0), tt.size, tt.stride)
			var ve *core.ValueError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.param, ve.Param)
		})
	}
}

func TestOneWindow(t *testing.T) {
	got := OneWindow(100, 20)

	require.Len(t, got, 1)
	assert.Equal(t, []int64{100}, Offsets(got))
	assert.Equal(t, []int64{120}, Cutoffs(got))
}
