// Package sampler generates the time windows that bound temporal sampling.
package sampler

import (
	"math"
	"time"

	"github.com/jakubpeleska/relbench/pkg/core"
)

// RollingWindows returns windows of windowSize seconds whose offsets start at
// start and advance by stride seconds. A window is included while its offset
// is strictly before end - windowSize, so no window reaches end. Offsets and
// cutoffs are truncated to the second and expressed in UTC.
func RollingWindows(start, end time.Time, windowSize, stride int64) ([]core.TimeWindow, error) {
	if stride <= 0 {
		return nil, &core.ValueError{Param: "stride", Reason: "must be positive"}
	}
	if windowSize < 0 {
		return nil, &core.ValueError{Param: "window_size", Reason: "must not be negative"}
	}

	windows := []core.TimeWindow{}
	if end.Unix() < math.MinInt64+windowSize {
		return windows, nil
	}
	first := start.Unix()
	bound := end.Unix() - windowSize

	for offset := first; offset < bound; offset += stride {
		windows = append(windows, core.TimeWindow{
			Offset: time.Unix(offset, 0).UTC(),
			Cutoff: time.Unix(offset+windowSize, 0).UTC(),
		})
		// the next offset would overflow past bound
		if offset > math.MaxInt64-stride {
			break
		}
	}
	return windows, nil
}

// OneWindow returns the single window [start, start+windowSize), with start
// in unix seconds.
func OneWindow(start int64, windowSize int64) []core.TimeWindow {
	return []core.TimeWindow{{
		Offset: time.Unix(start, 0).UTC(),
		Cutoff: time.Unix(start+windowSize, 0).UTC(),
	}}
}

// Offsets returns the window offsets as unix seconds.
func Offsets(windows []core.TimeWindow) []int64 {
	out := make([]int64, len(windows))
	for i, w := range windows {
		out[i] = w.Offset.Unix()
	}
	return out
}

// Cutoffs returns the window cutoffs as unix seconds.
func Cutoffs(windows []core.TimeWindow) []int64 {
	out := make([]int64, len(windows))
	for i, w := range windows {
		out[i] = w.Cutoff.Unix()
	}
	return out
}
