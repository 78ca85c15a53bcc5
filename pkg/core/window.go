package core

import "time"

// TimeWindow is the half-open interval [Offset, Cutoff) bounding one round
// of temporal sampling.
type TimeWindow struct {
	Offset time.Time
	Cutoff time.Time
}

// Size returns the window length.
func (w TimeWindow) Size() time.Duration {
	return w.Cutoff.Sub(w.Offset)
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Offset) && t.Before(w.Cutoff)
}
