package timing

import "time"

// Grid is the fixed cadence phase + k*Interval that synthetic vsync ticks
// land on. Computing every tick from Phase keeps timer latency from
// accumulating across frames.
type Grid struct {
	Phase    time.Time
	Interval time.Duration
}

// NewGrid anchors a grid at phase.
func NewGrid(phase time.Time, interval time.Duration) Grid {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Grid{Phase: phase, Interval: interval}
}

func (g Grid) interval() time.Duration {
	if g.Interval <= 0 {
		return DefaultInterval
	}
	return g.Interval
}

// Index returns floor((t - Phase) / Interval), so instants before the
// phase get negative indices.
func (g Grid) Index(t time.Time) int64 {
	interval := g.interval()
	elapsed := t.Sub(g.Phase)
	k := int64(elapsed / interval)
	if elapsed%interval < 0 {
		k--
	}
	return k
}

// At returns the k-th tick of the grid.
func (g Grid) At(k int64) time.Time {
	return g.Phase.Add(time.Duration(k) * g.interval())
}

// Next returns the first tick strictly after now. A now that sits exactly
// on a tick maps to the following one.
func (g Grid) Next(now time.Time) time.Time {
	return g.At(g.Index(now) + 1)
}
