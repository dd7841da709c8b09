package timing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-vsync/vsync/timing"
	"pgregory.net/rapid"
)

func TestFrameInterval(t *testing.T) {
	testCases := []struct {
		name string
		hz   float64
		want time.Duration
	}{
		{"60hz", 60, time.Second / 60},
		{"120hz", 120, time.Second / 120},
		{"zero falls back", 0, timing.DefaultInterval},
		{"negative falls back", -30, timing.DefaultInterval},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, timing.FrameInterval(tc.hz))
		})
	}

	assert.InDelta(t, 60.0, timing.RefreshRate(time.Second/60), 0.01)
	assert.Equal(t, timing.DefaultRefreshRate, timing.RefreshRate(0))
}

func TestGridNext(t *testing.T) {
	t0 := time.Unix(1000, 0)
	grid := timing.NewGrid(t0, 16*time.Millisecond)

	testCases := []struct {
		name   string
		offset time.Duration
		want   time.Duration
	}{
		{"at phase targets next tick", 0, 16 * time.Millisecond},
		{"mid interval", 5 * time.Millisecond, 16 * time.Millisecond},
		{"just before tick", 16*time.Millisecond - time.Nanosecond, 16 * time.Millisecond},
		{"exactly on tick", 16 * time.Millisecond, 32 * time.Millisecond},
		{"several intervals in", 50 * time.Millisecond, 64 * time.Millisecond},
		{"before phase", -5 * time.Millisecond, 0},
		{"one interval before phase", -16 * time.Millisecond, 0},
		{"more than one interval before phase", -20 * time.Millisecond, -16 * time.Millisecond},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := grid.Next(t0.Add(tc.offset))
			assert.Equal(t, t0.Add(tc.want), got)
		})
	}
}

func TestGridIndex(t *testing.T) {
	t0 := time.Unix(0, 0)
	grid := timing.NewGrid(t0, 10*time.Millisecond)

	assert.Equal(t, int64(0), grid.Index(t0))
	assert.Equal(t, int64(0), grid.Index(t0.Add(9*time.Millisecond)))
	assert.Equal(t, int64(1), grid.Index(t0.Add(10*time.Millisecond)))
	assert.Equal(t, int64(-1), grid.Index(t0.Add(-1*time.Millisecond)))
	assert.Equal(t, int64(-1), grid.Index(t0.Add(-10*time.Millisecond)))
	assert.Equal(t, int64(-2), grid.Index(t0.Add(-11*time.Millisecond)))
	assert.Equal(t, t0.Add(30*time.Millisecond), grid.At(3))
}

func TestGridZeroIntervalUsesDefault(t *testing.T) {
	grid := timing.Grid{Phase: time.Unix(0, 0)}
	assert.Equal(t, time.Unix(0, 0).Add(timing.DefaultInterval), grid.Next(time.Unix(0, 0)))
}

func TestGridNextProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		intervalNs := rapid.Int64Range(1, int64(time.Second)).Draw(t, "interval").(int64)
		offsetNs := rapid.Int64Range(-int64(time.Hour), int64(time.Hour)).Draw(t, "offset").(int64)

		phase := time.Unix(5000, 0)
		interval := time.Duration(intervalNs)
		grid := timing.NewGrid(phase, interval)
		now := phase.Add(time.Duration(offsetNs))

		next := grid.Next(now)
		delay := next.Sub(now)

		// strictly in the future, never more than one interval away
		require.Greater(t, int64(delay), int64(0))
		require.LessOrEqual(t, int64(delay), int64(interval))
		// on the grid
		require.Equal(t, int64(0), int64(next.Sub(phase)%interval))
		require.Equal(t, grid.Index(now)+1, grid.Index(next))
	})
}
