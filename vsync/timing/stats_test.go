package timing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-vsync/vsync/timing"
)

func TestFrameStats(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		stats := timing.NewFrameStats()
		assert.Equal(t, timing.Stats{}, stats.Snapshot())
	})

	t.Run("lateness and fps", func(t *testing.T) {
		stats := timing.NewFrameStats()
		t0 := time.Unix(0, 0)
		interval := 10 * time.Millisecond

		for i := 0; i < 11; i++ {
			start := t0.Add(time.Duration(i) * interval)
			late := time.Duration(i%2) * 2 * time.Millisecond
			stats.Observe(start, start.Add(late))
		}

		snap := stats.Snapshot()
		assert.Equal(t, int64(11), snap.Frames)
		assert.Equal(t, 2*time.Millisecond, snap.MaxLateness)
		// five late frames out of eleven
		assert.Equal(t, 10*time.Millisecond/11, snap.MeanLateness)
		assert.InDelta(t, 100.0, snap.FPS, 0.001)
	})

	t.Run("early delivery counts as zero lateness", func(t *testing.T) {
		stats := timing.NewFrameStats()
		start := time.Unix(10, 0)
		stats.Observe(start, start.Add(-time.Millisecond))
		assert.Equal(t, time.Duration(0), stats.Snapshot().MaxLateness)
	})

	t.Run("reset", func(t *testing.T) {
		stats := timing.NewFrameStats()
		stats.Observe(time.Unix(0, 0), time.Unix(0, 0))
		stats.Reset()
		assert.Equal(t, timing.Stats{}, stats.Snapshot())
	})
}
