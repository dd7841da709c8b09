package timing

import (
	"log/slog"
	"time"
)

// statsLogInterval is how many frames pass between debug summaries.
const statsLogInterval = 60

// Stats is a point-in-time summary of delivered frames.
type Stats struct {
	Frames       int64
	MeanLateness time.Duration
	MaxLateness  time.Duration
	FPS          float64
}

// FrameStats tracks how late frames are delivered relative to the vsync
// instant they were scheduled for, and the effective frame rate.
// Not safe for concurrent use; callers keep it on a single goroutine.
type FrameStats struct {
	frameCounter  int64
	totalLateness time.Duration
	maxLateness   time.Duration
	firstStart    time.Time
	lastStart     time.Time
}

func NewFrameStats() *FrameStats {
	return &FrameStats{}
}

// Observe records one frame that was scheduled for frameStart and delivered
// at delivered.
func (s *FrameStats) Observe(frameStart, delivered time.Time) {
	lateness := delivered.Sub(frameStart)
	if lateness < 0 {
		lateness = 0
	}

	if s.frameCounter == 0 {
		s.firstStart = frameStart
	}
	s.lastStart = frameStart
	s.frameCounter++
	s.totalLateness += lateness
	if lateness > s.maxLateness {
		s.maxLateness = lateness
	}

	if s.frameCounter%statsLogInterval == 0 {
		snap := s.Snapshot()
		slog.Debug("Frame timing",
			"frames", snap.Frames,
			"mean_lateness_us", snap.MeanLateness.Microseconds(),
			"max_lateness_us", snap.MaxLateness.Microseconds(),
			"fps", snap.FPS)
	}
}

// Snapshot returns the current summary.
func (s *FrameStats) Snapshot() Stats {
	if s.frameCounter == 0 {
		return Stats{}
	}

	stats := Stats{
		Frames:       s.frameCounter,
		MeanLateness: s.totalLateness / time.Duration(s.frameCounter),
		MaxLateness:  s.maxLateness,
	}
	if span := s.lastStart.Sub(s.firstStart); span > 0 && s.frameCounter > 1 {
		stats.FPS = float64(s.frameCounter-1) * float64(time.Second) / float64(span)
	}
	return stats
}

func (s *FrameStats) Reset() {
	*s = FrameStats{}
}
