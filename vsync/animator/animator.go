// Package animator turns vsync callbacks into a stream of numbered frames.
package animator

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/valerio/go-vsync/vsync"
	"github.com/valerio/go-vsync/vsync/runner"
	"github.com/valerio/go-vsync/vsync/timing"
)

// FrameFunc produces a frame. It runs on the animator's runner goroutine.
type FrameFunc func(Frame)

// Animator asks its waiter for a vsync whenever a frame is requested and
// hands the resulting frame to onFrame. Requests made while a wait is
// outstanding coalesce into that wait. The exported methods may be called
// from any goroutine; all state lives on the runner goroutine.
type Animator struct {
	runner  *runner.TaskRunner
	waiter  vsync.Waiter
	onFrame FrameFunc
	metrics *Metrics
	stats   *timing.FrameStats
	clock   clock.Clock

	requested   bool
	awaiting    bool
	paused      bool
	stopped     bool
	frameNumber uint64
	lastStart   time.Time
}

// New binds an animator to a runner and a waiter delivering on that runner.
func New(r *runner.TaskRunner, w vsync.Waiter, onFrame FrameFunc, m *Metrics) *Animator {
	if m == nil {
		m = NopMetrics()
	}
	return &Animator{
		runner:  r,
		waiter:  w,
		onFrame: onFrame,
		metrics: m,
		stats:   timing.NewFrameStats(),
		clock:   r.Clock(),
	}
}

// RequestFrame asks for a frame at the next vsync.
func (a *Animator) RequestFrame() {
	a.post(func() {
		if a.stopped {
			return
		}
		a.requested = true
		a.awaitVsync()
	})
}

// Pause stops producing frames. A pending request is kept for Resume.
func (a *Animator) Pause() {
	a.post(func() {
		if a.paused || a.stopped {
			return
		}
		a.paused = true
		a.metrics.Paused.Set(1)
		slog.Debug("Animator paused", "frame", a.frameNumber)
	})
}

// Resume restarts frame production, re-arming a request made while paused.
func (a *Animator) Resume() {
	a.post(func() {
		if !a.paused || a.stopped {
			return
		}
		a.paused = false
		a.metrics.Paused.Set(0)
		slog.Debug("Animator resumed", "frame", a.frameNumber)
		a.awaitVsync()
	})
}

// Stop ends frame production for good. A wait still outstanding is left to
// the waiter's owner to close.
func (a *Animator) Stop() {
	a.post(func() {
		a.stopped = true
		a.requested = false
	})
}

// Stats summarizes delivered frames. Call it on the runner goroutine.
func (a *Animator) Stats() timing.Stats {
	return a.stats.Snapshot()
}

func (a *Animator) post(task func()) {
	if err := a.runner.PostTask(task); err != nil {
		slog.Debug("Dropping animator task", "error", err)
	}
}

func (a *Animator) awaitVsync() {
	if a.stopped || a.paused || a.awaiting || !a.requested {
		return
	}

	if err := a.waiter.AsyncWaitForVsync(a.onVsync); err != nil {
		a.metrics.WaitErrors.Add(1)
		slog.Warn("Failed to wait for vsync", "error", err)
		return
	}
	a.awaiting = true
}

func (a *Animator) onVsync(frameStart, frameTarget time.Time) {
	a.awaiting = false
	if a.stopped || a.paused {
		return
	}
	a.requested = false

	a.frameNumber++
	frame := Frame{
		Number:    a.frameNumber,
		Start:     frameStart,
		Target:    frameTarget,
		Delivered: a.clock.Now(),
		Skipped:   skippedTicks(a.lastStart, frameStart, frameTarget.Sub(frameStart)),
	}
	a.lastStart = frameStart

	a.stats.Observe(frame.Start, frame.Delivered)
	a.metrics.Frames.Add(1)
	if frame.Skipped > 0 {
		a.metrics.SkippedFrames.Add(float64(frame.Skipped))
	}
	a.metrics.FrameLatenessSeconds.Observe(frame.Lateness().Seconds())

	a.onFrame(frame)
}
