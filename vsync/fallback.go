package vsync

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/valerio/go-vsync/vsync/runner"
	"github.com/valerio/go-vsync/vsync/timing"
)

// FallbackWaiter synthesizes vsync ticks when the platform has no vblank
// signal. Ticks land on the grid phase + k*interval, where phase is the
// instant the waiter was created, so a late timer never shifts later ticks.
//
// One FallbackWaiter belongs to one engine; it is never copied or shared.
type FallbackWaiter struct {
	slot   waitSlot
	runner *runner.TaskRunner
	clock  clock.Clock
	grid   timing.Grid
}

var _ Waiter = (*FallbackWaiter)(nil)

// NewFallbackWaiter anchors the tick grid at the runner clock's current time.
// A non-positive interval selects timing.DefaultInterval.
func NewFallbackWaiter(r *runner.TaskRunner, interval time.Duration) *FallbackWaiter {
	clk := r.Clock()
	return &FallbackWaiter{
		runner: r,
		clock:  clk,
		grid:   timing.NewGrid(clk.Now(), interval),
	}
}

// Phase is the anchor instant of the tick grid.
func (w *FallbackWaiter) Phase() time.Time {
	return w.grid.Phase
}

// Interval is the spacing between synthetic ticks.
func (w *FallbackWaiter) Interval() time.Duration {
	return w.grid.Interval
}

// AsyncWaitForVsync schedules cb for the first grid tick strictly after now.
func (w *FallbackWaiter) AsyncWaitForVsync(cb Callback) error {
	gen, err := w.slot.arm(cb)
	if err != nil {
		return err
	}

	now := w.clock.Now()
	next := w.grid.Next(now)

	task, err := w.runner.PostDelayedTask(next.Sub(now), func() {
		w.fire(gen, next)
	})
	if err != nil {
		w.slot.release(gen)
		return fmt.Errorf("vsync: scheduling fallback tick: %w", err)
	}
	w.slot.setCancel(gen, task.Cancel)
	return nil
}

func (w *FallbackWaiter) fire(gen uint64, tick time.Time) {
	cb := w.slot.take(gen)
	if cb == nil {
		slog.Debug("Dropping stale fallback tick", "tick", tick)
		return
	}
	cb(tick, tick.Add(w.grid.Interval))
}

// Close drops a pending callback and stops its timer. A timer that fires
// anyway finds nothing to deliver.
func (w *FallbackWaiter) Close() error {
	w.slot.close()
	return nil
}

// Pending reports whether a wait is armed and has not fired yet.
func (w *FallbackWaiter) Pending() bool {
	return w.slot.pending()
}
