package vsync

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/valerio/go-vsync/vsync/runner"
)

// Source is a platform provider of real vblank events.
type Source interface {
	// RequestVsync arms a one-shot delivery of the next vblank. fire may be
	// called on any goroutine, including before RequestVsync returns.
	// withdraw, when not nil, drops the request if it has not fired yet and
	// reports whether it did.
	RequestVsync(fire func(frameStart, frameTarget time.Time)) (withdraw func() bool, err error)
}

// SignalWaiter relays the vblank events of a platform Source. Deliveries
// arrive on whatever goroutine the source uses and are marshalled onto the
// runner before the callback runs.
type SignalWaiter struct {
	slot   waitSlot
	runner *runner.TaskRunner
	source Source
}

var _ Waiter = (*SignalWaiter)(nil)

func NewSignalWaiter(r *runner.TaskRunner, src Source) *SignalWaiter {
	return &SignalWaiter{
		runner: r,
		source: src,
	}
}

func (w *SignalWaiter) AsyncWaitForVsync(cb Callback) error {
	gen, err := w.slot.arm(cb)
	if err != nil {
		return err
	}

	withdraw, err := w.source.RequestVsync(func(frameStart, frameTarget time.Time) {
		err := w.runner.PostTask(func() {
			w.fire(gen, frameStart, frameTarget)
		})
		if err != nil {
			w.slot.release(gen)
			slog.Debug("Dropping platform vsync", "error", err)
		}
	})
	if err != nil {
		w.slot.release(gen)
		return fmt.Errorf("vsync: requesting platform vsync: %w", err)
	}
	w.slot.setCancel(gen, withdraw)
	return nil
}

func (w *SignalWaiter) fire(gen uint64, frameStart, frameTarget time.Time) {
	cb := w.slot.take(gen)
	if cb == nil {
		slog.Debug("Dropping stale platform vsync", "frame_start", frameStart)
		return
	}
	cb(frameStart, frameTarget)
}

// Pending reports whether a wait is armed and has not fired yet.
func (w *SignalWaiter) Pending() bool {
	return w.slot.pending()
}

// Close drops a pending callback and withdraws its request from the source,
// so the source can serve another waiter. The source itself is owned by the
// caller.
func (w *SignalWaiter) Close() error {
	w.slot.close()
	return nil
}
