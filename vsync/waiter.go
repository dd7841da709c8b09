// Package vsync lets a rendering pipeline wait for the next display refresh.
//
// A Waiter delivers exactly one callback per AsyncWaitForVsync request, on the
// runner goroutine it is bound to. Two strategies exist: SignalWaiter relays a
// platform Source of real vblank events, FallbackWaiter synthesizes ticks on a
// fixed phase grid from a one-shot timer. The pipeline only sees the Waiter
// interface and does not know which one it got.
package vsync

import (
	"errors"
	"time"

	"github.com/valerio/go-vsync/vsync/runner"
)

var (
	// ErrWaitPending is returned when a wait is requested while another one
	// has not fired yet. The pending callback is left untouched.
	ErrWaitPending = errors.New("vsync: wait already pending")
	// ErrNilCallback is returned when AsyncWaitForVsync is given a nil callback.
	ErrNilCallback = errors.New("vsync: nil callback")
	// ErrWaiterClosed is returned by AsyncWaitForVsync after Close.
	ErrWaiterClosed = errors.New("vsync: waiter closed")
	// ErrSourceClosed is returned by a Source that no longer delivers signals.
	ErrSourceClosed = errors.New("vsync: source closed")
)

// Callback receives the instant a vsync occurred and the estimated instant
// of the one after it, which is the deadline for the frame being produced.
type Callback func(frameStart, frameTarget time.Time)

// Waiter is the "notify me at the next vsync" capability.
type Waiter interface {
	// AsyncWaitForVsync arms a single future invocation of cb on the
	// waiter's runner and returns immediately. Only one wait may be pending.
	AsyncWaitForVsync(cb Callback) error

	// Close drops any pending callback without invoking it. Closing twice,
	// or closing an idle waiter, has no further effect.
	Close() error
}

// NewWaiter picks the strategy for an engine: a SignalWaiter when a platform
// source is available, otherwise a FallbackWaiter ticking every interval.
func NewWaiter(r *runner.TaskRunner, src Source, interval time.Duration) Waiter {
	if src != nil {
		return NewSignalWaiter(r, src)
	}
	return NewFallbackWaiter(r, interval)
}
