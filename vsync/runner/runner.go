package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

var (
	// ErrAlreadyStarted is returned by Start on a runner that was started before.
	ErrAlreadyStarted = errors.New("runner: already started")
	// ErrStopped is returned when posting to a runner that has been stopped.
	ErrStopped = errors.New("runner: stopped")
	// ErrNilTask is returned when posting a nil task.
	ErrNilTask = errors.New("runner: nil task")
)

type runnerState int

const (
	stateIdle runnerState = iota
	stateRunning
	stateStopped
)

// TaskRunner executes posted tasks one at a time, in posting order, on a
// single goroutine. Everything bound to a runner (waiters, animators) keeps
// its mutable state confined to that goroutine.
type TaskRunner struct {
	name  string
	clock clock.Clock

	mu    sync.Mutex
	state runnerState
	queue []func()
	spare []func()

	wake    chan struct{}
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New creates a runner. Tasks may be posted before Start; they run once the
// loop is started. A nil clock selects the wall clock.
func New(name string, clk clock.Clock) *TaskRunner {
	if clk == nil {
		clk = clock.New()
	}
	return &TaskRunner{
		name:    name,
		clock:   clk,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

func (r *TaskRunner) Name() string {
	return r.name
}

// Clock returns the clock delayed tasks are scheduled against.
func (r *TaskRunner) Clock() clock.Clock {
	return r.clock
}

// Start launches the loop goroutine. Cancelling ctx has the same effect as Stop.
func (r *TaskRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateIdle {
		return ErrAlreadyStarted
	}
	r.state = stateRunning

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	slog.Debug("Starting task runner", "runner", r.name)
	go r.loop(loopCtx)

	// drain anything posted before Start
	r.signal()
	return nil
}

// Stop ends the loop and waits for the running task, if any, to finish.
// Tasks still queued are dropped. Safe to call more than once and on a nil
// runner.
func (r *TaskRunner) Stop() {
	if r == nil {
		return
	}

	r.mu.Lock()
	switch r.state {
	case stateIdle:
		r.state = stateStopped
		dropped := len(r.queue)
		r.queue = nil
		r.mu.Unlock()
		close(r.stopped)
		if dropped > 0 {
			slog.Debug("Task runner stopped before start", "runner", r.name, "dropped_tasks", dropped)
		}
		return
	case stateStopped:
		r.mu.Unlock()
		<-r.stopped
		return
	}
	r.state = stateStopped
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	<-r.stopped
}

// Done is closed once the loop has exited.
func (r *TaskRunner) Done() <-chan struct{} {
	return r.stopped
}

// PostTask queues task to run on the runner goroutine.
func (r *TaskRunner) PostTask(task func()) error {
	if task == nil {
		return ErrNilTask
	}

	r.mu.Lock()
	if r.state == stateStopped {
		r.mu.Unlock()
		return ErrStopped
	}
	r.queue = append(r.queue, task)
	r.mu.Unlock()

	r.signal()
	return nil
}

// DelayedTask is a handle to a task scheduled with PostDelayedTask.
type DelayedTask struct {
	timer *clock.Timer
}

// Cancel prevents the task from being posted. It reports false if the
// delay has already elapsed; the task may then still run.
func (d *DelayedTask) Cancel() bool {
	if d == nil || d.timer == nil {
		return false
	}
	return d.timer.Stop()
}

// PostDelayedTask posts task to the runner once delay has elapsed on the
// runner's clock. If the runner stops in the meantime the task is dropped.
func (r *TaskRunner) PostDelayedTask(delay time.Duration, task func()) (*DelayedTask, error) {
	if task == nil {
		return nil, ErrNilTask
	}

	r.mu.Lock()
	stopped := r.state == stateStopped
	r.mu.Unlock()
	if stopped {
		return nil, ErrStopped
	}

	if delay < 0 {
		delay = 0
	}

	timer := r.clock.AfterFunc(delay, func() {
		if err := r.PostTask(task); err != nil {
			slog.Debug("Dropping delayed task", "runner", r.name, "error", err)
		}
	})
	return &DelayedTask{timer: timer}, nil
}

// RunSync posts task and blocks until it has run or ctx is done. It must not
// be called from the runner goroutine itself.
func (r *TaskRunner) RunSync(ctx context.Context, task func()) error {
	if task == nil {
		return ErrNilTask
	}

	done := make(chan struct{})
	err := r.PostTask(func() {
		defer close(done)
		task()
	})
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-r.stopped:
		// the task may have been the last one to run before the loop exited
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *TaskRunner) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *TaskRunner) loop(ctx context.Context) {
	defer close(r.stopped)

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.state = stateStopped
			dropped := len(r.queue)
			r.queue = nil
			r.mu.Unlock()

			slog.Debug("Task runner stopped", "runner", r.name, "dropped_tasks", dropped)
			return
		case <-r.wake:
			r.drain(ctx)
		}
	}
}

// drain swaps the queue out under the lock and runs the batch without it,
// so tasks can post follow-up tasks freely.
func (r *TaskRunner) drain(ctx context.Context) {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.mu.Unlock()
			return
		}
		batch := r.queue
		r.queue = r.spare[:0]
		r.spare = nil
		r.mu.Unlock()

		for i, task := range batch {
			if ctx.Err() != nil {
				// requeue the remainder so the stop path can count it
				r.mu.Lock()
				r.queue = append(batch[i:len(batch):len(batch)], r.queue...)
				r.mu.Unlock()
				return
			}
			task()
			batch[i] = nil
		}

		r.mu.Lock()
		r.spare = batch[:0]
		r.mu.Unlock()
	}
}
