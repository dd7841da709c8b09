// Package engine wires a vsync waiter, an animator and a backend into a
// running frame loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/valerio/go-vsync/vsync"
	"github.com/valerio/go-vsync/vsync/animator"
	"github.com/valerio/go-vsync/vsync/backend"
	glfwsource "github.com/valerio/go-vsync/vsync/platform/glfw"
	sdl2source "github.com/valerio/go-vsync/vsync/platform/sdl2"
	"github.com/valerio/go-vsync/vsync/runner"
	"github.com/valerio/go-vsync/vsync/timing"
)

// Vsync strategies selectable through Config.Source.
const (
	SourceFallback = "fallback"
	SourceSDL2     = "sdl2"
	SourceGLFW     = "glfw"
)

const shutdownTimeout = time.Second

var (
	ErrUnknownSource  = errors.New("engine: unknown vsync source")
	ErrAlreadyRunning = errors.New("engine: already running")
)

// source is a platform vsync source the engine owns.
type source interface {
	vsync.Source
	Close() error
}

type sourceOpener func(title string, nominal time.Duration) (source, error)

// openers maps Config.Source to a constructor. A nil source selects the
// timer fallback.
var openers = map[string]sourceOpener{
	SourceFallback: func(string, time.Duration) (source, error) {
		return nil, nil
	},
	SourceSDL2: func(title string, nominal time.Duration) (source, error) {
		s, err := sdl2source.Open(title, nominal)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
	SourceGLFW: func(title string, nominal time.Duration) (source, error) {
		s, err := glfwsource.Open(title, nominal)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
}

// Config holds the engine settings.
type Config struct {
	Title       string
	Source      string  // one of the Source* constants, empty means fallback
	RefreshRate float64 // Hz, used by the fallback and as the nominal rate of platform sources
	Clock       clock.Clock
	Metrics     *animator.Metrics
}

// Engine runs frames from a single vsync strategy, chosen once at startup,
// into a backend.
type Engine struct {
	cfg     Config
	backend backend.Backend
	open    sourceOpener

	running  bool
	quit     chan struct{}
	quitOnce sync.Once

	mu     sync.Mutex
	paused bool
	anim   *animator.Animator
}

// New validates cfg and creates an engine presenting frames on b.
func New(cfg Config, b backend.Backend) (*Engine, error) {
	if b == nil {
		return nil, errors.New("engine: nil backend")
	}
	if cfg.Source == "" {
		cfg.Source = SourceFallback
	}
	open, ok := openers[cfg.Source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
	}
	if cfg.Title == "" {
		cfg.Title = "vsync"
	}

	return &Engine{
		cfg:     cfg,
		backend: b,
		open:    open,
		quit:    make(chan struct{}),
	}, nil
}

// Run produces frames until ctx is done, Quit is called or the backend
// fails to present a frame. Only a backend failure is returned as an error
// once the loop is up.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.running = true
	e.mu.Unlock()

	interval := timing.FrameInterval(e.cfg.RefreshRate)

	r := runner.New("vsync", e.cfg.Clock)
	if err := r.Start(context.Background()); err != nil {
		return err
	}

	src, err := e.open(e.cfg.Title, interval)
	if err != nil {
		r.Stop()
		return fmt.Errorf("opening %s vsync source: %w", e.cfg.Source, err)
	}
	var vsrc vsync.Source
	if src != nil {
		vsrc = src
	}
	waiter := vsync.NewWaiter(r, vsrc, interval)

	updateErr := make(chan error, 1)
	var anim *animator.Animator
	anim = animator.New(r, waiter, func(frame animator.Frame) {
		if err := e.backend.Update(frame); err != nil {
			select {
			case updateErr <- err:
			default:
			}
			return
		}
		anim.RequestFrame()
	}, e.cfg.Metrics)

	err = e.backend.Init(backend.BackendConfig{
		Title:    e.cfg.Title,
		Source:   e.cfg.Source,
		Interval: interval,
		Callbacks: backend.BackendCallbacks{
			OnQuit:        e.Quit,
			OnTogglePause: e.TogglePause,
		},
	})
	if err != nil {
		_ = waiter.Close()
		r.Stop()
		closeSource(src)
		return fmt.Errorf("initializing backend: %w", err)
	}

	slog.Info("Engine running", "source", e.cfg.Source, "interval", interval)
	e.attach(anim)
	anim.RequestFrame()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Debug("Engine context done", "reason", ctx.Err())
	case <-e.quit:
		slog.Debug("Engine quit requested")
	case err := <-updateErr:
		runErr = fmt.Errorf("updating backend: %w", err)
	}

	e.attach(nil)
	anim.Stop()

	// close on the runner so no callback is mid-flight while the waiter goes away
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := r.RunSync(shutdownCtx, func() { _ = waiter.Close() }); err != nil {
		slog.Warn("Closing waiter off the runner", "error", err)
		_ = waiter.Close()
	}
	cancel()
	r.Stop()

	closeSource(src)
	if err := e.backend.Cleanup(); err != nil {
		slog.Error("Failed to clean up backend", "error", err)
	}

	slog.Info("Engine stopped")
	return runErr
}

// Quit stops a running engine. A quit requested before Run makes Run return
// right after setup.
func (e *Engine) Quit() {
	e.quitOnce.Do(func() { close(e.quit) })
}

// TogglePause pauses or resumes frame production.
func (e *Engine) TogglePause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.paused = !e.paused
	slog.Info("Toggled pause", "paused", e.paused)
	if e.anim == nil {
		return
	}
	if e.paused {
		e.anim.Pause()
	} else {
		e.anim.Resume()
	}
}

// Paused reports whether frame production is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Engine) attach(a *animator.Animator) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.anim = a
	if a != nil && e.paused {
		a.Pause()
	}
}

func closeSource(src source) {
	if src == nil {
		return
	}
	if err := src.Close(); err != nil {
		slog.Warn("Failed to close vsync source", "error", err)
	}
}
