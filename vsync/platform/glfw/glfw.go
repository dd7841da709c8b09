//go:build glfw

// Package glfw provides a vsync Source driven by a GLFW OpenGL context with a
// swap interval of one: SwapBuffers returns once per vertical blank.
//
// Building this requires the GLFW C dependencies; default builds use a stub,
// see build tags (glfw).
package glfw

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/valerio/go-vsync/vsync"
	"github.com/valerio/go-vsync/vsync/timing"
)

const probeWindowSize = 64

// Source delivers GLFW vblank events.
type Source struct {
	*vsync.ChannelSource

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type openResult struct {
	nominal time.Duration
	err     error
}

// Open starts the swap loop on its own locked OS thread. A non-positive
// nominal interval is taken from the primary monitor's video mode.
func Open(title string, nominal time.Duration) (*Source, error) {
	s := &Source{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}

	ticks := make(chan time.Time, 1)
	ready := make(chan openResult, 1)
	go s.swapLoop(title, nominal, ticks, ready)

	res := <-ready
	if res.err != nil {
		return nil, res.err
	}
	s.ChannelSource = vsync.NewChannelSource(ticks, res.nominal)
	return s, nil
}

// Close stops the swap loop and terminates GLFW.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
	return s.ChannelSource.Close()
}

// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html#buffer_swap
func (s *Source) swapLoop(title string, nominal time.Duration, ticks chan<- time.Time, ready chan<- openResult) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)
	defer close(ticks)

	if err := glfw.Init(); err != nil {
		ready <- openResult{err: fmt.Errorf("failed to initialize GLFW: %v", err)}
		return
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)

	win, err := glfw.CreateWindow(probeWindowSize, probeWindowSize, title, nil, nil)
	if err != nil {
		ready <- openResult{err: fmt.Errorf("failed to create window: %v", err)}
		return
	}
	defer win.Destroy()

	win.MakeContextCurrent()
	glfw.SwapInterval(1)

	if monitor := glfw.GetPrimaryMonitor(); monitor != nil {
		if mode := monitor.GetVideoMode(); mode != nil && mode.RefreshRate > 0 {
			slog.Info("GLFW vsync source initialized", "refresh_rate", mode.RefreshRate)
			if nominal <= 0 {
				nominal = timing.FrameInterval(float64(mode.RefreshRate))
			}
		}
	}
	ready <- openResult{nominal: nominal}

	for !win.ShouldClose() {
		select {
		case <-s.quit:
			return
		default:
		}

		win.SwapBuffers()
		glfw.PollEvents()

		select {
		case ticks <- time.Now():
		default:
		}
	}
}
