//go:build sdl2

// Package sdl2 provides a vsync Source driven by an SDL2 renderer created
// with RENDERER_PRESENTVSYNC: Present blocks until the next vertical blank,
// so each return is a vblank instant.
//
// Note: building this requires SDL2 development libraries installed.
// Default builds use a stub, see build tags (sdl2).
package sdl2

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/valerio/go-vsync/vsync"
	"github.com/valerio/go-vsync/vsync/timing"
	"github.com/veandco/go-sdl2/sdl"
)

const probeWindowSize = 64

// Source delivers SDL2 vblank events.
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

// Open starts the present loop on its own locked OS thread. A non-positive
// nominal interval is taken from the display mode.
func Open(title string, nominal time.Duration) (*Source, error) {
	s := &Source{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}

	ticks := make(chan time.Time, 1)
	ready := make(chan openResult, 1)
	go s.presentLoop(title, nominal, ticks, ready)

	res := <-ready
	if res.err != nil {
		return nil, res.err
	}
	s.ChannelSource = vsync.NewChannelSource(ticks, res.nominal)
	return s, nil
}

// Close stops the present loop and releases SDL resources.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
	return s.ChannelSource.Close()
}

func (s *Source) presentLoop(title string, nominal time.Duration, ticks chan<- time.Time, ready chan<- openResult) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)
	defer close(ticks)

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		ready <- openResult{err: fmt.Errorf("failed to initialize SDL2: %v", err)}
		return
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		probeWindowSize,
		probeWindowSize,
		sdl.WINDOW_HIDDEN,
	)
	if err != nil {
		ready <- openResult{err: fmt.Errorf("failed to create window: %v", err)}
		return
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		ready <- openResult{err: fmt.Errorf("failed to create renderer: %v", err)}
		return
	}
	defer renderer.Destroy()

	if mode, err := sdl.GetCurrentDisplayMode(0); err == nil && mode.RefreshRate > 0 {
		slog.Info("SDL2 vsync source initialized", "refresh_rate", mode.RefreshRate)
		if nominal <= 0 {
			nominal = timing.FrameInterval(float64(mode.RefreshRate))
		}
	} else {
		slog.Info("SDL2 vsync source initialized, display mode unknown")
	}
	ready <- openResult{nominal: nominal}

	for {
		select {
		case <-s.quit:
			slog.Info("Cleaning up SDL2 vsync source")
			return
		default:
		}

		sdl.PumpEvents()
		renderer.Clear()
		renderer.Present()

		// a reader still busy with the previous vblank just misses this one
		select {
		case ticks <- time.Now():
		default:
		}
	}
}
