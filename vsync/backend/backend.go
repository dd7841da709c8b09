package backend

import (
	"time"

	"github.com/valerio/go-vsync/vsync/animator"
)

// Backend consumes the frames an engine produces (terminal view, headless
// logger, ...). Backends are responsible for:
// - Presenting each frame to their specific output
// - Translating platform input to the control callbacks in BackendConfig
// - Handling backend-specific features (progress logs, traces)
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config BackendConfig) error

	// Update presents one frame. It runs on the engine's runner goroutine,
	// so it should finish well within frame.Budget().
	Update(frame animator.Frame) error

	// Cleanup resources when shutting down
	Cleanup() error
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title     string
	Source    string           // Name of the vsync strategy in use
	Interval  time.Duration    // Nominal refresh interval
	Callbacks BackendCallbacks // Callbacks for backend communication
}

// BackendCallbacks allows backends to communicate with the engine.
// They may be invoked from any goroutine.
type BackendCallbacks struct {
	OnQuit        func() // Backend requests shutdown (e.g., key press, frame limit)
	OnTogglePause func() // Backend requests frame production to pause or resume
}

// Quit invokes OnQuit if set.
func (c BackendCallbacks) Quit() {
	if c.OnQuit != nil {
		c.OnQuit()
	}
}

// TogglePause invokes OnTogglePause if set.
func (c BackendCallbacks) TogglePause() {
	if c.OnTogglePause != nil {
		c.OnTogglePause()
	}
}
