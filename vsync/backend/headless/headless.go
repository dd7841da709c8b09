package headless

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/valerio/go-vsync/vsync/animator"
	"github.com/valerio/go-vsync/vsync/backend"
)

// progressInterval is how many frames pass between progress logs.
const progressInterval = 60

var traceHeader = []string{"frame", "start_ns", "target_ns", "delivered_ns", "lateness_us", "skipped"}

// Backend implements the Backend interface for automated runs: it counts
// frames, optionally records a per-frame timing trace and asks to quit after
// maxFrames.
type Backend struct {
	config      backend.BackendConfig
	frameCount  int
	maxFrames   int
	traceConfig TraceConfig

	traceFile   *os.File
	traceWriter *csv.Writer
}

// TraceConfig holds configuration for the frame timing trace
type TraceConfig struct {
	Enabled bool
	Path    string // CSV file receiving one row per frame
}

func New(maxFrames int, traceConfig TraceConfig) *Backend {
	return &Backend{
		maxFrames:   maxFrames,
		traceConfig: traceConfig,
	}
}

// CreateTraceConfig creates a trace configuration from CLI parameters
func CreateTraceConfig(path string) (TraceConfig, error) {
	config := TraceConfig{
		Enabled: path != "",
		Path:    path,
	}

	if !config.Enabled {
		return config, nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return config, fmt.Errorf("failed to create trace directory: %w", err)
		}
	}
	return config, nil
}

func (h *Backend) Init(config backend.BackendConfig) error {
	h.config = config

	if h.maxFrames <= 0 {
		return fmt.Errorf("headless mode requires a positive frame count, got %d", h.maxFrames)
	}

	if h.traceConfig.Enabled {
		f, err := os.Create(h.traceConfig.Path)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		h.traceFile = f
		h.traceWriter = csv.NewWriter(f)
		if err := h.traceWriter.Write(traceHeader); err != nil {
			return fmt.Errorf("failed to write trace header: %w", err)
		}
	}

	slog.Info("Running headless mode",
		"frames", h.maxFrames,
		"source", config.Source,
		"interval", config.Interval,
		"trace", h.traceConfig.Path)

	return nil
}

// Update records a frame and signals completion once maxFrames is reached
func (h *Backend) Update(frame animator.Frame) error {
	if h.frameCount >= h.maxFrames {
		return nil
	}
	h.frameCount++

	if h.traceWriter != nil {
		if err := h.writeTrace(frame); err != nil {
			return err
		}
	}

	if frame.Skipped > 0 {
		slog.Debug("Skipped vsync ticks", "frame", frame.Number, "skipped", frame.Skipped)
	}

	// Log progress periodically
	if h.frameCount%progressInterval == 0 {
		slog.Info("Frame progress", "completed", h.frameCount, "total", h.maxFrames,
			"lateness_us", frame.Lateness().Microseconds())
	}

	if h.frameCount >= h.maxFrames {
		if h.traceConfig.Enabled {
			slog.Info("Headless execution completed", "frames", h.maxFrames, "trace_saved_to", h.traceConfig.Path)
		} else {
			slog.Info("Headless execution completed", "frames", h.maxFrames)
		}

		h.config.Callbacks.Quit()
	}

	return nil
}

// FrameCount returns the number of frames seen so far.
func (h *Backend) FrameCount() int {
	return h.frameCount
}

func (h *Backend) Cleanup() error {
	if h.traceFile == nil {
		return nil
	}

	h.traceWriter.Flush()
	werr := h.traceWriter.Error()
	cerr := h.traceFile.Close()
	h.traceFile = nil
	h.traceWriter = nil

	if werr != nil {
		return fmt.Errorf("failed to flush trace: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("failed to close trace file: %w", cerr)
	}
	return nil
}

func (h *Backend) writeTrace(frame animator.Frame) error {
	row := []string{
		strconv.FormatUint(frame.Number, 10),
		strconv.FormatInt(frame.Start.UnixNano(), 10),
		strconv.FormatInt(frame.Target.UnixNano(), 10),
		strconv.FormatInt(frame.Delivered.UnixNano(), 10),
		strconv.FormatInt(frame.Lateness().Microseconds(), 10),
		strconv.FormatUint(frame.Skipped, 10),
	}
	if err := h.traceWriter.Write(row); err != nil {
		return fmt.Errorf("failed to write trace row: %w", err)
	}
	return nil
}
