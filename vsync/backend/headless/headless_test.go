package headless_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-vsync/vsync/animator"
	"github.com/valerio/go-vsync/vsync/backend"
	"github.com/valerio/go-vsync/vsync/backend/headless"
)

func testFrame(n uint64) animator.Frame {
	start := time.Unix(0, 0).Add(time.Duration(n) * 16 * time.Millisecond)
	return animator.Frame{
		Number:    n,
		Start:     start,
		Target:    start.Add(16 * time.Millisecond),
		Delivered: start.Add(250 * time.Microsecond),
	}
}

func TestHeadlessBackend(t *testing.T) {
	t.Run("normal operation", func(t *testing.T) {
		// Create headless backend for 3 frames
		h := headless.New(3, headless.TraceConfig{})

		quits := 0
		config := backend.BackendConfig{
			Title: "Test",
			Callbacks: backend.BackendCallbacks{
				OnQuit: func() { quits++ },
			},
		}
		require.NoError(t, h.Init(config))

		for i := uint64(1); i <= 3; i++ {
			assert.NoError(t, h.Update(testFrame(i)))
			if i < 3 {
				// Should not quit before reaching max frames
				assert.Equal(t, 0, quits)
			}
		}
		assert.Equal(t, 1, quits)
		assert.Equal(t, 3, h.FrameCount())

		// frames past the limit are ignored
		assert.NoError(t, h.Update(testFrame(4)))
		assert.Equal(t, 1, quits)
		assert.Equal(t, 3, h.FrameCount())

		assert.NoError(t, h.Cleanup())
	})

	t.Run("requires a frame count", func(t *testing.T) {
		h := headless.New(0, headless.TraceConfig{})
		assert.Error(t, h.Init(backend.BackendConfig{}))
	})

	t.Run("missing callbacks are fine", func(t *testing.T) {
		h := headless.New(1, headless.TraceConfig{})
		require.NoError(t, h.Init(backend.BackendConfig{}))
		assert.NotPanics(t, func() {
			assert.NoError(t, h.Update(testFrame(1)))
		})
	})
}

func TestHeadlessTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "run.csv")

	traceConfig, err := headless.CreateTraceConfig(path)
	require.NoError(t, err)
	assert.True(t, traceConfig.Enabled)

	h := headless.New(2, traceConfig)
	require.NoError(t, h.Init(backend.BackendConfig{Title: "Trace"}))

	skipped := testFrame(3)
	skipped.Number = 2
	skipped.Skipped = 1
	require.NoError(t, h.Update(testFrame(1)))
	require.NoError(t, h.Update(skipped))
	require.NoError(t, h.Cleanup())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	want := [][]string{
		{"frame", "start_ns", "target_ns", "delivered_ns", "lateness_us", "skipped"},
		{"1", "16000000", "32000000", "16250000", "250", "0"},
		{"2", "48000000", "64000000", "48250000", "250", "1"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("trace rows (-want +got):\n%s", diff)
	}
}

func TestCreateTraceConfigDisabled(t *testing.T) {
	config, err := headless.CreateTraceConfig("")
	require.NoError(t, err)
	assert.False(t, config.Enabled)
}

func TestHeadlessImplementsBackend(t *testing.T) {
	// Compile-time check that headless.Backend implements backend.Backend
	var _ backend.Backend = (*headless.Backend)(nil)
}
