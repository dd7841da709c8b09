package terminal

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-vsync/vsync/animator"
	"github.com/valerio/go-vsync/vsync/backend"
	"github.com/valerio/go-vsync/vsync/timing"
)

const (
	minTermWidth  = 40
	minTermHeight = 12

	sweepY  = 2
	statsY  = 4
	logsY   = 11
	logSize = 100
)

// Backend implements the Backend interface using tcell: a marker sweeps one
// column per frame, so uneven pacing is visible as stutter, next to live
// timing figures and recent logs.
type Backend struct {
	screen    tcell.Screen
	config    backend.BackendConfig
	logBuffer *LogBuffer
	logLevel  *slog.LevelVar
	prevLog   *slog.Logger
	stats     *timing.FrameStats

	skippedTotal uint64
	lastFrame    animator.Frame
	inputDone    chan struct{}
}

// New creates a terminal backend on the process terminal.
func New() *Backend {
	return &Backend{}
}

// NewWithScreen creates a terminal backend drawing to screen, which Init
// initializes.
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{screen: screen}
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config
	t.stats = timing.NewFrameStats()

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	// Capture logs in the view instead of writing over the screen
	t.logBuffer = NewLogBuffer(logSize)
	t.logLevel = new(slog.LevelVar)
	t.logLevel.Set(slog.LevelInfo)
	t.prevLog = slog.Default()
	slog.SetDefault(slog.New(NewLogBufferHandler(t.logBuffer, slog.LevelDebug)))

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	t.inputDone = make(chan struct{})
	go t.handleInput()

	slog.Info("Terminal backend initialized", "source", config.Source, "interval", config.Interval)
	return nil
}

// Update draws a frame
func (t *Backend) Update(frame animator.Frame) error {
	t.stats.Observe(frame.Start, frame.Delivered)
	t.skippedTotal += frame.Skipped
	t.lastFrame = frame

	t.render()
	t.screen.Show()
	return nil
}

// Cleanup restores the terminal and the previous default logger
func (t *Backend) Cleanup() error {
	if t.screen == nil {
		return nil
	}

	slog.Info("Finishing terminal")
	t.screen.Fini()
	if t.inputDone != nil {
		<-t.inputDone
	}
	if t.prevLog != nil {
		slog.SetDefault(t.prevLog)
	}
	t.screen = nil
	return nil
}

// LogLevel is the minimum level shown in the log panel.
func (t *Backend) LogLevel() slog.Level {
	return t.logLevel.Level()
}

func (t *Backend) handleInput() {
	defer close(t.inputDone)

	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			// screen finalized
			return
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey) {
	act, ok := backend.GetDefaultMapping(keyName(ev))
	if !ok {
		return
	}

	switch act {
	case backend.ActionLogLevelIncrease:
		t.changeLogLevel(1)
	case backend.ActionLogLevelDecrease:
		t.changeLogLevel(-1)
	default:
		t.config.Callbacks.Dispatch(act)
	}
}

// keyName names a key the way backend.DefaultKeyMap does.
func keyName(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			return "Space"
		}
		return string(ev.Rune())
	case tcell.KeyEscape:
		return "Escape"
	case tcell.KeyCtrlC:
		return "Ctrl+C"
	default:
		return ""
	}
}

// changeLogLevel shows more (+1) or fewer (-1) log levels in the panel.
func (t *Backend) changeLogLevel(direction int) {
	oldLevel := t.logLevel.Level()
	newLevel := oldLevel
	switch direction {
	case -1:
		switch oldLevel {
		case slog.LevelDebug:
			newLevel = slog.LevelInfo
		case slog.LevelInfo:
			newLevel = slog.LevelWarn
		case slog.LevelWarn:
			newLevel = slog.LevelError
		}
	case 1:
		switch oldLevel {
		case slog.LevelError:
			newLevel = slog.LevelWarn
		case slog.LevelWarn:
			newLevel = slog.LevelInfo
		case slog.LevelInfo:
			newLevel = slog.LevelDebug
		}
	}
	if oldLevel != newLevel {
		t.logLevel.Set(newLevel)
		slog.Info("Log filter changed", "from", oldLevel, "to", newLevel)
	}
}

func (t *Backend) render() {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, style)
		return
	}

	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	title := fmt.Sprintf("%s - %s @ %.2f Hz", t.config.Title, t.config.Source, timing.RefreshRate(t.config.Interval))
	t.drawText(1, 0, termWidth-2, title, titleStyle)

	t.drawSweep(termWidth)
	t.drawStats(termWidth)
	t.drawLogs(1, logsY, termWidth-2, termHeight)

	helpStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	t.drawText(1, termHeight-1, termWidth-2, "q quit  p pause  +/- log level", helpStyle)
}

// drawSweep moves a marker one column per frame across the track.
func (t *Backend) drawSweep(termWidth int) {
	track := termWidth - 2
	trackStyle := tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	markerStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)

	for x := 0; x < track; x++ {
		t.screen.SetContent(1+x, sweepY, '─', nil, trackStyle)
	}
	if t.lastFrame.Number == 0 {
		return
	}
	pos := int((t.lastFrame.Number - 1) % uint64(track))
	t.screen.SetContent(1+pos, sweepY, '█', nil, markerStyle)
}

func (t *Backend) drawStats(termWidth int) {
	frame := t.lastFrame
	snap := t.stats.Snapshot()
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	lines := []string{
		fmt.Sprintf("frame     %d", frame.Number),
		fmt.Sprintf("interval  %v", frame.Interval()),
		fmt.Sprintf("lateness  %dus (mean %dus, max %dus)",
			frame.Lateness().Microseconds(), snap.MeanLateness.Microseconds(), snap.MaxLateness.Microseconds()),
		fmt.Sprintf("budget    %dus", frame.Budget().Microseconds()),
		fmt.Sprintf("skipped   %d", t.skippedTotal),
		fmt.Sprintf("fps       %.2f", snap.FPS),
	}
	for i, line := range lines {
		t.drawText(1, statsY+i, termWidth-2, line, style)
	}
}

func (t *Backend) drawLogs(startX, startY, width, termHeight int) {
	availableHeight := termHeight - startY - 1
	if width <= 0 || availableHeight <= 0 {
		return
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range t.logBuffer.GetRecent(availableHeight, t.logLevel.Level()) {
		style := infoStyle
		switch entry.Level {
		case slog.LevelDebug:
			style = debugStyle
		case slog.LevelWarn:
			style = warnStyle
		case slog.LevelError:
			style = errStyle
		}
		t.drawText(startX, startY+i, width, FormatLogEntry(entry), style)
	}
}

func (t *Backend) drawText(x, y, width int, text string, style tcell.Style) {
	runes := []rune(text)
	if len(runes) > width {
		if width > 3 {
			runes = append(runes[:width-3], []rune(strings.Repeat(".", 3))...)
		} else if width > 0 {
			runes = runes[:width]
		} else {
			return
		}
	}
	for i, ch := range runes {
		t.screen.SetContent(x+i, y, ch, nil, style)
	}
}
