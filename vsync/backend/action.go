package backend

// Action represents a control a backend can translate input into
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionTogglePause
	ActionLogLevelIncrease
	ActionLogLevelDecrease
)

func (a Action) String() string {
	switch a {
	case ActionQuit:
		return "quit"
	case ActionTogglePause:
		return "toggle-pause"
	case ActionLogLevelIncrease:
		return "log-level-increase"
	case ActionLogLevelDecrease:
		return "log-level-decrease"
	default:
		return "none"
	}
}

// DefaultKeyMap provides default key mappings that work across backends.
// Backends name keys the same way: printable keys by their character,
// others by name.
var DefaultKeyMap = map[string]Action{
	"q":      ActionQuit,
	"Escape": ActionQuit,
	"Ctrl+C": ActionQuit,

	"p":     ActionTogglePause,
	"Space": ActionTogglePause,

	"+": ActionLogLevelIncrease,
	"=": ActionLogLevelIncrease, // Alternative without shift
	"-": ActionLogLevelDecrease,
	"_": ActionLogLevelDecrease, // Alternative with shift
}

// GetDefaultMapping returns the default action for a key, if one exists
func GetDefaultMapping(key string) (Action, bool) {
	act, ok := DefaultKeyMap[key]
	return act, ok
}

// Dispatch runs the callback bound to a control action. It reports false
// for actions the callbacks do not cover.
func (c BackendCallbacks) Dispatch(a Action) bool {
	switch a {
	case ActionQuit:
		c.Quit()
	case ActionTogglePause:
		c.TogglePause()
	default:
		return false
	}
	return true
}
