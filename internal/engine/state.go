package engine

// State is the engine lifecycle state. Stopped is the initial state.
//
// Valid transitions: Stopped→Running (Start), Running→Paused (Pause),
// Paused→Running (Resume), Running|Paused→Stopped (Stop). Error is entered
// only on an unrecoverable internal fault; no transition leaves Error short
// of constructing a new engine.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StatePaused
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
