package dispatcher

import "sync/atomic"

// State is the position of the dispatcher in its receive/respond cycle.
type State int32

const (
	// Idle means the dispatcher is waiting for a frame.
	Idle State = iota
	// Processing means a frame is being decoded and answered.
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	default:
		return "unknown"
	}
}

// CommandLoopback labels frames that were echoed because they were not JSON.
const CommandLoopback = "loopback"

// Observer is told how each frame was answered. command is the protocol
// kind ("ack", "report", "unknown") or CommandLoopback.
type Observer interface {
	ObserveCommand(command string)
	ObserveSendError(err error)
}

type stateValue struct {
	v atomic.Int32
}

func (s *stateValue) load() State   { return State(s.v.Load()) }
func (s *stateValue) store(v State) { s.v.Store(int32(v)) }
