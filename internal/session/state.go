package session

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of the packing computation.
type State int

const (
	Idle State = iota
	Running
	Succeeded
	Failed
	TimedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText lets State appear as its name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrBusy              = errors.New("a packing computation is already running")
	ErrTimeout           = errors.New("packing computation took too long")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrUnknownProduct    = errors.New("unknown product")
	ErrUnknownBox        = errors.New("unknown box")
)

// transitions lists the allowed target states per source state.
var transitions = map[State][]State{
	Idle:      {Idle, Running},
	Running:   {Succeeded, Failed, TimedOut},
	Succeeded: {Idle, Running},
	Failed:    {Idle, Running},
	TimedOut:  {Idle, Running},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
