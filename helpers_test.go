package hsm_test

import (
	"context"

	"github.com/atlekbai/hsm"
)

type State int
type Trigger int

const (
	StateA State = iota
	StateB
	StateC
	StateD
)

const (
	TriggerX Trigger = iota
	TriggerY
	TriggerZ
)

func (s State) String() string {
	switch s {
	case StateA:
		return "StateA"
	case StateB:
		return "StateB"
	case StateC:
		return "StateC"
	case StateD:
		return "StateD"
	default:
		return "Unknown"
	}
}

func (t Trigger) String() string {
	switch t {
	case TriggerX:
		return "TriggerX"
	case TriggerY:
		return "TriggerY"
	case TriggerZ:
		return "TriggerZ"
	default:
		return "Unknown"
	}
}

type Transition = hsm.Transition[State, Trigger]

// record returns an action appending name to log.
func record(log *[]string, name string) hsm.TransitionAction[State, Trigger] {
	return func(context.Context, Transition) error {
		*log = append(*log, name)
		return nil
	}
}

func always(context.Context, ...any) bool { return true }

func never(context.Context, ...any) bool { return false }
