package hsm

import "fmt"

// Transition is handed to actions and observers while the machine moves from
// Source to Destination because Trigger was fired.
type Transition[TState, TTrigger comparable] struct {
	Source      TState
	Destination TState
	Trigger     TTrigger

	// Parameters are the arguments the trigger was fired with. Never nil.
	Parameters []any

	initial bool
}

// NewTransition returns a transition carrying a copy of args.
func NewTransition[TState, TTrigger comparable](source, destination TState, trigger TTrigger, args ...any) Transition[TState, TTrigger] {
	return Transition[TState, TTrigger]{
		Source:      source,
		Destination: destination,
		Trigger:     trigger,
		Parameters:  append([]any{}, args...),
	}
}

// NewInitialTransition returns the automatic step from a superstate into its
// initial substate.
func NewInitialTransition[TState, TTrigger comparable](superstate, substate TState, trigger TTrigger, args ...any) Transition[TState, TTrigger] {
	return NewTransition(superstate, substate, trigger, args...).descend(superstate, substate)
}

// between keeps the trigger and its arguments but moves the endpoints.
func (t Transition[TState, TTrigger]) between(source, destination TState) Transition[TState, TTrigger] {
	t.Source, t.Destination, t.initial = source, destination, false
	return t
}

// descend is between for an initial transition.
func (t Transition[TState, TTrigger]) descend(superstate, substate TState) Transition[TState, TTrigger] {
	t = t.between(superstate, substate)
	t.initial = true
	return t
}

// IsReentry reports whether the transition leaves and re-enters the same state.
func (t Transition[TState, TTrigger]) IsReentry() bool {
	return t.Source == t.Destination
}

// IsInitial reports whether the transition descends into an initial substate.
func (t Transition[TState, TTrigger]) IsInitial() bool {
	return t.initial
}

func (t Transition[TState, TTrigger]) String() string {
	return fmt.Sprintf("%v --%v--> %v", t.Source, t.Trigger, t.Destination)
}
