package hsm

import (
	"context"
	"fmt"
)

// StateMachineInfo is a snapshot of a machine's configuration, detailed enough
// for an external formatter to draw the state graph.
type StateMachineInfo struct {
	InitialState *StateInfo

	// States holds one entry per configured or referenced state, ordered by
	// the states' string form.
	States []*StateInfo

	StateType   string
	TriggerType string
}

// StateInfo is the configuration of one state. Its links point into the same
// snapshot.
type StateInfo struct {
	UnderlyingState any

	Superstate              *StateInfo
	Substates               []*StateInfo
	InitialTransitionTarget *StateInfo

	EntryActions      []ActionInfo
	ExitActions       []ActionInfo
	ActivateActions   []InvocationInfo
	DeactivateActions []InvocationInfo

	// Transitions lists every trigger behaviour of the state, by trigger and
	// then in configuration order.
	Transitions []TransitionInfo
}

func (s *StateInfo) String() string {
	if s == nil || s.UnderlyingState == nil {
		return NullString
	}
	return fmt.Sprintf("%v", s.UnderlyingState)
}

// FixedTransitions returns the transitions whose destination is known when
// they are configured, internal transitions included.
func (s *StateInfo) FixedTransitions() []TransitionInfo {
	return s.transitionsOf(TransitionPermit, TransitionReentry, TransitionInternal)
}

// DynamicTransitions returns the transitions whose destination is selected at fire time.
func (s *StateInfo) DynamicTransitions() []TransitionInfo {
	return s.transitionsOf(TransitionDynamic)
}

// IgnoredTriggers returns the triggers the state swallows.
func (s *StateInfo) IgnoredTriggers() []TransitionInfo {
	return s.transitionsOf(TransitionIgnored)
}

func (s *StateInfo) transitionsOf(kinds ...TransitionKind) []TransitionInfo {
	var result []TransitionInfo
	for _, t := range s.Transitions {
		for _, k := range kinds {
			if t.Kind == k {
				result = append(result, t)
				break
			}
		}
	}
	return result
}

// ActionInfo describes an entry or exit action.
type ActionInfo struct {
	InvocationInfo

	// FromTrigger is the trigger the action is restricted to, or nil.
	FromTrigger any
}

// TransitionKind tells which configuration call produced a trigger behaviour.
type TransitionKind int

const (
	TransitionPermit TransitionKind = iota
	TransitionReentry
	TransitionInternal
	TransitionDynamic
	TransitionIgnored
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionPermit:
		return "permit"
	case TransitionReentry:
		return "reentry"
	case TransitionInternal:
		return "internal"
	case TransitionDynamic:
		return "dynamic"
	case TransitionIgnored:
		return "ignored"
	default:
		return fmt.Sprintf("TransitionKind(%d)", int(k))
	}
}

// TransitionInfo describes one trigger behaviour of a state.
type TransitionInfo struct {
	Kind    TransitionKind
	Trigger any
	Guards  []InvocationInfo

	// Destination is nil for dynamic transitions and ignored triggers. An
	// internal transition points back at its own state.
	Destination *StateInfo

	// Selector and PossibleDestinations are set for dynamic transitions.
	Selector             InvocationInfo
	PossibleDestinations []DynamicStateInfo
}

// IsInternal reports whether firing the trigger runs an action without leaving the state.
func (t TransitionInfo) IsInternal() bool {
	return t.Kind == TransitionInternal
}

// DynamicStateInfo names a destination a dynamic transition may choose, and when.
type DynamicStateInfo struct {
	DestinationState string
	Criterion        string
}

// GetInfo returns a snapshot of the machine's configuration.
// The reported initial state is the first state the machine observed; a machine
// backed by storage that has not read its state yet loads it here.
func (sm *StateMachine[TState, TTrigger]) GetInfo() *StateMachineInfo {
	if !sm.initialKnown {
		if _, err := sm.State(context.Background()); err != nil {
			sm.logger.WithError(err).Warn("could not load initial state")
		}
	}

	states, byState := sm.registry.snapshot()
	initial, ok := byState[sm.initialState]
	if !ok {
		initial = &StateInfo{UnderlyingState: sm.initialState}
	}
	return &StateMachineInfo{
		InitialState: initial,
		States:       states,
		StateType:    fmt.Sprintf("%T", sm.initialState),
		TriggerType:  fmt.Sprintf("%T", *new(TTrigger)),
	}
}

// snapshot builds one StateInfo per representation and links them through the
// registry keys. States that are only referenced as destinations get a bare
// StateInfo that is not listed.
func (r *stateRegistry[TState, TTrigger]) snapshot() ([]*StateInfo, map[TState]*StateInfo) {
	keys := make([]TState, 0, len(r.representations))
	for state := range r.representations {
		keys = append(keys, state)
	}
	sortByString(keys)

	byState := make(map[TState]*StateInfo, len(keys))
	for _, state := range keys {
		byState[state] = &StateInfo{UnderlyingState: state}
	}
	lookup := func(state TState) *StateInfo {
		if info, ok := byState[state]; ok {
			return info
		}
		return &StateInfo{UnderlyingState: state}
	}

	states := make([]*StateInfo, len(keys))
	for i, state := range keys {
		states[i] = r.representations[state].describeInto(byState[state], lookup)
	}
	return states, byState
}

func (sr *StateRepresentation[TState, TTrigger]) describeInto(
	info *StateInfo,
	lookup func(TState) *StateInfo,
) *StateInfo {
	if sr.hasSuperstate {
		info.Superstate = lookup(sr.superstate)
	}
	for _, substate := range sr.substates {
		info.Substates = append(info.Substates, lookup(substate))
	}
	if sr.hasInitialTransition {
		info.InitialTransitionTarget = lookup(sr.initialTransitionTarget)
	}

	for _, action := range sr.entryActions {
		info.EntryActions = append(info.EntryActions, action.info())
	}
	for _, action := range sr.exitActions {
		info.ExitActions = append(info.ExitActions, action.info())
	}
	for _, action := range sr.activateActions {
		info.ActivateActions = append(info.ActivateActions, action.Description())
	}
	for _, action := range sr.deactivateActions {
		info.DeactivateActions = append(info.DeactivateActions, action.Description())
	}

	for _, trigger := range sr.configuredTriggers() {
		for _, behaviour := range sr.triggerBehaviours[trigger] {
			t := TransitionInfo{Trigger: trigger, Guards: behaviour.Guard().descriptions()}
			switch b := behaviour.(type) {
			case *TransitioningTriggerBehaviour[TState, TTrigger]:
				t.Kind, t.Destination = TransitionPermit, lookup(b.Destination)
			case *ReentryTriggerBehaviour[TState, TTrigger]:
				t.Kind, t.Destination = TransitionReentry, lookup(b.Destination)
			case *InternalTriggerBehaviour[TState, TTrigger]:
				t.Kind, t.Destination = TransitionInternal, info
			case *DynamicTriggerBehaviour[TState, TTrigger]:
				t.Kind, t.Selector, t.PossibleDestinations = TransitionDynamic, b.selector, b.possible
			case *IgnoredTriggerBehaviour[TState, TTrigger]:
				t.Kind = TransitionIgnored
			}
			info.Transitions = append(info.Transitions, t)
		}
	}
	return info
}
