package hsm

import (
	"fmt"
)

// stateRegistry owns every StateRepresentation of one machine, keyed by state.
// Representations refer to each other through state keys resolved here.
type stateRegistry[TState, TTrigger comparable] struct {
	representations map[TState]*StateRepresentation[TState, TTrigger]
}

func newStateRegistry[TState, TTrigger comparable]() *stateRegistry[TState, TTrigger] {
	return &stateRegistry[TState, TTrigger]{
		representations: make(map[TState]*StateRepresentation[TState, TTrigger]),
	}
}

// get returns the representation for state, creating it on first reference.
func (r *stateRegistry[TState, TTrigger]) get(state TState) *StateRepresentation[TState, TTrigger] {
	representation, exists := r.representations[state]
	if !exists {
		representation = newStateRepresentation(state, r)
		r.representations[state] = representation
	}
	return representation
}

// lookup returns the representation for state without creating it.
func (r *stateRegistry[TState, TTrigger]) lookup(state TState) (*StateRepresentation[TState, TTrigger], bool) {
	representation, exists := r.representations[state]
	return representation, exists
}

// StateRepresentation models the behaviour of a state.
type StateRepresentation[TState, TTrigger comparable] struct {
	state    TState
	registry *stateRegistry[TState, TTrigger]

	// superstate is the parent state key, valid when hasSuperstate is set.
	superstate    TState
	hasSuperstate bool

	// substates are the keys of the child states of this state.
	substates []TState

	// triggerBehaviours maps triggers to their behaviours, in configuration order.
	triggerBehaviours map[TTrigger][]TriggerBehaviour[TState, TTrigger]

	entryActions      []*ActionBehaviour[TState, TTrigger]
	exitActions       []*ActionBehaviour[TState, TTrigger]
	activateActions   []*ActivationBehaviour
	deactivateActions []*ActivationBehaviour

	hasInitialTransition    bool
	initialTransitionTarget TState

	// active is set between activation and deactivation of this state.
	active bool
}

func newStateRepresentation[TState, TTrigger comparable](
	state TState,
	registry *stateRegistry[TState, TTrigger],
) *StateRepresentation[TState, TTrigger] {
	return &StateRepresentation[TState, TTrigger]{
		state:             state,
		registry:          registry,
		triggerBehaviours: make(map[TTrigger][]TriggerBehaviour[TState, TTrigger]),
	}
}

// UnderlyingState returns the state this representation models.
func (sr *StateRepresentation[TState, TTrigger]) UnderlyingState() TState {
	return sr.state
}

// Superstate returns the parent state representation, or nil for a root state.
func (sr *StateRepresentation[TState, TTrigger]) Superstate() *StateRepresentation[TState, TTrigger] {
	if !sr.hasSuperstate {
		return nil
	}
	return sr.registry.get(sr.superstate)
}

// Substates returns the direct substates of this state.
func (sr *StateRepresentation[TState, TTrigger]) Substates() []*StateRepresentation[TState, TTrigger] {
	result := make([]*StateRepresentation[TState, TTrigger], len(sr.substates))
	for i, s := range sr.substates {
		result[i] = sr.registry.get(s)
	}
	return result
}

// setSuperstate links this state under superstate, detaching it from any previous parent.
func (sr *StateRepresentation[TState, TTrigger]) setSuperstate(superstate *StateRepresentation[TState, TTrigger]) {
	if sr.hasSuperstate {
		if sr.superstate == superstate.state {
			return
		}
		sr.Superstate().removeSubstate(sr.state)
	}
	sr.superstate = superstate.state
	sr.hasSuperstate = true
	superstate.substates = append(superstate.substates, sr.state)
}

func (sr *StateRepresentation[TState, TTrigger]) removeSubstate(state TState) {
	for i, s := range sr.substates {
		if s == state {
			sr.substates = append(sr.substates[:i], sr.substates[i+1:]...)
			return
		}
	}
}

// TriggerBehaviours returns the trigger behaviours map.
func (sr *StateRepresentation[TState, TTrigger]) TriggerBehaviours() map[TTrigger][]TriggerBehaviour[TState, TTrigger] {
	return sr.triggerBehaviours
}

// EntryActions returns the entry actions.
func (sr *StateRepresentation[TState, TTrigger]) EntryActions() []*ActionBehaviour[TState, TTrigger] {
	return sr.entryActions
}

// ExitActions returns the exit actions.
func (sr *StateRepresentation[TState, TTrigger]) ExitActions() []*ActionBehaviour[TState, TTrigger] {
	return sr.exitActions
}

// ActivateActions returns the activate actions.
func (sr *StateRepresentation[TState, TTrigger]) ActivateActions() []*ActivationBehaviour {
	return sr.activateActions
}

// DeactivateActions returns the deactivate actions.
func (sr *StateRepresentation[TState, TTrigger]) DeactivateActions() []*ActivationBehaviour {
	return sr.deactivateActions
}

// HasInitialTransition returns true if this state has an initial transition configured.
func (sr *StateRepresentation[TState, TTrigger]) HasInitialTransition() bool {
	return sr.hasInitialTransition
}

// InitialTransitionTarget returns the target state for the initial transition.
func (sr *StateRepresentation[TState, TTrigger]) InitialTransitionTarget() TState {
	return sr.initialTransitionTarget
}

func (sr *StateRepresentation[TState, TTrigger]) setInitialTransition(target TState) {
	sr.hasInitialTransition = true
	sr.initialTransitionTarget = target
}

// IsActive reports whether the state has been activated and not deactivated since.
func (sr *StateRepresentation[TState, TTrigger]) IsActive() bool {
	return sr.active
}

// AddTriggerBehaviour adds a trigger behaviour to this state.
func (sr *StateRepresentation[TState, TTrigger]) AddTriggerBehaviour(behaviour TriggerBehaviour[TState, TTrigger]) {
	trigger := behaviour.Trigger()
	sr.triggerBehaviours[trigger] = append(sr.triggerBehaviours[trigger], behaviour)
}

// AddEntryAction adds an entry action to this state.
func (sr *StateRepresentation[TState, TTrigger]) AddEntryAction(action *ActionBehaviour[TState, TTrigger]) {
	sr.entryActions = append(sr.entryActions, action)
}

// AddExitAction adds an exit action to this state.
func (sr *StateRepresentation[TState, TTrigger]) AddExitAction(action *ActionBehaviour[TState, TTrigger]) {
	sr.exitActions = append(sr.exitActions, action)
}

// AddActivateAction adds an activate action to this state.
func (sr *StateRepresentation[TState, TTrigger]) AddActivateAction(action *ActivationBehaviour) {
	sr.activateActions = append(sr.activateActions, action)
}

// AddDeactivateAction adds a deactivate action to this state.
func (sr *StateRepresentation[TState, TTrigger]) AddDeactivateAction(action *ActivationBehaviour) {
	sr.deactivateActions = append(sr.deactivateActions, action)
}

// tryFindHandler looks for a handler locally first and then up the superstate chain.
// A nil result means no behaviour is configured for the trigger anywhere in the chain.
func (sr *StateRepresentation[TState, TTrigger]) tryFindHandler(
	ex execution,
	trigger TTrigger,
	args []any,
) (*TriggerBehaviourResult[TState, TTrigger], error) {
	local, err := sr.tryFindLocalHandler(ex, trigger, args)
	if err != nil {
		return nil, err
	}
	if local != nil && local.Handler != nil {
		return local, nil
	}

	super := sr.Superstate()
	if super == nil {
		return local, nil
	}
	inherited, err := super.tryFindHandler(ex, trigger, args)
	if err != nil {
		return nil, err
	}
	switch {
	case inherited == nil:
		return local, nil
	case inherited.Handler != nil || local == nil:
		return inherited, nil
	default:
		return &TriggerBehaviourResult[TState, TTrigger]{
			UnmetGuardConditions: append(local.UnmetGuardConditions, inherited.UnmetGuardConditions...),
		}, nil
	}
}

// tryFindLocalHandler resolves the trigger against this state's own behaviours,
// evaluating every guard once.
func (sr *StateRepresentation[TState, TTrigger]) tryFindLocalHandler(
	ex execution,
	trigger TTrigger,
	args []any,
) (*TriggerBehaviourResult[TState, TTrigger], error) {
	behaviours, exists := sr.triggerBehaviours[trigger]
	if !exists {
		return nil, nil
	}

	var (
		handler     TriggerBehaviour[TState, TTrigger]
		unmetGuards []string
	)
	for _, behaviour := range behaviours {
		unmet, err := behaviour.Guard().unmetConditions(ex, args)
		if err != nil {
			return nil, err
		}
		if len(unmet) > 0 {
			unmetGuards = append(unmetGuards, unmet...)
			continue
		}
		if handler != nil {
			return nil, &AmbiguousTransitionError{Trigger: trigger, State: sr.state}
		}
		handler = behaviour
	}
	if handler != nil {
		return &TriggerBehaviourResult[TState, TTrigger]{Handler: handler}, nil
	}
	return &TriggerBehaviourResult[TState, TTrigger]{UnmetGuardConditions: unmetGuards}, nil
}

// enter runs the entry actions of this state, entering superstates first when the
// transition comes from outside of them.
func (sr *StateRepresentation[TState, TTrigger]) enter(ex execution, t Transition[TState, TTrigger]) error {
	if t.IsReentry() {
		return sr.arrive(ex, t)
	}
	if sr.Includes(t.Source) {
		return nil
	}
	if super := sr.Superstate(); super != nil {
		if err := super.enter(ex, t); err != nil {
			return err
		}
	}
	return sr.arrive(ex, t)
}

// exit runs the exit actions of this state and keeps exiting superstates until
// one of them contains the destination.
func (sr *StateRepresentation[TState, TTrigger]) exit(ex execution, t Transition[TState, TTrigger]) error {
	if t.IsReentry() {
		return sr.leave(ex, t)
	}
	if sr.Includes(t.Destination) {
		return nil
	}
	if err := sr.leave(ex, t); err != nil {
		return err
	}
	if super := sr.Superstate(); super != nil {
		return super.exit(ex, t)
	}
	return nil
}

func (sr *StateRepresentation[TState, TTrigger]) arrive(ex execution, t Transition[TState, TTrigger]) error {
	for _, action := range sr.entryActions {
		if err := action.execute(ex, t); err != nil {
			return fmt.Errorf("entry action of state '%v': %w", sr.state, err)
		}
	}
	if ex.activate {
		return sr.activateSelf(ex)
	}
	return nil
}

func (sr *StateRepresentation[TState, TTrigger]) leave(ex execution, t Transition[TState, TTrigger]) error {
	for _, action := range sr.exitActions {
		if err := action.execute(ex, t); err != nil {
			return fmt.Errorf("exit action of state '%v': %w", sr.state, err)
		}
	}
	return sr.deactivateSelf(ex)
}

// activate activates the superstate chain top-down, then this state.
func (sr *StateRepresentation[TState, TTrigger]) activate(ex execution) error {
	if super := sr.Superstate(); super != nil {
		if err := super.activate(ex); err != nil {
			return err
		}
	}
	return sr.activateSelf(ex)
}

// deactivate deactivates this state, then its superstate chain bottom-up.
func (sr *StateRepresentation[TState, TTrigger]) deactivate(ex execution) error {
	if err := sr.deactivateSelf(ex); err != nil {
		return err
	}
	if super := sr.Superstate(); super != nil {
		return super.deactivate(ex)
	}
	return nil
}

func (sr *StateRepresentation[TState, TTrigger]) activateSelf(ex execution) error {
	if sr.active {
		return nil
	}
	for _, action := range sr.activateActions {
		if err := action.execute(ex); err != nil {
			return fmt.Errorf("activate action of state '%v': %w", sr.state, err)
		}
	}
	sr.active = true
	return nil
}

func (sr *StateRepresentation[TState, TTrigger]) deactivateSelf(ex execution) error {
	if !sr.active {
		return nil
	}
	for _, action := range sr.deactivateActions {
		if err := action.execute(ex); err != nil {
			return fmt.Errorf("deactivate action of state '%v': %w", sr.state, err)
		}
	}
	sr.active = false
	return nil
}

// Includes returns true if this state or any of its substates is the specified state.
func (sr *StateRepresentation[TState, TTrigger]) Includes(state TState) bool {
	if sr.state == state {
		return true
	}
	for _, substate := range sr.substates {
		if sr.registry.get(substate).Includes(state) {
			return true
		}
	}
	return false
}

// IsIncludedIn returns true if this state is the specified state or a substate of it.
func (sr *StateRepresentation[TState, TTrigger]) IsIncludedIn(state TState) bool {
	if sr.state == state {
		return true
	}
	if super := sr.Superstate(); super != nil {
		return super.IsIncludedIn(state)
	}
	return false
}

// permittedTriggers returns the triggers whose guards pass in this state or any superstate.
// Guards of the excluded triggers are not evaluated.
func (sr *StateRepresentation[TState, TTrigger]) permittedTriggers(ex execution, args []any, excluded ...TTrigger) ([]TTrigger, error) {
	result, err := sr.localPermittedTriggers(ex, args, excluded)
	if err != nil {
		return nil, err
	}

	if super := sr.Superstate(); super != nil {
		superTriggers, err := super.permittedTriggers(ex, args, excluded...)
		if err != nil {
			return nil, err
		}
		for _, trigger := range superTriggers {
			if !containsTrigger(result, trigger) {
				result = append(result, trigger)
			}
		}
	}

	return result, nil
}

// localPermittedTriggers returns the triggers permitted by this state alone, in a stable order.
func (sr *StateRepresentation[TState, TTrigger]) localPermittedTriggers(ex execution, args []any, excluded []TTrigger) ([]TTrigger, error) {
	var result []TTrigger
	for _, trigger := range sr.configuredTriggers() {
		if containsTrigger(excluded, trigger) {
			continue
		}
		for _, behaviour := range sr.triggerBehaviours[trigger] {
			met, err := behaviour.Guard().conditionsMet(ex, args)
			if err != nil {
				return nil, err
			}
			if met {
				result = append(result, trigger)
				break
			}
		}
	}
	return result, nil
}

// configuredTriggers returns the configured triggers ordered by their string form.
func (sr *StateRepresentation[TState, TTrigger]) configuredTriggers() []TTrigger {
	triggers := make([]TTrigger, 0, len(sr.triggerBehaviours))
	for trigger := range sr.triggerBehaviours {
		triggers = append(triggers, trigger)
	}
	sortByString(triggers)
	return triggers
}

// String returns a string representation of this state.
func (sr *StateRepresentation[TState, TTrigger]) String() string {
	return fmt.Sprintf("%v", sr.state)
}

// containsTrigger checks if a trigger is in the slice.
func containsTrigger[TTrigger comparable](triggers []TTrigger, trigger TTrigger) bool {
	for _, t := range triggers {
		if t == trigger {
			return true
		}
	}
	return false
}
