package hsm

import (
	"fmt"
)

// StateConfiguration provides a fluent interface for configuring state behaviour.
// Configuration mistakes are programming errors and panic with a typed error value.
type StateConfiguration[TState, TTrigger comparable] struct {
	representation *StateRepresentation[TState, TTrigger]
	machine        *StateMachine[TState, TTrigger]
}

func newStateConfiguration[TState, TTrigger comparable](
	machine *StateMachine[TState, TTrigger],
	representation *StateRepresentation[TState, TTrigger],
) *StateConfiguration[TState, TTrigger] {
	return &StateConfiguration[TState, TTrigger]{
		representation: representation,
		machine:        machine,
	}
}

// State returns the state being configured.
func (sc *StateConfiguration[TState, TTrigger]) State() TState {
	return sc.representation.UnderlyingState()
}

// Machine returns the state machine that owns this configuration.
func (sc *StateConfiguration[TState, TTrigger]) Machine() *StateMachine[TState, TTrigger] {
	return sc.machine
}

// Permit configures the state to transition to the specified destination state
// when the specified trigger is fired.
func (sc *StateConfiguration[TState, TTrigger]) Permit(trigger TTrigger, destinationState TState) *StateConfiguration[TState, TTrigger] {
	return sc.PermitIf(trigger, destinationState)
}

// PermitIf configures the state to transition to the specified destination state
// when the specified trigger is fired, if every guard condition is met.
func (sc *StateConfiguration[TState, TTrigger]) PermitIf(trigger TTrigger, destinationState TState, guards ...GuardCondition) *StateConfiguration[TState, TTrigger] {
	sc.enforceNotIdentityTransition(destinationState)
	sc.representation.AddTriggerBehaviour(
		NewTransitioningTriggerBehaviour(trigger, destinationState, NewTransitionGuard(guards...)),
	)
	return sc
}

// PermitReentry configures the state to re-enter itself when the specified trigger is fired.
// Entry and exit actions will be executed.
func (sc *StateConfiguration[TState, TTrigger]) PermitReentry(trigger TTrigger) *StateConfiguration[TState, TTrigger] {
	return sc.PermitReentryIf(trigger)
}

// PermitReentryIf configures the state to re-enter itself when the specified trigger is fired,
// if every guard condition is met.
func (sc *StateConfiguration[TState, TTrigger]) PermitReentryIf(trigger TTrigger, guards ...GuardCondition) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddTriggerBehaviour(
		NewReentryTriggerBehaviour(trigger, sc.representation.UnderlyingState(), NewTransitionGuard(guards...)),
	)
	return sc
}

// Ignore configures the state to ignore the specified trigger.
func (sc *StateConfiguration[TState, TTrigger]) Ignore(trigger TTrigger) *StateConfiguration[TState, TTrigger] {
	return sc.IgnoreIf(trigger)
}

// IgnoreIf configures the state to ignore the specified trigger if every guard condition is met.
func (sc *StateConfiguration[TState, TTrigger]) IgnoreIf(trigger TTrigger, guards ...GuardCondition) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddTriggerBehaviour(
		NewIgnoredTriggerBehaviour[TState](trigger, NewTransitionGuard(guards...)),
	)
	return sc
}

// PermitDynamic configures the state to transition to a destination computed from the
// trigger arguments when the specified trigger is fired.
func (sc *StateConfiguration[TState, TTrigger]) PermitDynamic(
	trigger TTrigger,
	destinationSelector StateSelector[TState],
	possibleDestinations ...DynamicStateInfo,
) *StateConfiguration[TState, TTrigger] {
	return sc.PermitDynamicIf(trigger, destinationSelector, possibleDestinations)
}

// PermitDynamicIf is PermitDynamic with guard conditions. The selector only runs
// once every guard is met.
func (sc *StateConfiguration[TState, TTrigger]) PermitDynamicIf(
	trigger TTrigger,
	destinationSelector StateSelector[TState],
	possibleDestinations []DynamicStateInfo,
	guards ...GuardCondition,
) *StateConfiguration[TState, TTrigger] {
	if destinationSelector == nil {
		panic(&InvalidOperationError{Message: "destination selector cannot be nil"})
	}
	sc.representation.AddTriggerBehaviour(
		NewDynamicTriggerBehaviour(trigger, destinationSelector, NewTransitionGuard(guards...), possibleDestinations),
	)
	return sc
}

// InternalTransition configures a trigger that runs action without exiting or
// entering any state.
func (sc *StateConfiguration[TState, TTrigger]) InternalTransition(
	trigger TTrigger,
	action TransitionAction[TState, TTrigger],
) *StateConfiguration[TState, TTrigger] {
	return sc.InternalTransitionIf(trigger, action)
}

// InternalTransitionIf is InternalTransition with guard conditions.
func (sc *StateConfiguration[TState, TTrigger]) InternalTransitionIf(
	trigger TTrigger,
	action TransitionAction[TState, TTrigger],
	guards ...GuardCondition,
) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddTriggerBehaviour(NewInternalTriggerBehaviour(
		trigger,
		NewTransitionGuard(guards...),
		NewActionBehaviour(action, describe(action, TimingSynchronous)),
	))
	return sc
}

// InternalTransitionAsync is InternalTransitionIf with an asynchronous action.
func (sc *StateConfiguration[TState, TTrigger]) InternalTransitionAsync(
	trigger TTrigger,
	action AsyncTransitionAction[TState, TTrigger],
	guards ...GuardCondition,
) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddTriggerBehaviour(NewInternalTriggerBehaviour(
		trigger,
		NewTransitionGuard(guards...),
		NewAsyncActionBehaviour(action, describe(action, TimingAsynchronous)),
	))
	return sc
}

// OnEntry configures an action to be executed when entering this state.
func (sc *StateConfiguration[TState, TTrigger]) OnEntry(action TransitionAction[TState, TTrigger], description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddEntryAction(
		NewActionBehaviour(action, describe(action, TimingSynchronous, description...)),
	)
	return sc
}

// OnEntryAsync configures an asynchronous action to be executed when entering this state.
func (sc *StateConfiguration[TState, TTrigger]) OnEntryAsync(action AsyncTransitionAction[TState, TTrigger], description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddEntryAction(
		NewAsyncActionBehaviour(action, describe(action, TimingAsynchronous, description...)),
	)
	return sc
}

// OnEntryFrom configures an action to be executed when entering this state
// through the specified trigger only.
func (sc *StateConfiguration[TState, TTrigger]) OnEntryFrom(trigger TTrigger, action TransitionAction[TState, TTrigger], description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddEntryAction(
		NewActionBehaviour(action, describe(action, TimingSynchronous, description...)).From(trigger),
	)
	return sc
}

// OnEntryFromAsync is the asynchronous form of OnEntryFrom.
func (sc *StateConfiguration[TState, TTrigger]) OnEntryFromAsync(trigger TTrigger, action AsyncTransitionAction[TState, TTrigger], description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddEntryAction(
		NewAsyncActionBehaviour(action, describe(action, TimingAsynchronous, description...)).From(trigger),
	)
	return sc
}

// OnExit configures an action to be executed when exiting this state.
func (sc *StateConfiguration[TState, TTrigger]) OnExit(action TransitionAction[TState, TTrigger], description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddExitAction(
		NewActionBehaviour(action, describe(action, TimingSynchronous, description...)),
	)
	return sc
}

// OnExitAsync configures an asynchronous action to be executed when exiting this state.
func (sc *StateConfiguration[TState, TTrigger]) OnExitAsync(action AsyncTransitionAction[TState, TTrigger], description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddExitAction(
		NewAsyncActionBehaviour(action, describe(action, TimingAsynchronous, description...)),
	)
	return sc
}

// OnExitFrom configures an action to be executed when this state is exited
// through the specified trigger only.
func (sc *StateConfiguration[TState, TTrigger]) OnExitFrom(trigger TTrigger, action TransitionAction[TState, TTrigger], description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddExitAction(
		NewActionBehaviour(action, describe(action, TimingSynchronous, description...)).From(trigger),
	)
	return sc
}

// OnExitFromAsync is the asynchronous form of OnExitFrom.
func (sc *StateConfiguration[TState, TTrigger]) OnExitFromAsync(trigger TTrigger, action AsyncTransitionAction[TState, TTrigger], description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddExitAction(
		NewAsyncActionBehaviour(action, describe(action, TimingAsynchronous, description...)).From(trigger),
	)
	return sc
}

// OnActivate configures an action to be executed when this state is activated.
func (sc *StateConfiguration[TState, TTrigger]) OnActivate(action ActivationAction, description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddActivateAction(
		NewActivationBehaviour(action, describe(action, TimingSynchronous, description...)),
	)
	return sc
}

// OnActivateAsync is the asynchronous form of OnActivate.
func (sc *StateConfiguration[TState, TTrigger]) OnActivateAsync(action AsyncActivationAction, description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddActivateAction(
		NewAsyncActivationBehaviour(action, describe(action, TimingAsynchronous, description...)),
	)
	return sc
}

// OnDeactivate configures an action to be executed when this state is deactivated.
func (sc *StateConfiguration[TState, TTrigger]) OnDeactivate(action ActivationAction, description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddDeactivateAction(
		NewActivationBehaviour(action, describe(action, TimingSynchronous, description...)),
	)
	return sc
}

// OnDeactivateAsync is the asynchronous form of OnDeactivate.
func (sc *StateConfiguration[TState, TTrigger]) OnDeactivateAsync(action AsyncActivationAction, description ...string) *StateConfiguration[TState, TTrigger] {
	sc.representation.AddDeactivateAction(
		NewAsyncActivationBehaviour(action, describe(action, TimingAsynchronous, description...)),
	)
	return sc
}

// SubstateOf sets the superstate of this state. It panics with an
// *IllegalCyclicConfigurationError, leaving the hierarchy untouched, if the
// superstate is this state or one of its substates.
func (sc *StateConfiguration[TState, TTrigger]) SubstateOf(superstate TState) *StateConfiguration[TState, TTrigger] {
	state := sc.representation.UnderlyingState()
	superstateRep := sc.machine.registry.get(superstate)
	if superstateRep.IsIncludedIn(state) {
		panic(&IllegalCyclicConfigurationError{State: state, Superstate: superstate})
	}
	sc.representation.setSuperstate(superstateRep)
	return sc
}

// InitialTransition sets the substate that is entered automatically whenever this
// state is entered. The target is validated when the state is entered.
func (sc *StateConfiguration[TState, TTrigger]) InitialTransition(target TState) *StateConfiguration[TState, TTrigger] {
	state := sc.representation.UnderlyingState()
	if state == target {
		panic(&InvalidOperationError{
			Message: fmt.Sprintf("setting the current state '%v' as the target of an initial transition is not allowed", state),
		})
	}
	if sc.representation.HasInitialTransition() {
		panic(&InvalidOperationError{
			Message: fmt.Sprintf("state '%v' already has an initial transition defined", state),
		})
	}
	sc.representation.setInitialTransition(target)
	return sc
}

// enforceNotIdentityTransition ensures that a transition is not to the same state.
func (sc *StateConfiguration[TState, TTrigger]) enforceNotIdentityTransition(destinationState TState) {
	if sc.representation.UnderlyingState() == destinationState {
		panic(&InvalidOperationError{
			Message: "Permit() requires that the destination state is not equal to the source state; " +
				"to accept a trigger without changing state, use either Ignore() or PermitReentry()",
		})
	}
}
