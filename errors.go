package hsm

import (
	"fmt"
	"strings"
)

// InvalidOperationError indicates an operation that is not valid given the current configuration.
type InvalidOperationError struct {
	Message string
}

func (e *InvalidOperationError) Error() string {
	return e.Message
}

// UnhandledTriggerError is returned when a trigger is fired from a state that
// does not have a valid transition for that trigger.
type UnhandledTriggerError struct {
	Trigger           any
	State             any
	UnmetGuards       []string
	PermittedTriggers []any
}

func (e *UnhandledTriggerError) Error() string {
	if len(e.UnmetGuards) > 0 {
		return fmt.Sprintf(
			"trigger '%v' is valid for transition from state '%v' "+
				"but guard conditions are not met. Guard conditions: %s",
			e.Trigger, e.State, strings.Join(e.UnmetGuards, ", "))
	}

	var permitted string
	if len(e.PermittedTriggers) > 0 {
		triggers := make([]string, len(e.PermittedTriggers))
		for i, t := range e.PermittedTriggers {
			triggers[i] = fmt.Sprintf("%v", t)
		}
		permitted = fmt.Sprintf(" Permitted triggers: %s.", strings.Join(triggers, ", "))
	} else {
		permitted = " No valid leaving transitions are permitted from state."
	}

	return fmt.Sprintf(
		"no valid leaving transitions are permitted from state '%v' for trigger '%v'.%s",
		e.State, e.Trigger, permitted)
}

// AmbiguousTransitionError is returned when more than one behaviour for the same
// trigger has all of its guards satisfied at once.
type AmbiguousTransitionError struct {
	Trigger any
	State   any
}

func (e *AmbiguousTransitionError) Error() string {
	return fmt.Sprintf(
		"multiple permitted exit transitions are configured from state '%v' for trigger '%v'; guard clauses must be mutually exclusive",
		e.State, e.Trigger)
}

// InvalidInitialTransitionTargetError is returned when a state is entered whose
// initial transition target is not one of its substates.
type InvalidInitialTransitionTargetError struct {
	State  any
	Target any
}

func (e *InvalidInitialTransitionTargetError) Error() string {
	return fmt.Sprintf("the target '%v' for the initial transition of state '%v' is not a substate", e.Target, e.State)
}

// IllegalCyclicConfigurationError is raised by SubstateOf when the requested
// relationship would make a state its own ancestor.
type IllegalCyclicConfigurationError struct {
	State      any
	Superstate any
}

func (e *IllegalCyclicConfigurationError) Error() string {
	return fmt.Sprintf("configuring '%v' as a substate of '%v' creates an illegal cyclic configuration", e.State, e.Superstate)
}

// DuplicateParameterBindingError is raised when a trigger is bound to argument types twice.
type DuplicateParameterBindingError struct {
	Trigger any
}

func (e *DuplicateParameterBindingError) Error() string {
	return fmt.Sprintf("parameters for the trigger '%v' have already been configured", e.Trigger)
}

// ParameterTypeMismatchError is returned when the arguments supplied to a fire
// call do not match the types bound to the trigger.
type ParameterTypeMismatchError struct {
	Trigger any
	Err     error
}

func (e *ParameterTypeMismatchError) Error() string {
	return fmt.Sprintf("arguments for trigger '%v' do not match its parameters: %v", e.Trigger, e.Err)
}

func (e *ParameterTypeMismatchError) Unwrap() error {
	return e.Err
}

// ParameterConversionError describes a single argument that could not be converted.
type ParameterConversionError struct {
	Message string
}

func (e *ParameterConversionError) Error() string {
	return e.Message
}

// AsyncActionInvokedSynchronouslyError is returned when an asynchronous guard,
// action or callback is reached from a synchronous entry point.
type AsyncActionInvokedSynchronouslyError struct {
	Description string
}

func (e *AsyncActionInvokedSynchronouslyError) Error() string {
	return fmt.Sprintf(
		"cannot execute asynchronous callback '%s' synchronously; use the Async entry points instead",
		e.Description)
}
