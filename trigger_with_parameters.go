package hsm

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// TriggerWithParameters associates configured parameters with an underlying trigger value.
type TriggerWithParameters[TTrigger comparable] struct {
	underlyingTrigger TTrigger
	argumentTypes     []reflect.Type
}

// NewTriggerWithParameters creates a new configured trigger.
func NewTriggerWithParameters[TTrigger comparable](underlyingTrigger TTrigger, argumentTypes ...reflect.Type) *TriggerWithParameters[TTrigger] {
	return &TriggerWithParameters[TTrigger]{
		underlyingTrigger: underlyingTrigger,
		argumentTypes:     argumentTypes,
	}
}

// ArgumentTypes returns the argument types expected by this trigger.
func (t *TriggerWithParameters[TTrigger]) ArgumentTypes() []reflect.Type {
	return t.argumentTypes
}

// Trigger returns the underlying trigger value.
func (t *TriggerWithParameters[TTrigger]) Trigger() TTrigger {
	return t.underlyingTrigger
}

// ValidateParameters ensures that the supplied arguments are compatible with those
// configured for this trigger. Missing trailing arguments are accepted; every
// offending position is reported in a single *ParameterTypeMismatchError.
func (t *TriggerWithParameters[TTrigger]) ValidateParameters(args []any) error {
	var result *multierror.Error

	if len(args) > len(t.argumentTypes) {
		result = multierror.Append(result, &ParameterConversionError{
			Message: fmt.Sprintf("too many parameters have been supplied: expected %d but got %d", len(t.argumentTypes), len(args)),
		})
	}

	for i, expectedType := range t.argumentTypes {
		if i >= len(args) {
			break
		}
		arg := args[i]
		if arg == nil {
			if !isNilable(expectedType) {
				result = multierror.Append(result, &ParameterConversionError{
					Message: fmt.Sprintf("argument at position %d is nil but type %v is not nilable", i, expectedType),
				})
			}
			continue
		}
		if argType := reflect.TypeOf(arg); !argType.AssignableTo(expectedType) {
			result = multierror.Append(result, &ParameterConversionError{
				Message: fmt.Sprintf("argument at position %d is of type %v but expected type %v", i, argType, expectedType),
			})
		}
	}

	if result == nil {
		return nil
	}
	result.ErrorFormat = joinErrors
	return &ParameterTypeMismatchError{Trigger: t.underlyingTrigger, Err: result}
}

func joinErrors(errs []error) string {
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// TriggerWithParameters1 is a configured trigger with one required argument.
type TriggerWithParameters1[TTrigger comparable, TArg0 any] struct {
	*TriggerWithParameters[TTrigger]
}

// TriggerWithParameters2 is a configured trigger with two required arguments.
type TriggerWithParameters2[TTrigger comparable, TArg0, TArg1 any] struct {
	*TriggerWithParameters[TTrigger]
}

// TriggerWithParameters3 is a configured trigger with three required arguments.
type TriggerWithParameters3[TTrigger comparable, TArg0, TArg1, TArg2 any] struct {
	*TriggerWithParameters[TTrigger]
}

// SetTriggerParameters binds trigger to the given argument types. Fire calls for the
// trigger are validated against them before the trigger is resolved. Binding a
// trigger twice panics with a *DuplicateParameterBindingError.
func (sm *StateMachine[TState, TTrigger]) SetTriggerParameters(trigger TTrigger, argumentTypes ...reflect.Type) *TriggerWithParameters[TTrigger] {
	if _, exists := sm.triggerConfiguration[trigger]; exists {
		panic(&DuplicateParameterBindingError{Trigger: trigger})
	}
	configuration := NewTriggerWithParameters(trigger, argumentTypes...)
	sm.triggerConfiguration[trigger] = configuration
	return configuration
}

// SetTriggerParameters1 binds trigger to one argument of type A.
func SetTriggerParameters1[A any, TState, TTrigger comparable](
	sm *StateMachine[TState, TTrigger],
	trigger TTrigger,
) *TriggerWithParameters1[TTrigger, A] {
	return &TriggerWithParameters1[TTrigger, A]{
		TriggerWithParameters: sm.SetTriggerParameters(trigger, reflect.TypeFor[A]()),
	}
}

// SetTriggerParameters2 binds trigger to arguments of types A and B.
func SetTriggerParameters2[A, B any, TState, TTrigger comparable](
	sm *StateMachine[TState, TTrigger],
	trigger TTrigger,
) *TriggerWithParameters2[TTrigger, A, B] {
	return &TriggerWithParameters2[TTrigger, A, B]{
		TriggerWithParameters: sm.SetTriggerParameters(trigger, reflect.TypeFor[A](), reflect.TypeFor[B]()),
	}
}

// SetTriggerParameters3 binds trigger to arguments of types A, B and C.
func SetTriggerParameters3[A, B, C any, TState, TTrigger comparable](
	sm *StateMachine[TState, TTrigger],
	trigger TTrigger,
) *TriggerWithParameters3[TTrigger, A, B, C] {
	return &TriggerWithParameters3[TTrigger, A, B, C]{
		TriggerWithParameters: sm.SetTriggerParameters(trigger, reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()),
	}
}

// FireWith1 fires a trigger bound with SetTriggerParameters1.
func FireWith1[A any, TState, TTrigger comparable](
	ctx context.Context,
	sm *StateMachine[TState, TTrigger],
	trigger *TriggerWithParameters1[TTrigger, A],
	a A,
) error {
	return sm.FireCtx(ctx, trigger.Trigger(), a)
}

// FireWith2 fires a trigger bound with SetTriggerParameters2.
func FireWith2[A, B any, TState, TTrigger comparable](
	ctx context.Context,
	sm *StateMachine[TState, TTrigger],
	trigger *TriggerWithParameters2[TTrigger, A, B],
	a A,
	b B,
) error {
	return sm.FireCtx(ctx, trigger.Trigger(), a, b)
}

// FireWith3 fires a trigger bound with SetTriggerParameters3.
func FireWith3[A, B, C any, TState, TTrigger comparable](
	ctx context.Context,
	sm *StateMachine[TState, TTrigger],
	trigger *TriggerWithParameters3[TTrigger, A, B, C],
	a A,
	b B,
	c C,
) error {
	return sm.FireCtx(ctx, trigger.Trigger(), a, b, c)
}

// TriggerDetails represents a trigger with details of any configured trigger parameters.
type TriggerDetails[TState, TTrigger comparable] struct {
	// Trigger is the trigger value.
	Trigger TTrigger

	// HasParameters indicates whether the trigger has been configured with parameters.
	HasParameters bool

	// Parameters contains the trigger parameter configuration, if any.
	Parameters *TriggerWithParameters[TTrigger]
}

// NewTriggerDetails creates a new TriggerDetails.
func NewTriggerDetails[TState, TTrigger comparable](
	trigger TTrigger,
	triggerConfiguration map[TTrigger]*TriggerWithParameters[TTrigger],
) TriggerDetails[TState, TTrigger] {
	params, hasParams := triggerConfiguration[trigger]
	return TriggerDetails[TState, TTrigger]{
		Trigger:       trigger,
		HasParameters: hasParams,
		Parameters:    params,
	}
}
