package hsm

import (
	"context"
	"fmt"
	"reflect"
)

// GuardFunc is a synchronous guard predicate evaluated against the trigger arguments.
type GuardFunc func(ctx context.Context, args ...any) bool

// AsyncGuardFunc is a guard predicate whose result is delivered on the returned channel.
// A channel closed without a value counts as an unmet guard.
type AsyncGuardFunc func(ctx context.Context, args ...any) <-chan bool

// GuardCondition is a single named guard predicate.
type GuardCondition struct {
	guard      GuardFunc
	asyncGuard AsyncGuardFunc

	// methodDescription contains information about the guard method.
	methodDescription InvocationInfo
}

// Guard creates a guard condition from a synchronous predicate. Without an explicit
// description the predicate's function name is used.
func Guard(fn GuardFunc, description ...string) GuardCondition {
	return GuardCondition{
		guard:             fn,
		methodDescription: describe(fn, TimingSynchronous, description...),
	}
}

// GuardAsync creates a guard condition from an asynchronous predicate.
// It can only be evaluated through the Async entry points of the state machine.
func GuardAsync(fn AsyncGuardFunc, description ...string) GuardCondition {
	return GuardCondition{
		asyncGuard:        fn,
		methodDescription: describe(fn, TimingAsynchronous, description...),
	}
}

// Guard1 creates a guard condition over the first trigger argument. An argument that
// is missing or of the wrong type makes the guard fail.
func Guard1[A any](fn func(ctx context.Context, a A) bool, description ...string) GuardCondition {
	return GuardCondition{
		guard: func(ctx context.Context, args ...any) bool {
			a, err := argumentAt[A](args, 0)
			if err != nil {
				return false
			}
			return fn(ctx, a)
		},
		methodDescription: describe(fn, TimingSynchronous, description...),
	}
}

// Guard2 creates a guard condition over the first two trigger arguments.
func Guard2[A, B any](fn func(ctx context.Context, a A, b B) bool, description ...string) GuardCondition {
	return GuardCondition{
		guard: func(ctx context.Context, args ...any) bool {
			a, errA := argumentAt[A](args, 0)
			b, errB := argumentAt[B](args, 1)
			if errA != nil || errB != nil {
				return false
			}
			return fn(ctx, a, b)
		},
		methodDescription: describe(fn, TimingSynchronous, description...),
	}
}

// Guard3 creates a guard condition over the first three trigger arguments.
func Guard3[A, B, C any](fn func(ctx context.Context, a A, b B, c C) bool, description ...string) GuardCondition {
	return GuardCondition{
		guard: func(ctx context.Context, args ...any) bool {
			a, errA := argumentAt[A](args, 0)
			b, errB := argumentAt[B](args, 1)
			c, errC := argumentAt[C](args, 2)
			if errA != nil || errB != nil || errC != nil {
				return false
			}
			return fn(ctx, a, b, c)
		},
		methodDescription: describe(fn, TimingSynchronous, description...),
	}
}

// GuardAsync1 is the asynchronous counterpart of Guard1.
func GuardAsync1[A any](fn func(ctx context.Context, a A) <-chan bool, description ...string) GuardCondition {
	return GuardCondition{
		asyncGuard: func(ctx context.Context, args ...any) <-chan bool {
			a, err := argumentAt[A](args, 0)
			if err != nil {
				return unmetGuard()
			}
			return fn(ctx, a)
		},
		methodDescription: describe(fn, TimingAsynchronous, description...),
	}
}

// GuardAsync2 is the asynchronous counterpart of Guard2.
func GuardAsync2[A, B any](fn func(ctx context.Context, a A, b B) <-chan bool, description ...string) GuardCondition {
	return GuardCondition{
		asyncGuard: func(ctx context.Context, args ...any) <-chan bool {
			a, errA := argumentAt[A](args, 0)
			b, errB := argumentAt[B](args, 1)
			if errA != nil || errB != nil {
				return unmetGuard()
			}
			return fn(ctx, a, b)
		},
		methodDescription: describe(fn, TimingAsynchronous, description...),
	}
}

// GuardAsync3 is the asynchronous counterpart of Guard3.
func GuardAsync3[A, B, C any](fn func(ctx context.Context, a A, b B, c C) <-chan bool, description ...string) GuardCondition {
	return GuardCondition{
		asyncGuard: func(ctx context.Context, args ...any) <-chan bool {
			a, errA := argumentAt[A](args, 0)
			b, errB := argumentAt[B](args, 1)
			c, errC := argumentAt[C](args, 2)
			if errA != nil || errB != nil || errC != nil {
				return unmetGuard()
			}
			return fn(ctx, a, b, c)
		},
		methodDescription: describe(fn, TimingAsynchronous, description...),
	}
}

func unmetGuard() <-chan bool {
	ch := make(chan bool)
	close(ch)
	return ch
}

// Description returns the description of the guard method.
func (g GuardCondition) Description() string {
	return g.methodDescription.Description()
}

// MethodDescription returns the full method description.
func (g GuardCondition) MethodDescription() InvocationInfo {
	return g.methodDescription
}

// IsAsync returns true if the guard must be awaited.
func (g GuardCondition) IsAsync() bool {
	return g.asyncGuard != nil
}

func (g GuardCondition) isMet(ex execution, args []any) (bool, error) {
	switch {
	case g.asyncGuard != nil:
		if !ex.async {
			return false, &AsyncActionInvokedSynchronouslyError{Description: g.Description()}
		}
		result := g.asyncGuard(ex.ctx, args...)
		if result == nil {
			return false, nil
		}
		select {
		case ok := <-result:
			return ok, nil
		case <-ex.ctx.Done():
			return false, ex.ctx.Err()
		}
	case g.guard != nil:
		return g.guard(ex.ctx, args...), nil
	default:
		return true, nil
	}
}

// TransitionGuard contains a list of guard conditions that must all be met for a transition.
type TransitionGuard struct {
	Conditions []GuardCondition
}

// EmptyTransitionGuard is a transition guard with no conditions (always passes).
var EmptyTransitionGuard = TransitionGuard{}

// NewTransitionGuard creates a transition guard. Synchronous conditions are
// evaluated before asynchronous ones; otherwise declaration order is kept.
func NewTransitionGuard(conditions ...GuardCondition) TransitionGuard {
	if len(conditions) == 0 {
		return EmptyTransitionGuard
	}
	ordered := make([]GuardCondition, 0, len(conditions))
	for _, c := range conditions {
		if !c.IsAsync() {
			ordered = append(ordered, c)
		}
	}
	for _, c := range conditions {
		if c.IsAsync() {
			ordered = append(ordered, c)
		}
	}
	return TransitionGuard{Conditions: ordered}
}

// IsEmpty returns true if the transition guard has no conditions.
func (tg TransitionGuard) IsEmpty() bool {
	return len(tg.Conditions) == 0
}

// conditionsMet evaluates the conditions in order and stops at the first unmet one.
// Trigger resolution uses unmetConditions, which evaluates each guard once.
func (tg TransitionGuard) conditionsMet(ex execution, args []any) (bool, error) {
	for _, c := range tg.Conditions {
		ok, err := c.isMet(ex, args)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// unmetConditions returns the descriptions of the conditions that are not met.
// Asynchronous conditions are skipped once a synchronous one has failed.
func (tg TransitionGuard) unmetConditions(ex execution, args []any) ([]string, error) {
	var unmet []string
	for _, c := range tg.Conditions {
		if c.IsAsync() && len(unmet) > 0 {
			break
		}
		ok, err := c.isMet(ex, args)
		if err != nil {
			return nil, err
		}
		if !ok {
			unmet = append(unmet, c.Description())
		}
	}
	return unmet, nil
}

func (tg TransitionGuard) descriptions() []InvocationInfo {
	result := make([]InvocationInfo, len(tg.Conditions))
	for i, c := range tg.Conditions {
		result[i] = c.MethodDescription()
	}
	return result
}

// argumentAt extracts the argument at index i as type A.
func argumentAt[A any](args []any, i int) (A, error) {
	var zero A
	if i >= len(args) {
		return zero, &ParameterConversionError{
			Message: fmt.Sprintf("an argument of type %v is required in position %d", reflect.TypeFor[A](), i),
		}
	}
	if args[i] == nil {
		if isNilable(reflect.TypeFor[A]()) {
			return zero, nil
		}
		return zero, &ParameterConversionError{
			Message: fmt.Sprintf("argument in position %d is nil but type %v is required", i, reflect.TypeFor[A]()),
		}
	}
	a, ok := args[i].(A)
	if !ok {
		return zero, &ParameterConversionError{
			Message: fmt.Sprintf("argument in position %d is of type %T but type %v is required", i, args[i], reflect.TypeFor[A]()),
		}
	}
	return a, nil
}

func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
