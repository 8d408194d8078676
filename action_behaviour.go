package hsm

import (
	"context"
)

// TransitionAction is a synchronous action that receives the transition being executed.
type TransitionAction[TState, TTrigger comparable] func(ctx context.Context, t Transition[TState, TTrigger]) error

// AsyncTransitionAction is an action whose completion is signalled on the returned channel.
// A channel closed without a value counts as success.
type AsyncTransitionAction[TState, TTrigger comparable] func(ctx context.Context, t Transition[TState, TTrigger]) <-chan error

// ActivationAction runs when a state is activated or deactivated.
type ActivationAction func(ctx context.Context) error

// AsyncActivationAction is the asynchronous form of ActivationAction.
type AsyncActivationAction func(ctx context.Context) <-chan error

// execution carries the per-fire settings through the engine.
type execution struct {
	ctx context.Context

	// async allows asynchronous callbacks to be awaited.
	async bool

	// activate runs activation actions of entered states.
	activate bool
}

// await blocks until ch delivers or ctx is done.
func await(ctx context.Context, ch <-chan error) error {
	if ch == nil {
		return nil
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActionBehaviour is an entry or exit action, optionally restricted to one trigger.
type ActionBehaviour[TState, TTrigger comparable] struct {
	action      TransitionAction[TState, TTrigger]
	asyncAction AsyncTransitionAction[TState, TTrigger]
	description InvocationInfo
	fromTrigger *TTrigger
}

// NewActionBehaviour creates a synchronous entry or exit action.
func NewActionBehaviour[TState, TTrigger comparable](
	action TransitionAction[TState, TTrigger],
	description InvocationInfo,
) *ActionBehaviour[TState, TTrigger] {
	return &ActionBehaviour[TState, TTrigger]{
		action:      action,
		description: description,
	}
}

// NewAsyncActionBehaviour creates an asynchronous entry or exit action.
func NewAsyncActionBehaviour[TState, TTrigger comparable](
	action AsyncTransitionAction[TState, TTrigger],
	description InvocationInfo,
) *ActionBehaviour[TState, TTrigger] {
	return &ActionBehaviour[TState, TTrigger]{
		asyncAction: action,
		description: description,
	}
}

// From restricts the action to transitions caused by trigger.
func (a *ActionBehaviour[TState, TTrigger]) From(trigger TTrigger) *ActionBehaviour[TState, TTrigger] {
	a.fromTrigger = &trigger
	return a
}

// Description returns the description of the action.
func (a *ActionBehaviour[TState, TTrigger]) Description() InvocationInfo {
	return a.description
}

// FromTrigger returns the trigger the action is bound to, if any.
func (a *ActionBehaviour[TState, TTrigger]) FromTrigger() (TTrigger, bool) {
	if a.fromTrigger == nil {
		var zero TTrigger
		return zero, false
	}
	return *a.fromTrigger, true
}

func (a *ActionBehaviour[TState, TTrigger]) info() ActionInfo {
	var from any
	if a.fromTrigger != nil {
		from = *a.fromTrigger
	}
	return ActionInfo{InvocationInfo: a.description, FromTrigger: from}
}

func (a *ActionBehaviour[TState, TTrigger]) execute(ex execution, t Transition[TState, TTrigger]) error {
	if a.fromTrigger != nil && *a.fromTrigger != t.Trigger {
		return nil
	}
	switch {
	case a.asyncAction != nil:
		if !ex.async {
			return &AsyncActionInvokedSynchronouslyError{Description: a.description.Description()}
		}
		return await(ex.ctx, a.asyncAction(ex.ctx, t))
	case a.action != nil:
		return a.action(ex.ctx, t)
	default:
		return nil
	}
}

// ActivationBehaviour is an activation or deactivation action.
type ActivationBehaviour struct {
	action      ActivationAction
	asyncAction AsyncActivationAction
	description InvocationInfo
}

// NewActivationBehaviour creates a synchronous activation or deactivation action.
func NewActivationBehaviour(action ActivationAction, description InvocationInfo) *ActivationBehaviour {
	return &ActivationBehaviour{action: action, description: description}
}

// NewAsyncActivationBehaviour creates an asynchronous activation or deactivation action.
func NewAsyncActivationBehaviour(action AsyncActivationAction, description InvocationInfo) *ActivationBehaviour {
	return &ActivationBehaviour{asyncAction: action, description: description}
}

// Description returns the description of the action.
func (a *ActivationBehaviour) Description() InvocationInfo {
	return a.description
}

func (a *ActivationBehaviour) execute(ex execution) error {
	switch {
	case a.asyncAction != nil:
		if !ex.async {
			return &AsyncActionInvokedSynchronouslyError{Description: a.description.Description()}
		}
		return await(ex.ctx, a.asyncAction(ex.ctx))
	case a.action != nil:
		return a.action(ex.ctx)
	default:
		return nil
	}
}

// Action1 adapts an action over the first trigger argument. A missing or mistyped
// argument fails the action with a *ParameterConversionError.
func Action1[A any, TState, TTrigger comparable](
	fn func(ctx context.Context, a A, t Transition[TState, TTrigger]) error,
) TransitionAction[TState, TTrigger] {
	return func(ctx context.Context, t Transition[TState, TTrigger]) error {
		a, err := argumentAt[A](t.Parameters, 0)
		if err != nil {
			return err
		}
		return fn(ctx, a, t)
	}
}

// Action2 adapts an action over the first two trigger arguments.
func Action2[A, B any, TState, TTrigger comparable](
	fn func(ctx context.Context, a A, b B, t Transition[TState, TTrigger]) error,
) TransitionAction[TState, TTrigger] {
	return func(ctx context.Context, t Transition[TState, TTrigger]) error {
		a, err := argumentAt[A](t.Parameters, 0)
		if err != nil {
			return err
		}
		b, err := argumentAt[B](t.Parameters, 1)
		if err != nil {
			return err
		}
		return fn(ctx, a, b, t)
	}
}

// Action3 adapts an action over the first three trigger arguments.
func Action3[A, B, C any, TState, TTrigger comparable](
	fn func(ctx context.Context, a A, b B, c C, t Transition[TState, TTrigger]) error,
) TransitionAction[TState, TTrigger] {
	return func(ctx context.Context, t Transition[TState, TTrigger]) error {
		a, err := argumentAt[A](t.Parameters, 0)
		if err != nil {
			return err
		}
		b, err := argumentAt[B](t.Parameters, 1)
		if err != nil {
			return err
		}
		c, err := argumentAt[C](t.Parameters, 2)
		if err != nil {
			return err
		}
		return fn(ctx, a, b, c, t)
	}
}

// AsyncAction1 is the asynchronous counterpart of Action1. A conversion failure
// is delivered on the returned channel.
func AsyncAction1[A any, TState, TTrigger comparable](
	fn func(ctx context.Context, a A, t Transition[TState, TTrigger]) <-chan error,
) AsyncTransitionAction[TState, TTrigger] {
	return func(ctx context.Context, t Transition[TState, TTrigger]) <-chan error {
		a, err := argumentAt[A](t.Parameters, 0)
		if err != nil {
			return failed(err)
		}
		return fn(ctx, a, t)
	}
}

// AsyncAction2 is the asynchronous counterpart of Action2.
func AsyncAction2[A, B any, TState, TTrigger comparable](
	fn func(ctx context.Context, a A, b B, t Transition[TState, TTrigger]) <-chan error,
) AsyncTransitionAction[TState, TTrigger] {
	return func(ctx context.Context, t Transition[TState, TTrigger]) <-chan error {
		a, err := argumentAt[A](t.Parameters, 0)
		if err != nil {
			return failed(err)
		}
		b, err := argumentAt[B](t.Parameters, 1)
		if err != nil {
			return failed(err)
		}
		return fn(ctx, a, b, t)
	}
}

// AsyncAction3 is the asynchronous counterpart of Action3.
func AsyncAction3[A, B, C any, TState, TTrigger comparable](
	fn func(ctx context.Context, a A, b B, c C, t Transition[TState, TTrigger]) <-chan error,
) AsyncTransitionAction[TState, TTrigger] {
	return func(ctx context.Context, t Transition[TState, TTrigger]) <-chan error {
		a, err := argumentAt[A](t.Parameters, 0)
		if err != nil {
			return failed(err)
		}
		b, err := argumentAt[B](t.Parameters, 1)
		if err != nil {
			return failed(err)
		}
		c, err := argumentAt[C](t.Parameters, 2)
		if err != nil {
			return failed(err)
		}
		return fn(ctx, a, b, c, t)
	}
}

func failed(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}
