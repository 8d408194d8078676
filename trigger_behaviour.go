package hsm

// StateSelector computes the destination of a dynamic transition from the trigger arguments.
type StateSelector[TState any] func(args ...any) (TState, error)

// TriggerBehaviour is what a state does when a trigger fires. The set of
// implementations is closed: TransitioningTriggerBehaviour, ReentryTriggerBehaviour,
// InternalTriggerBehaviour, IgnoredTriggerBehaviour and DynamicTriggerBehaviour.
type TriggerBehaviour[TState, TTrigger comparable] interface {
	// Trigger returns the trigger associated with this behaviour.
	Trigger() TTrigger

	// Guard returns the transition guard for this trigger.
	Guard() TransitionGuard

	// resolve returns the destination state, and false when the behaviour does not change state.
	resolve(source TState, args []any) (TState, bool, error)
}

// triggerBehaviourBase provides the base implementation for trigger behaviours.
type triggerBehaviourBase[TState, TTrigger comparable] struct {
	trigger TTrigger
	guard   TransitionGuard
}

func (t *triggerBehaviourBase[TState, TTrigger]) Trigger() TTrigger {
	return t.trigger
}

func (t *triggerBehaviourBase[TState, TTrigger]) Guard() TransitionGuard {
	return t.guard
}

// TransitioningTriggerBehaviour represents a transition to a fixed destination state.
type TransitioningTriggerBehaviour[TState, TTrigger comparable] struct {
	triggerBehaviourBase[TState, TTrigger]

	Destination TState
}

// NewTransitioningTriggerBehaviour creates a new transitioning trigger behaviour.
func NewTransitioningTriggerBehaviour[TState, TTrigger comparable](
	trigger TTrigger,
	destination TState,
	guard TransitionGuard,
) *TransitioningTriggerBehaviour[TState, TTrigger] {
	return &TransitioningTriggerBehaviour[TState, TTrigger]{
		triggerBehaviourBase: triggerBehaviourBase[TState, TTrigger]{trigger: trigger, guard: guard},
		Destination:          destination,
	}
}

func (b *TransitioningTriggerBehaviour[TState, TTrigger]) resolve(TState, []any) (TState, bool, error) {
	return b.Destination, true, nil
}

// ReentryTriggerBehaviour represents a reentry transition (state exits and re-enters itself).
type ReentryTriggerBehaviour[TState, TTrigger comparable] struct {
	triggerBehaviourBase[TState, TTrigger]

	Destination TState
}

// NewReentryTriggerBehaviour creates a new reentry trigger behaviour.
func NewReentryTriggerBehaviour[TState, TTrigger comparable](
	trigger TTrigger,
	destination TState,
	guard TransitionGuard,
) *ReentryTriggerBehaviour[TState, TTrigger] {
	return &ReentryTriggerBehaviour[TState, TTrigger]{
		triggerBehaviourBase: triggerBehaviourBase[TState, TTrigger]{trigger: trigger, guard: guard},
		Destination:          destination,
	}
}

func (b *ReentryTriggerBehaviour[TState, TTrigger]) resolve(TState, []any) (TState, bool, error) {
	return b.Destination, true, nil
}

// IgnoredTriggerBehaviour represents a trigger that should be ignored.
type IgnoredTriggerBehaviour[TState, TTrigger comparable] struct {
	triggerBehaviourBase[TState, TTrigger]
}

// NewIgnoredTriggerBehaviour creates a new ignored trigger behaviour.
func NewIgnoredTriggerBehaviour[TState, TTrigger comparable](
	trigger TTrigger,
	guard TransitionGuard,
) *IgnoredTriggerBehaviour[TState, TTrigger] {
	return &IgnoredTriggerBehaviour[TState, TTrigger]{
		triggerBehaviourBase: triggerBehaviourBase[TState, TTrigger]{trigger: trigger, guard: guard},
	}
}

func (b *IgnoredTriggerBehaviour[TState, TTrigger]) resolve(source TState, _ []any) (TState, bool, error) {
	return source, false, nil
}

// DynamicTriggerBehaviour represents a transition to a dynamically determined state.
type DynamicTriggerBehaviour[TState, TTrigger comparable] struct {
	triggerBehaviourBase[TState, TTrigger]

	destination StateSelector[TState]
	selector    InvocationInfo
	possible    []DynamicStateInfo
}

// NewDynamicTriggerBehaviour creates a new dynamic trigger behaviour.
func NewDynamicTriggerBehaviour[TState, TTrigger comparable](
	trigger TTrigger,
	destination StateSelector[TState],
	guard TransitionGuard,
	possible []DynamicStateInfo,
) *DynamicTriggerBehaviour[TState, TTrigger] {
	return &DynamicTriggerBehaviour[TState, TTrigger]{
		triggerBehaviourBase: triggerBehaviourBase[TState, TTrigger]{trigger: trigger, guard: guard},
		destination:          destination,
		selector:             describe(destination, TimingSynchronous),
		possible:             possible,
	}
}

func (b *DynamicTriggerBehaviour[TState, TTrigger]) resolve(_ TState, args []any) (TState, bool, error) {
	destination, err := b.destination(args...)
	if err != nil {
		var zero TState
		return zero, false, err
	}
	return destination, true, nil
}

// InternalTriggerBehaviour runs an action without leaving the current state.
type InternalTriggerBehaviour[TState, TTrigger comparable] struct {
	triggerBehaviourBase[TState, TTrigger]

	action *ActionBehaviour[TState, TTrigger]
}

// NewInternalTriggerBehaviour creates a new internal trigger behaviour.
func NewInternalTriggerBehaviour[TState, TTrigger comparable](
	trigger TTrigger,
	guard TransitionGuard,
	action *ActionBehaviour[TState, TTrigger],
) *InternalTriggerBehaviour[TState, TTrigger] {
	return &InternalTriggerBehaviour[TState, TTrigger]{
		triggerBehaviourBase: triggerBehaviourBase[TState, TTrigger]{trigger: trigger, guard: guard},
		action:               action,
	}
}

func (b *InternalTriggerBehaviour[TState, TTrigger]) resolve(source TState, _ []any) (TState, bool, error) {
	return source, false, nil
}

func (b *InternalTriggerBehaviour[TState, TTrigger]) execute(ex execution, t Transition[TState, TTrigger]) error {
	if b.action == nil {
		return nil
	}
	return b.action.execute(ex, t)
}

// TriggerBehaviourResult represents the result of finding a trigger behaviour.
type TriggerBehaviourResult[TState, TTrigger comparable] struct {
	// Handler is the trigger behaviour that was found, nil if every candidate had unmet guards.
	Handler TriggerBehaviour[TState, TTrigger]

	// UnmetGuardConditions contains descriptions of any unmet guard conditions.
	UnmetGuardConditions []string
}

// Selector1 adapts a destination selector over the first trigger argument.
func Selector1[A any, TState any](fn func(a A) TState) StateSelector[TState] {
	return func(args ...any) (TState, error) {
		a, err := argumentAt[A](args, 0)
		if err != nil {
			var zero TState
			return zero, err
		}
		return fn(a), nil
	}
}

// Selector2 adapts a destination selector over the first two trigger arguments.
func Selector2[A, B any, TState any](fn func(a A, b B) TState) StateSelector[TState] {
	return func(args ...any) (TState, error) {
		var zero TState
		a, err := argumentAt[A](args, 0)
		if err != nil {
			return zero, err
		}
		b, err := argumentAt[B](args, 1)
		if err != nil {
			return zero, err
		}
		return fn(a, b), nil
	}
}

// Selector3 adapts a destination selector over the first three trigger arguments.
func Selector3[A, B, C any, TState any](fn func(a A, b B, c C) TState) StateSelector[TState] {
	return func(args ...any) (TState, error) {
		var zero TState
		a, err := argumentAt[A](args, 0)
		if err != nil {
			return zero, err
		}
		b, err := argumentAt[B](args, 1)
		if err != nil {
			return zero, err
		}
		c, err := argumentAt[C](args, 2)
		if err != nil {
			return zero, err
		}
		return fn(a, b, c), nil
	}
}

// SelectorFunc adapts a selector that ignores the trigger arguments.
func SelectorFunc[TState any](fn func() TState) StateSelector[TState] {
	return func(...any) (TState, error) {
		return fn(), nil
	}
}
