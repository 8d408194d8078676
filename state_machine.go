package hsm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// StateMachine is a hierarchical state machine driven by triggers.
//
// A StateMachine is not safe for concurrent use. Callers firing from several
// goroutines use FireThreadSafe or FireAsyncThreadSafe, which serialize on a
// single permit.
type StateMachine[TState, TTrigger comparable] struct {
	// storage holds the current state.
	storage StateStorage[TState]

	// registry contains the configuration for each state.
	registry *stateRegistry[TState, TTrigger]

	// triggerConfiguration holds the parameter bindings of triggers.
	triggerConfiguration map[TTrigger]*TriggerWithParameters[TTrigger]

	// unhandledTriggerAction is called when a trigger is fired but not handled.
	unhandledTriggerAction *unhandledTriggerAction[TState, TTrigger]

	// onTransitionedEvent is raised after the source is exited and before the destination is entered.
	onTransitionedEvent *transitionEvent[TState, TTrigger]

	// onTransitionCompletedEvent is raised after all transition actions are executed.
	onTransitionCompletedEvent *transitionEvent[TState, TTrigger]

	// firingMode determines how triggers are processed.
	firingMode FiringMode

	// eventQueue holds queued events when using FiringQueued mode.
	eventQueue []queuedEvent[TTrigger]

	// firing indicates if the queue is being drained.
	firing bool

	// sem serializes the thread-safe entry points.
	sem *semaphore.Weighted

	// isActive indicates if the state machine has been activated.
	isActive bool

	// initialState is the first state observed by the machine, reported by GetInfo.
	initialState TState
	initialKnown bool

	id     string
	logger logrus.FieldLogger
}

// queuedEvent represents an event waiting to be processed.
type queuedEvent[TTrigger comparable] struct {
	trigger TTrigger
	args    []any
}

// transitionCallback is one observer registered for a transition event.
type transitionCallback[TState, TTrigger comparable] struct {
	action      func(ctx context.Context, t Transition[TState, TTrigger])
	asyncAction func(ctx context.Context, t Transition[TState, TTrigger]) <-chan struct{}
	description InvocationInfo
}

// transitionEvent holds transition observers in registration order.
type transitionEvent[TState, TTrigger comparable] struct {
	callbacks []transitionCallback[TState, TTrigger]
}

func (e *transitionEvent[TState, TTrigger]) register(callback transitionCallback[TState, TTrigger]) {
	e.callbacks = append(e.callbacks, callback)
}

func (e *transitionEvent[TState, TTrigger]) unregisterAll() {
	e.callbacks = nil
}

// invoke runs the callbacks one after the other, awaiting each asynchronous one.
func (e *transitionEvent[TState, TTrigger]) invoke(ex execution, t Transition[TState, TTrigger]) error {
	for _, callback := range e.callbacks {
		if callback.asyncAction == nil {
			callback.action(ex.ctx, t)
			continue
		}
		if !ex.async {
			return &AsyncActionInvokedSynchronouslyError{Description: callback.description.Description()}
		}
		done := callback.asyncAction(ex.ctx, t)
		if done == nil {
			continue
		}
		select {
		case <-done:
		case <-ex.ctx.Done():
			return ex.ctx.Err()
		}
	}
	return nil
}

// unhandledTriggerAction replaces the default unhandled trigger error.
type unhandledTriggerAction[TState, TTrigger comparable] struct {
	action      func(ctx context.Context, state TState, trigger TTrigger, unmetGuards []string) error
	asyncAction func(ctx context.Context, state TState, trigger TTrigger, unmetGuards []string) <-chan error
	description InvocationInfo
}

func (a *unhandledTriggerAction[TState, TTrigger]) execute(ex execution, state TState, trigger TTrigger, unmetGuards []string) error {
	if a.asyncAction == nil {
		return a.action(ex.ctx, state, trigger, unmetGuards)
	}
	if !ex.async {
		return &AsyncActionInvokedSynchronouslyError{Description: a.description.Description()}
	}
	return await(ex.ctx, a.asyncAction(ex.ctx, state, trigger, unmetGuards))
}

// NewStateMachine creates a new state machine with the specified initial state.
func NewStateMachine[TState, TTrigger comparable](initialState TState, opts ...Option) *StateMachine[TState, TTrigger] {
	sm := NewStateMachineWithStorage[TState, TTrigger](NewInMemoryStorage(initialState), opts...)
	sm.initialState, sm.initialKnown = initialState, true
	return sm
}

// NewStateMachineWithExternalStorage creates a new state machine whose state lives
// outside of it, read through stateAccessor and written through stateMutator.
func NewStateMachineWithExternalStorage[TState, TTrigger comparable](
	stateAccessor func() TState,
	stateMutator func(TState),
	opts ...Option,
) *StateMachine[TState, TTrigger] {
	return NewStateMachineWithStorage[TState, TTrigger](
		StorageFuncs[TState]{Get: stateAccessor, Set: stateMutator},
		opts...,
	)
}

// NewStateMachineWithStorage creates a new state machine backed by storage.
// The storage is not read until the machine first needs its state.
func NewStateMachineWithStorage[TState, TTrigger comparable](
	storage StateStorage[TState],
	opts ...Option,
) *StateMachine[TState, TTrigger] {
	o := newOptions(opts)
	return &StateMachine[TState, TTrigger]{
		storage:                    storage,
		registry:                   newStateRegistry[TState, TTrigger](),
		triggerConfiguration:       make(map[TTrigger]*TriggerWithParameters[TTrigger]),
		onTransitionedEvent:        &transitionEvent[TState, TTrigger]{},
		onTransitionCompletedEvent: &transitionEvent[TState, TTrigger]{},
		firingMode:                 o.firingMode,
		sem:                        semaphore.NewWeighted(1),
		id:                         o.id,
		logger:                     o.logger.WithField("machine", o.id),
	}
}

// ID returns the identifier of the machine.
func (sm *StateMachine[TState, TTrigger]) ID() string {
	return sm.id
}

// FiringMode returns the firing mode of the machine.
func (sm *StateMachine[TState, TTrigger]) FiringMode() FiringMode {
	return sm.firingMode
}

// State returns the current state.
func (sm *StateMachine[TState, TTrigger]) State(ctx context.Context) (TState, error) {
	state, err := sm.storage.Load(ctx)
	if err != nil {
		return state, fmt.Errorf("loading state: %w", err)
	}
	if !sm.initialKnown {
		sm.initialState, sm.initialKnown = state, true
	}
	return state, nil
}

// MustState returns the current state and panics if it cannot be loaded.
func (sm *StateMachine[TState, TTrigger]) MustState() TState {
	state, err := sm.State(context.Background())
	if err != nil {
		panic(err)
	}
	return state
}

func (sm *StateMachine[TState, TTrigger]) storeState(ctx context.Context, state TState) error {
	if err := sm.storage.Store(ctx, state); err != nil {
		return fmt.Errorf("storing state '%v': %w", state, err)
	}
	return nil
}

// Configure begins configuration of a state. Calling it again for the same state
// adds to the existing configuration.
func (sm *StateMachine[TState, TTrigger]) Configure(state TState) *StateConfiguration[TState, TTrigger] {
	return newStateConfiguration(sm, sm.registry.get(state))
}

// Fire fires a trigger with optional arguments.
func (sm *StateMachine[TState, TTrigger]) Fire(trigger TTrigger, args ...any) error {
	return sm.FireCtx(context.Background(), trigger, args...)
}

// FireCtx fires a trigger with a context. Reaching an asynchronous guard, action or
// callback fails with an *AsyncActionInvokedSynchronouslyError.
func (sm *StateMachine[TState, TTrigger]) FireCtx(ctx context.Context, trigger TTrigger, args ...any) error {
	return sm.fire(execution{ctx: ctx}, trigger, args)
}

// FireAsync fires a trigger, awaiting asynchronous guards, actions and callbacks
// in order. It returns once the trigger has been fully processed.
func (sm *StateMachine[TState, TTrigger]) FireAsync(ctx context.Context, trigger TTrigger, args ...any) error {
	return sm.fire(execution{ctx: ctx, async: true}, trigger, args)
}

// FireThreadSafe is FireCtx serialized against other thread-safe calls.
// It must not be called from inside a callback of the same machine.
func (sm *StateMachine[TState, TTrigger]) FireThreadSafe(ctx context.Context, trigger TTrigger, args ...any) error {
	if err := sm.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sm.sem.Release(1)
	return sm.FireCtx(ctx, trigger, args...)
}

// FireAsyncThreadSafe is FireAsync serialized against other thread-safe calls.
func (sm *StateMachine[TState, TTrigger]) FireAsyncThreadSafe(ctx context.Context, trigger TTrigger, args ...any) error {
	if err := sm.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sm.sem.Release(1)
	return sm.FireAsync(ctx, trigger, args...)
}

func (sm *StateMachine[TState, TTrigger]) fire(ex execution, trigger TTrigger, args []any) error {
	if configuration, ok := sm.triggerConfiguration[trigger]; ok {
		if err := configuration.ValidateParameters(args); err != nil {
			return err
		}
	}

	if sm.firingMode == FiringQueued {
		return sm.fireQueued(ex, trigger, args)
	}
	return sm.internalFire(ex, trigger, args)
}

// fireQueued enqueues the event and drains the queue unless a drain is already running.
func (sm *StateMachine[TState, TTrigger]) fireQueued(ex execution, trigger TTrigger, args []any) error {
	sm.eventQueue = append(sm.eventQueue, queuedEvent[TTrigger]{trigger: trigger, args: args})
	if sm.firing {
		sm.logger.WithField("trigger", trigger).Debug("trigger queued")
		return nil
	}

	sm.firing = true
	defer func() { sm.firing = false }()

	for len(sm.eventQueue) > 0 {
		event := sm.eventQueue[0]
		sm.eventQueue = sm.eventQueue[1:]
		if err := sm.internalFire(ex, event.trigger, event.args); err != nil {
			if dropped := len(sm.eventQueue); dropped > 0 {
				sm.logger.WithError(err).WithField("dropped", dropped).Warn("dropping queued triggers")
				sm.eventQueue = nil
			}
			return err
		}
	}
	return nil
}

// internalFire processes a single trigger.
func (sm *StateMachine[TState, TTrigger]) internalFire(ex execution, trigger TTrigger, args []any) error {
	if err := ex.ctx.Err(); err != nil {
		return err
	}
	ex.activate = sm.isActive

	source, err := sm.State(ex.ctx)
	if err != nil {
		return err
	}
	representation := sm.registry.get(source)

	result, err := representation.tryFindHandler(ex, trigger, args)
	if err != nil {
		return err
	}
	if result == nil || result.Handler == nil {
		return sm.handleUnhandledTrigger(ex, source, trigger, args, result)
	}

	sm.logger.WithFields(logrus.Fields{
		"trigger": trigger,
		"state":   source,
	}).Debug("firing trigger")

	destination, changesState, err := result.Handler.resolve(source, args)
	if err != nil {
		return fmt.Errorf("resolving destination of trigger '%v' from state '%v': %w", trigger, source, err)
	}

	switch behaviour := result.Handler.(type) {
	case *InternalTriggerBehaviour[TState, TTrigger]:
		return behaviour.execute(ex, NewTransition(source, source, trigger, args...))
	case *ReentryTriggerBehaviour[TState, TTrigger]:
		return sm.handleReentryTrigger(ex, representation, NewTransition(source, destination, trigger, args...))
	case *DynamicTriggerBehaviour[TState, TTrigger]:
		if destination == source {
			return sm.handleReentryTrigger(ex, representation, NewTransition(source, destination, trigger, args...))
		}
		return sm.handleTransitioningTrigger(ex, representation, NewTransition(source, destination, trigger, args...))
	default:
		// A superstate transition into the current substate does not re-enter it.
		if !changesState || destination == source {
			return nil
		}
		return sm.handleTransitioningTrigger(ex, representation, NewTransition(source, destination, trigger, args...))
	}
}

// handleReentryTrigger exits and re-enters the destination. When the behaviour was
// found on a superstate, the substates are exited first and the superstate is re-entered.
func (sm *StateMachine[TState, TTrigger]) handleReentryTrigger(
	ex execution,
	representation *StateRepresentation[TState, TTrigger],
	t Transition[TState, TTrigger],
) error {
	if err := representation.exit(ex, t); err != nil {
		return err
	}

	destination := sm.registry.get(t.Destination)
	if t.Source != t.Destination {
		t = t.between(t.Destination, t.Destination)
		if err := destination.exit(ex, t); err != nil {
			return err
		}
	}

	return sm.completeTransition(ex, destination, t)
}

// handleTransitioningTrigger runs the exit, store, notify and entry sequence.
func (sm *StateMachine[TState, TTrigger]) handleTransitioningTrigger(
	ex execution,
	representation *StateRepresentation[TState, TTrigger],
	t Transition[TState, TTrigger],
) error {
	if err := representation.exit(ex, t); err != nil {
		return err
	}
	return sm.completeTransition(ex, sm.registry.get(t.Destination), t)
}

func (sm *StateMachine[TState, TTrigger]) completeTransition(
	ex execution,
	destination *StateRepresentation[TState, TTrigger],
	t Transition[TState, TTrigger],
) error {
	if err := sm.storeState(ex.ctx, t.Destination); err != nil {
		return err
	}
	sm.logger.WithFields(logrus.Fields{
		"source":      t.Source,
		"destination": t.Destination,
		"trigger":     t.Trigger,
	}).Debug("transitioned")

	if err := sm.onTransitionedEvent.invoke(ex, t); err != nil {
		return err
	}

	if err := sm.enterState(ex, destination, t); err != nil {
		return err
	}

	settled, err := sm.State(ex.ctx)
	if err != nil {
		return err
	}
	return sm.onTransitionCompletedEvent.invoke(ex, t.between(t.Source, settled))
}

// enterState enters representation and then descends through initial transitions.
func (sm *StateMachine[TState, TTrigger]) enterState(
	ex execution,
	representation *StateRepresentation[TState, TTrigger],
	t Transition[TState, TTrigger],
) error {
	if err := representation.enter(ex, t); err != nil {
		return err
	}

	if sm.firingMode == FiringImmediate {
		current, err := sm.State(ex.ctx)
		if err != nil {
			return err
		}
		// Entry actions fired further triggers; continue from where they left the machine.
		if current != t.Destination {
			representation = sm.registry.get(current)
		}
	}

	if !representation.HasInitialTransition() {
		return nil
	}

	state := representation.UnderlyingState()
	target := representation.InitialTransitionTarget()
	targetRepresentation, ok := sm.registry.lookup(target)
	if !ok || target == state || !targetRepresentation.IsIncludedIn(state) {
		return &InvalidInitialTransitionTargetError{State: state, Target: target}
	}

	initial := t.descend(state, target)
	if err := sm.storeState(ex.ctx, target); err != nil {
		return err
	}
	if err := sm.onTransitionedEvent.invoke(ex, initial); err != nil {
		return err
	}
	return sm.enterState(ex, targetRepresentation, initial)
}

// handleUnhandledTrigger handles a trigger that has no valid handler.
func (sm *StateMachine[TState, TTrigger]) handleUnhandledTrigger(
	ex execution,
	state TState,
	trigger TTrigger,
	args []any,
	result *TriggerBehaviourResult[TState, TTrigger],
) error {
	var unmetGuards []string
	if result != nil {
		unmetGuards = result.UnmetGuardConditions
	}

	if sm.unhandledTriggerAction != nil {
		return sm.unhandledTriggerAction.execute(ex, state, trigger, unmetGuards)
	}

	sm.logger.WithFields(logrus.Fields{
		"trigger":      trigger,
		"state":        state,
		"unmet_guards": unmetGuards,
	}).Warn("unhandled trigger")

	permittedTriggers, err := sm.registry.get(state).permittedTriggers(ex, args, trigger)
	if err != nil {
		sm.logger.WithError(err).WithField("state", state).Debug("could not list permitted triggers")
	}
	permitted := make([]any, len(permittedTriggers))
	for i, t := range permittedTriggers {
		permitted[i] = t
	}

	return &UnhandledTriggerError{
		Trigger:           trigger,
		State:             state,
		UnmetGuards:       unmetGuards,
		PermittedTriggers: permitted,
	}
}

// OnUnhandledTrigger registers a callback that replaces the default
// *UnhandledTriggerError. Its return value is returned from Fire.
func (sm *StateMachine[TState, TTrigger]) OnUnhandledTrigger(
	action func(ctx context.Context, state TState, trigger TTrigger, unmetGuards []string) error,
) {
	sm.unhandledTriggerAction = &unhandledTriggerAction[TState, TTrigger]{
		action:      action,
		description: describe(action, TimingSynchronous),
	}
}

// OnUnhandledTriggerAsync is the asynchronous form of OnUnhandledTrigger.
func (sm *StateMachine[TState, TTrigger]) OnUnhandledTriggerAsync(
	action func(ctx context.Context, state TState, trigger TTrigger, unmetGuards []string) <-chan error,
) {
	sm.unhandledTriggerAction = &unhandledTriggerAction[TState, TTrigger]{
		asyncAction: action,
		description: describe(action, TimingAsynchronous),
	}
}

// OnTransitioned registers a callback invoked once the source has been exited and
// the state stored, before the destination is entered.
func (sm *StateMachine[TState, TTrigger]) OnTransitioned(action func(ctx context.Context, t Transition[TState, TTrigger])) {
	sm.onTransitionedEvent.register(transitionCallback[TState, TTrigger]{
		action:      action,
		description: describe(action, TimingSynchronous),
	})
}

// OnTransitionedAsync registers an asynchronous OnTransitioned callback. It is
// complete when the returned channel delivers or is closed, or at once when the
// channel is nil.
func (sm *StateMachine[TState, TTrigger]) OnTransitionedAsync(action func(ctx context.Context, t Transition[TState, TTrigger]) <-chan struct{}) {
	sm.onTransitionedEvent.register(transitionCallback[TState, TTrigger]{
		asyncAction: action,
		description: describe(action, TimingAsynchronous),
	})
}

// OnTransitionCompleted registers a callback invoked after all transition actions,
// including initial transitions, have run. The transition's destination is the
// state the machine settled in.
func (sm *StateMachine[TState, TTrigger]) OnTransitionCompleted(action func(ctx context.Context, t Transition[TState, TTrigger])) {
	sm.onTransitionCompletedEvent.register(transitionCallback[TState, TTrigger]{
		action:      action,
		description: describe(action, TimingSynchronous),
	})
}

// OnTransitionCompletedAsync registers an asynchronous OnTransitionCompleted callback.
func (sm *StateMachine[TState, TTrigger]) OnTransitionCompletedAsync(action func(ctx context.Context, t Transition[TState, TTrigger]) <-chan struct{}) {
	sm.onTransitionCompletedEvent.register(transitionCallback[TState, TTrigger]{
		asyncAction: action,
		description: describe(action, TimingAsynchronous),
	})
}

// UnregisterAllCallbacks removes every transition observer and the unhandled trigger callback.
func (sm *StateMachine[TState, TTrigger]) UnregisterAllCallbacks() {
	sm.onTransitionedEvent.unregisterAll()
	sm.onTransitionCompletedEvent.unregisterAll()
	sm.unhandledTriggerAction = nil
}

// Activate runs the activation actions of the current state and its superstates.
// Calling it again before Deactivate does nothing.
func (sm *StateMachine[TState, TTrigger]) Activate(ctx context.Context) error {
	return sm.activate(execution{ctx: ctx})
}

// ActivateAsync is Activate with asynchronous activation actions awaited.
func (sm *StateMachine[TState, TTrigger]) ActivateAsync(ctx context.Context) error {
	return sm.activate(execution{ctx: ctx, async: true})
}

// Deactivate runs the deactivation actions of the current state and its superstates.
// Calling it on an inactive machine does nothing.
func (sm *StateMachine[TState, TTrigger]) Deactivate(ctx context.Context) error {
	return sm.deactivate(execution{ctx: ctx})
}

// DeactivateAsync is Deactivate with asynchronous deactivation actions awaited.
func (sm *StateMachine[TState, TTrigger]) DeactivateAsync(ctx context.Context) error {
	return sm.deactivate(execution{ctx: ctx, async: true})
}

// IsActive reports whether the machine has been activated.
func (sm *StateMachine[TState, TTrigger]) IsActive() bool {
	return sm.isActive
}

func (sm *StateMachine[TState, TTrigger]) activate(ex execution) error {
	if sm.isActive {
		return nil
	}
	state, err := sm.State(ex.ctx)
	if err != nil {
		return err
	}
	if err := sm.registry.get(state).activate(ex); err != nil {
		return err
	}
	sm.isActive = true
	return nil
}

func (sm *StateMachine[TState, TTrigger]) deactivate(ex execution) error {
	if !sm.isActive {
		return nil
	}
	state, err := sm.State(ex.ctx)
	if err != nil {
		return err
	}
	if err := sm.registry.get(state).deactivate(ex); err != nil {
		return err
	}
	sm.isActive = false
	return nil
}

// IsInState returns true if the current state is the specified state or a substate of it.
func (sm *StateMachine[TState, TTrigger]) IsInState(state TState) (bool, error) {
	current, err := sm.State(context.Background())
	if err != nil {
		return false, err
	}
	return sm.registry.get(current).IsIncludedIn(state), nil
}

// CanFire returns true if the trigger would be handled from the current state.
// Ignored triggers can be fired.
func (sm *StateMachine[TState, TTrigger]) CanFire(trigger TTrigger, args ...any) (bool, error) {
	return sm.CanFireCtx(context.Background(), trigger, args...)
}

// CanFireCtx is CanFire with a context.
func (sm *StateMachine[TState, TTrigger]) CanFireCtx(ctx context.Context, trigger TTrigger, args ...any) (bool, error) {
	ok, _, err := sm.canFire(execution{ctx: ctx}, trigger, args)
	return ok, err
}

// CanFireAsync is CanFire with asynchronous guards awaited.
func (sm *StateMachine[TState, TTrigger]) CanFireAsync(ctx context.Context, trigger TTrigger, args ...any) (bool, error) {
	ok, _, err := sm.canFire(execution{ctx: ctx, async: true}, trigger, args)
	return ok, err
}

// CanFireWithUnmetGuards is CanFire that also returns the descriptions of the
// guards that prevent the trigger from being handled.
func (sm *StateMachine[TState, TTrigger]) CanFireWithUnmetGuards(trigger TTrigger, args ...any) (bool, []string, error) {
	return sm.canFire(execution{ctx: context.Background()}, trigger, args)
}

func (sm *StateMachine[TState, TTrigger]) canFire(ex execution, trigger TTrigger, args []any) (bool, []string, error) {
	state, err := sm.State(ex.ctx)
	if err != nil {
		return false, nil, err
	}
	result, err := sm.registry.get(state).tryFindHandler(ex, trigger, args)
	if err != nil {
		return false, nil, err
	}
	if result == nil {
		return false, nil, nil
	}
	return result.Handler != nil, result.UnmetGuardConditions, nil
}

// PermittedTriggers returns the triggers whose guards pass for args in the current
// state or any of its superstates.
func (sm *StateMachine[TState, TTrigger]) PermittedTriggers(args ...any) ([]TTrigger, error) {
	return sm.PermittedTriggersCtx(context.Background(), args...)
}

// PermittedTriggersCtx is PermittedTriggers with a context.
func (sm *StateMachine[TState, TTrigger]) PermittedTriggersCtx(ctx context.Context, args ...any) ([]TTrigger, error) {
	return sm.permittedTriggers(execution{ctx: ctx}, args)
}

// PermittedTriggersAsync is PermittedTriggers with asynchronous guards awaited.
func (sm *StateMachine[TState, TTrigger]) PermittedTriggersAsync(ctx context.Context, args ...any) ([]TTrigger, error) {
	return sm.permittedTriggers(execution{ctx: ctx, async: true}, args)
}

// GetDetailedPermittedTriggers returns the permitted triggers with their parameter bindings.
func (sm *StateMachine[TState, TTrigger]) GetDetailedPermittedTriggers(args ...any) ([]TriggerDetails[TState, TTrigger], error) {
	triggers, err := sm.PermittedTriggers(args...)
	if err != nil {
		return nil, err
	}
	details := make([]TriggerDetails[TState, TTrigger], len(triggers))
	for i, trigger := range triggers {
		details[i] = NewTriggerDetails[TState](trigger, sm.triggerConfiguration)
	}
	return details, nil
}

func (sm *StateMachine[TState, TTrigger]) permittedTriggers(ex execution, args []any) ([]TTrigger, error) {
	state, err := sm.State(ex.ctx)
	if err != nil {
		return nil, err
	}
	return sm.registry.get(state).permittedTriggers(ex, args)
}

// String returns a description of the current state and its permitted triggers.
func (sm *StateMachine[TState, TTrigger]) String() string {
	state, err := sm.State(context.Background())
	if err != nil {
		return fmt.Sprintf("StateMachine { State = <%v> }", err)
	}
	triggers, err := sm.PermittedTriggers()
	if err != nil {
		return fmt.Sprintf("StateMachine { State = %v }", state)
	}
	names := make([]string, len(triggers))
	for i, t := range triggers {
		names[i] = fmt.Sprintf("%v", t)
	}
	return fmt.Sprintf("StateMachine { State = %v, PermittedTriggers = { %s } }", state, strings.Join(names, ", "))
}

// sortByString orders values by their formatted representation.
func sortByString[T any](values []T) {
	sort.SliceStable(values, func(i, j int) bool {
		return fmt.Sprintf("%v", values[i]) < fmt.Sprintf("%v", values[j])
	})
}
