// Package hsm provides a generic hierarchical state machine.
//
// States and triggers are any comparable types. Each state is configured through a
// fluent builder with:
//
//   - Guarded transitions, reentry, ignored and internal transitions
//   - Dynamic destinations computed from trigger arguments
//   - Entry, exit, activate and deactivate actions, synchronous or asynchronous
//   - Substates, superstates and initial transitions
//   - Trigger parameter bindings validated on every fire
//   - Immediate or queued firing
//   - Introspection through GetInfo
//
// # Basic Usage
//
// Create a state machine with an initial state:
//
//	sm := hsm.NewStateMachine[State, Trigger](Off)
//
// Configure states with transitions:
//
//	sm.Configure(Off).
//	    Permit(Toggle, On).
//	    OnExit(func(ctx context.Context, t hsm.Transition[State, Trigger]) error {
//	        return nil
//	    })
//
// Fire triggers to cause transitions:
//
//	err := sm.Fire(Toggle)
//
// # Guards
//
// Guards are named predicates over the trigger arguments:
//
//	sm.Configure(Open).
//	    PermitIf(Close, Closed, hsm.Guard(door.canClose))
//
// When every guard of a trigger fails, Fire returns an *UnhandledTriggerError listing
// the descriptions of the unmet guards.
//
// # Hierarchical States
//
//	sm.Configure(Ringing).SubstateOf(Connected)
//	sm.Configure(Connected).InitialTransition(Ringing)
//
// A substate handles every trigger its superstates handle unless it configures the
// trigger itself.
//
// # Asynchronous Callbacks
//
// Asynchronous guards, actions and observers return a channel. They are awaited by
// FireAsync, CanFireAsync, PermittedTriggersAsync and ActivateAsync; reaching one
// from Fire fails with an *AsyncActionInvokedSynchronouslyError.
//
// # Options and Storage
//
// The machine logs through logrus (WithLogger) and keeps its state in a StateStorage,
// in memory by default. The storage subpackages keep it in SQL databases or Redis, and
// the metrics subpackage exports Prometheus collectors.
package hsm
