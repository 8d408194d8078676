package hsm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/hsm"
)

func TestOnTransitioned(t *testing.T) {
	var got []Transition
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)
	sm.OnTransitioned(func(_ context.Context, tr Transition) {
		got = append(got, tr)
	})

	require.NoError(t, sm.Fire(TriggerX, 1, "two"))
	require.Len(t, got, 1)
	assert.Equal(t, StateA, got[0].Source)
	assert.Equal(t, StateB, got[0].Destination)
	assert.Equal(t, TriggerX, got[0].Trigger)
	assert.Equal(t, []any{1, "two"}, got[0].Parameters)
}

func TestOnTransitioned_SeesStoredDestination(t *testing.T) {
	var seen State
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)
	sm.OnTransitioned(func(context.Context, Transition) {
		seen = sm.MustState()
	})

	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, StateB, seen)
}

func TestOnTransitioned_RegistrationOrder(t *testing.T) {
	var log []string
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)
	sm.OnTransitioned(func(context.Context, Transition) { log = append(log, "first") })
	sm.OnTransitioned(func(context.Context, Transition) { log = append(log, "second") })
	sm.OnTransitionCompleted(func(context.Context, Transition) { log = append(log, "completed") })

	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, []string{"first", "second", "completed"}, log)
}

func TestOnTransitionCompleted_AfterEntry(t *testing.T) {
	var log []string
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB).OnExit(record(&log, "exitA"))
	sm.Configure(StateB).OnEntry(record(&log, "enterB"))
	sm.OnTransitioned(func(context.Context, Transition) { log = append(log, "transitioned") })
	sm.OnTransitionCompleted(func(context.Context, Transition) { log = append(log, "completed") })

	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, []string{"exitA", "transitioned", "enterB", "completed"}, log)
}

func TestOnTransitioned_Reentry(t *testing.T) {
	var got []Transition
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).PermitReentry(TriggerX)
	sm.OnTransitioned(func(_ context.Context, tr Transition) { got = append(got, tr) })

	require.NoError(t, sm.Fire(TriggerX))
	require.Len(t, got, 1)
	assert.True(t, got[0].IsReentry())
}

func TestObserversNotCalledWithoutStateChange(t *testing.T) {
	calls := 0
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).
		Ignore(TriggerX).
		InternalTransition(TriggerY, func(context.Context, Transition) error { return nil })
	sm.OnTransitioned(func(context.Context, Transition) { calls++ })
	sm.OnTransitionCompleted(func(context.Context, Transition) { calls++ })

	require.NoError(t, sm.Fire(TriggerX))
	require.NoError(t, sm.Fire(TriggerY))
	assert.Zero(t, calls)
}

func TestUnregisterAllCallbacks(t *testing.T) {
	calls := 0
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)
	sm.Configure(StateB).Permit(TriggerX, StateA)
	sm.OnTransitioned(func(context.Context, Transition) { calls++ })
	sm.OnTransitionCompleted(func(context.Context, Transition) { calls++ })
	sm.OnUnhandledTrigger(func(context.Context, State, Trigger, []string) error { return nil })

	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, 2, calls)
	require.NoError(t, sm.Fire(TriggerY))

	sm.UnregisterAllCallbacks()
	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, 2, calls)

	var unhandled *hsm.UnhandledTriggerError
	assert.ErrorAs(t, sm.Fire(TriggerY), &unhandled)
}
