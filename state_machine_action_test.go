package hsm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/hsm"
)

func TestOnEntry(t *testing.T) {
	var log []string
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)
	sm.Configure(StateB).OnEntry(record(&log, "enterB"))

	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, []string{"enterB"}, log)
}

func TestOnExit(t *testing.T) {
	var log []string
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB).OnExit(record(&log, "exitA"))

	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, []string{"exitA"}, log)
}

func TestActionOrder(t *testing.T) {
	var log []string
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).
		Permit(TriggerX, StateB).
		OnExit(record(&log, "exitA1")).
		OnExit(record(&log, "exitA2"))
	sm.Configure(StateB).
		OnEntry(record(&log, "enterB1")).
		OnEntry(record(&log, "enterB2"))
	sm.OnTransitioned(func(_ context.Context, tr Transition) {
		log = append(log, "transitioned")
	})

	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, []string{"exitA1", "exitA2", "transitioned", "enterB1", "enterB2"}, log)
}

func TestOnEntryWithTransition(t *testing.T) {
	var got Transition
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)
	sm.Configure(StateB).OnEntry(func(_ context.Context, tr Transition) error {
		got = tr
		return nil
	})

	require.NoError(t, sm.Fire(TriggerX, "payload", 42))
	assert.Equal(t, StateA, got.Source)
	assert.Equal(t, StateB, got.Destination)
	assert.Equal(t, TriggerX, got.Trigger)
	assert.Equal(t, []any{"payload", 42}, got.Parameters)
	assert.False(t, got.IsReentry())
}

func TestOnEntryFrom(t *testing.T) {
	var log []string
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB).Permit(TriggerY, StateB)
	sm.Configure(StateB).
		OnEntryFrom(TriggerX, record(&log, "fromX")).
		OnEntry(record(&log, "any")).
		Permit(TriggerZ, StateA)

	require.NoError(t, sm.Fire(TriggerY))
	assert.Equal(t, []string{"any"}, log)

	require.NoError(t, sm.Fire(TriggerZ))
	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, []string{"any", "fromX", "any"}, log)
}

func TestOnExitFrom(t *testing.T) {
	var log []string
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).
		Permit(TriggerX, StateB).
		Permit(TriggerY, StateC).
		OnExitFrom(TriggerY, record(&log, "exitViaY"))
	sm.Configure(StateB).Permit(TriggerZ, StateA)

	require.NoError(t, sm.Fire(TriggerX))
	assert.Empty(t, log)

	require.NoError(t, sm.Fire(TriggerZ))
	require.NoError(t, sm.Fire(TriggerY))
	assert.Equal(t, []string{"exitViaY"}, log)
}

func TestOnEntry_TypedArgument(t *testing.T) {
	var got string
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)
	sm.Configure(StateB).OnEntry(hsm.Action1(func(_ context.Context, name string, _ Transition) error {
		got = name
		return nil
	}))

	require.NoError(t, sm.Fire(TriggerX, "alice"))
	assert.Equal(t, "alice", got)
}

func TestOnEntry_TwoAndThreeTypedArguments(t *testing.T) {
	var two, three string
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)
	sm.Configure(StateB).
		OnEntry(hsm.Action2(func(_ context.Context, s string, n int, _ Transition) error {
			two = s + ":" + string(rune('0'+n))
			return nil
		})).
		OnEntry(hsm.Action3(func(_ context.Context, s string, n int, ok bool, _ Transition) error {
			if ok {
				three = s
			}
			return nil
		}))

	require.NoError(t, sm.Fire(TriggerX, "x", 7, true))
	assert.Equal(t, "x:7", two)
	assert.Equal(t, "x", three)
}

func TestOnEntry_TypedArgumentMismatch(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)
	sm.Configure(StateB).OnEntry(hsm.Action1(func(context.Context, int, Transition) error { return nil }))

	err := sm.Fire(TriggerX, "not an int")
	var conversion *hsm.ParameterConversionError
	require.ErrorAs(t, err, &conversion)
	assert.Contains(t, err.Error(), "entry action of state 'StateB'")
}

func TestOnExit_TypedArgument(t *testing.T) {
	var got int
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).
		Permit(TriggerX, StateB).
		OnExit(hsm.Action1(func(_ context.Context, n int, _ Transition) error {
			got = n
			return nil
		}))

	require.NoError(t, sm.Fire(TriggerX, 5))
	assert.Equal(t, 5, got)
}

func TestEntryActionErrorStopsTransition(t *testing.T) {
	boom := errors.New("boom")
	completed := false
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)
	sm.Configure(StateB).OnEntry(func(context.Context, Transition) error { return boom })
	sm.OnTransitionCompleted(func(context.Context, Transition) { completed = true })

	assert.ErrorIs(t, sm.Fire(TriggerX), boom)
	assert.Equal(t, StateB, sm.MustState())
	assert.False(t, completed)
}

func TestExitActionErrorKeepsSourceState(t *testing.T) {
	boom := errors.New("boom")
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).
		Permit(TriggerX, StateB).
		OnExit(func(context.Context, Transition) error { return boom })

	assert.ErrorIs(t, sm.Fire(TriggerX), boom)
	assert.Equal(t, StateA, sm.MustState())
}
