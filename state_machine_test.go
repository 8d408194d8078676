package hsm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/hsm"
)

func TestNewStateMachine(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	assert.Equal(t, StateA, sm.MustState())
	assert.NotEmpty(t, sm.ID())
	assert.Equal(t, hsm.FiringImmediate, sm.FiringMode())
}

func TestWithID(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA, hsm.WithID("door-1"))
	assert.Equal(t, "door-1", sm.ID())
}

func TestSimpleTransition(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)

	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, StateB, sm.MustState())
}

func TestMultipleTransitions(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)
	sm.Configure(StateB).Permit(TriggerY, StateC)
	sm.Configure(StateC).Permit(TriggerZ, StateA)

	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, StateB, sm.MustState())
	require.NoError(t, sm.Fire(TriggerY))
	assert.Equal(t, StateC, sm.MustState())
	require.NoError(t, sm.Fire(TriggerZ))
	assert.Equal(t, StateA, sm.MustState())
}

type Switch int

const (
	Off Switch = iota
	On
)

type SwitchTrigger string

const Toggle SwitchTrigger = "Toggle"

func TestToggle(t *testing.T) {
	sm := hsm.NewStateMachine[Switch, SwitchTrigger](Off)
	sm.Configure(Off).Permit(Toggle, On)
	sm.Configure(On).Permit(Toggle, Off)

	var states []Switch
	for range 3 {
		require.NoError(t, sm.Fire(Toggle))
		states = append(states, sm.MustState())
	}
	assert.Equal(t, []Switch{On, Off, On}, states)
}

func TestPermitToSelfPanics(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	assert.PanicsWithError(t,
		"Permit() requires that the destination state is not equal to the source state; "+
			"to accept a trigger without changing state, use either Ignore() or PermitReentry()",
		func() { sm.Configure(StateA).Permit(TriggerX, StateA) })
}

func TestUnhandledTrigger(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)

	err := sm.Fire(TriggerY)
	var unhandled *hsm.UnhandledTriggerError
	require.ErrorAs(t, err, &unhandled)
	assert.Equal(t, TriggerY, unhandled.Trigger)
	assert.Equal(t, StateA, unhandled.State)
	assert.Empty(t, unhandled.UnmetGuards)
	assert.Equal(t, []any{TriggerX}, unhandled.PermittedTriggers)
	assert.Equal(t, StateA, sm.MustState())
}

func TestUnconfiguredStateCannotFire(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateD)

	for _, trigger := range []Trigger{TriggerX, TriggerY, TriggerZ} {
		ok, err := sm.CanFire(trigger)
		require.NoError(t, err)
		assert.False(t, ok)

		var unhandled *hsm.UnhandledTriggerError
		assert.ErrorAs(t, sm.Fire(trigger), &unhandled)
	}
}

type door struct {
	closable bool
}

func (d *door) canClose(context.Context, ...any) bool {
	return d.closable
}

type DoorState string
type DoorTrigger string

const (
	Open   DoorState   = "Open"
	Closed DoorState   = "Closed"
	Close  DoorTrigger = "Close"
)

func TestGuardedTransition(t *testing.T) {
	d := &door{}
	sm := hsm.NewStateMachine[DoorState, DoorTrigger](Open)
	sm.Configure(Open).PermitIf(Close, Closed, hsm.Guard(d.canClose))

	var gotUnmet []string
	sm.OnUnhandledTrigger(func(_ context.Context, state DoorState, trigger DoorTrigger, unmetGuards []string) error {
		gotUnmet = unmetGuards
		return nil
	})

	require.NoError(t, sm.Fire(Close))
	assert.Equal(t, []string{"canClose"}, gotUnmet)
	assert.Equal(t, Open, sm.MustState())

	d.closable = true
	require.NoError(t, sm.Fire(Close))
	assert.Equal(t, Closed, sm.MustState())
}

func TestGuardedTransition_DefaultError(t *testing.T) {
	d := &door{}
	sm := hsm.NewStateMachine[DoorState, DoorTrigger](Open)
	sm.Configure(Open).PermitIf(Close, Closed, hsm.Guard(d.canClose))

	err := sm.Fire(Close)
	var unhandled *hsm.UnhandledTriggerError
	require.ErrorAs(t, err, &unhandled)
	assert.Equal(t, []string{"canClose"}, unhandled.UnmetGuards)
	assert.Contains(t, err.Error(), "guard conditions are not met")
}

func TestMultipleGuards_AllReported(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).PermitIf(TriggerX, StateB,
		hsm.Guard(never, "first"),
		hsm.Guard(always, "second"),
		hsm.Guard(never, "third"),
	)

	ok, unmet, err := sm.CanFireWithUnmetGuards(TriggerX)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"first", "third"}, unmet)
}

func TestUnhandledTriggerHandlerError(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	boom := errors.New("boom")
	sm.OnUnhandledTrigger(func(context.Context, State, Trigger, []string) error { return boom })

	assert.ErrorIs(t, sm.Fire(TriggerX), boom)
}

func TestAmbiguousTransition(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).
		PermitIf(TriggerX, StateB, hsm.Guard(always)).
		PermitIf(TriggerX, StateC, hsm.Guard(always))

	var ambiguous *hsm.AmbiguousTransitionError
	require.ErrorAs(t, sm.Fire(TriggerX), &ambiguous)
	assert.Equal(t, StateA, ambiguous.State)

	_, err := sm.CanFire(TriggerX)
	assert.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, StateA, sm.MustState())
}

func TestMutuallyExclusiveGuards(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).
		PermitIf(TriggerX, StateB, hsm.Guard1(func(_ context.Context, n int) bool { return n > 0 })).
		PermitIf(TriggerX, StateC, hsm.Guard1(func(_ context.Context, n int) bool { return n <= 0 }))

	require.NoError(t, sm.Fire(TriggerX, -1))
	assert.Equal(t, StateC, sm.MustState())
}

func TestCanFireAgreesWithFire(t *testing.T) {
	allowed := false
	build := func() *hsm.StateMachine[State, Trigger] {
		sm := hsm.NewStateMachine[State, Trigger](StateB)
		sm.Configure(StateA).Permit(TriggerY, StateD)
		sm.Configure(StateB).
			SubstateOf(StateA).
			PermitIf(TriggerX, StateC, hsm.Guard(func(context.Context, ...any) bool { return allowed })).
			Ignore(TriggerZ)
		return sm
	}

	for _, a := range []bool{false, true} {
		allowed = a
		for _, trigger := range []Trigger{TriggerX, TriggerY, TriggerZ} {
			sm := build()
			unhandled := false
			sm.OnUnhandledTrigger(func(context.Context, State, Trigger, []string) error {
				unhandled = true
				return nil
			})

			ok, err := sm.CanFire(trigger)
			require.NoError(t, err)
			require.NoError(t, sm.Fire(trigger))
			assert.Equal(t, ok, !unhandled, "trigger %v with guard %v", trigger, a)
		}
	}
}

func TestPermittedTriggers(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).
		Permit(TriggerX, StateB).
		PermitIf(TriggerY, StateC, hsm.Guard(never)).
		Ignore(TriggerZ)

	triggers, err := sm.PermittedTriggers()
	require.NoError(t, err)
	assert.ElementsMatch(t, []Trigger{TriggerX, TriggerZ}, triggers)
}

func TestPermittedTriggers_UsesArguments(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).
		PermitIf(TriggerX, StateB, hsm.Guard1(func(_ context.Context, s string) bool { return s == "x" })).
		PermitIf(TriggerY, StateC, hsm.Guard1(func(_ context.Context, s string) bool { return s == "y" }))

	triggers, err := sm.PermittedTriggers("y")
	require.NoError(t, err)
	assert.Equal(t, []Trigger{TriggerY}, triggers)
}

func TestGetDetailedPermittedTriggers(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB).Permit(TriggerY, StateC)
	hsm.SetTriggerParameters1[int](sm, TriggerX)

	details, err := sm.GetDetailedPermittedTriggers()
	require.NoError(t, err)
	require.Len(t, details, 2)
	for _, d := range details {
		switch d.Trigger {
		case TriggerX:
			assert.True(t, d.HasParameters)
			require.NotNil(t, d.Parameters)
			assert.Len(t, d.Parameters.ArgumentTypes(), 1)
		case TriggerY:
			assert.False(t, d.HasParameters)
			assert.Nil(t, d.Parameters)
		}
	}
}

func TestExternalStorage(t *testing.T) {
	entity := struct{ Status State }{Status: StateB}
	sm := hsm.NewStateMachineWithExternalStorage[State, Trigger](
		func() State { return entity.Status },
		func(s State) { entity.Status = s },
	)
	sm.Configure(StateB).Permit(TriggerX, StateC)

	assert.Equal(t, StateB, sm.MustState())
	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, StateC, entity.Status)

	entity.Status = StateA
	assert.Equal(t, StateA, sm.MustState())
}

type failingStorage struct {
	err error
}

func (f failingStorage) Load(context.Context) (State, error) { return StateA, f.err }
func (f failingStorage) Store(context.Context, State) error  { return f.err }

func TestStorageErrorsPropagate(t *testing.T) {
	boom := errors.New("storage down")
	sm := hsm.NewStateMachineWithStorage[State, Trigger](failingStorage{err: boom})
	sm.Configure(StateA).Permit(TriggerX, StateB)

	assert.ErrorIs(t, sm.Fire(TriggerX), boom)
	_, err := sm.State(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = sm.CanFire(TriggerX)
	assert.ErrorIs(t, err, boom)
	assert.Panics(t, func() { sm.MustState() })
}

func TestFireCtx_Cancellation(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sm.FireCtx(ctx, TriggerX), context.Canceled)
	assert.Equal(t, StateA, sm.MustState())
}

func TestIsInState(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateC)
	sm.Configure(StateB).SubstateOf(StateA)
	sm.Configure(StateC).SubstateOf(StateB)

	for _, s := range []State{StateA, StateB, StateC} {
		ok, err := sm.IsInState(s)
		require.NoError(t, err)
		assert.True(t, ok, "expected to be in %v", s)
	}
	ok, err := sm.IsInState(StateD)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateMachine_String(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).Permit(TriggerX, StateB).Permit(TriggerY, StateC)

	assert.Equal(t, "StateMachine { State = StateA, PermittedTriggers = { TriggerX, TriggerY } }", sm.String())
}

func TestLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	sm := hsm.NewStateMachine[State, Trigger](StateA, hsm.WithLogger(logger), hsm.WithID("m1"))
	sm.Configure(StateA).Permit(TriggerX, StateB)

	require.NoError(t, sm.Fire(TriggerX))
	var unhandled *hsm.UnhandledTriggerError
	require.ErrorAs(t, sm.Fire(TriggerX), &unhandled)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.WarnLevel, last.Level)
	assert.Equal(t, "unhandled trigger", last.Message)
	assert.Equal(t, "m1", last.Data["machine"])

	var transitioned bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "transitioned" {
			transitioned = true
			assert.Equal(t, StateB, entry.Data["destination"])
		}
	}
	assert.True(t, transitioned)
}

func TestGetInfo(t *testing.T) {
	sm := hsm.NewStateMachine[State, Trigger](StateA)
	sm.Configure(StateA).
		Permit(TriggerX, StateB).
		Ignore(TriggerY).
		OnEntryFrom(TriggerZ, func(context.Context, Transition) error { return nil }, "enterA").
		OnExit(func(context.Context, Transition) error { return nil })
	sm.Configure(StateB).
		InitialTransition(StateC).
		PermitDynamic(TriggerX, hsm.SelectorFunc(func() State { return StateA }),
			hsm.DynamicStateInfo{DestinationState: "StateA", Criterion: "always"}).
		InternalTransition(TriggerZ, func(context.Context, Transition) error { return nil }).
		OnActivate(func(context.Context) error { return nil }, "activateB")
	sm.Configure(StateC).SubstateOf(StateB).PermitReentry(TriggerY)

	info := sm.GetInfo()
	require.Len(t, info.States, 3)
	assert.Equal(t, "StateA", info.InitialState.String())
	assert.Equal(t, "hsm_test.State", info.StateType)
	assert.Equal(t, "hsm_test.Trigger", info.TriggerType)

	byName := map[string]*hsm.StateInfo{}
	for _, s := range info.States {
		byName[s.String()] = s
	}

	a := byName["StateA"]
	fixed := a.FixedTransitions()
	require.Len(t, fixed, 1)
	assert.Equal(t, TriggerX, fixed[0].Trigger)
	assert.Equal(t, hsm.TransitionPermit, fixed[0].Kind)
	assert.Same(t, byName["StateB"], fixed[0].Destination)
	require.Len(t, a.IgnoredTriggers(), 1)
	assert.Nil(t, a.IgnoredTriggers()[0].Destination)
	require.Len(t, a.EntryActions, 1)
	assert.Equal(t, "enterA", a.EntryActions[0].Description())
	assert.Equal(t, TriggerZ, a.EntryActions[0].FromTrigger)
	require.Len(t, a.ExitActions, 1)
	assert.Equal(t, hsm.DefaultFunctionDescription, a.ExitActions[0].Description())

	b := byName["StateB"]
	assert.Same(t, byName["StateC"], b.InitialTransitionTarget)
	assert.Equal(t, []*hsm.StateInfo{byName["StateC"]}, b.Substates)
	dynamic := b.DynamicTransitions()
	require.Len(t, dynamic, 1)
	assert.Equal(t, "always", dynamic[0].PossibleDestinations[0].Criterion)
	assert.Nil(t, dynamic[0].Destination)
	require.Len(t, b.FixedTransitions(), 1)
	assert.True(t, b.FixedTransitions()[0].IsInternal())
	assert.Len(t, b.Transitions, 2)
	require.Len(t, b.ActivateActions, 1)
	assert.Equal(t, "activateB", b.ActivateActions[0].Description())

	c := byName["StateC"]
	assert.Same(t, b, c.Superstate)
	require.Len(t, c.FixedTransitions(), 1)
	assert.Equal(t, hsm.TransitionReentry, c.FixedTransitions()[0].Kind)
	assert.Same(t, c, c.FixedTransitions()[0].Destination)
}

func TestUnhandledTrigger_LogsPermittedTriggerFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	sm := hsm.NewStateMachine[State, Trigger](StateA, hsm.WithLogger(logger))
	sm.Configure(StateA).PermitIf(TriggerY, StateB, hsm.GuardAsync(func(context.Context, ...any) <-chan bool {
		ch := make(chan bool, 1)
		ch <- true
		return ch
	}, "remote"))

	var unhandled *hsm.UnhandledTriggerError
	require.ErrorAs(t, sm.Fire(TriggerX), &unhandled)
	assert.Empty(t, unhandled.PermittedTriggers)

	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Message != "could not list permitted triggers" {
			continue
		}
		logged = true
		assert.Equal(t, logrus.DebugLevel, entry.Level)
		err, ok := entry.Data[logrus.ErrorKey].(error)
		require.True(t, ok)
		var misuse *hsm.AsyncActionInvokedSynchronouslyError
		assert.ErrorAs(t, err, &misuse)
	}
	assert.True(t, logged)
}

type countingStorage struct {
	state State
	loads int
}

func (c *countingStorage) Load(context.Context) (State, error) {
	c.loads++
	return c.state, nil
}

func (c *countingStorage) Store(_ context.Context, state State) error {
	c.state = state
	return nil
}

func TestNewStateMachineWithStorage_DoesNotLoad(t *testing.T) {
	storage := &countingStorage{state: StateB}
	sm := hsm.NewStateMachineWithStorage[State, Trigger](storage)
	sm.Configure(StateB).Permit(TriggerX, StateC)
	assert.Zero(t, storage.loads)

	require.NoError(t, sm.Fire(TriggerX))
	assert.Equal(t, StateB, sm.GetInfo().InitialState.UnderlyingState)
}

func TestGetInfo_LoadsInitialStateOnce(t *testing.T) {
	storage := &countingStorage{state: StateC}
	sm := hsm.NewStateMachineWithStorage[State, Trigger](storage)
	sm.Configure(StateC).Permit(TriggerX, StateA)

	assert.Equal(t, StateC, sm.GetInfo().InitialState.UnderlyingState)
	assert.Equal(t, 1, storage.loads)
	assert.Equal(t, StateC, sm.GetInfo().InitialState.UnderlyingState)
	assert.Equal(t, 1, storage.loads)
}
