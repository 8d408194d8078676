package hsm

import (
	"context"
)

// StateStorage holds the current state of a machine. The machine reads it before
// every trigger resolution and writes it once per state change.
type StateStorage[TState any] interface {
	Load(ctx context.Context) (TState, error)
	Store(ctx context.Context, state TState) error
}

// InMemoryStorage is a StateStorage backed by a single owned cell.
type InMemoryStorage[TState any] struct {
	state TState
}

// NewInMemoryStorage creates storage initialised to initial.
func NewInMemoryStorage[TState any](initial TState) *InMemoryStorage[TState] {
	return &InMemoryStorage[TState]{state: initial}
}

func (s *InMemoryStorage[TState]) Load(context.Context) (TState, error) {
	return s.state, nil
}

func (s *InMemoryStorage[TState]) Store(_ context.Context, state TState) error {
	s.state = state
	return nil
}

// StorageFuncs adapts an accessor/mutator pair, e.g. a field on a domain object,
// into a StateStorage.
type StorageFuncs[TState any] struct {
	Get func() TState
	Set func(TState)
}

func (s StorageFuncs[TState]) Load(context.Context) (TState, error) {
	return s.Get(), nil
}

func (s StorageFuncs[TState]) Store(_ context.Context, state TState) error {
	s.Set(state)
	return nil
}
