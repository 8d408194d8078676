package hsm

import (
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FiringMode determines how the state machine handles triggers fired while
// another trigger is being processed.
type FiringMode int

const (
	// FiringImmediate processes a trigger as soon as it is fired, including triggers
	// fired from inside entry or exit actions. This is the default mode.
	FiringImmediate FiringMode = iota

	// FiringQueued appends triggers to a FIFO queue that is drained one event at a time.
	FiringQueued
)

func (m FiringMode) String() string {
	switch m {
	case FiringImmediate:
		return "immediate"
	case FiringQueued:
		return "queued"
	default:
		return "unknown"
	}
}

type options struct {
	firingMode FiringMode
	logger     logrus.FieldLogger
	id         string
}

// Option configures a state machine during construction.
type Option func(*options)

// WithFiringMode sets the firing mode.
func WithFiringMode(mode FiringMode) Option {
	return func(o *options) {
		o.firingMode = mode
	}
}

// WithLogger sets the logger used for trigger and transition tracing.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithID sets the machine identifier reported in logs and metrics.
func WithID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.id = id
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		firingMode: FiringImmediate,
		id:         uuid.NewString(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		o.logger = logger
	}
	return o
}
