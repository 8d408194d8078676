// Package metrics exports Prometheus metrics for hsm state machines.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/atlekbai/hsm"
)

// Collector holds the metrics of any number of instrumented machines, labelled by
// machine ID. It implements prometheus.Collector.
type Collector struct {
	transitions          *prometheus.CounterVec
	transitionsCompleted *prometheus.CounterVec
	fires                *prometheus.CounterVec
	fireDuration         *prometheus.HistogramVec
	currentState         *prometheus.GaugeVec
}

// Fire results.
const (
	ResultOK        = "ok"
	ResultUnhandled = "unhandled"
	ResultError     = "error"
)

// New creates the collector's metrics under namespace.
func New(namespace string) *Collector {
	return &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "The number of transitions, including initial transitions.",
		}, []string{"machine", "source", "destination", "trigger"}),
		transitionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_completed_total",
			Help:      "The number of completed transitions by the state they settled in.",
		}, []string{"machine", "destination"}),
		fires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fires_total",
			Help:      "The number of fired triggers by result.",
		}, []string{"machine", "trigger", "result"}),
		fireDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fire_duration_seconds",
			Help:      "Time to process a fired trigger.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"machine", "trigger"}),
		currentState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_state",
			Help:      "Set to 1 for the state each machine is in.",
		}, []string{"machine", "state"}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.transitions.Describe(ch)
	c.transitionsCompleted.Describe(ch)
	c.fires.Describe(ch)
	c.fireDuration.Describe(ch)
	c.currentState.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.transitions.Collect(ch)
	c.transitionsCompleted.Collect(ch)
	c.fires.Collect(ch)
	c.fireDuration.Collect(ch)
	c.currentState.Collect(ch)
}

// Instrument registers transition observers on sm and records its current state.
func Instrument[S, T comparable](c *Collector, sm *hsm.StateMachine[S, T]) error {
	id := sm.ID()
	state, err := sm.State(context.Background())
	if err != nil {
		return err
	}
	c.setState(id, state)

	sm.OnTransitioned(func(_ context.Context, t hsm.Transition[S, T]) {
		c.transitions.WithLabelValues(id, label(t.Source), label(t.Destination), label(t.Trigger)).Inc()
	})
	sm.OnTransitionCompleted(func(_ context.Context, t hsm.Transition[S, T]) {
		c.transitionsCompleted.WithLabelValues(id, label(t.Destination)).Inc()
		c.setState(id, t.Destination)
	})
	return nil
}

// Fire fires trigger on sm and records the result and duration.
func Fire[S, T comparable](ctx context.Context, c *Collector, sm *hsm.StateMachine[S, T], trigger T, args ...any) error {
	start := time.Now()
	err := sm.FireCtx(ctx, trigger, args...)
	c.observe(sm.ID(), label(trigger), start, err)
	return err
}

// FireAsync is Fire over sm.FireAsync.
func FireAsync[S, T comparable](ctx context.Context, c *Collector, sm *hsm.StateMachine[S, T], trigger T, args ...any) error {
	start := time.Now()
	err := sm.FireAsync(ctx, trigger, args...)
	c.observe(sm.ID(), label(trigger), start, err)
	return err
}

func (c *Collector) observe(id, trigger string, start time.Time, err error) {
	c.fireDuration.WithLabelValues(id, trigger).Observe(time.Since(start).Seconds())
	c.fires.WithLabelValues(id, trigger, result(err)).Inc()
}

func (c *Collector) setState(id string, state any) {
	c.currentState.DeletePartialMatch(prometheus.Labels{"machine": id})
	c.currentState.WithLabelValues(id, label(state)).Set(1)
}

// Forget removes every series of the machine with the given ID.
func (c *Collector) Forget(id string) {
	labels := prometheus.Labels{"machine": id}
	c.transitions.DeletePartialMatch(labels)
	c.transitionsCompleted.DeletePartialMatch(labels)
	c.fires.DeletePartialMatch(labels)
	c.fireDuration.DeletePartialMatch(labels)
	c.currentState.DeletePartialMatch(labels)
}

func result(err error) string {
	var unhandled *hsm.UnhandledTriggerError
	switch {
	case err == nil:
		return ResultOK
	case errors.As(err, &unhandled):
		return ResultUnhandled
	default:
		return ResultError
	}
}

func label(v any) string {
	return fmt.Sprintf("%v", v)
}
