// Package metrics summarizes trajectories as they are integrated. Every
// metric is a sim.Observer and can be attached to a Runner.
package metrics

import (
	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/sim"
)

type Metric interface {
	sim.Observer
	Name() string
	Value() float64
	Reset()
}

// Set attaches a group of metrics to a runner and reads them back by name.
type Set struct {
	metrics []Metric
}

func NewSet(ms ...Metric) *Set { return &Set{metrics: ms} }

func (s *Set) Add(m Metric) { s.metrics = append(s.metrics, m) }

func (s *Set) OnStep(x dynamo.State, t float64) {
	for _, m := range s.metrics {
		m.OnStep(x, t)
	}
}

// Values returns the current value of every metric keyed by name.
func (s *Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Names lists metrics in the order they were added.
func (s *Set) Names() []string {
	names := make([]string, len(s.metrics))
	for i, m := range s.metrics {
		names[i] = m.Name()
	}
	return names
}

func (s *Set) Reset() {
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Default returns the metrics recorded for every stored run: the fraction
// of samples inside bounds and the path length.
func Default(bounds *sim.Bounds) *Set {
	return NewSet(NewBounded(bounds), NewPathLength())
}
