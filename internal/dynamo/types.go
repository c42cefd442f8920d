package dynamo

import (
	"math"
)

// State is (X) for one-dimensional systems and (X, Y) for planar ones.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Equal reports exact componentwise equality.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Params maps parameter names to values.
type Params map[string]float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Integrator advances a system by one fixed step. Implementations must not
// keep per-call state so they can be shared across trajectories.
//
// StepChecked returns ok == false when a stage produced a non-finite value;
// the returned state is then x unchanged. A step that leaves x unchanged
// because the increment is below float resolution is still ok.
type Integrator interface {
	Name() string
	Step(sys *System, b Bindings, x State, dt float64) State
	StepChecked(sys *System, b Bindings, x State, dt float64) (next State, ok bool)
}

// DelayIntegrator additionally steps delay systems from a history buffer.
type DelayIntegrator interface {
	Integrator
	StepDelay(sys *System, b Bindings, x, dt, tau float64, h History) float64
	StepDelayChecked(sys *System, b Bindings, x, dt, tau float64, h History) (next float64, ok bool)
}
