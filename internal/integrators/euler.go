package integrators

import (
	"fmt"

	"github.com/san-kum/phasekit/internal/dynamo"
)

// Euler is the forward Euler method, kept for comparison against RK4. It
// follows the same freeze-on-non-finite policy.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(sys *dynamo.System, b dynamo.Bindings, x dynamo.State, dt float64) dynamo.State {
	next, _ := e.StepChecked(sys, b, x, dt)
	return next
}

func (e *Euler) StepChecked(sys *dynamo.System, b dynamo.Bindings, x dynamo.State, dt float64) (dynamo.State, bool) {
	if len(x) != sys.Dim() {
		panic(fmt.Sprintf("%v: euler state of length %d", dynamo.ErrDimensionMismatch, len(x)))
	}
	dx := make(dynamo.State, len(x))
	sys.Derive(b, x, dx)
	if !dx.IsValid() {
		return x.Clone(), false
	}
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	if !result.IsValid() {
		return x.Clone(), false
	}
	return result, true
}

func (e *Euler) StepDelay(sys *dynamo.System, b dynamo.Bindings, x, dt, tau float64, h dynamo.History) float64 {
	next, _ := e.StepDelayChecked(sys, b, x, dt, tau, h)
	return next
}

func (e *Euler) StepDelayChecked(sys *dynamo.System, b dynamo.Bindings, x, dt, tau float64, h dynamo.History) (float64, bool) {
	sys.SetLagged(b, dynamo.Lagged(h, tau, dt, x))
	dx := sys.Derivative(b, x)
	next := x + dt*dx
	if !finite(dx) || !finite(next) {
		return x, false
	}
	return next, true
}
