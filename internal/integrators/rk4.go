package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/phasekit/internal/dynamo"
)

// RK4 is the classical fourth-order Runge-Kutta method. It holds no state
// and is safe to share between trajectories.
//
// If any stage yields a non-finite derivative the step returns the prior
// state unchanged; callers decide whether a frozen trajectory terminates.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(sys *dynamo.System, b dynamo.Bindings, x dynamo.State, dt float64) dynamo.State {
	next, _ := r.StepChecked(sys, b, x, dt)
	return next
}

// StepChecked is Step that also reports whether a stage was non-finite and
// the state was therefore held.
func (r *RK4) StepChecked(sys *dynamo.System, b dynamo.Bindings, x dynamo.State, dt float64) (dynamo.State, bool) {
	switch len(x) {
	case 1:
		nx, ok := r.step1D(sys, b, x[0], dt)
		return dynamo.State{nx}, ok
	case 2:
		nx, ny, ok := r.step2D(sys, b, x[0], x[1], dt)
		return dynamo.State{nx, ny}, ok
	}
	panic(fmt.Sprintf("%v: rk4 state of length %d", dynamo.ErrDimensionMismatch, len(x)))
}

// Step1D advances X' = f(X). For delay systems the X_tau slot of b is used
// as-is by all four stages.
func (r *RK4) Step1D(sys *dynamo.System, b dynamo.Bindings, x, dt float64) float64 {
	next, _ := r.step1D(sys, b, x, dt)
	return next
}

func (r *RK4) step1D(sys *dynamo.System, b dynamo.Bindings, x, dt float64) (float64, bool) {
	k1 := sys.Derivative(b, x)
	if !finite(k1) {
		return x, false
	}
	k2 := sys.Derivative(b, x+dt*0.5*k1)
	k3 := sys.Derivative(b, x+dt*0.5*k2)
	k4 := sys.Derivative(b, x+dt*k3)
	if !finite(k2) || !finite(k3) || !finite(k4) {
		return x, false
	}

	next := x + dt/6.0*(k1+2*k2+2*k3+k4)
	if !finite(next) {
		return x, false
	}
	return next, true
}

// Step2D advances the planar field componentwise.
func (r *RK4) Step2D(sys *dynamo.System, b dynamo.Bindings, x, y, dt float64) (float64, float64) {
	nx, ny, _ := r.step2D(sys, b, x, y, dt)
	return nx, ny
}

func (r *RK4) step2D(sys *dynamo.System, b dynamo.Bindings, x, y, dt float64) (float64, float64, bool) {
	k1x, k1y := sys.Field(b, x, y)
	if !finite(k1x) || !finite(k1y) {
		return x, y, false
	}
	k2x, k2y := sys.Field(b, x+dt*0.5*k1x, y+dt*0.5*k1y)
	k3x, k3y := sys.Field(b, x+dt*0.5*k2x, y+dt*0.5*k2y)
	k4x, k4y := sys.Field(b, x+dt*k3x, y+dt*k3y)
	if !finite(k2x) || !finite(k2y) || !finite(k3x) || !finite(k3y) || !finite(k4x) || !finite(k4y) {
		return x, y, false
	}

	dt6 := dt / 6.0
	nx := x + dt6*(k1x+2*k2x+2*k3x+k4x)
	ny := y + dt6*(k1y+2*k2y+2*k3y+k4y)
	if !finite(nx) || !finite(ny) {
		return x, y, false
	}
	return nx, ny, true
}

// StepDelay advances a delay system. X_tau is looked up once, Lag(tau, dt)
// samples behind the newest entry of h, and reused by every stage.
func (r *RK4) StepDelay(sys *dynamo.System, b dynamo.Bindings, x, dt, tau float64, h dynamo.History) float64 {
	next, _ := r.StepDelayChecked(sys, b, x, dt, tau, h)
	return next
}

func (r *RK4) StepDelayChecked(sys *dynamo.System, b dynamo.Bindings, x, dt, tau float64, h dynamo.History) (float64, bool) {
	sys.SetLagged(b, dynamo.Lagged(h, tau, dt, x))
	return r.step1D(sys, b, x, dt)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
