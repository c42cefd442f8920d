package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/phasekit/internal/dynamo"
)

func mustSystem(t testing.TB, sys *dynamo.System) *dynamo.System {
	t.Helper()
	if !sys.IsValid() {
		t.Fatalf("invalid system: %v", sys.Err())
	}
	return sys
}

func TestRK4ExponentialDecay(t *testing.T) {
	sys := mustSystem(t, dynamo.NewSystem1D("-X", nil))
	integ := NewRK4()
	b := sys.Bind(nil)

	x := dynamo.State{1.0}
	for i := 0; i < 100; i++ {
		x = integ.Step(sys, b, x, 0.01)
	}

	if math.Abs(x[0]-math.Exp(-1)) > 1e-3 {
		t.Errorf("got %.6f, expected %.6f", x[0], math.Exp(-1))
	}
}

func TestRK4HarmonicConservesRadius(t *testing.T) {
	sys := mustSystem(t, dynamo.NewSystem2D("Y, -X", nil))
	integ := NewRK4()
	b := sys.Bind(nil)

	dt := 0.01
	steps := int(math.Round(2 * math.Pi / dt))
	x := dynamo.State{1.0, 0.0}
	for i := 0; i < steps; i++ {
		x = integ.Step(sys, b, x, dt)
	}

	r2 := x[0]*x[0] + x[1]*x[1]
	if math.Abs(r2-1) > 1e-4 {
		t.Errorf("X^2+Y^2 drifted to %.8f", r2)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedY := -math.Sin(float64(steps) * dt)
	if math.Abs(x[0]-expectedX) > 1e-4 || math.Abs(x[1]-expectedY) > 1e-4 {
		t.Errorf("got (%.6f, %.6f), expected (%.6f, %.6f)", x[0], x[1], expectedX, expectedY)
	}
}

func TestRK4FreezesOnNonFinite(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		x, dt   float64
	}{
		{"division by zero at k1", "1/X", 0, 0.1},
		{"sqrt of negative at k1", "sqrt(X)", -1, 0.1},
		{"non-finite at an inner stage", "sqrt(X) - 10", 0.01, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := mustSystem(t, dynamo.NewSystem1D(tt.formula, nil))
			got := NewRK4().Step1D(sys, sys.Bind(nil), tt.x, tt.dt)
			if got != tt.x {
				t.Errorf("expected frozen state %v, got %v", tt.x, got)
			}
		})
	}

	sys := mustSystem(t, dynamo.NewSystem2D("1/X, Y", nil))
	got := NewRK4().Step(sys, sys.Bind(nil), dynamo.State{0, 1}, 0.1)
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("2D step should freeze, got %v", got)
	}
}

func TestRK4DelayZeroLagMatchesPlainStep(t *testing.T) {
	plain := mustSystem(t, dynamo.NewSystem1D("k*X*(1-X)", dynamo.Params{"k": 0.8}))
	delayed := mustSystem(t, dynamo.NewDelaySystem1D("k*X*(1-X)", dynamo.Params{"k": 0.8}))
	integ := NewRK4()

	h := dynamo.NewHistoryBuffer(16)
	bp, bd := plain.Bind(nil), delayed.Bind(nil)
	xp, xd := 0.1, 0.1
	dt := 0.05
	for i := 0; i < 200; i++ {
		h.Append(float64(i)*dt, xd)
		xp = integ.Step1D(plain, bp, xp, dt)
		xd = integ.StepDelay(delayed, bd, xd, dt, 0, h)
		if xp != xd {
			t.Fatalf("step %d: delay %v != plain %v", i, xd, xp)
		}
	}
}

func TestRK4DelayZeroLagUsesCurrentPoint(t *testing.T) {
	sys := mustSystem(t, dynamo.NewDelaySystem1D("X_tau - X", nil))
	integ := NewRK4()
	b := sys.Bind(nil)

	h := dynamo.NewHistoryBuffer(4)
	h.Append(0, 0.7)
	got := integ.StepDelay(sys, b, 0.7, 0.1, 0, h)

	sys.SetLagged(b, 0.7)
	want := integ.Step1D(sys, b, 0.7, 0.1)
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRK4DelayReusesOneLaggedSample(t *testing.T) {
	sys := mustSystem(t, dynamo.NewDelaySystem1D("X_tau", nil))
	integ := NewRK4()

	h := dynamo.NewHistoryBuffer(8)
	for i, v := range []float64{3, 5, 7, 11} {
		h.Append(float64(i)*0.1, v)
	}

	tests := []struct {
		name string
		tau  float64
		want float64
	}{
		{"one step back", 0.1, 7},
		{"three steps back", 0.3, 3},
		{"clamped to oldest", 2.0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := integ.StepDelay(sys, sys.Bind(nil), 1, 0.1, tt.tau, h)
			if math.Abs(got-(1+0.1*tt.want)) > 1e-12 {
				t.Errorf("got %v, want %v", got, 1+0.1*tt.want)
			}
		})
	}
}

func TestEulerMatchesFirstOrder(t *testing.T) {
	sys := mustSystem(t, dynamo.NewSystem1D("-X", nil))
	got := NewEuler().Step(sys, sys.Bind(nil), dynamo.State{1}, 0.1)
	if math.Abs(got[0]-0.9) > 1e-12 {
		t.Errorf("got %v, want 0.9", got[0])
	}

	div := mustSystem(t, dynamo.NewSystem1D("1/X", nil))
	if got := NewEuler().Step(div, div.Bind(nil), dynamo.State{0}, 0.1); got[0] != 0 {
		t.Errorf("expected frozen state, got %v", got)
	}
}

func TestStepCheckedSeparatesFreezeFromStall(t *testing.T) {
	sine := mustSystem(t, dynamo.NewSystem1D("sin(X)", nil))
	pole := mustSystem(t, dynamo.NewSystem1D("1/X", nil))
	delayed := mustSystem(t, dynamo.NewDelaySystem1D("1/X_tau", nil))

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			integ, err := Get(name)
			if err != nil {
				t.Fatal(err)
			}

			// sin(pi) is ~1e-16, far below half an ulp of pi once scaled by dt.
			next, ok := integ.StepChecked(sine, sine.Bind(nil), dynamo.State{math.Pi}, 0.05)
			if !ok || next[0] != math.Pi {
				t.Errorf("stalled step: got %v ok=%v, want unchanged and ok", next, ok)
			}

			next, ok = integ.StepChecked(pole, pole.Bind(nil), dynamo.State{0}, 0.05)
			if ok || next[0] != 0 {
				t.Errorf("pole step: got %v ok=%v, want frozen", next, ok)
			}

			h := dynamo.NewHistoryBuffer(4)
			h.Append(0, 0)
			if x, ok := integ.StepDelayChecked(delayed, delayed.Bind(nil), 0, 0.05, 0, h); ok || x != 0 {
				t.Errorf("delay pole step: got %v ok=%v, want frozen", x, ok)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		integ, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if integ.Name() != name {
			t.Errorf("Get(%q).Name() = %q", name, integ.Name())
		}
	}
	if _, err := Get("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
