package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/integrators"
	"github.com/san-kum/phasekit/internal/sim"
)

func TestBounded(t *testing.T) {
	m := NewBounded(&sim.Bounds{XMin: -1, XMax: 1})
	if m.Value() != 1 {
		t.Errorf("no samples should read as fully bounded, got %v", m.Value())
	}

	m.OnStep(dynamo.State{0.5}, 0)
	m.OnStep(dynamo.State{2}, 1)
	m.OnStep(dynamo.State{math.NaN()}, 2)
	m.OnStep(dynamo.State{-1}, 3)
	if got := m.Value(); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %v", got)
	}

	m.Reset()
	m.OnStep(dynamo.State{0}, 0)
	if m.Value() != 1 {
		t.Errorf("expected 1 after reset, got %v", m.Value())
	}

	unbounded := NewBounded(nil)
	unbounded.OnStep(dynamo.State{1e9}, 0)
	if unbounded.Value() != 1 {
		t.Error("nil bounds should accept any finite state")
	}
}

func TestPathLength(t *testing.T) {
	m := NewPathLength()
	m.OnStep(dynamo.State{0, 0}, 0)
	m.OnStep(dynamo.State{3, 4}, 1)
	m.OnStep(dynamo.State{3, 0}, 2)
	if got := m.Value(); math.Abs(got-9) > 1e-12 {
		t.Errorf("expected 9, got %v", got)
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("reset should clear the length")
	}
}

func TestInvariantDriftHarmonic(t *testing.T) {
	sys := dynamo.NewSystem2D("Y, -w*w*X", dynamo.Params{"w": 2})
	drift, err := NewInvariantDrift(sys, nil, "Y^2 + w*w*X^2")
	if err != nil {
		t.Fatal(err)
	}
	if got := drift.Evaluate(dynamo.State{1, 0}); got != 4 {
		t.Errorf("quantity at (1, 0): got %v, want 4", got)
	}

	tests := []struct {
		integ string
		max   float64
	}{
		{"rk4", 1e-6},
		{"euler", 1},
	}
	for _, tt := range tests {
		t.Run(tt.integ, func(t *testing.T) {
			integ, err := integrators.Get(tt.integ)
			if err != nil {
				t.Fatal(err)
			}
			drift.Reset()
			r := sim.New(sys, integ, nil)
			r.AddObserver(drift)
			if _, err := r.Run(context.Background(), dynamo.State{1, 0}, sim.Config{Dt: 0.01, Duration: 5}); err != nil {
				t.Fatal(err)
			}
			if drift.Value() > tt.max {
				t.Errorf("drift %v exceeds %v", drift.Value(), tt.max)
			}
			if tt.integ == "euler" && drift.Value() == 0 {
				t.Error("forward Euler should not conserve the quantity exactly")
			}
		})
	}
}

func TestInvariantDriftErrors(t *testing.T) {
	sys := dynamo.NewSystem1D("-X", nil)
	if _, err := NewInvariantDrift(sys, nil, "X + Y"); err == nil {
		t.Error("Y is not in a one-dimensional vocabulary")
	}
	if _, err := NewInvariantDrift(dynamo.NewSystem1D("X +", nil), nil, "X"); err == nil {
		t.Error("invalid system should be rejected")
	}
}

func TestSet(t *testing.T) {
	s := Default(&sim.Bounds{XMin: -2, XMax: 2})
	r := sim.New(dynamo.NewSystem1D("-X", nil), mustIntegrator(t, "rk4"), nil)
	r.AddObserver(s)
	if _, err := r.Run(context.Background(), dynamo.State{1}, sim.Config{Dt: 0.01, Duration: 10}); err != nil {
		t.Fatal(err)
	}

	v := s.Values()
	if v["bounded"] != 1 {
		t.Errorf("bounded: got %v", v["bounded"])
	}
	// Monotone decay from 1 towards 0 travels just under 1.
	if pl := v["path_length"]; pl < 0.99 || pl > 1 {
		t.Errorf("path_length: got %v", pl)
	}
	if names := s.Names(); len(names) != 2 || names[0] != "bounded" {
		t.Errorf("names: %v", names)
	}

	s.Reset()
	if s.Values()["path_length"] != 0 {
		t.Error("reset should propagate")
	}
}

func mustIntegrator(t *testing.T, name string) dynamo.DelayIntegrator {
	t.Helper()
	integ, err := integrators.Get(name)
	if err != nil {
		t.Fatal(err)
	}
	return integ
}
