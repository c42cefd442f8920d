package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/phasekit/internal/analysis"
	"github.com/san-kum/phasekit/internal/config"
	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/expr"
	"github.com/san-kum/phasekit/internal/sim"
)

func mustNew(t *testing.T, cfg *config.Config) *Experiment {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestPresetsBuild(t *testing.T) {
	for _, name := range config.ListPresets() {
		e := mustNew(t, config.GetPreset(name))
		if e.Metadata().Name != name {
			t.Errorf("%s: metadata name %q", name, e.Metadata().Name)
		}
	}
}

func TestBuildSystemKinds(t *testing.T) {
	tests := []struct {
		sc   config.SystemConfig
		kind dynamo.Kind
	}{
		{config.SystemConfig{Formula: "-X", Dim: 1}, dynamo.Kind1D},
		{config.SystemConfig{Formula: "-X_tau", Dim: 1, Delay: true}, dynamo.KindDelay},
		{config.SystemConfig{Formula: "Y, -X", Dim: 2}, dynamo.Kind2D},
	}
	for _, tt := range tests {
		sys, err := BuildSystem(tt.sc)
		if err != nil {
			t.Fatalf("%q: %v", tt.sc.Formula, err)
		}
		if sys.Kind() != tt.kind {
			t.Errorf("%q: got kind %v, want %v", tt.sc.Formula, sys.Kind(), tt.kind)
		}
	}

	_, err := BuildSystem(config.SystemConfig{Formula: "foo(X)", Dim: 1})
	if !errors.Is(err, expr.ErrUnknownFunction) {
		t.Errorf("expected ErrUnknownFunction, got %v", err)
	}
	if got := ListKinds(); len(got) != 3 {
		t.Errorf("kinds: %v", got)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Integrator = "leapfrog"
	if _, err := New(cfg); err == nil {
		t.Error("expected unknown integrator error")
	}

	cfg = config.DefaultConfig()
	cfg.Dt = 0
	if _, err := New(cfg); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected config.ErrInvalid, got %v", err)
	}
}

func TestRunAndAnalyzeLogistic(t *testing.T) {
	e := mustNew(t, config.GetPreset("logistic"))

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Termination != sim.Horizon {
		t.Fatalf("got %v", result.Termination)
	}

	pl, err := e.Analyze()
	if err != nil {
		t.Fatal(err)
	}
	if len(pl.Equilibria) != 2 {
		t.Fatalf("got %v", pl.Equilibria)
	}

	// The trajectory heads for the stable equilibrium.
	stable := pl.Equilibria[1]
	if stable.Stability != analysis.Stable {
		t.Fatalf("expected stable at 1, got %+v", stable)
	}
	if d0, d1 := math.Abs(result.States[0][0]-stable.X), math.Abs(result.Final()[0]-stable.X); d1 >= d0 {
		t.Errorf("trajectory did not approach %v: %v -> %v", stable.X, result.States[0], result.Final())
	}
}

func TestFlatPreset(t *testing.T) {
	e := mustNew(t, config.GetPreset("flat"))
	pl, err := e.Analyze()
	if err != nil {
		t.Fatal(err)
	}
	if len(pl.Equilibria) != 0 || len(pl.DegenerateIntervals) != 1 {
		t.Errorf("got %+v", pl)
	}
}

func TestPlanarExperiment(t *testing.T) {
	e := mustNew(t, config.GetPreset("harmonic"))

	if _, err := e.Analyze(); !errors.Is(err, analysis.ErrNotOneDimensional) {
		t.Errorf("expected ErrNotOneDimensional, got %v", err)
	}

	portrait, err := e.Portrait()
	if err != nil {
		t.Fatal(err)
	}
	if len(portrait.Points) < 2 {
		t.Errorf("portrait has %d points", len(portrait.Points))
	}

	field, err := e.VectorField(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(field) != 25 {
		t.Errorf("expected 25 field samples, got %d", len(field))
	}

	results, err := e.RunEnsemble(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 9 {
		t.Errorf("expected 9 trajectories, got %d", len(results))
	}
}

func TestSweep(t *testing.T) {
	e := mustNew(t, config.GetPreset("logistic"))
	points, err := e.Sweep("k", -1, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 || len(points[1].DegenerateIntervals) != 1 {
		t.Errorf("got %+v", points)
	}
}

func TestDelayExperimentMetadata(t *testing.T) {
	e := mustNew(t, config.GetPreset("delay_logistic"))
	meta := e.Metadata()
	if meta.Kind != "delay" || meta.Tau != 1 || meta.Integrator != "rk4" {
		t.Errorf("got %+v", meta)
	}

	cfg := config.DefaultConfig()
	if got := mustNew(t, cfg).Metadata().Name; got != "custom" {
		t.Errorf("unnamed config got %q", got)
	}
}
