package sim

import (
	"context"
	"testing"

	"github.com/san-kum/phasekit/internal/dynamo"
)

func TestRunEnsembleMatchesSerialRuns(t *testing.T) {
	r := newRunner(t, dynamo.NewSystem1D("k*X*(1-X)", dynamo.Params{"k": 0.8}), "rk4", nil)
	cfg := Config{Dt: 0.05, Duration: 2, Bounds: &Bounds{XMin: -5, XMax: 5}}

	x0s := make([]dynamo.State, 64)
	for i := range x0s {
		x0s[i] = dynamo.State{-1 + 3*float64(i)/float64(len(x0s)-1)}
	}

	results, err := r.RunEnsemble(context.Background(), x0s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(x0s) {
		t.Fatalf("expected %d results, got %d", len(x0s), len(results))
	}

	for i, x0 := range x0s {
		serial, err := r.Run(context.Background(), x0, cfg)
		if err != nil {
			t.Fatal(err)
		}
		got := results[i]
		if got.Termination != serial.Termination || !got.Final().Equal(serial.Final()) {
			t.Errorf("particle %d: ensemble %v %v, serial %v %v",
				i, got.Termination, got.Final(), serial.Termination, serial.Final())
		}
	}
}

func TestRunEnsembleDelayParticlesAreIndependent(t *testing.T) {
	r := newRunner(t, dynamo.NewDelaySystem1D("-X_tau", nil), "rk4", nil)
	cfg := Config{Dt: 0.01, Duration: 1, Tau: 0.5}

	x0s := []dynamo.State{{1}, {2}, {-1}, {0}}
	results, err := r.RunEnsemble(context.Background(), x0s, cfg)
	if err != nil {
		t.Fatal(err)
	}

	// The equation is linear, so each trajectory scales with its start.
	base := results[0].Final()[0]
	for i, x0 := range x0s {
		want := base * x0[0]
		if got := results[i].Final()[0]; got-want > 1e-9 || want-got > 1e-9 {
			t.Errorf("particle %d: got %v, want %v", i, got, want)
		}
	}
}

func TestRunEnsembleValidatesEveryStart(t *testing.T) {
	r := newRunner(t, dynamo.NewSystem1D("-X", nil), "rk4", nil)
	_, err := r.RunEnsemble(context.Background(), []dynamo.State{{1}, {1, 2}}, Config{Dt: 0.1, Duration: 1})
	if err == nil {
		t.Error("expected dimension error")
	}
}
