package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/phasekit/internal/analysis"
	"github.com/san-kum/phasekit/internal/config"
	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/integrators"
	"github.com/san-kum/phasekit/internal/sim"
	"github.com/san-kum/phasekit/internal/storage"
)

// Experiment is a configured system together with the integrator and
// runner that drive it.
type Experiment struct {
	cfg        *config.Config
	sys        *dynamo.System
	integrator dynamo.DelayIntegrator
	runner     *sim.Runner
	logger     *slog.Logger
}

func New(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sys, err := BuildSystem(cfg.System)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	return &Experiment{
		cfg:        cfg,
		sys:        sys,
		integrator: integ,
		runner:     sim.New(sys, integ, nil),
		logger:     slog.New(slog.DiscardHandler),
	}, nil
}

// WithLogger routes experiment and runner diagnostics to l.
func (e *Experiment) WithLogger(l *slog.Logger) *Experiment {
	if l != nil {
		e.logger = l
		e.runner.WithLogger(l)
	}
	return e
}

func (e *Experiment) Config() *config.Config        { return e.cfg }
func (e *Experiment) System() *dynamo.System        { return e.sys }
func (e *Experiment) Integrator() dynamo.Integrator { return e.integrator }

// Runner exposes the underlying runner for adding observers.
func (e *Experiment) Runner() *sim.Runner { return e.runner }

func (e *Experiment) simConfig() sim.Config {
	d := e.cfg.Domain
	return sim.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		Tau:           e.cfg.System.Tau,
		HistoryWindow: e.cfg.HistoryWindow,
		Bounds:        &sim.Bounds{XMin: d.Min, XMax: d.Max, YMin: d.YMin, YMax: d.YMax},
	}
}

// Run integrates one trajectory from the configured initial state.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	e.logger.Debug("running", "system", e.sys, "integrator", e.integrator.Name(), "dt", e.cfg.Dt, "duration", e.cfg.Duration)
	return e.runner.Run(ctx, e.cfg.InitState(), e.simConfig())
}

// RunEnsemble integrates n one-dimensional trajectories started evenly
// across the domain, or an n by n grid of starts for planar systems.
func (e *Experiment) RunEnsemble(ctx context.Context, n int) ([]*sim.Result, error) {
	if n < 2 {
		return nil, fmt.Errorf("ensemble needs at least 2 particles per axis, got %d", n)
	}
	d := e.cfg.Domain
	var x0s []dynamo.State
	for i := 0; i < n; i++ {
		x := d.Min + (d.Max-d.Min)*float64(i)/float64(n-1)
		if e.sys.Dim() == 1 {
			x0s = append(x0s, dynamo.State{x})
			continue
		}
		for j := 0; j < n; j++ {
			y := d.YMin + (d.YMax-d.YMin)*float64(j)/float64(n-1)
			x0s = append(x0s, dynamo.State{x, y})
		}
	}
	return e.RunFrom(ctx, x0s)
}

// RunFrom integrates one trajectory per initial state concurrently.
func (e *Experiment) RunFrom(ctx context.Context, x0s []dynamo.State) ([]*sim.Result, error) {
	e.logger.Debug("running ensemble", "particles", len(x0s))
	return e.runner.RunEnsemble(ctx, x0s, e.simConfig())
}

// Analyze returns the phase line over the configured domain.
func (e *Experiment) Analyze() (*analysis.PhaseLine, error) {
	pl, err := analysis.AnalyzePhaseLine(e.sys, nil, e.cfg.Domain.Min, e.cfg.Domain.Max, e.cfg.Analysis)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("analyzed phase line",
		"equilibria", len(pl.Equilibria),
		"degenerate", len(pl.DegenerateIntervals))
	return pl, nil
}

// Sweep analyzes the phase line across steps values of one parameter.
func (e *Experiment) Sweep(param string, lo, hi float64, steps int) ([]analysis.SweepPoint, error) {
	return analysis.SweepParameter(e.sys, nil, param, lo, hi, steps, e.cfg.Domain.Min, e.cfg.Domain.Max, e.cfg.Analysis)
}

// Portrait integrates a planar system from the configured initial state.
func (e *Experiment) Portrait() (*analysis.PhasePortrait2D, error) {
	return analysis.GeneratePhasePortrait(e.sys, e.integrator, nil, e.cfg.Init.X, e.cfg.Init.Y, e.cfg.Dt, e.cfg.Duration)
}

// VectorField samples a planar system on an n by n grid over the domain.
func (e *Experiment) VectorField(n int) ([]analysis.FieldSample, error) {
	d := e.cfg.Domain
	return analysis.VectorField(e.sys, nil, d.Min, d.Max, d.YMin, d.YMax, n, n)
}

// Metadata describes the experiment for storage.
func (e *Experiment) Metadata() storage.RunMetadata {
	return storage.RunMetadata{
		Name:       e.name(),
		Formula:    e.sys.Formula(),
		Kind:       e.sys.Kind().String(),
		Params:     e.sys.Params(),
		Tau:        e.cfg.System.Tau,
		Dt:         e.cfg.Dt,
		Duration:   e.cfg.Duration,
		Integrator: e.integrator.Name(),
	}
}

func (e *Experiment) name() string {
	if e.cfg.Name != "" {
		return e.cfg.Name
	}
	return "custom"
}
