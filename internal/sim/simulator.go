package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/phasekit/internal/dynamo"
)

var (
	ErrInvalidConfig = errors.New("sim: invalid config")
	ErrInitialState  = errors.New("sim: invalid initial state")
)

// Runner advances trajectories of one system. It holds no per-trajectory
// state, so a single Runner can drive many runs at once.
type Runner struct {
	sys        *dynamo.System
	integrator dynamo.DelayIntegrator
	params     dynamo.Params
	logger     *slog.Logger
	observers  []Observer
}

// New returns a runner for sys. Values in params override the system
// defaults.
func New(sys *dynamo.System, integrator dynamo.DelayIntegrator, params dynamo.Params) *Runner {
	return &Runner{
		sys:        sys,
		integrator: integrator,
		params:     params.Clone(),
		logger:     slog.New(slog.DiscardHandler),
	}
}

// WithLogger sets the logger used for run diagnostics.
func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	if l != nil {
		r.logger = l
	}
	return r
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) System() *dynamo.System { return r.sys }

// Run integrates from x0 for Duration/Dt steps and records every state.
// A frozen step ends the run and is reported in Result.Errors as a
// *dynamo.SimulationError. Cancellation returns the partial result along
// with the context error.
func (r *Runner) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Result, error) {
	if err := r.validate(x0, cfg); err != nil {
		return nil, err
	}
	return r.record(ctx, r.sys.Bind(r.params), x0, cfg, r.observers)
}

func (r *Runner) record(ctx context.Context, b dynamo.Bindings, x0 dynamo.State, cfg Config, observers []Observer) (*Result, error) {
	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		States: make([]dynamo.State, 0, steps+1),
		Times:  make([]float64, 0, steps+1),
	}
	result.States = append(result.States, x0.Clone())
	result.Times = append(result.Times, 0)
	for _, obs := range observers {
		obs.OnStep(x0, 0)
	}

	tr := r.newTrajectory(b, x0, cfg)
	err := tr.run(ctx, steps, func(x dynamo.State, t float64) bool {
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
		for _, obs := range observers {
			obs.OnStep(x, t)
		}
		return true
	})
	result.StepsTaken = tr.step
	result.Termination = tr.termination
	if tr.failure != nil {
		result.Errors = append(result.Errors, tr.failure)
	}

	r.logger.Debug("trajectory finished",
		"system", r.sys.Formula(),
		"steps", tr.step,
		"t", tr.t,
		"termination", tr.termination)
	return result, err
}

// RunWithCallback integrates from x0 without recording, calling fn after
// every step. Returning false from fn stops the run.
func (r *Runner) RunWithCallback(ctx context.Context, x0 dynamo.State, cfg Config, fn func(x dynamo.State, t float64) bool) (Termination, error) {
	if err := r.validate(x0, cfg); err != nil {
		return Horizon, err
	}
	tr := r.newTrajectory(r.sys.Bind(r.params), x0, cfg)
	err := tr.run(ctx, int(cfg.Duration/cfg.Dt), fn)
	if err == nil && tr.failure != nil {
		err = tr.failure
	}
	return tr.termination, err
}

func (r *Runner) validate(x0 dynamo.State, cfg Config) error {
	if !r.sys.IsValid() {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidSystem, r.sys.Err())
	}
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Tau < 0 {
		return fmt.Errorf("%w: tau must not be negative, got %f", ErrInvalidConfig, cfg.Tau)
	}
	if len(x0) != r.sys.Dim() {
		return fmt.Errorf("%w: state %d, system %d", dynamo.ErrDimensionMismatch, len(x0), r.sys.Dim())
	}
	if !x0.IsValid() {
		return fmt.Errorf("%w: %v", ErrInitialState, dynamo.ErrInvalidState)
	}
	return nil
}
