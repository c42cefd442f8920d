package sim

import (
	"context"

	"github.com/san-kum/phasekit/internal/dynamo"
)

// Trajectory is the mutable integration state of one particle: its state,
// time, bindings and delay history. It is not safe for concurrent use.
type Trajectory struct {
	r       *Runner
	b       dynamo.Bindings
	x       dynamo.State
	t       float64
	step    int
	cfg     Config
	history *dynamo.HistoryBuffer

	termination Termination
	failure     error
}

// NewTrajectory starts a particle at x0 for step-by-step driving, as an
// animation loop does. Duration is not enforced by Step.
func (r *Runner) NewTrajectory(x0 dynamo.State, cfg Config) (*Trajectory, error) {
	if cfg.Duration <= 0 {
		cfg.Duration = cfg.Dt
	}
	if err := r.validate(x0, cfg); err != nil {
		return nil, err
	}
	return r.newTrajectory(r.sys.Bind(r.params), x0, cfg), nil
}

func (r *Runner) newTrajectory(b dynamo.Bindings, x0 dynamo.State, cfg Config) *Trajectory {
	tr := &Trajectory{
		r:   r,
		b:   b,
		x:   x0.Clone(),
		cfg: cfg,
	}
	if r.sys.IsDelay() {
		window := cfg.HistoryWindow
		if window <= 0 {
			window = dynamo.WindowFor(cfg.Tau, cfg.Dt)
		}
		tr.history = dynamo.NewHistoryBuffer(window)
	}
	return tr
}

func (tr *Trajectory) State() dynamo.State { return tr.x }
func (tr *Trajectory) Time() float64       { return tr.t }
func (tr *Trajectory) Steps() int          { return tr.step }

// Termination is meaningful once Done reports true.
func (tr *Trajectory) Termination() Termination { return tr.termination }

// Err returns the freeze error, if any.
func (tr *Trajectory) Err() error { return tr.failure }

// Done reports whether the particle froze or left the bounds.
func (tr *Trajectory) Done() bool {
	return tr.termination == Frozen || tr.termination == OutOfBounds
}

// Step advances one step and reports whether the particle is still live.
func (tr *Trajectory) Step() bool {
	if tr.Done() {
		return false
	}
	if !tr.advance() {
		return false
	}
	if !tr.cfg.Bounds.Contains(tr.x) {
		tr.termination = OutOfBounds
		return false
	}
	return true
}

func (tr *Trajectory) run(ctx context.Context, steps int, fn func(x dynamo.State, t float64) bool) error {
	for tr.step < steps {
		select {
		case <-ctx.Done():
			tr.termination = Canceled
			return ctx.Err()
		default:
		}

		if !tr.advance() {
			return nil
		}
		if !fn(tr.x, tr.t) {
			tr.termination = Stopped
			return nil
		}
		if !tr.cfg.Bounds.Contains(tr.x) {
			tr.termination = OutOfBounds
			return nil
		}
	}
	tr.termination = Horizon
	return nil
}

// advance takes one step. It returns false when the integrator froze.
func (tr *Trajectory) advance() bool {
	sys, dt := tr.r.sys, tr.cfg.Dt

	var (
		next dynamo.State
		ok   bool
	)
	if tr.history != nil {
		tr.history.Append(tr.t, tr.x[0])
		var nx float64
		nx, ok = tr.r.integrator.StepDelayChecked(sys, tr.b, tr.x[0], dt, tr.cfg.Tau, tr.history)
		next = dynamo.State{nx}
	} else {
		next, ok = tr.r.integrator.StepChecked(sys, tr.b, tr.x, dt)
	}

	if !ok {
		tr.termination = Frozen
		tr.failure = &dynamo.SimulationError{
			Step:    tr.step,
			Time:    tr.t,
			State:   tr.x.Clone(),
			Wrapped: dynamo.ErrFrozen,
		}
		return false
	}

	tr.x = next
	tr.step++
	tr.t = float64(tr.step) * dt
	return true
}
