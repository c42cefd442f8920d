package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/expr"
)

// InvariantDrift tracks the largest relative change of a conserved
// quantity, written as a formula over the system's state variables and
// parameters, e.g. "Y^2 + w*w*X^2" for the harmonic oscillator.
type InvariantDrift struct {
	sys      *dynamo.System
	quantity *expr.Expression
	b        dynamo.Bindings

	initial  float64
	maxDrift float64
	samples  int
}

// NewInvariantDrift compiles quantity against the vocabulary of sys.
func NewInvariantDrift(sys *dynamo.System, params dynamo.Params, quantity string) (*InvariantDrift, error) {
	if !sys.IsValid() {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidSystem, sys.Err())
	}
	e, err := expr.CompileString(quantity, sys.Vocabulary())
	if err != nil {
		return nil, fmt.Errorf("invariant %q: %w", quantity, err)
	}
	return &InvariantDrift{sys: sys, quantity: e, b: sys.Bind(params)}, nil
}

func (d *InvariantDrift) Name() string { return "invariant_drift" }

// Evaluate returns the quantity at x.
func (d *InvariantDrift) Evaluate(x dynamo.State) float64 {
	copy(d.b, x)
	if d.sys.IsDelay() {
		d.sys.SetLagged(d.b, x[0])
	}
	return d.quantity.EvaluateSlots(d.b)
}

func (d *InvariantDrift) OnStep(x dynamo.State, t float64) {
	q := d.Evaluate(x)
	if d.samples == 0 {
		d.initial = q
	}
	d.samples++

	drift := math.Abs(q - d.initial)
	if d.initial != 0 {
		drift /= math.Abs(d.initial)
	}
	d.maxDrift = math.Max(d.maxDrift, drift)
}

// Value is relative to the first observed value, or absolute when that
// value is zero.
func (d *InvariantDrift) Value() float64 { return d.maxDrift }

func (d *InvariantDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}
