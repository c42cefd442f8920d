package sim

import (
	"fmt"

	"github.com/san-kum/phasekit/internal/dynamo"
)

// Config bounds one trajectory. The engine never stops on its own; the
// horizon, the domain and the context are the only ways a run ends.
type Config struct {
	Dt       float64
	Duration float64
	// Tau is the delay of a delay system. Ignored otherwise.
	Tau float64
	// HistoryWindow overrides the number of retained delay samples. Zero
	// keeps exactly what Tau needs.
	HistoryWindow int
	// Bounds stops the run once the state leaves it. Nil disables the check.
	Bounds *Bounds
}

// Bounds is an axis-aligned box in state space. Y limits are ignored for
// one-dimensional states.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

func (b *Bounds) Contains(x dynamo.State) bool {
	if b == nil {
		return true
	}
	if x[0] < b.XMin || x[0] > b.XMax {
		return false
	}
	if len(x) > 1 && (x[1] < b.YMin || x[1] > b.YMax) {
		return false
	}
	return true
}

// Termination records why a run stopped.
type Termination int

const (
	Horizon Termination = iota
	OutOfBounds
	Frozen
	Canceled
	Stopped
)

var terminationNames = [...]string{"horizon", "out_of_bounds", "frozen", "canceled", "stopped"}

func (t Termination) String() string {
	if t < 0 || int(t) >= len(terminationNames) {
		return fmt.Sprintf("Termination(%d)", int(t))
	}
	return terminationNames[t]
}

func (t Termination) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Termination) UnmarshalText(text []byte) error {
	for i, name := range terminationNames {
		if name == string(text) {
			*t = Termination(i)
			return nil
		}
	}
	return fmt.Errorf("sim: unknown termination %q", text)
}

// Result is one recorded trajectory. States[i] is the state at Times[i].
type Result struct {
	States      []dynamo.State
	Times       []float64
	StepsTaken  int
	Termination Termination
	Errors      []error
}

// Final returns the last recorded state.
func (r *Result) Final() dynamo.State {
	return r.States[len(r.States)-1]
}

// Observer sees the initial state and then every accepted step.
type Observer interface {
	OnStep(x dynamo.State, t float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(x dynamo.State, t float64)

func (f ObserverFunc) OnStep(x dynamo.State, t float64) { f(x, t) }
