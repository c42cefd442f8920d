package dynamo

import "errors"

// Domain errors for system construction and simulation.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidSystem indicates evaluation of a system whose formula did not compile.
	ErrInvalidSystem = errors.New("dynamo: system formula is invalid")

	// ErrComponentCount indicates a planar field without exactly two components.
	ErrComponentCount = errors.New("dynamo: vector field needs exactly two components")

	// ErrReservedName indicates a parameter named like a state variable.
	ErrReservedName = errors.New("dynamo: parameter name is reserved")

	// ErrUnknownParam indicates a parameter outside the system's vocabulary.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrFrozen indicates a step that could not advance because a stage
	// produced a non-finite derivative.
	ErrFrozen = errors.New("dynamo: non-finite derivative, trajectory frozen")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
