// Package dynamo provides the system model and simulation primitives for
// formula-defined dynamical systems.
//
// The package defines:
//
//   - [System]: one compiled derivative (1D, optionally with a delayed
//     value X_tau) or two (planar vector field)
//   - [Bindings]: the resolved slot vector a trajectory evaluates with
//   - [State]: the integrated state vector, (X) or (X, Y)
//   - [History]: read-only view of past (t, X) samples for delay lookups
//   - [Integrator]: fixed-step integrator interface
//
// # Example
//
//	sys := dynamo.NewSystem1D("k*X*(1-X)", dynamo.Params{"k": 0.5})
//	if !sys.IsValid() {
//	    return sys.Err()
//	}
//	dx := sys.EvaluateDerivative(0.25, nil)
//
// # Thread Safety
//
// A System is immutable after construction and may be shared by any number
// of trajectories. Bindings are per-trajectory scratch and must not be
// shared between goroutines.
package dynamo
