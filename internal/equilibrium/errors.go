package equilibrium

import (
	"errors"
	"fmt"
)

// Domain errors for equilibrium solves. Each failure mode the caller may want
// to distinguish gets its own sentinel; wrap with %w and test with errors.Is.
var (
	// ErrInvalidInput indicates malformed solver input: non-positive pressure,
	// empty species list, or an inconsistent record.
	ErrInvalidInput = errors.New("equilibrium: invalid input")

	// ErrInfeasibleMassBalance indicates a propellant element no candidate
	// species can supply; mass conservation is structurally impossible.
	ErrInfeasibleMassBalance = errors.New("equilibrium: mass balance infeasible")

	// ErrInnerConvergence indicates the constrained Gibbs minimization at a
	// trial temperature missed its tolerance within the iteration budget.
	ErrInnerConvergence = errors.New("equilibrium: composition solve did not converge")

	// ErrOuterConvergence indicates no equilibrium temperature was found:
	// the enthalpy residual has no bracketed root, or the root-finder
	// exhausted its iteration budget.
	ErrOuterConvergence = errors.New("equilibrium: temperature solve did not converge")
)

// SolveError carries the temperature at which a nested solve failed.
type SolveError struct {
	Temperature float64
	Wrapped     error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("%v (at %.2f K)", e.Wrapped, e.Temperature)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
