package equilibrium

import (
	"errors"
	"testing"

	"github.com/glushko-lab/combeq/internal/thermo"
)

// hydrogenOxygenSystem has one degree of freedom: the H2/O2 vs H2O split.
func hydrogenOxygenSystem(t *testing.T) (*thermo.Mixture, *BalanceSystem) {
	t.Helper()
	species := []*thermo.Species{
		gasSpecies(t, "H2", hydrogenCoeffs),
		gasSpecies(t, "O2", dioxygenCoeffs),
		gasSpecies(t, "H2O", waterCoeffs),
	}
	p := Propellant{
		Enthalpy:    -1e6,
		Composition: map[string]float64{"H": 4, "O": 2},
	}
	bal, err := NewBalanceSystem(p, species)
	if err != nil {
		t.Fatal(err)
	}
	mix, err := thermo.NewMixture(species, 101325.0)
	if err != nil {
		t.Fatal(err)
	}
	return mix, bal
}

func TestSolveCompositionSatisfiesMassBalance(t *testing.T) {
	mix, bal := hydrogenOxygenSystem(t)

	n, err := SolveComposition(mix, bal, 2500.0, nil, InnerOptions{})
	if err != nil {
		t.Fatalf("SolveComposition: %v", err)
	}

	if len(n) != 3 {
		t.Fatalf("got %d moles, want 3", len(n))
	}
	for i, v := range n {
		if v < 0 {
			t.Errorf("n[%d] = %g, want >= 0", i, v)
		}
	}
	if norm := bal.Residual(n, nil); norm > 1e-7 {
		t.Errorf("|A·n - b| = %g, want <= 1e-7", norm)
	}
}

func TestSolveCompositionDescent(t *testing.T) {
	mix, bal := hydrogenOxygenSystem(t)

	var history []float64
	opts := InnerOptions{
		Trace: func(iter int, gibbs float64) { history = append(history, gibbs) },
	}
	if _, err := SolveComposition(mix, bal, 2500.0, nil, opts); err != nil {
		t.Fatalf("SolveComposition: %v", err)
	}
	if len(history) < 2 {
		t.Fatalf("only %d iterations traced", len(history))
	}

	// The objective must never increase between accepted iterates.
	for i := 1; i < len(history); i++ {
		if history[i] > history[i-1]+1e-9 {
			t.Fatalf("Gibbs energy rose at iteration %d: %g -> %g", i, history[i-1], history[i])
		}
	}
}

func TestSolveCompositionWarmStart(t *testing.T) {
	mix, bal := hydrogenOxygenSystem(t)

	cold, err := SolveComposition(mix, bal, 2500.0, nil, InnerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	warm, err := SolveComposition(mix, bal, 2500.0, cold, InnerOptions{})
	if err != nil {
		t.Fatal(err)
	}

	// Restarting at the optimum must stay there.
	for i := range cold {
		diff := warm[i] - cold[i]
		if diff < 0 {
			diff = -diff
		}
		tol := 1e-6 * (1 + cold[i])
		if diff > tol {
			t.Errorf("warm[%d] = %g drifted from cold %g", i, warm[i], cold[i])
		}
	}
}

func TestSolveCompositionDeterminedSystem(t *testing.T) {
	// Two species, two elements, full rank: the constraints fix the
	// composition with no minimization freedom left.
	species := []*thermo.Species{
		gasSpecies(t, "H2O", waterCoeffs),
		gasSpecies(t, "O", oxygenCoeffs),
	}
	p := Propellant{
		Enthalpy:    -1e6,
		Composition: map[string]float64{"H": 20, "O": 30},
	}
	bal, err := NewBalanceSystem(p, species)
	if err != nil {
		t.Fatal(err)
	}
	mix, err := thermo.NewMixture(species, 101325.0)
	if err != nil {
		t.Fatal(err)
	}

	n, err := SolveComposition(mix, bal, 3000.0, nil, InnerOptions{})
	if err != nil {
		t.Fatalf("SolveComposition: %v", err)
	}

	// H balance forces 10 mol H2O, O balance leaves 20 mol O.
	if diff := n[0] - 10; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("n[H2O] = %g, want 10", n[0])
	}
	if diff := n[1] - 20; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("n[O] = %g, want 20", n[1])
	}
}

func TestSolveCompositionColumnMismatch(t *testing.T) {
	mix, _ := hydrogenOxygenSystem(t)

	two := []*thermo.Species{
		gasSpecies(t, "H2O", waterCoeffs),
		gasSpecies(t, "O", oxygenCoeffs),
	}
	p := Propellant{Enthalpy: 0, Composition: map[string]float64{"H": 20, "O": 30}}
	bal, err := NewBalanceSystem(p, two)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := SolveComposition(mix, bal, 2500.0, nil, InnerOptions{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSolveErrorUnwraps(t *testing.T) {
	wrapped := &SolveError{Temperature: 1234.5, Wrapped: ErrInnerConvergence}
	if !errors.Is(wrapped, ErrInnerConvergence) {
		t.Error("SolveError must unwrap to its sentinel")
	}
	if wrapped.Error() == "" {
		t.Error("empty error string")
	}
}
