package equilibrium

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/glushko-lab/combeq/internal/chem"
	"github.com/glushko-lab/combeq/internal/thermo"
)

// Propellant is the solver's input substance: its enthalpy and a conditional
// chemical formula for one reference kilogram, expressed as moles of each
// element per kg.
type Propellant struct {
	Enthalpy    float64            // J per kg
	Composition map[string]float64 // element symbol -> mol per kg
}

// Validate checks the record before any solving begins.
func (p Propellant) Validate() error {
	if len(p.Composition) == 0 {
		return fmt.Errorf("%w: propellant composition is empty", ErrInvalidInput)
	}
	for symbol, moles := range p.Composition {
		if _, ok := chem.ElementMolarMasses[symbol]; !ok {
			return fmt.Errorf("%w: unknown element %q in propellant", ErrInvalidInput, symbol)
		}
		if moles <= 0 {
			return fmt.Errorf("%w: element %s has non-positive amount %g", ErrInvalidInput, symbol, moles)
		}
	}
	return nil
}

// TotalMass returns the mass in kg implied by the composition. For a
// normalized record this is 1 kg.
func (p Propellant) TotalMass() (float64, error) {
	total := 0.0
	for symbol, moles := range p.Composition {
		m, ok := chem.ElementMolarMasses[symbol]
		if !ok {
			return 0, fmt.Errorf("%w: unknown element %q in propellant", ErrInvalidInput, symbol)
		}
		total += moles * m
	}
	return total, nil
}

// BalanceSystem is the linear mass-conservation system A·n = b: one row per
// element, one column per species in list order, entries are atoms of the
// element per mole of the species.
type BalanceSystem struct {
	Elements []string // row order
	A        *mat.Dense
	B        *mat.VecDense
}

// NewBalanceSystem assembles the constraint system for a propellant and an
// ordered species list. Rows cover the union of elements appearing in the
// propellant or any species, sorted for determinism; elements absent from
// the propellant get a zero right-hand side, forcing any species containing
// them to zero. A propellant element with no supply in any column makes the
// system structurally infeasible.
func NewBalanceSystem(p Propellant, species []*thermo.Species) (*BalanceSystem, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(species) == 0 {
		return nil, fmt.Errorf("%w: no candidate species", ErrInvalidInput)
	}

	seen := make(map[string]bool)
	for symbol := range p.Composition {
		seen[symbol] = true
	}
	for _, sp := range species {
		for symbol := range sp.Elements() {
			seen[symbol] = true
		}
	}
	elements := make([]string, 0, len(seen))
	for symbol := range seen {
		elements = append(elements, symbol)
	}
	sort.Strings(elements)

	rows, cols := len(elements), len(species)
	a := mat.NewDense(rows, cols, nil)
	b := mat.NewVecDense(rows, nil)

	for r, symbol := range elements {
		b.SetVec(r, p.Composition[symbol])
		for c, sp := range species {
			a.Set(r, c, float64(sp.Elements()[symbol]))
		}
	}

	for r, symbol := range elements {
		if b.AtVec(r) == 0 {
			continue
		}
		supplied := false
		for c := 0; c < cols; c++ {
			if a.At(r, c) > 0 {
				supplied = true
				break
			}
		}
		if !supplied {
			return nil, fmt.Errorf("%w: element %s has no supplying species", ErrInfeasibleMassBalance, symbol)
		}
	}

	return &BalanceSystem{Elements: elements, A: a, B: b}, nil
}

// Residual writes A·n - b into dst and returns its max-norm.
func (s *BalanceSystem) Residual(n []float64, dst *mat.VecDense) float64 {
	rows, _ := s.A.Dims()
	if dst == nil {
		dst = mat.NewVecDense(rows, nil)
	}
	dst.MulVec(s.A, mat.NewVecDense(len(n), n))
	dst.SubVec(dst, s.B)
	norm := 0.0
	for r := 0; r < rows; r++ {
		if v := dst.AtVec(r); v > norm {
			norm = v
		} else if -v > norm {
			norm = -v
		}
	}
	return norm
}

// FilterByElements keeps species whose elements all occur in the propellant,
// mirroring the reference data preparation: species that would introduce a
// foreign element can never carry mass.
func FilterByElements(species []*thermo.Species, p Propellant) []*thermo.Species {
	kept := make([]*thermo.Species, 0, len(species))
	for _, sp := range species {
		ok := true
		for symbol := range sp.Elements() {
			if _, present := p.Composition[symbol]; !present {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, sp)
		}
	}
	return kept
}

// FilterByTemperature keeps species whose fits are valid at T.
func FilterByTemperature(species []*thermo.Species, T float64) []*thermo.Species {
	kept := make([]*thermo.Species, 0, len(species))
	for _, sp := range species {
		if sp.Range.Contains(T) {
			kept = append(kept, sp)
		}
	}
	return kept
}
