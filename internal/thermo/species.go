package thermo

import (
	"errors"
	"fmt"
	"math"

	"github.com/glushko-lab/combeq/internal/chem"
)

// ErrTemperatureOutOfRange indicates a property evaluation outside the
// species' tabulated range. Properties are undefined there; the fit is never
// extrapolated.
var ErrTemperatureOutOfRange = errors.New("thermo: temperature outside tabulated range")

// Phase tags the physical state a coefficient set describes.
type Phase string

const (
	PhaseGas       Phase = "gas"
	PhaseCondensed Phase = "condensed"
)

// TemperatureRange is the validity interval of a coefficient set, Kelvin.
// A temperature T is valid when Min <= T < Max.
type TemperatureRange struct {
	Min float64
	Max float64
}

func (r TemperatureRange) Contains(t float64) bool {
	return t >= r.Min && t < r.Max
}

// Props holds the four molar properties of one species at one temperature.
type Props struct {
	HeatCapacity float64 // Cp, J/(mol·K)
	Enthalpy     float64 // H, J/mol
	Entropy      float64 // S at standard pressure, J/(mol·K)
	Gibbs        float64 // G = H - T·S, J/mol
}

// Species is one candidate combustion product: a chemical formula plus the
// nine-coefficient Glushko fit of its thermodynamic properties over a
// temperature range. The fit is in reduced temperature t = T/1000 with
// calorie-based coefficients; the entropy and enthalpy integration constants
// are folded into c0 and c1 by the source tables.
type Species struct {
	Formula      string
	Coefficients [9]float64
	Phase        Phase
	Range        TemperatureRange

	elements  map[string]int
	molarMass float64
}

// NewSpecies validates the raw record and parses the formula once; the
// element counts and molar mass are cached for reuse by the balance builder
// and the property report.
func NewSpecies(formula string, coefficients []float64, phase Phase, tr TemperatureRange) (*Species, error) {
	if len(coefficients) != 9 {
		return nil, fmt.Errorf("thermo: species %q has %d coefficients, want 9", formula, len(coefficients))
	}
	if phase != PhaseGas && phase != PhaseCondensed {
		return nil, fmt.Errorf("thermo: species %q has unknown phase %q", formula, phase)
	}
	if !(tr.Min < tr.Max) {
		return nil, fmt.Errorf("thermo: species %q has invalid temperature range [%g, %g]", formula, tr.Min, tr.Max)
	}

	elements, err := chem.ParseFormula(formula)
	if err != nil {
		return nil, err
	}
	molarMass, err := chem.MolarMass(elements)
	if err != nil {
		return nil, fmt.Errorf("thermo: species %q: %w", formula, err)
	}

	s := &Species{
		Formula:   formula,
		Phase:     phase,
		Range:     tr,
		elements:  elements,
		molarMass: molarMass,
	}
	copy(s.Coefficients[:], coefficients)
	return s, nil
}

// Elements returns the cached element counts of the formula.
func (s *Species) Elements() map[string]int { return s.elements }

// MolarMass returns the molar mass in kg/mol.
func (s *Species) MolarMass() float64 { return s.molarMass }

// Condensed reports whether the species is in a condensed phase and thus
// carries no ideal-mixing entropy term.
func (s *Species) Condensed() bool { return s.Phase == PhaseCondensed }

// Eval returns the molar properties at temperature T. Evaluation outside the
// tabulated range is an error, not an extrapolation.
func (s *Species) Eval(T float64) (Props, error) {
	if !s.Range.Contains(T) {
		return Props{}, fmt.Errorf("%w: %s at %.2f K (valid [%g, %g))",
			ErrTemperatureOutOfRange, s.Formula, T, s.Range.Min, s.Range.Max)
	}
	h := s.enthalpy(T)
	sEnt := s.entropy(T)
	return Props{
		HeatCapacity: s.heatCapacity(T),
		Enthalpy:     h,
		Entropy:      sEnt,
		Gibbs:        h - T*sEnt,
	}, nil
}

// enthalpy evaluates H(T) in J/mol: 4.184·(c1 + c2·t + c3·t² + … + c8·t⁷)
// with t = T/1000.
func (s *Species) enthalpy(T float64) float64 {
	t := T * 1e-3
	c := &s.Coefficients
	// Horner over c1..c8.
	sum := c[8]
	for i := 7; i >= 1; i-- {
		sum = sum*t + c[i]
	}
	return CalorieToJoules * sum
}

// entropy evaluates the standard-pressure entropy S°(T) in J/(mol·K), the
// analytic integral of Cp/T with the integration constant in c0.
func (s *Species) entropy(T float64) float64 {
	t := T * 1e-3
	c := &s.Coefficients
	poly := 2*c[3]*t +
		1.5*c[4]*t*t +
		(4.0/3.0)*c[5]*t*t*t +
		1.25*c[6]*t*t*t*t +
		1.2*c[7]*t*t*t*t*t +
		(7.0/6.0)*c[8]*t*t*t*t*t*t
	return CalorieToJoules * (c[0] + 1e-3*c[2]*math.Log(t) + 1e-3*poly)
}

// heatCapacity evaluates Cp(T) = dH/dT in J/(mol·K).
func (s *Species) heatCapacity(T float64) float64 {
	t := T * 1e-3
	c := &s.Coefficients
	sum := 7 * c[8]
	for i := 7; i >= 2; i-- {
		sum = sum*t + float64(i-1)*c[i]
	}
	return CalorieToJoules * 1e-3 * sum
}
