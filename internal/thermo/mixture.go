package thermo

import (
	"fmt"
	"math"
)

// Mixture aggregates species properties into system-level quantities for a
// composition vector aligned with its species order. The species slice and
// the pressure are fixed at construction; all methods are pure.
type Mixture struct {
	Species  []*Species
	Pressure float64 // chamber pressure, Pa
}

// NewMixture builds an aggregator over an ordered species list. The order is
// the canonical column order shared with the mass-balance system.
func NewMixture(species []*Species, pressure float64) (*Mixture, error) {
	if pressure <= 0 {
		return nil, fmt.Errorf("thermo: pressure must be positive, got %g Pa", pressure)
	}
	if len(species) == 0 {
		return nil, fmt.Errorf("thermo: mixture needs at least one species")
	}
	return &Mixture{Species: species, Pressure: pressure}, nil
}

func (m *Mixture) checkMoles(n []float64) error {
	if len(n) != len(m.Species) {
		return fmt.Errorf("thermo: mole vector has %d entries, mixture has %d species", len(n), len(m.Species))
	}
	return nil
}

// GasMoles sums the moles of gas-phase species.
func (m *Mixture) GasMoles(n []float64) float64 {
	total := 0.0
	for i, sp := range m.Species {
		if !sp.Condensed() {
			total += n[i]
		}
	}
	return total
}

// TotalMoles sums all moles.
func (m *Mixture) TotalMoles(n []float64) float64 {
	total := 0.0
	for _, v := range n {
		total += v
	}
	return total
}

// Enthalpy returns the extensive system enthalpy H_sys(T,n) in J.
func (m *Mixture) Enthalpy(T float64, n []float64) (float64, error) {
	if err := m.checkMoles(n); err != nil {
		return 0, err
	}
	total := 0.0
	for i, sp := range m.Species {
		p, err := sp.Eval(T)
		if err != nil {
			return 0, err
		}
		total += n[i] * p.Enthalpy
	}
	return total, nil
}

// HeatCapacity returns the extensive system heat capacity Cp_sys(T,n) in J/K.
func (m *Mixture) HeatCapacity(T float64, n []float64) (float64, error) {
	if err := m.checkMoles(n); err != nil {
		return 0, err
	}
	total := 0.0
	for i, sp := range m.Species {
		p, err := sp.Eval(T)
		if err != nil {
			return 0, err
		}
		total += n[i] * p.HeatCapacity
	}
	return total, nil
}

// Entropy returns the extensive system entropy S_sys(T,n) in J/K. Gas species
// carry the ideal-mixing term -R·ln(p_i/p°) with partial pressure
// p_i = P·n_i/N_gas; a zero mole entry contributes zero (the x·ln x limit).
// Condensed species contribute their standard entropy only.
func (m *Mixture) Entropy(T float64, n []float64) (float64, error) {
	if err := m.checkMoles(n); err != nil {
		return 0, err
	}
	gas := m.GasMoles(n)
	total := 0.0
	for i, sp := range m.Species {
		p, err := sp.Eval(T)
		if err != nil {
			return 0, err
		}
		si := p.Entropy
		if !sp.Condensed() && n[i] > 0 && gas > 0 {
			si -= GasConstant * math.Log(m.Pressure*n[i]/(gas*StandardPressure))
		}
		total += n[i] * si
	}
	return total, nil
}

// Gibbs returns the extensive system Gibbs energy G_sys(T,n) = H - T·S in J.
// This is the objective of the inner equilibrium solve.
func (m *Mixture) Gibbs(T float64, n []float64) (float64, error) {
	h, err := m.Enthalpy(T, n)
	if err != nil {
		return 0, err
	}
	s, err := m.Entropy(T, n)
	if err != nil {
		return 0, err
	}
	return h - T*s, nil
}

// ChemicalPotentials writes the gradient of G_sys with respect to n into dst:
// μ_i = h_i - T·s_i° + R·T·ln(P·n_i/(p°·N_gas)) for gas species (the ideal
// mixture makes the cross terms cancel exactly), μ_i = g_i° for condensed.
// Gas entries must be strictly positive.
func (m *Mixture) ChemicalPotentials(T float64, n []float64, dst []float64) error {
	if err := m.checkMoles(n); err != nil {
		return err
	}
	if len(dst) != len(n) {
		return fmt.Errorf("thermo: gradient buffer has %d entries, want %d", len(dst), len(n))
	}
	gas := m.GasMoles(n)
	for i, sp := range m.Species {
		p, err := sp.Eval(T)
		if err != nil {
			return err
		}
		mu := p.Gibbs
		if !sp.Condensed() {
			if n[i] <= 0 || gas <= 0 {
				return fmt.Errorf("thermo: chemical potential of gas species %s undefined at n=%g", sp.Formula, n[i])
			}
			mu += GasConstant * T * math.Log(m.Pressure*n[i]/(gas*StandardPressure))
		}
		dst[i] = mu
	}
	return nil
}

// SystemProperties collects the reporting-only quantities derived from a
// solved state.
type SystemProperties struct {
	Temperature float64
	Pressure    float64
	Moles       []float64

	TotalMoles     float64
	GasMoles       float64
	CondensedMoles float64

	Enthalpy     float64 // J
	Entropy      float64 // J/K
	Gibbs        float64 // J
	HeatCapacity float64 // J/K

	TotalMass             float64 // kg
	CondensedMassFraction float64
	GasMeanMolarMass      float64 // kg/mol

	SpecificGasConstant    float64 // J/(kg·K)
	SpecificHeatCapacity   float64 // J/(kg·K)
	HeatCapacityRatio      float64
	VolumetricHeatCapacity float64 // Cv, J/(kg·K)
}

// Properties evaluates the full derived-property set at (T, n). These are
// outputs for the report layer, never solver inputs.
func (m *Mixture) Properties(T float64, n []float64) (*SystemProperties, error) {
	if err := m.checkMoles(n); err != nil {
		return nil, err
	}

	h, err := m.Enthalpy(T, n)
	if err != nil {
		return nil, err
	}
	s, err := m.Entropy(T, n)
	if err != nil {
		return nil, err
	}
	cp, err := m.HeatCapacity(T, n)
	if err != nil {
		return nil, err
	}

	props := &SystemProperties{
		Temperature:  T,
		Pressure:     m.Pressure,
		Moles:        append([]float64(nil), n...),
		TotalMoles:   m.TotalMoles(n),
		GasMoles:     m.GasMoles(n),
		Enthalpy:     h,
		Entropy:      s,
		Gibbs:        h - T*s,
		HeatCapacity: cp,
	}
	props.CondensedMoles = props.TotalMoles - props.GasMoles

	gasMass := 0.0
	condensedMass := 0.0
	for i, sp := range m.Species {
		mass := n[i] * sp.MolarMass()
		if sp.Condensed() {
			condensedMass += mass
		} else {
			gasMass += mass
		}
	}
	props.TotalMass = gasMass + condensedMass
	if props.TotalMass > 0 {
		props.CondensedMassFraction = condensedMass / props.TotalMass
	}
	if props.GasMoles > 0 {
		props.GasMeanMolarMass = gasMass / props.GasMoles
	}
	if props.TotalMass > 0 {
		props.SpecificGasConstant = GasConstant * props.GasMoles / props.TotalMass
		props.SpecificHeatCapacity = cp / props.TotalMass
		props.VolumetricHeatCapacity = props.SpecificHeatCapacity - props.SpecificGasConstant
	}
	if denom := cp - GasConstant*props.GasMoles; denom > 0 {
		props.HeatCapacityRatio = cp / denom
	}
	return props, nil
}
