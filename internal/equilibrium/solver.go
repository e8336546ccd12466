package equilibrium

import (
	"fmt"
	"math"

	"github.com/glushko-lab/combeq/internal/thermo"
)

// Options tunes the nested solve.
type Options struct {
	Inner InnerOptions

	// EnthalpyTol is the absolute tolerance in J on the energy residual
	// H_sys(T, n*(T)) - H_propellant.
	EnthalpyTol float64
	// TemperatureTol is the relative tolerance on the temperature bracket.
	TemperatureTol float64
	// MaxIterations bounds the outer root-finder.
	MaxIterations int
	// BracketMargin keeps trial temperatures strictly inside the global
	// validity range.
	BracketMargin float64
	// BracketScan is the number of interior points probed when the range
	// endpoints do not bracket a sign change (an endpoint inner solve may
	// legitimately fail; the root can still be bracketed elsewhere).
	BracketScan int
}

func (o Options) withDefaults() Options {
	o.Inner = o.Inner.withDefaults()
	if o.EnthalpyTol <= 0 {
		o.EnthalpyTol = 1.0
	}
	if o.TemperatureTol <= 0 {
		o.TemperatureTol = 1e-9
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 200
	}
	if o.BracketMargin <= 0 {
		o.BracketMargin = 1e-3
	}
	if o.BracketScan <= 0 {
		o.BracketScan = 16
	}
	return o
}

// Iteration is one outer-loop progress event.
type Iteration struct {
	Index       int
	Temperature float64
	Residual    float64
	Species     int
}

// Observer receives outer-loop progress. Implementations must not block;
// the solver calls them synchronously.
type Observer interface {
	OnIteration(it Iteration)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(it Iteration)

func (f ObserverFunc) OnIteration(it Iteration) { f(it) }

// Result is the finalized equilibrium state.
type Result struct {
	Temperature float64
	// Species holds the candidates valid at the solved temperature, in the
	// column order of Moles.
	Species []*thermo.Species
	Moles   []float64
	// Residual is the energy-balance residual at the solution, J.
	Residual float64
	// Properties are the derived reporting quantities at (T, n).
	Properties *thermo.SystemProperties
	// Iterations counts outer residual evaluations.
	Iterations int
}

// Solver finds the adiabatic equilibrium state of one propellant against a
// candidate product list. It holds no state across Solve calls other than
// its immutable inputs; a warm-start cache lives only within one Solve.
type Solver struct {
	propellant Propellant
	candidates []*thermo.Species
	pressure   float64
	opts       Options
	observer   Observer
}

// New validates the inputs and element-filters the candidate list. A
// propellant element that no candidate can supply fails here, before any
// optimization attempt.
func New(p Propellant, candidates []*thermo.Species, pressure float64, opts Options, obs Observer) (*Solver, error) {
	if pressure <= 0 {
		return nil, fmt.Errorf("%w: pressure must be positive, got %g Pa", ErrInvalidInput, pressure)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate species", ErrInvalidInput)
	}

	filtered := FilterByElements(candidates, p)
	// Construct the full balance system once to surface a structurally
	// impossible mass balance immediately.
	if _, err := NewBalanceSystem(p, candidates); err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: no candidate species is composed of propellant elements", ErrInfeasibleMassBalance)
	}

	return &Solver{
		propellant: p,
		candidates: filtered,
		pressure:   pressure,
		opts:       opts.withDefaults(),
		observer:   obs,
	}, nil
}

// trialState is the inner-solve output at one trial temperature.
type trialState struct {
	species []*thermo.Species
	mixture *thermo.Mixture
	moles   []float64
}

// Solve runs the nested optimization: an inner Gibbs minimization per trial
// temperature, and an outer bracketing root-find on the energy residual.
func (s *Solver) Solve() (*Result, error) {
	lo, hi := s.globalRange()
	a := lo + s.opts.BracketMargin
	b := hi - s.opts.BracketMargin
	if !(a < b) {
		return nil, fmt.Errorf("%w: candidate temperature ranges give empty interval [%g, %g]", ErrInvalidInput, a, b)
	}

	var seed []float64 // warm start across trial temperatures
	iterations := 0

	residual := func(T float64) (float64, error) {
		st, err := s.solveAt(T, seed)
		if err != nil {
			return 0, err
		}
		seed = st.moles
		h, err := st.mixture.Enthalpy(T, st.moles)
		if err != nil {
			return 0, err
		}
		r := h - s.propellant.Enthalpy
		iterations++
		if s.observer != nil {
			s.observer.OnIteration(Iteration{
				Index:       iterations,
				Temperature: T,
				Residual:    r,
				Species:     len(st.species),
			})
		}
		return r, nil
	}

	ta, tb, fa, fb, err := s.bracket(residual, a, b)
	if err != nil {
		return nil, err
	}

	root, fRoot, err := brent(residual, ta, tb, fa, fb, s.opts.TemperatureTol, s.opts.EnthalpyTol, s.opts.MaxIterations)
	if err != nil {
		return nil, err
	}

	// Finalize at the exact root.
	st, err := s.solveAt(root, seed)
	if err != nil {
		return nil, err
	}
	props, err := st.mixture.Properties(root, st.moles)
	if err != nil {
		return nil, err
	}

	return &Result{
		Temperature: root,
		Species:     st.species,
		Moles:       st.moles,
		Residual:    fRoot,
		Properties:  props,
		Iterations:  iterations,
	}, nil
}

// globalRange is the union of candidate validity ranges.
func (s *Solver) globalRange() (float64, float64) {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, sp := range s.candidates {
		lo = math.Min(lo, sp.Range.Min)
		hi = math.Max(hi, sp.Range.Max)
	}
	return lo, hi
}

// solveAt filters species valid at T, builds the balance system for them and
// runs the inner Gibbs minimization. The warm-start seed is used only when
// the filtered set has the same size, matching the column order assumption.
func (s *Solver) solveAt(T float64, seed []float64) (*trialState, error) {
	species := FilterByTemperature(s.candidates, T)
	if len(species) == 0 {
		return nil, &SolveError{Temperature: T, Wrapped: fmt.Errorf("%w: no species valid at %.2f K", thermo.ErrTemperatureOutOfRange, T)}
	}

	bal, err := NewBalanceSystem(s.propellant, species)
	if err != nil {
		return nil, &SolveError{Temperature: T, Wrapped: err}
	}
	mix, err := thermo.NewMixture(species, s.pressure)
	if err != nil {
		return nil, &SolveError{Temperature: T, Wrapped: err}
	}

	if len(seed) != len(species) {
		seed = nil
	}
	moles, err := SolveComposition(mix, bal, T, seed, s.opts.Inner)
	if err != nil {
		return nil, err
	}
	return &trialState{species: species, mixture: mix, moles: moles}, nil
}

// bracket locates a sign change of the residual inside [a, b]. Endpoints are
// tried first; when an evaluation fails or the signs agree, interior points
// are scanned, so an inner-solve failure at some trial temperatures is
// recoverable as long as a bracket exists elsewhere.
func (s *Solver) bracket(f objective, a, b float64) (float64, float64, float64, float64, error) {
	type point struct {
		t, f  float64
		valid bool
	}

	probes := make([]point, 0, s.opts.BracketScan+2)
	addProbe := func(t float64) *point {
		v, err := f(t)
		p := point{t: t, f: v, valid: err == nil}
		probes = append(probes, p)
		return &probes[len(probes)-1]
	}

	pa := addProbe(a)
	pb := addProbe(b)
	if pa.valid && pb.valid && pa.f*pb.f <= 0 {
		return pa.t, pb.t, pa.f, pb.f, nil
	}

	// Interior scan: bisect the interval into progressively finer grids and
	// look for adjacent valid probes with opposite signs.
	grid := []point{*pa, *pb}
	for len(grid)-1 < s.opts.BracketScan {
		next := make([]point, 0, 2*len(grid)-1)
		for i := 0; i+1 < len(grid); i++ {
			mid := addProbe(0.5 * (grid[i].t + grid[i+1].t))
			next = append(next, grid[i], *mid)
		}
		next = append(next, grid[len(grid)-1])
		grid = next

		for i := 0; i+1 < len(grid); i++ {
			p, q := grid[i], grid[i+1]
			if p.valid && q.valid && p.f*q.f <= 0 {
				return p.t, q.t, p.f, q.f, nil
			}
		}
	}

	anyValid := false
	for _, p := range probes {
		if p.valid {
			anyValid = true
			break
		}
	}
	if !anyValid {
		return 0, 0, 0, 0, fmt.Errorf("%w: composition solve failed at every trial temperature", ErrOuterConvergence)
	}
	return 0, 0, 0, 0, fmt.Errorf("%w: energy residual has no sign change in [%.2f, %.2f] K", ErrOuterConvergence, a, b)
}
