package equilibrium

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/glushko-lab/combeq/internal/thermo"
)

// InnerOptions tunes the constrained Gibbs minimization at fixed temperature.
type InnerOptions struct {
	// ConstraintTol is the absolute tolerance on |A·n - b|inf.
	ConstraintTol float64
	// GradientTol is the relative tolerance on the reduced gradient norm.
	GradientTol float64
	// MaxIterations bounds the descent loop.
	MaxIterations int
	// InitialMoles seeds every species when no warm start is available.
	InitialMoles float64
	// MoleFloor is the strictly positive lower bound protecting the
	// gas-phase logarithms; converged near-zero moles sit at this value and
	// are reported as-is rather than dropped.
	MoleFloor float64
	// Trace, when set, observes the objective once per iteration.
	Trace func(iter int, gibbs float64)
}

func (o InnerOptions) withDefaults() InnerOptions {
	if o.ConstraintTol <= 0 {
		o.ConstraintTol = 1e-8
	}
	if o.GradientTol <= 0 {
		o.GradientTol = 1e-6
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 5000
	}
	if o.InitialMoles <= 0 {
		o.InitialMoles = 1.0
	}
	if o.MoleFloor <= 0 {
		o.MoleFloor = 1e-12
	}
	return o
}

// balanceWorkspace holds the SVD of the constraint matrix restricted to the
// free (unpinned) columns. Projection onto the null space of A keeps every
// descent step exactly on the mass-balance manifold; the pseudoinverse
// restores feasibility after clamping.
type balanceWorkspace struct {
	bal    *BalanceSystem
	free   []int // free column indices in species order
	u      mat.Dense
	v      mat.Dense
	sigma  []float64
	rank   int
	rows   int
	resBuf *mat.VecDense
}

func newBalanceWorkspace(bal *BalanceSystem, active []bool) (*balanceWorkspace, error) {
	rows, cols := bal.A.Dims()
	free := make([]int, 0, cols)
	for c := 0; c < cols; c++ {
		if !active[c] {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		return nil, fmt.Errorf("%w: all species pinned at zero", ErrInnerConvergence)
	}

	sub := mat.NewDense(rows, len(free), nil)
	for j, c := range free {
		for r := 0; r < rows; r++ {
			sub.Set(r, j, bal.A.At(r, c))
		}
	}

	ws := &balanceWorkspace{bal: bal, free: free, rows: rows, resBuf: mat.NewVecDense(rows, nil)}
	var svd mat.SVD
	if ok := svd.Factorize(sub, mat.SVDFull); !ok {
		return nil, fmt.Errorf("%w: constraint matrix factorization failed", ErrInnerConvergence)
	}
	svd.UTo(&ws.u)
	svd.VTo(&ws.v)
	ws.sigma = svd.Values(nil)

	tol := float64(maxInt(rows, len(free))) * 1e-14
	if len(ws.sigma) > 0 {
		tol *= ws.sigma[0]
	}
	for _, s := range ws.sigma {
		if s > tol {
			ws.rank++
		}
	}
	return ws, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// projectNull overwrites g (indexed over free columns) with its projection
// onto the null space of the free constraint matrix: g - V_r·(V_rᵀ·g).
func (ws *balanceWorkspace) projectNull(g []float64) {
	for k := 0; k < ws.rank; k++ {
		dot := 0.0
		for j := range g {
			dot += ws.v.At(j, k) * g[j]
		}
		for j := range g {
			g[j] -= dot * ws.v.At(j, k)
		}
	}
}

// minNormSolve returns the minimum-norm least-squares solution over the free
// columns of A_free·x = r.
func (ws *balanceWorkspace) minNormSolve(r *mat.VecDense) []float64 {
	x := make([]float64, len(ws.free))
	for k := 0; k < ws.rank; k++ {
		dot := 0.0
		for i := 0; i < ws.rows; i++ {
			dot += ws.u.At(i, k) * r.AtVec(i)
		}
		dot /= ws.sigma[k]
		for j := range x {
			x[j] += dot * ws.v.At(j, k)
		}
	}
	return x
}

// restoreFeasible drives the free components of n toward A·n = b by repeated
// least-squares correction, clamping at the mole floor between passes.
func (ws *balanceWorkspace) restoreFeasible(n []float64, floor, tol float64) error {
	for pass := 0; pass < 64; pass++ {
		norm := ws.bal.Residual(n, ws.resBuf)
		if norm <= tol {
			return nil
		}
		ws.resBuf.ScaleVec(-1, ws.resBuf) // b - A·n
		delta := ws.minNormSolve(ws.resBuf)
		for j, c := range ws.free {
			n[c] += delta[j]
			if n[c] < floor {
				n[c] = floor
			}
		}
	}
	if ws.bal.Residual(n, ws.resBuf) <= tol {
		return nil
	}
	return fmt.Errorf("%w: no nonnegative composition satisfies the mass balance to tolerance", ErrInnerConvergence)
}

// SolveComposition finds the mole vector n >= 0 minimizing the mixture Gibbs
// energy at fixed temperature T subject to bal.A·n = bal.B. The method is a
// feasible-point projected descent: steps live in the null space of the
// constraint matrix, a ratio test keeps all moles at or above the floor, and
// Armijo backtracking makes the objective non-increasing. Condensed species
// driven to the floor are pinned by an active set; gas species stay interior
// because their mixing-entropy gradient diverges at zero.
func SolveComposition(mix *thermo.Mixture, bal *BalanceSystem, T float64, seed []float64, opts InnerOptions) ([]float64, error) {
	opts = opts.withDefaults()
	cols := len(mix.Species)
	if _, bCols := bal.A.Dims(); bCols != cols {
		return nil, fmt.Errorf("%w: balance system has %d columns, mixture has %d species", ErrInvalidInput, bCols, cols)
	}

	n := make([]float64, cols)
	if len(seed) == cols {
		copy(n, seed)
	} else {
		for i := range n {
			n[i] = opts.InitialMoles
		}
	}
	for i := range n {
		if n[i] < opts.MoleFloor {
			n[i] = opts.MoleFloor
		}
	}

	active := make([]bool, cols)
	ws, err := newBalanceWorkspace(bal, active)
	if err != nil {
		return nil, &SolveError{Temperature: T, Wrapped: err}
	}
	if err := ws.restoreFeasible(n, opts.MoleFloor, opts.ConstraintTol); err != nil {
		return nil, &SolveError{Temperature: T, Wrapped: err}
	}

	mu := make([]float64, cols)
	gFree := make([]float64, 0, cols)
	trial := make([]float64, cols)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := mix.ChemicalPotentials(T, n, mu); err != nil {
			return nil, &SolveError{Temperature: T, Wrapped: err}
		}

		gFree = gFree[:0]
		for _, c := range ws.free {
			gFree = append(gFree, mu[c])
		}
		gradScale := math.Max(1, floats.Norm(gFree, 2))
		ws.projectNull(gFree)
		reduced := floats.Norm(gFree, 2)

		gibbs, err := mix.Gibbs(T, n)
		if err != nil {
			return nil, &SolveError{Temperature: T, Wrapped: err}
		}
		if opts.Trace != nil {
			opts.Trace(iter, gibbs)
		}

		cons := bal.Residual(n, ws.resBuf)
		if cons <= opts.ConstraintTol && reduced <= opts.GradientTol*gradScale {
			return n, nil
		}
		if reduced == 0 {
			// Constraints fully determine the composition but feasibility
			// is still off; restoration already did its best.
			return nil, &SolveError{Temperature: T, Wrapped: fmt.Errorf("%w: stationary but infeasible", ErrInnerConvergence)}
		}

		// Descent direction: negative projected gradient, scaled to a trust
		// radius so the Armijo search starts at a sane magnitude.
		radius := 0.5 * math.Max(1, floats.Norm(n, 2))
		scale := radius / reduced
		limiting := -1
		alphaMax := math.Inf(1)
		for j, c := range ws.free {
			d := -gFree[j] * scale
			if d < 0 {
				if a := (n[c] - opts.MoleFloor) / -d; a < alphaMax {
					alphaMax = a
					limiting = c
				}
			}
		}

		// A free variable already at the floor that the descent direction
		// still pushes down has converged to (near) zero: pin it,
		// refactorize the reduced constraint system, and restart the step.
		// In practice only condensed species land here; gas potentials
		// diverge at zero and keep those variables interior.
		if alphaMax <= 1e-14 && limiting >= 0 {
			active[limiting] = true
			n[limiting] = opts.MoleFloor
			ws, err = newBalanceWorkspace(bal, active)
			if err != nil {
				return nil, &SolveError{Temperature: T, Wrapped: err}
			}
			if err := ws.restoreFeasible(n, opts.MoleFloor, opts.ConstraintTol); err != nil {
				return nil, &SolveError{Temperature: T, Wrapped: err}
			}
			continue
		}

		// Directional derivative of G along the scaled direction.
		slope := 0.0
		for j := range gFree {
			slope += gFree[j] * (-gFree[j] * scale)
		}

		alpha := math.Min(1, 0.99*alphaMax)
		const armijo = 1e-4
		accepted := false
		for back := 0; back < 60; back++ {
			copy(trial, n)
			for j, c := range ws.free {
				trial[c] += alpha * (-gFree[j] * scale)
				if trial[c] < opts.MoleFloor {
					trial[c] = opts.MoleFloor
				}
			}
			gTrial, err := mix.Gibbs(T, trial)
			if err != nil {
				return nil, &SolveError{Temperature: T, Wrapped: err}
			}
			if gTrial <= gibbs+armijo*alpha*slope {
				copy(n, trial)
				accepted = true
				break
			}
			alpha *= 0.5
		}
		if !accepted {
			// No descent step exists at floating-point resolution. With a
			// feasible point this is the numerical optimum.
			if cons <= opts.ConstraintTol {
				return n, nil
			}
			return nil, &SolveError{Temperature: T, Wrapped: fmt.Errorf("%w: line search stalled", ErrInnerConvergence)}
		}
	}

	return nil, &SolveError{Temperature: T, Wrapped: fmt.Errorf("%w: iteration budget (%d) exhausted", ErrInnerConvergence, opts.MaxIterations)}
}
