package equilibrium

import (
	"fmt"
	"math"
)

// objective is a scalar residual evaluation that may fail at a given point.
type objective func(x float64) (float64, error)

// brent finds a root of f in [a, b] given f(a)·f(b) < 0, using Brent's
// method: inverse quadratic interpolation and secant steps guarded by
// bisection. The residual here is only piecewise-smooth (species enter and
// leave validity, active constraints change), which is exactly why a
// bracketing method is used; the bisection fallback also absorbs occasional
// evaluation failures inside the bracket.
func brent(f objective, a, b, fa, fb, xtolRel, ftol float64, maxIter int) (float64, float64, error) {
	if fa == 0 {
		return a, fa, nil
	}
	if fb == 0 {
		return b, fb, nil
	}
	if fa*fb > 0 {
		return 0, 0, fmt.Errorf("%w: no sign change on [%g, %g]", ErrOuterConvergence, a, b)
	}

	// |f(b)| is kept the smaller of the pair.
	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}
	c, fc := a, fa
	d, e := b-a, b-a

	for iter := 0; iter < maxIter; iter++ {
		if math.Abs(fb) <= ftol {
			return b, fb, nil
		}

		tol := 2*math.Abs(b)*xtolRel + 0.5*xtolRel
		m := 0.5 * (c - b)
		if math.Abs(m) <= tol {
			return b, fb, nil
		}

		if math.Abs(e) < tol || math.Abs(fa) <= math.Abs(fb) {
			// Bisection.
			d, e = m, m
		} else {
			s := fb / fa
			var p, q float64
			if a == c {
				// Secant.
				p = 2 * m * s
				q = 1 - s
			} else {
				// Inverse quadratic interpolation.
				qa := fa / fc
				r := fb / fc
				p = s * (2*m*qa*(qa-r) - (b-a)*(r-1))
				q = (qa - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			} else {
				p = -p
			}
			if 2*p < math.Min(3*m*q-math.Abs(tol*q), math.Abs(e*q)) {
				e, d = d, p/q
			} else {
				d, e = m, m
			}
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else if m > 0 {
			b += tol
		} else {
			b -= tol
		}

		var err error
		fb, err = f(b)
		if err != nil {
			// Retreat to the plain bisection point once; if the residual
			// cannot be evaluated there either, the bracket is lost.
			b = a + m
			if fb, err = f(b); err != nil {
				return 0, 0, fmt.Errorf("%w: residual evaluation failed inside bracket: %v", ErrOuterConvergence, err)
			}
		}

		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d, e = b-a, b-a
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
	}

	return 0, 0, fmt.Errorf("%w: iteration budget (%d) exhausted", ErrOuterConvergence, maxIter)
}
