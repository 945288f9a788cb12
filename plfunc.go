package plsbb

import "sort"

// PLFunction is a separable piecewise-linear function specified by an
// ordered sequence of breakpoints, strictly increasing in X. K = len(X)-1
// must be >= 1. Outside [X[0], X[K]] the function takes the boundary value.
type PLFunction struct {
	X []float64
	Y []float64

	// JumpAtZero indicates that f has an implicit fixed-charge jump at
	// the origin: f(x) = 0 for x <= X[0] == 0, while the breakpoints
	// from X[1] onward retain their declared Y values. Only legal when
	// X[0] == 0.
	JumpAtZero bool
}

// K returns the number of segments.
func (f *PLFunction) K() int {
	return len(f.X) - 1
}

// Lower and Upper return the variable's domain bounds, X[0] and X[K].
func (f *PLFunction) Lower() float64 { return f.X[0] }
func (f *PLFunction) Upper() float64 { return f.X[f.K()] }

// Evaluate computes f(x), honoring the fixed-charge jump at the origin
// when JumpAtZero is set. Binary search bisects on strict greater-than
// so an exact breakpoint match is resolved by the segment to its right,
// consistently with segment(), below.
func (f *PLFunction) Evaluate(x float64) float64 {
	return evaluate(f.X, f.Y, x, f.JumpAtZero)
}

// evaluateNoJump evaluates f at x ignoring any jump-at-zero flag; used
// by the envelope builder when restricting f to an interval (spec
// step 1 explicitly evaluates f(a), f(b) "without the jump").
func (f *PLFunction) evaluateNoJump(x float64) float64 {
	return evaluate(f.X, f.Y, x, false)
}

func evaluate(xs, ys []float64, x float64, jumpAtZero bool) float64 {
	k := len(xs) - 1

	if x <= xs[0] {
		if jumpAtZero && xs[0] <= 0 {
			return 0
		}
		return ys[0]
	}

	if x >= xs[k] {
		return ys[k]
	}

	pos := segment(xs, x)
	x0, x1 := xs[pos-1], xs[pos]
	y0, y1 := ys[pos-1], ys[pos]

	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

// segment returns the index of the first breakpoint strictly greater
// than x, i.e. x lies in segment [xs[pos-1], xs[pos]]. Callers must
// ensure xs[0] < x < xs[len(xs)-1].
func segment(xs []float64, x float64) int {
	return sort.Search(len(xs), func(i int) bool { return xs[i] > x })
}
