package plsbb

import "time"

// Envelope is the tightest convex piecewise-linear under-estimator of
// a PLFunction restricted to some interval [a, b]. Its breakpoints are
// strictly increasing in X, and its segment slopes are strictly
// increasing (convexity). Endpoints coincide with f(a), f(b) (or with
// the jump-adjusted value at a == 0).
type Envelope struct {
	X []float64
	Y []float64
}

// K returns the number of segments in the envelope.
func (e *Envelope) K() int {
	return len(e.X) - 1
}

// slope of segment i (between X[i] and X[i+1]).
func (e *Envelope) slope(i int) float64 {
	return (e.Y[i+1] - e.Y[i]) / (e.X[i+1] - e.X[i])
}

// Evaluate evaluates the envelope at x, which must lie in [X[0], X[K]];
// outside that range the boundary value is returned, matching the PL
// evaluator's convention.
func (e *Envelope) Evaluate(x float64) float64 {
	return evaluate(e.X, e.Y, x, false)
}

// buildEnvelope computes the lower convex envelope of f restricted to
// [a, b] (spec.md §4.2), honoring f's own JumpAtZero flag. rec may be
// nil.
func buildEnvelope(f *PLFunction, a, b float64, rec *timingRecorder) *Envelope {
	start := time.Now()
	defer rec.record(phaseEnvelope, start)

	jumpAtZero := f.JumpAtZero

	// Degenerate interval: a branch split landed exactly on a variable
	// bound, leaving a single feasible point. The envelope of a point
	// is that point.
	if a == b {
		y := f.evaluateNoJump(a)
		if jumpAtZero && a <= 0 {
			y = 0
		}
		return &Envelope{X: []float64{a}, Y: []float64{y}}
	}

	// Step 1: restrict f to [a, b]. Keep original breakpoints strictly
	// inside the interval, then prepend/append the interval's true
	// endpoint values (evaluated without the jump, per spec).
	var xs, ys []float64
	xs = append(xs, a)
	ys = append(ys, f.evaluateNoJump(a))

	for i, x := range f.X {
		if x > a && x < b {
			xs = append(xs, x)
			ys = append(ys, f.Y[i])
		}
	}

	xs = append(xs, b)
	ys = append(ys, f.evaluateNoJump(b))

	// Step 2: apply the fixed-charge jump, if applicable: it pulls the
	// left endpoint down to the origin.
	if jumpAtZero && a <= 0 {
		ys[0] = 0
	}

	// Step 3: lower convex hull via monotone chain.
	ex, ey := lowerConvexHull(xs, ys)

	return &Envelope{X: ex, Y: ey}
}

// lowerConvexHull computes the lower convex hull of a point sequence
// already sorted by strictly increasing x. It pops the middle of the
// last three accepted points whenever they form a non-convex turn,
// i.e. whenever the slope into the candidate point is not larger than
// the slope of the last accepted segment (monotone-chain / Andrew's
// algorithm, restricted to the lower hull since x is already sorted).
// Collinear middle points are dropped too, so the output slopes are
// strictly increasing.
func lowerConvexHull(xs, ys []float64) ([]float64, []float64) {
	hx := make([]float64, 0, len(xs))
	hy := make([]float64, 0, len(ys))

	for i := range xs {
		hx = append(hx, xs[i])
		hy = append(hy, ys[i])

		for len(hx) >= 3 {
			n := len(hx)
			slopeLast := (hy[n-2] - hy[n-3]) / (hx[n-2] - hx[n-3])
			slopeCandidate := (hy[n-1] - hy[n-3]) / (hx[n-1] - hx[n-3])

			if slopeCandidate <= slopeLast {
				// the middle point lies on or above the chord from n-3
				// to n-1: pop it.
				hx[n-2] = hx[n-1]
				hy[n-2] = hy[n-1]
				hx = hx[:n-1]
				hy = hy[:n-1]
			} else {
				break
			}
		}
	}

	return hx, hy
}
