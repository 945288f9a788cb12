package plsbb

import "sort"

// BranchHeuristic selects which variable a node branches on, in the
// style of the teacher's branching.go BranchHeuristic enum.
type BranchHeuristic int

const (
	// BranchLargestError is the rule spec.md §4.4 describes: branch on
	// the variable with the largest gap between its true PL value and
	// its relaxed epigraph value. This is the only heuristic solve.go
	// uses unless a Config overrides it.
	BranchLargestError BranchHeuristic = iota

	// BranchWidestInterval branches on the variable whose current
	// envelope spans the widest sub-interval, the PL-domain analogue
	// of the teacher's mostInfeasibleBranchPoint. Useful as a
	// tie-break and as a fallback heuristic when every Δᵢ is ~0.
	BranchWidestInterval
)

// tieEps is the tolerance below which two approximation errors (or
// interval widths) are treated as equal for tie-breaking purposes.
const tieEps = 1e-9

// branchDecision is the outcome of applying a BranchHeuristic to a
// solved relaxation: which variable to split, and where.
type branchDecision struct {
	index int
	split float64
	// pos is the index of the first breakpoint of envelopes[index]
	// strictly greater than split (spec.md §4.4).
	pos int
}

// selectBranch applies heuristic to a solved node's relaxed values and
// cached PL values to pick a branching variable and split point.
func selectBranch(heuristic BranchHeuristic, envelopes []*Envelope, relaxedX, pStar, eStar []float64) branchDecision {
	var i int
	switch heuristic {
	case BranchWidestInterval:
		i = widestIntervalIndex(envelopes)
	default:
		i = largestErrorIndex(envelopes, pStar, eStar)
	}

	s := relaxedX[i]
	return branchDecision{
		index: i,
		split: s,
		pos:   locateSegment(envelopes[i], s),
	}
}

// largestErrorIndex picks argmax(pᵢ* - eᵢ*); ties are broken by widest
// current envelope interval, then by lowest index.
func largestErrorIndex(envelopes []*Envelope, pStar, eStar []float64) int {
	best := 0
	bestDelta := pStar[0] - eStar[0]
	bestWidth := intervalWidth(envelopes[0])

	for i := 1; i < len(pStar); i++ {
		delta := pStar[i] - eStar[i]
		width := intervalWidth(envelopes[i])

		switch {
		case delta > bestDelta+tieEps:
			best, bestDelta, bestWidth = i, delta, width
		case delta > bestDelta-tieEps && width > bestWidth:
			best, bestWidth = i, width
		}
	}

	return best
}

// widestIntervalIndex picks the variable with the widest current
// envelope interval; ties are broken by lowest index.
func widestIntervalIndex(envelopes []*Envelope) int {
	best := 0
	bestWidth := intervalWidth(envelopes[0])

	for i := 1; i < len(envelopes); i++ {
		width := intervalWidth(envelopes[i])
		if width > bestWidth+tieEps {
			best, bestWidth = i, width
		}
	}

	return best
}

func intervalWidth(e *Envelope) float64 {
	return e.X[e.K()] - e.X[0]
}

// locateSegment returns the index of the first breakpoint of env
// strictly greater than s, via binary search (spec.md §4.4). Callers
// use pos-1/pos as the sub-interval boundaries straddling s; when s is
// at or below the envelope's lower bound, pos is clamped to 1 so
// pos-1 stays a valid index (an exact-boundary branch).
func locateSegment(env *Envelope, s float64) int {
	pos := sort.Search(len(env.X), func(i int) bool { return env.X[i] > s })
	if pos < 1 {
		pos = 1
	}
	if pos > env.K() {
		pos = env.K()
	}
	return pos
}
