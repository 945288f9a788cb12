package plsbb

import "time"

// node is a relaxation node (spec.md §3): an LP model with its current
// basis, the per-variable envelopes in force at this node, the cached
// relaxed solution, and the node's lower bound. Modeled on the
// teacher's subProblem (subproblem.go), generalized from integer
// bound-splitting to envelope-interval-splitting.
type node struct {
	id     int64
	parent int64
	depth  int

	model LPModel

	// xIdx[i]/eIdx[i] are the LPModel variable indices for xᵢ and eᵢ.
	// Identical across every node of a solve (the variable set never
	// changes), so these slices are shared by reference.
	xIdx []int
	eIdx []int

	// envelopes[i] is this node's current envelope for variable i.
	// Only the branched variable's envelope ever changes between a
	// parent and its child; unchanged entries are shared by reference
	// (copy-on-write at the outer-slice level only), so a child never
	// observes a later mutation of a parent's envelope and a parent's
	// envelope remains valid until the parent is fathomed.
	envelopes []*Envelope

	// relaxedX/relaxedE are the optimal primal values of x and e from
	// the last solve of this node's model.
	relaxedX []float64
	relaxedE []float64

	// pStar[i] = f(relaxedX[i]), cached to avoid re-evaluation during
	// branching (spec.md §3).
	pStar []float64

	lb float64
}

// extractSolution reads the primal values and objective out of a
// solved node's model into relaxedX/relaxedE/lb.
func (n *node) extractSolution() {
	k := len(n.xIdx)
	n.relaxedX = make([]float64, k)
	n.relaxedE = make([]float64, k)

	for i := 0; i < k; i++ {
		n.relaxedX[i] = n.model.PrimalValue(n.xIdx[i])
		n.relaxedE[i] = n.model.PrimalValue(n.eIdx[i])
	}

	n.lb = n.model.ObjValue()
}

// computePStar recomputes the true PL values at the node's relaxed
// point for every variable (needed for branching and for the upper
// bound, spec.md §4.5 step 7).
func (n *node) computePStar(fns []*PLFunction, rec *timingRecorder) {
	start := time.Now()
	defer rec.record(phaseEval, start)

	n.pStar = make([]float64, len(fns))
	for i, f := range fns {
		n.pStar[i] = f.Evaluate(n.relaxedX[i])
	}
}

// upperBoundPoint returns the upper bound Σpᵢ* attained by evaluating
// f at this node's relaxed point, and the corresponding primal point.
func (n *node) upperBoundPoint() (ub float64, x []float64) {
	x = make([]float64, len(n.relaxedX))
	copy(x, n.relaxedX)
	for _, p := range n.pStar {
		ub += p
	}
	return ub, x
}

// splitSide distinguishes the two children produced by a branch.
type splitSide int

const (
	sideLeft  splitSide = iota // xᵢ <= s
	sideRight                  // xᵢ >= s
)

// splitChild builds one child of parent by restricting variable
// decision.index to one side of decision.split, refining its envelope
// over the restricted interval, deep-copying the parent LP, appending
// the branching bound and refined envelope cuts, and resolving by dual
// simplex (spec.md §4.5). It returns (nil, false) when the child's
// resolve does not report an optimal status -- per spec.md §9's open
// question, such a child is treated as fathomed.
func splitChild(parent *node, decision branchDecision, side splitSide, fns []*PLFunction, nextID int64, rec *timingRecorder) (*node, bool) {
	i := decision.index
	env := parent.envelopes[i]

	var lo, hi float64
	if side == sideLeft {
		lo, hi = env.X[decision.pos-1], decision.split
	} else {
		lo, hi = decision.split, env.X[decision.pos]
	}

	refined := buildEnvelope(fns[i], lo, hi, rec)

	start := time.Now()
	childModel := parent.model.Dup()
	rec.record(phaseLPModel, start)

	start = time.Now()
	if side == sideLeft {
		// xᵢ <= s  <=>  -xᵢ >= -s
		childModel.AddInequality(map[int]float64{parent.xIdx[i]: -1}, -decision.split)
	} else {
		// xᵢ >= s
		childModel.AddInequality(map[int]float64{parent.xIdx[i]: 1}, decision.split)
	}
	addEnvelopeCuts(childModel, parent.xIdx[i], parent.eIdx[i], refined)
	rec.record(phaseLPModel, start)

	start = time.Now()
	status, err := childModel.Solve(MethodDual)
	rec.record(phaseLPSolve, start)

	if err != nil || status != StatusOptimal {
		childModel.Delete()
		return nil, false
	}

	child := &node{
		id:     nextID,
		parent: parent.id,
		depth:  parent.depth + 1,
		model:  childModel,
		xIdx:   parent.xIdx,
		eIdx:   parent.eIdx,
	}

	child.envelopes = make([]*Envelope, len(parent.envelopes))
	copy(child.envelopes, parent.envelopes)
	child.envelopes[i] = refined

	child.extractSolution()
	child.computePStar(fns, rec)

	return child, true
}
