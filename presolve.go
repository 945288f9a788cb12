package plsbb

// presolveResult is the outcome of eliminating fixed PL variables
// (those whose breakpoints collapse to a single point, X[0] == X[K])
// ahead of building the root LP. Adapted from the teacher's
// preProcessor/filterFixedVars (presolve.go): the teacher eliminates
// a MILP variable whose lower == upper bound and folds its
// contribution into the constraint RHS and objective constant; here
// the equivalent condition is a PL variable whose domain has
// collapsed to a point, and its contribution is f(x) at that point.
//
// Variable elimination is only applied to the knapsack variants: the
// network-flow constraint shape (spec.md §4.3) indexes variables by
// their position in a square nr x nr grid, and removing an arbitrary
// arc would break that indexing without reconstructing the grid from
// scratch for no real benefit (flow instances rarely have degenerate
// arcs). For network-flow, a fixed variable's breakpoints still
// collapse its LPModel bounds to a single point (lower == upper), so
// the LP solver pins it correctly; it is simply never removed from
// the variable list.
type presolveResult struct {
	// freeFns/freeOrigIndex describe the reduced variable list handed
	// to buildRootModel: freeFns[k] was originally fns[freeOrigIndex[k]].
	freeFns       []*PLFunction
	freeOrigIndex []int

	// fixedValue maps an eliminated variable's original index to its
	// fixed x value.
	fixedValue map[int]float64

	// rhs is the knapsack RHS, adjusted for every eliminated variable's
	// contribution (bᵢ := bᵢ - xⱼ for each fixed xⱼ).
	rhs []float64
}

func isFixedFn(f *PLFunction) bool {
	return f.Lower() == f.Upper()
}

// presolveFixedVariables detects and, for knapsack variants, removes
// fixed PL variables.
func presolveFixedVariables(fns []*PLFunction, variant Variant, rhs []float64) presolveResult {
	fixedValue := make(map[int]float64)
	for i, f := range fns {
		if isFixedFn(f) {
			fixedValue[i] = f.Lower()
		}
	}

	adjustedRHS := append([]float64(nil), rhs...)

	if len(fixedValue) == 0 || variant.isNetworkFlow() {
		return presolveResult{
			freeFns:       fns,
			freeOrigIndex: identityIndex(len(fns)),
			fixedValue:    map[int]float64{},
			rhs:           adjustedRHS,
		}
	}

	for _, v := range fixedValue {
		adjustedRHS[0] -= v
	}

	freeFns := make([]*PLFunction, 0, len(fns)-len(fixedValue))
	freeOrigIndex := make([]int, 0, len(fns)-len(fixedValue))
	for i, f := range fns {
		if _, fixed := fixedValue[i]; !fixed {
			freeFns = append(freeFns, f)
			freeOrigIndex = append(freeOrigIndex, i)
		}
	}

	return presolveResult{
		freeFns:       freeFns,
		freeOrigIndex: freeOrigIndex,
		fixedValue:    fixedValue,
		rhs:           adjustedRHS,
	}
}

// expand reassembles a full-length (n-vector) solution from a reduced
// solve's free-variable values, reinserting each eliminated variable's
// fixed value at its original index -- the postsolve step of the
// teacher's preProcessor.postSolve, generalized from a name-keyed map
// to an index-keyed slice.
func (r presolveResult) expand(freeX []float64) []float64 {
	n := len(freeX) + len(r.fixedValue)
	full := make([]float64, n)

	for k, x := range freeX {
		full[r.freeOrigIndex[k]] = x
	}
	for idx, v := range r.fixedValue {
		full[idx] = v
	}

	return full
}

// fixedContribution is the constant Σf(xⱼ) over every eliminated
// variable, which must be added back into the objective once the
// reduced problem is solved.
func (r presolveResult) fixedContribution(fns []*PLFunction) float64 {
	var total float64
	for idx, v := range r.fixedValue {
		total += fns[idx].Evaluate(v)
	}
	return total
}

func identityIndex(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
