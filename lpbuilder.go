package plsbb

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Variant tags the linear-equality shape of a problem instance
// (spec.md §6). Only DiscontinuousNetworkFlow enables JumpAtZero on
// its PL functions; the three knapsack variants share the same
// constraint shape (a single Σxᵢ = b row) and differ only in the
// convexity structure of their PL functions, which this package never
// needs to special-case beyond evaluating and enveloping them.
type Variant int

const (
	Knapsack Variant = iota
	ConcaveKnapsack
	GlobalKnapsack
	NetworkFlow
	DiscontinuousNetworkFlow
)

func (v Variant) isNetworkFlow() bool {
	return v == NetworkFlow || v == DiscontinuousNetworkFlow
}

func (v Variant) jumpAllowed() bool {
	return v == DiscontinuousNetworkFlow
}

func (v Variant) String() string {
	switch v {
	case Knapsack:
		return "knapsack"
	case ConcaveKnapsack:
		return "concave-knapsack"
	case GlobalKnapsack:
		return "global-knapsack"
	case NetworkFlow:
		return "network-flow"
	case DiscontinuousNetworkFlow:
		return "discontinuous-network-flow"
	default:
		return "unknown"
	}
}

// modelHandles names the variable slots allocated in an LPModel by
// buildRootModel, so later components (branching.go, node.go) can
// refer to "the x variable for index i" / "the epigraph variable for
// index i" without re-deriving the layout.
type modelHandles struct {
	xIdx []int
	eIdx []int
}

// buildRootModel constructs the initial relaxation (spec.md §4.3):
// one bounded continuous variable xᵢ and one free epigraph variable
// eᵢ per PL function, the variant's linear equality constraints, and
// one envelope cut per segment of each variable's full-range envelope.
// The objective minimizes Σeᵢ.
func buildRootModel(fns []*PLFunction, variant Variant, rhs []float64, envelopes []*Envelope) (LPModel, modelHandles, error) {
	n := len(fns)
	if n == 0 {
		return nil, modelHandles{}, fmt.Errorf("%w: no variables", ErrInvalidProblem)
	}
	if len(envelopes) != n {
		return nil, modelHandles{}, fmt.Errorf("%w: envelope count mismatch", ErrInvalidProblem)
	}

	model := newGLPKModel()

	handles := modelHandles{
		xIdx: make([]int, n),
		eIdx: make([]int, n),
	}
	for i, f := range fns {
		handles.xIdx[i] = model.AddVariable(f.Lower(), f.Upper())
		handles.eIdx[i] = model.AddVariable(math.Inf(-1), math.Inf(1))
	}

	if err := addEqualityConstraints(model, variant, handles.xIdx, rhs); err != nil {
		model.Delete()
		return nil, modelHandles{}, err
	}

	for i, env := range envelopes {
		addEnvelopeCuts(model, handles.xIdx[i], handles.eIdx[i], env)
	}

	obj := make(map[int]float64, n)
	for _, e := range handles.eIdx {
		obj[e] = 1
	}
	model.SetObjective(obj)

	return model, handles, nil
}

// addEqualityConstraints installs the variant-specific linear equality
// rows: a single knapsack row Σxᵢ = b, or, for the network-flow
// variants, one flow-conservation row per node of the complete
// directed graph on nr = √n nodes (spec.md §4.3).
func addEqualityConstraints(model LPModel, variant Variant, xIdx []int, rhs []float64) error {
	n := len(xIdx)

	if !variant.isNetworkFlow() {
		if len(rhs) != 1 {
			return fmt.Errorf("%w: knapsack variants take a scalar rhs", ErrInvalidProblem)
		}
		coefs := make(map[int]float64, n)
		for _, x := range xIdx {
			coefs[x] = 1
		}
		model.AddEquality(coefs, rhs[0])
		return nil
	}

	nr := isqrt(n)
	if nr*nr != n {
		return fmt.Errorf("%w: network-flow variant requires a perfect-square n, got %d", ErrInvalidProblem, n)
	}
	if len(rhs) != nr {
		return fmt.Errorf("%w: network-flow rhs must have length %d, got %d", ErrInvalidProblem, nr, len(rhs))
	}

	for i := 0; i < nr; i++ {
		coefs := make(map[int]float64)
		for j := 0; j < nr; j++ {
			if j == i {
				continue
			}
			// outbound arc (i -> j): positive contribution.
			coefs[xIdx[i*nr+j]] += 1
			// inbound arc (j -> i): negative contribution.
			coefs[xIdx[j*nr+i]] -= 1
		}
		model.AddEquality(coefs, rhs[i])
	}

	return nil
}

// addEnvelopeCuts installs one inequality per envelope segment:
// eᵢ >= m*(xᵢ - ax) + ay, rearranged to eᵢ - m*xᵢ >= ay - m*ax so it
// fits LPModel's single ">="-direction AddInequality.
func addEnvelopeCuts(model LPModel, xVar, eVar int, env *Envelope) {
	for s := 0; s < env.K(); s++ {
		m := env.slope(s)
		ax, ay := env.X[s], env.Y[s]

		coefs := map[int]float64{
			eVar: 1,
			xVar: -m,
		}
		rhs := ay - m*ax
		model.AddInequality(coefs, rhs)
	}
}

// constraintMatrix assembles the variant's linear-equality system as a
// dense gonum matrix, in the teacher's api.go toSolveable() style of
// building Adata/b before handing a problem to a solver. The LP solver
// itself is always driven directly through LPModel (GLPK never sees
// this matrix); it exists solely for the post-solve feasibility
// residual check in solve.go.
func constraintMatrix(n int, variant Variant, rhs []float64) (*mat.Dense, *mat.VecDense) {
	if !variant.isNetworkFlow() {
		a := mat.NewDense(1, n, nil)
		for j := 0; j < n; j++ {
			a.Set(0, j, 1)
		}
		return a, mat.NewVecDense(1, []float64{rhs[0]})
	}

	nr := isqrt(n)
	a := mat.NewDense(nr, n, nil)
	for i := 0; i < nr; i++ {
		for j := 0; j < nr; j++ {
			if j == i {
				continue
			}
			a.Set(i, i*nr+j, 1)
			a.Set(i, j*nr+i, -1)
		}
	}
	return a, mat.NewVecDense(nr, append([]float64(nil), rhs...))
}

// residualNorm returns ||Ax - b||₂ for the variant's constraint system
// at point x: a feasibility sanity check run once on the final
// incumbent (solve.go), independent of whatever basis GLPK reports.
func residualNorm(n int, variant Variant, rhs []float64, x []float64) float64 {
	a, b := constraintMatrix(n, variant, rhs)
	xv := mat.NewVecDense(n, x)

	var ax mat.VecDense
	ax.MulVec(a, xv)
	ax.SubVec(&ax, b)

	return mat.Norm(&ax, 2)
}

func isqrt(n int) int {
	if n < 0 {
		return -1
	}
	r := int(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
