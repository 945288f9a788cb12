package plsbb

import (
	"context"
	"fmt"
)

// ConstraintSpec tags which linear-equality shape a Problem uses
// (spec.md §6): a scalar knapsack RHS or a per-node network-flow RHS
// vector. This is the tagged-variant model spec.md §9's design notes
// call for ("Dynamic numerical dispatch... a tagged-variant model is
// the natural representation").
type ConstraintSpec interface {
	variant() Variant
	rhsVector() []float64
}

// KnapsackSpec is Σxᵢ = RHS over a possibly-nonconvex PL objective.
type KnapsackSpec struct{ RHS float64 }

func (s KnapsackSpec) variant() Variant      { return Knapsack }
func (s KnapsackSpec) rhsVector() []float64  { return []float64{s.RHS} }

// ConcaveKnapsackSpec is Σxᵢ = RHS where every fᵢ is concave.
type ConcaveKnapsackSpec struct{ RHS float64 }

func (s ConcaveKnapsackSpec) variant() Variant     { return ConcaveKnapsack }
func (s ConcaveKnapsackSpec) rhsVector() []float64 { return []float64{s.RHS} }

// GlobalKnapsackSpec is Σxᵢ = RHS with no convexity assumption on the
// fᵢ beyond what the sBB search itself certifies.
type GlobalKnapsackSpec struct{ RHS float64 }

func (s GlobalKnapsackSpec) variant() Variant     { return GlobalKnapsack }
func (s GlobalKnapsackSpec) rhsVector() []float64 { return []float64{s.RHS} }

// NetworkFlowSpec is a square flow-balance constraint on the complete
// directed graph of nr = len(RHS) nodes (spec.md §4.3); n must equal
// nr^2. RHS's last entry must be the negative sum of the others so
// total flow balances.
type NetworkFlowSpec struct{ RHS []float64 }

func (s NetworkFlowSpec) variant() Variant     { return NetworkFlow }
func (s NetworkFlowSpec) rhsVector() []float64 { return s.RHS }

// DiscontinuousNetworkFlowSpec is NetworkFlowSpec with the fixed-charge
// jump at zero enabled on variables that opt in via JumpAtZero().
type DiscontinuousNetworkFlowSpec struct{ RHS []float64 }

func (s DiscontinuousNetworkFlowSpec) variant() Variant     { return DiscontinuousNetworkFlow }
func (s DiscontinuousNetworkFlowSpec) rhsVector() []float64 { return s.RHS }

// Problem is the public, mutable builder for a separable PL
// optimization instance, in the teacher's fluent api.go style
// (NewProblem/AddVariable/SetCoeff chains), generalized from MILP
// variables/coefficients to PL variables specified by breakpoints.
type Problem struct {
	spec      ConstraintSpec
	variables []*PLVariable
}

// NewProblem starts a Problem definition with the given constraint
// shape.
func NewProblem(spec ConstraintSpec) *Problem {
	return &Problem{spec: spec}
}

// AddVariable adds a PL variable and returns a reference to it for
// further configuration.
func (p *Problem) AddVariable() *PLVariable {
	v := &PLVariable{}
	p.variables = append(p.variables, v)
	return v
}

// PLVariable configures one separable term fᵢ of the objective.
type PLVariable struct {
	xs, ys     []float64
	jumpAtZero bool
}

// Breakpoints sets the (x, y) breakpoint sequence defining this
// variable's PL function. xs must be strictly increasing and have at
// least two entries.
func (v *PLVariable) Breakpoints(xs, ys []float64) *PLVariable {
	v.xs, v.ys = xs, ys
	return v
}

// JumpAtZero opts this variable into the fixed-charge jump at the
// origin. Only legal on a DiscontinuousNetworkFlowSpec problem.
func (v *PLVariable) JumpAtZero() *PLVariable {
	v.jumpAtZero = true
	return v
}

func (v *PLVariable) toPLFunction() *PLFunction {
	return &PLFunction{X: v.xs, Y: v.ys, JumpAtZero: v.jumpAtZero}
}

// Solution is a globally ε-optimal primal point together with its
// matching objective value (spec.md §1).
type Solution struct {
	Objective float64
	X         []float64
}

// validate checks the structural invariants spec.md §3/§6 require
// before a Problem can be converted to an internal instance.
func (p *Problem) validate() error {
	n := len(p.variables)
	if n == 0 {
		return fmt.Errorf("%w: problem has no variables", ErrInvalidProblem)
	}

	for i, v := range p.variables {
		if len(v.xs) != len(v.ys) {
			return fmt.Errorf("%w: variable %d has mismatched breakpoint lengths", ErrInvalidProblem, i)
		}
		if len(v.xs) < 2 {
			return fmt.Errorf("%w: variable %d needs at least two breakpoints (K >= 1)", ErrInvalidProblem, i)
		}
		for k := 1; k < len(v.xs); k++ {
			if v.xs[k] <= v.xs[k-1] {
				return fmt.Errorf("%w: variable %d breakpoints are not strictly increasing", ErrInvalidProblem, i)
			}
		}
		if v.jumpAtZero && !p.spec.variant().jumpAllowed() {
			return fmt.Errorf("%w: variable %d requests jump_at_zero on a problem variant that does not allow it", ErrInvalidProblem, i)
		}
	}

	if p.spec.variant().isNetworkFlow() {
		nr := isqrt(n)
		if nr*nr != n {
			return fmt.Errorf("%w: network-flow variant requires a perfect-square number of variables, got %d", ErrInvalidProblem, n)
		}
		if len(p.spec.rhsVector()) != nr {
			return fmt.Errorf("%w: network-flow rhs must have length %d", ErrInvalidProblem, nr)
		}
	} else if len(p.spec.rhsVector()) != 1 {
		return fmt.Errorf("%w: knapsack variants take a scalar rhs", ErrInvalidProblem)
	}

	return nil
}

// Solve runs the spatial branch-and-bound search described in
// spec.md §4.7 to certified global ε-optimality and returns the
// incumbent solution together with solve statistics.
func (p *Problem) Solve(ctx context.Context, cfg Config) (*Solution, *SolveStats, error) {
	if err := p.validate(); err != nil {
		return nil, nil, err
	}

	fns := make([]*PLFunction, len(p.variables))
	for i, v := range p.variables {
		fns[i] = v.toPLFunction()
	}

	return solve(ctx, fns, p.spec.variant(), p.spec.rhsVector(), cfg)
}
