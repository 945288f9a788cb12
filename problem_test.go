package plsbb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemValidateRejectsEmptyProblem(t *testing.T) {
	p := NewProblem(KnapsackSpec{RHS: 1})
	err := p.validate()
	assert.ErrorIs(t, err, ErrInvalidProblem)
}

func TestProblemValidateRejectsTooFewBreakpoints(t *testing.T) {
	p := NewProblem(KnapsackSpec{RHS: 1})
	p.AddVariable().Breakpoints([]float64{0}, []float64{0})
	assert.ErrorIs(t, p.validate(), ErrInvalidProblem)
}

func TestProblemValidateRejectsNonIncreasingBreakpoints(t *testing.T) {
	p := NewProblem(KnapsackSpec{RHS: 1})
	p.AddVariable().Breakpoints([]float64{0, 0, 1}, []float64{0, 1, 2})
	assert.ErrorIs(t, p.validate(), ErrInvalidProblem)
}

func TestProblemValidateRejectsJumpAtZeroOnDisallowedVariant(t *testing.T) {
	p := NewProblem(KnapsackSpec{RHS: 1})
	p.AddVariable().Breakpoints([]float64{0, 1}, []float64{0, 1}).JumpAtZero()
	assert.ErrorIs(t, p.validate(), ErrInvalidProblem)
}

func TestProblemValidateAllowsJumpAtZeroOnDiscontinuousNetworkFlow(t *testing.T) {
	p := NewProblem(DiscontinuousNetworkFlowSpec{RHS: []float64{1, -1}})
	for i := 0; i < 4; i++ {
		p.AddVariable().Breakpoints([]float64{0, 1}, []float64{0, 1}).JumpAtZero()
	}
	assert.NoError(t, p.validate())
}

func TestProblemValidateRejectsNonSquareNetworkFlow(t *testing.T) {
	p := NewProblem(NetworkFlowSpec{RHS: []float64{1, -1}})
	for i := 0; i < 3; i++ {
		p.AddVariable().Breakpoints([]float64{0, 1}, []float64{0, 1})
	}
	assert.ErrorIs(t, p.validate(), ErrInvalidProblem)
}

func TestProblemValidateRejectsMismatchedNetworkFlowRHS(t *testing.T) {
	p := NewProblem(NetworkFlowSpec{RHS: []float64{1}})
	for i := 0; i < 4; i++ {
		p.AddVariable().Breakpoints([]float64{0, 1}, []float64{0, 1})
	}
	assert.ErrorIs(t, p.validate(), ErrInvalidProblem)
}

func TestProblemSolveSimpleKnapsack(t *testing.T) {
	p := NewProblem(KnapsackSpec{RHS: 4})
	p.AddVariable().Breakpoints([]float64{0, 4}, []float64{0, 4})
	p.AddVariable().Breakpoints([]float64{0, 4}, []float64{0, 8})

	sol, stats, err := p.Solve(context.Background(), Config{Epsilon: 1e-6})
	require.NoError(t, err)
	require.NotNil(t, sol)

	assert.InDelta(t, 4, sol.X[0]+sol.X[1], 1e-6)
	assert.Equal(t, TerminationOptimal, stats.Terminated)
	// both terms are linear: x0 costs 1/unit and x1 costs 2/unit, so the
	// minimum routes all mass to x0.
	assert.InDelta(t, 4.0, sol.Objective, 1e-6)
}
