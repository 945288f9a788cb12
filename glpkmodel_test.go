package plsbb

import (
	"math"
	"testing"

	"github.com/lukpank/go-glpk/glpk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGLPKModelSolveOptimal(t *testing.T) {
	m := newGLPKModel()
	defer m.Delete()

	x := m.AddVariable(0, 10)
	m.AddEquality(map[int]float64{x: 1}, 3)
	m.SetObjective(map[int]float64{x: 1})

	status, err := m.Solve(MethodPrimal)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, status)
	assert.InDelta(t, 3, m.PrimalValue(x), 1e-9)
	assert.InDelta(t, 3, m.ObjValue(), 1e-9)
}

func TestGLPKModelSolveInfeasible(t *testing.T) {
	m := newGLPKModel()
	defer m.Delete()

	x := m.AddVariable(0, 1)
	m.AddEquality(map[int]float64{x: 1}, 5) // bound [0,1] can never hit 5
	m.SetObjective(map[int]float64{x: 1})

	status, err := m.Solve(MethodPrimal)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, status)
}

func TestGLPKModelDupIsIndependent(t *testing.T) {
	m := newGLPKModel()
	defer m.Delete()

	x := m.AddVariable(0, 10)
	m.AddEquality(map[int]float64{x: 1}, 3)
	m.SetObjective(map[int]float64{x: 1})

	dup := m.Dup()
	defer dup.Delete()

	dup.AddInequality(map[int]float64{x: 1}, 1)

	status, err := dup.Solve(MethodDual)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, status)

	// the original is unaffected by the row added to the copy.
	status, err = m.Solve(MethodPrimal)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, status)
}

func TestGLPKModelDeleteIsIdempotent(t *testing.T) {
	m := newGLPKModel()
	assert.NotPanics(t, func() {
		m.Delete()
		m.Delete()
	})
}

func TestBoundsType(t *testing.T) {
	assert.Equal(t, glpk.FR, boundsType(math.Inf(-1), math.Inf(1)))
	assert.Equal(t, glpk.UP, boundsType(math.Inf(-1), 5))
	assert.Equal(t, glpk.LO, boundsType(0, math.Inf(1)))
	assert.Equal(t, glpk.FX, boundsType(2, 2))
	assert.Equal(t, glpk.DB, boundsType(0, 5))
}
