package plsbb

import (
	"fmt"
	"math"

	"github.com/lukpank/go-glpk/glpk"
)

// glpkModel implements LPModel over a *glpk.Prob. GLPK's own row/column
// indices are 1-based and SetMatRow/SetMatCol ignore index 0 of the
// index/value slices (see the teacher's ToGLPK helper in
// api_glpk_compare_test.go, which pads every row with a leading zero
// for exactly this reason); glpkModel hides that off-by-one behind the
// zero-based LPModel contract.
type glpkModel struct {
	prob    *glpk.Prob
	deleted bool
}

func newGLPKModel() *glpkModel {
	p := glpk.New()
	p.SetProbName("node")
	p.SetObjName("Z")
	p.SetObjDir(glpk.MIN)
	return &glpkModel{prob: p}
}

func (m *glpkModel) AddVariable(lower, upper float64) int {
	j := m.prob.AddCols(1)
	m.prob.SetColBnds(j, boundsType(lower, upper), orZero(lower), orZero(upper))
	return j - 1
}

func (m *glpkModel) AddEquality(coefs map[int]float64, rhs float64) int {
	i := m.addRow(coefs)
	m.prob.SetRowBnds(i, glpk.FX, rhs, rhs)
	return i - 1
}

// AddInequality enforces sum(coefs[i]*x[i]) >= rhs, i.e. a lower-bounded
// row in GLPK's row-bounds vocabulary.
func (m *glpkModel) AddInequality(coefs map[int]float64, rhs float64) int {
	i := m.addRow(coefs)
	m.prob.SetRowBnds(i, glpk.LO, rhs, 0)
	return i - 1
}

// addRow allocates a new GLPK row and installs its matrix coefficients,
// padding index/value 0 as GLPK's SetMatRow convention requires.
func (m *glpkModel) addRow(coefs map[int]float64) int {
	i := m.prob.AddRows(1)

	ind := make([]int32, 1, len(coefs)+1)
	val := make([]float64, 1, len(coefs)+1)
	for col, c := range coefs {
		ind = append(ind, int32(col+1))
		val = append(val, c)
	}
	m.prob.SetMatRow(i, ind, val)

	return i
}

func (m *glpkModel) SetObjective(coefs map[int]float64) {
	n := m.prob.NumCols()
	for j := 1; j <= n; j++ {
		m.prob.SetObjCoef(j, 0)
	}
	for col, c := range coefs {
		m.prob.SetObjCoef(col+1, c)
	}
}

func (m *glpkModel) SetVarStatus(i int, s VarStatus) {
	m.prob.SetColStat(i+1, toGLPKStatus(s))
}

func (m *glpkModel) SetRowStatus(i int, s VarStatus) {
	m.prob.SetRowStat(i+1, toGLPKStatus(s))
}

// Dup deep-copies the model including its current basis, via GLPK's
// glp_copy_prob. The copy's newly-appended rows (added after Dup
// returns) inherit GLPK's default status for freshly-created rows,
// which is basic (i.e. they start slack) -- exactly the warm-start
// convention spec.md §9 calls out.
func (m *glpkModel) Dup() LPModel {
	return &glpkModel{prob: m.prob.Copy(false)}
}

func (m *glpkModel) Solve(method SimplexMethod) (Status, error) {
	parm := glpk.NewSmcp()
	parm.SetMsgLev(glpk.MSG_OFF)
	if method == MethodDual {
		parm.SetMeth(glpk.DUAL)
	} else {
		parm.SetMeth(glpk.PRIMAL)
	}

	if err := m.prob.Simplex(parm); err != nil {
		return StatusOther, fmt.Errorf("glpk simplex: %w", err)
	}

	switch m.prob.Status() {
	case glpk.OPT:
		return StatusOptimal, nil
	case glpk.NOFEAS, glpk.INFEAS:
		return StatusInfeasible, nil
	default:
		return StatusOther, nil
	}
}

func (m *glpkModel) ObjValue() float64 {
	return m.prob.ObjVal()
}

func (m *glpkModel) PrimalValue(i int) float64 {
	return m.prob.ColPrim(i + 1)
}

// Delete frees the underlying GLPK problem. Safe to call more than
// once: node ownership of a model can pass through both a frontier
// truncation and an explicit fathoming path, so double-release must
// not corrupt GLPK state.
func (m *glpkModel) Delete() {
	if m.deleted {
		return
	}
	m.deleted = true
	m.prob.Delete()
}

func boundsType(lower, upper float64) glpk.BndsType {
	lowInf := math.IsInf(lower, -1)
	upInf := math.IsInf(upper, 1)

	switch {
	case lowInf && upInf:
		return glpk.FR
	case lowInf:
		return glpk.UP
	case upInf:
		return glpk.LO
	case lower == upper:
		return glpk.FX
	default:
		return glpk.DB
	}
}

// orZero maps an infinite bound to 0, the value GLPK expects (and
// ignores) for the bound type it is paired with by boundsType.
func orZero(v float64) float64 {
	if math.IsInf(v, 0) {
		return 0
	}
	return v
}

func toGLPKStatus(s VarStatus) glpk.VarStat {
	switch s {
	case StatusBasic:
		return glpk.BS
	case StatusLower:
		return glpk.NL
	case StatusUpper:
		return glpk.NU
	case StatusFree:
		return glpk.NF
	case StatusFixed:
		return glpk.NS
	default:
		return glpk.BS
	}
}
