package frf

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrAllZeroDOFs reports a configuration whose every degree of freedom is
// degenerate - nothing is left to solve.
var ErrAllZeroDOFs = errors.New("all DOFs have zero mass")

// ZeroTol is the tolerance under which a matrix entry counts as zero during
// DOF reduction.
const ZeroTol = 1e-8

// Reduce removes degenerate degrees of freedom from the assembled system
// before solving.  A DOF is flagged when its row or column is all zero
// (within tol) in any of M, C, or K, or when its forcing row is all zero.
// The union of flags across all four inputs determines removal.  If nothing
// is flagged the original system is returned with an all-true mask; if
// everything is flagged the solve cannot proceed and ErrAllZeroDOFs is
// returned.
func Reduce(sys *SystemMatrices, tol float64) (*SystemMatrices, []bool, error) {
	active := make([]bool, NumDOF)
	nactive := 0
	for i := 0; i < NumDOF; i++ {
		ok := rowColNonzero(sys.M, i, tol) &&
			rowColNonzero(sys.C, i, tol) &&
			rowColNonzero(sys.K, i, tol) &&
			forceRowNonzero(sys.F[i], tol)
		active[i] = ok
		if ok {
			nactive++
		}
	}

	if nactive == 0 {
		return nil, active, ErrAllZeroDOFs
	}
	if nactive == NumDOF {
		return sys, active, nil
	}

	keep := make([]int, 0, nactive)
	for i, ok := range active {
		if ok {
			keep = append(keep, i)
		}
	}

	red := &SystemMatrices{
		M: subMatrix(sys.M, keep),
		C: subMatrix(sys.C, keep),
		K: subMatrix(sys.K, keep),
		F: make([][]complex128, nactive),
	}
	for i, src := range keep {
		red.F[i] = sys.F[src]
	}
	return red, active, nil
}

func rowColNonzero(a *mat.Dense, i int, tol float64) bool {
	rowzero, colzero := true, true
	for j := 0; j < NumDOF; j++ {
		if math.Abs(a.At(i, j)) > tol {
			rowzero = false
		}
		if math.Abs(a.At(j, i)) > tol {
			colzero = false
		}
	}
	return !rowzero && !colzero
}

func forceRowNonzero(row []complex128, tol float64) bool {
	for _, v := range row {
		if math.Abs(real(v)) > tol || math.Abs(imag(v)) > tol {
			return true
		}
	}
	return false
}

func subMatrix(a *mat.Dense, keep []int) *mat.Dense {
	n := len(keep)
	out := mat.NewDense(n, n, nil)
	for i, si := range keep {
		for j, sj := range keep {
			out.Set(i, j, a.At(si, sj))
		}
	}
	return out
}
