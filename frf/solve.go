package frf

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sweep specifies the frequency grid: Points values linearly spaced from
// Start to End inclusive.
type Sweep struct {
	Start  float64
	End    float64
	Points int
}

// Omega returns the angular frequency grid.  A single-point sweep yields
// just Start.
func (s Sweep) Omega() ([]float64, error) {
	if s.Points < 1 {
		return nil, fmt.Errorf("sweep needs at least one frequency point, got %v", s.Points)
	}
	if s.Points > 1 && s.End < s.Start {
		return nil, fmt.Errorf("sweep must be ascending: start=%v end=%v", s.Start, s.End)
	}
	w := make([]float64, s.Points)
	if s.Points == 1 {
		w[0] = s.Start
		return w, nil
	}
	step := (s.End - s.Start) / float64(s.Points-1)
	for i := range w {
		w[i] = s.Start + float64(i)*step
	}
	return w, nil
}

// SolveError reports a singular dynamic-stiffness matrix at one frequency of
// the sweep.  The whole sweep is aborted - no partial results.
type SolveError struct {
	Index int
	Omega float64
	Err   error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("singular system at frequency index %v (omega=%v): %v", e.Index, e.Omega, e.Err)
}

func (e *SolveError) Unwrap() error { return e.Err }

// sweepSolve computes the complex response of every active DOF across the
// omega grid.  At each frequency it forms
//
//	H = OmegaDC^2 * (-omega^2*M + i*2*ZetaDC*omega*C + K)
//
// solves H*a = f, and scales the solution by OmegaDC^2 once more.  The
// second scaling looks redundant but downstream composite scoring is
// calibrated against it; do not remove.
func sweepSolve(sys *SystemMatrices, main MainParams, omega []float64) ([][]complex128, error) {
	n, _ := sys.M.Dims()
	resp := make([][]complex128, n)
	for i := range resp {
		resp[i] = make([]complex128, len(omega))
	}

	o2 := main.OmegaDC * main.OmegaDC

	// The complex system is solved through its real embedding
	//	[ Re(H) -Im(H) ] [Re(a)]   [Re(f)]
	//	[ Im(H)  Re(H) ] [Im(a)] = [Im(f)]
	A := mat.NewDense(2*n, 2*n, nil)
	b := mat.NewVecDense(2*n, nil)
	var x mat.VecDense

	for idx, w := range omega {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				re := o2 * (-w*w*sys.M.At(i, j) + sys.K.At(i, j))
				im := o2 * (2 * main.ZetaDC * w * sys.C.At(i, j))
				A.Set(i, j, re)
				A.Set(i+n, j+n, re)
				A.Set(i, j+n, -im)
				A.Set(i+n, j, im)
			}
			b.SetVec(i, real(sys.F[i][idx]))
			b.SetVec(i+n, imag(sys.F[i][idx]))
		}

		if err := x.SolveVec(A, b); err != nil {
			// A finite Condition error is a near-singularity warning with a
			// usable solution; anything else aborts the sweep.
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				return nil, &SolveError{Index: idx, Omega: w, Err: err}
			}
		}

		for i := 0; i < n; i++ {
			resp[i][idx] = complex(x.AtVec(i), x.AtVec(i+n)) * complex(o2, 0)
		}
	}
	return resp, nil
}
