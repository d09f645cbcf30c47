package frf

import (
	"gonum.org/v1/gonum/mat"
)

// NumDOF is the size of the full lumped model: two primary masses plus
// three absorbers.
const NumDOF = 5

// Branch endpoints.  Non-negative values are DOF indices; the two bases are
// boundary endpoints that contribute only diagonal matrix terms plus
// transmitted forcing.
const (
	baseLow = -1
	baseUpp = -2
)

type branch struct {
	p, q int // endpoints
}

// mainBranches lists the five primary-system branches in Lambda/Nu order.
var mainBranches = [5]branch{
	{0, baseLow},
	{1, baseUpp},
	{0, 1},
	{0, baseUpp},
	{1, baseLow},
}

// dvaBranch returns branch b (0..14) of the absorber network.  Absorber
// j = b/5 occupies DOF 2+j; its five branches connect it to the lower base,
// both primary masses, the upper base, and the next absorber around the
// ring.
func dvaBranch(b int) branch {
	j := b / 5
	d := 2 + j
	switch b % 5 {
	case 0:
		return branch{d, baseLow}
	case 1:
		return branch{d, 0}
	case 2:
		return branch{d, 1}
	case 3:
		return branch{d, baseUpp}
	default:
		return branch{d, 2 + (j+1)%3}
	}
}

// SystemMatrices holds the assembled 5x5 system.  C and K are "raw": the
// omega-dependent factors are applied during the sweep solve, not here.  F
// is the 5xN complex forcing aligned with the omega grid the matrices were
// assembled against.
type SystemMatrices struct {
	M *mat.Dense
	C *mat.Dense
	K *mat.Dense
	F [][]complex128
}

// addCoupling accumulates coefficient v of a two-ended element onto matrix
// a.  A base endpoint contributes only to the mass-side diagonal.
func addCoupling(a *mat.Dense, br branch, v float64) {
	if br.q < 0 {
		a.Set(br.p, br.p, a.At(br.p, br.p)+v)
		return
	}
	a.Set(br.p, br.p, a.At(br.p, br.p)+v)
	a.Set(br.q, br.q, a.At(br.q, br.q)+v)
	a.Set(br.p, br.q, a.At(br.p, br.q)-v)
	a.Set(br.q, br.p, a.At(br.q, br.p)-v)
}

// nuAt returns the damper coefficient of absorber branch b.  The ring-closing
// branch has no damper in the 47-parameter design.
func nuAt(d DVAParams, b int) float64 {
	if b >= len(d.Nu) {
		return 0
	}
	return d.Nu[b]
}

// Assemble builds the mass, raw-damping, and raw-stiffness matrices plus the
// complex forcing for the given omega grid.  Every matrix entry is a fixed
// linear combination of the input parameters; the call cannot fail for
// well-formed inputs.
func Assemble(main MainParams, dva DVAParams, omega []float64) *SystemMatrices {
	sys := &SystemMatrices{
		M: mat.NewDense(NumDOF, NumDOF, nil),
		C: mat.NewDense(NumDOF, NumDOF, nil),
		K: mat.NewDense(NumDOF, NumDOF, nil),
	}

	// primary masses
	sys.M.Set(0, 0, 1)
	sys.M.Set(1, 1, main.Mu)
	for i, br := range mainBranches {
		addCoupling(sys.K, br, main.Lambda[i])
		addCoupling(sys.C, br, main.Nu[i])
	}

	// absorbers
	for j := 0; j < 3; j++ {
		d := 2 + j
		sys.M.Set(d, d, sys.M.At(d, d)+dva.Mu[j])
	}
	for b := 0; b < 15; b++ {
		br := dvaBranch(b)
		addCoupling(sys.M, br, dva.Beta[b])
		addCoupling(sys.K, br, dva.Lambda[b])
		addCoupling(sys.C, br, nuAt(dva, b))
	}

	sys.F = forcing(main, dva, omega)
	return sys
}

// forcing builds the 5xN complex forcing matrix.  Each base-attached branch
// transmits the base motion through its spring, damper, and inerter:
//
//	(lambda + i*2*zeta*omega*nu + omega^2*beta) * A
//
// and the primary masses additionally carry the direct force amplitudes F1
// and F2.
func forcing(main MainParams, dva DVAParams, omega []float64) [][]complex128 {
	f := make([][]complex128, NumDOF)
	for i := range f {
		f[i] = make([]complex128, len(omega))
	}

	type baseTerm struct {
		dof     int
		amp     float64
		k, c, b float64
	}
	var terms []baseTerm

	baseAmp := func(q int) float64 {
		if q == baseLow {
			return main.ALow
		}
		return main.AUpp
	}

	for i, br := range mainBranches {
		if br.q < 0 {
			terms = append(terms, baseTerm{br.p, baseAmp(br.q), main.Lambda[i], main.Nu[i], 0})
		}
	}
	for b := 0; b < 15; b++ {
		br := dvaBranch(b)
		if br.q < 0 {
			terms = append(terms, baseTerm{br.p, baseAmp(br.q), dva.Lambda[b], nuAt(dva, b), dva.Beta[b]})
		}
	}

	for n, w := range omega {
		f[0][n] = complex(main.F1, 0)
		f[1][n] = complex(main.F2, 0)
		for _, t := range terms {
			re := (t.k + w*w*t.b) * t.amp
			im := 2 * main.ZetaDC * w * t.c * t.amp
			f[t.dof][n] += complex(re, im)
		}
	}
	return f
}
