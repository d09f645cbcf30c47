// Package frf computes frequency response functions of a five-DOF lumped
// mechanical system: two primary masses suspended between a pair of exciter
// bases, with up to three dynamic vibration absorbers coupled in.  A solve
// assembles the parameterized system matrices, strips degenerate DOFs, runs
// a sequential frequency sweep, and post-processes each surviving DOF's
// response into peak, bandwidth, slope, and area statistics that a composite
// scorer folds into a single scalar for optimization targeting.
package frf

// Result is the outcome of one full solve.  Masses is keyed 1..5 and holds
// entries only for the DOFs that survived reduction.
type Result struct {
	Omega            []float64           `json:"omega"`
	Masses           map[int]*MassResult `json:"masses"`
	Composite        map[int]float64     `json:"composite_measures"`
	SingularResponse float64             `json:"singular_response"`
}

// Solve runs the full pipeline for one parameter set.  goals maps mass
// number (1..5) to that mass's scoring criteria; masses reduced away are
// not scored.  The computation is a pure function of its inputs: identical
// calls produce identical results.
func Solve(main MainParams, dva DVAParams, sweep Sweep, goals map[int]Goals) (*Result, error) {
	omega, err := sweep.Omega()
	if err != nil {
		return nil, err
	}

	sys := Assemble(main, dva, omega)
	red, active, err := Reduce(sys, ZeroTol)
	if err != nil {
		return nil, err
	}

	resp, err := sweepSolve(red, main, omega)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Omega:  omega,
		Masses: make(map[int]*MassResult),
	}
	row := 0
	for dof := 0; dof < NumDOF; dof++ {
		if !active[dof] {
			continue
		}
		res.Masses[dof+1] = postProcess(resp[row], omega)
		row++
	}

	score(res, goals)
	return res, nil
}

// SolveBaseline computes the response of the bare primary system - all 47
// DVA parameters zero.  This is the "without DVA" reference the comparison
// feature is built on.
func SolveBaseline(main MainParams, sweep Sweep, goals map[int]Goals) (*Result, error) {
	return Solve(main, DVAParams{}, sweep, goals)
}
