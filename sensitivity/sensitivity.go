// Package sensitivity defines the boundary to an external variance-based
// sensitivity analysis engine.  The engine itself (sampling plans, index
// estimators) is not implemented here; this package provides the typed
// request/result surface and the objective evaluator such an engine drives.
package sensitivity

import (
	"context"
	"fmt"

	"github.com/mahan2079/devana/frf"
)

// EvalPenalty is the objective value substituted for parameter vectors
// whose sweep fails to solve.
const EvalPenalty = 1e6

// Request describes one sensitivity study over the DVA parameter space.
type Request struct {
	Main frf.MainParams

	// Order fixes the parameter ordering of every sample vector and of the
	// S1/ST outputs.  It must name each DVA parameter exactly once.
	Order []string

	// Bounds maps parameter name to its sampling range.
	Bounds map[string][2]float64

	Sweep frf.Sweep
	Goals map[int]frf.Goals

	// SampleSizes lists the base sample counts to analyze at, smallest
	// first.  Index convergence is judged by comparing across sizes.
	SampleSizes []int

	// Jobs is a parallelism hint for the engine.  Zero means sequential.
	Jobs int
}

// Validate checks the request shape before any engine work starts.
func (req *Request) Validate() error {
	if len(req.Order) != frf.NumDVAParams {
		return fmt.Errorf("parameter order has %v names, expected %v", len(req.Order), frf.NumDVAParams)
	}
	known := map[string]bool{}
	for _, name := range frf.ParamNames() {
		known[name] = true
	}
	seen := map[string]bool{}
	for _, name := range req.Order {
		if !known[name] {
			return fmt.Errorf("unknown parameter %q", name)
		}
		if seen[name] {
			return fmt.Errorf("parameter %q listed twice", name)
		}
		seen[name] = true
		b, ok := req.Bounds[name]
		if !ok {
			return fmt.Errorf("no bounds for parameter %q", name)
		}
		if b[0] > b[1] {
			return fmt.Errorf("parameter %q has inverted bounds [%v,%v]", name, b[0], b[1])
		}
	}
	if len(req.SampleSizes) == 0 {
		return fmt.Errorf("no sample sizes given")
	}
	for _, n := range req.SampleSizes {
		if n < 1 {
			return fmt.Errorf("sample size %v is not positive", n)
		}
	}
	return nil
}

// LowUp resolves the bounds into vectors ordered like Order.
func (req *Request) LowUp() (low, up []float64, err error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	low = make([]float64, len(req.Order))
	up = make([]float64, len(req.Order))
	for i, name := range req.Order {
		b := req.Bounds[name]
		low[i], up[i] = b[0], b[1]
	}
	return low, up, nil
}

// Result holds the output of one analysis at a single sample count: the
// sample matrix that was evaluated and the first-order and total-order
// index per parameter, ordered like Request.Order.
type Result struct {
	Samples [][]float64 `json:"samples"`
	S1      []float64   `json:"S1"`
	ST      []float64   `json:"ST"`
}

// Analyzer is the external engine.  It returns one Result per requested
// sample size plus any non-fatal warnings it accumulated (for example
// negative index estimates at small sample counts).
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (map[int]Result, []string, error)
}

// Evaluator maps a DVA parameter vector to the scalar the sensitivity
// indices are computed over: the singular response of the sweep.
type Evaluator struct {
	Main  frf.MainParams
	Sweep frf.Sweep
	Goals map[int]frf.Goals
}

// Evaluate never fails: vectors whose sweep cannot be solved score
// EvalPenalty so a sampling plan survives degenerate corners of the space.
func (e Evaluator) Evaluate(v []float64) float64 {
	dva, err := frf.DVAFromSlice(v)
	if err != nil {
		return EvalPenalty
	}
	res, err := frf.Solve(e.Main, dva, e.Sweep, e.Goals)
	if err != nil {
		return EvalPenalty
	}
	return res.SingularResponse
}
