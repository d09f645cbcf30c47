package beam

import (
	"errors"
	"fmt"
	"math"

	"github.com/mahan2079/devana"
	"github.com/mahan2079/devana/de"
	"github.com/mahan2079/devana/mesh"
	"github.com/mahan2079/devana/swarm"
)

// Bounds is an inclusive search range for one class of decision variable.
type Bounds struct {
	Low float64
	Up  float64
}

func (b Bounds) check(name string) error {
	if b.Low > b.Up {
		return fmt.Errorf("%v bounds are inverted: [%v,%v]", name, b.Low, b.Up)
	}
	return nil
}

// ValuesConfig drives OptimizeValues: spring and damper magnitudes are
// searched while their locations stay fixed at the leading candidate
// positions.
type ValuesConfig struct {
	Candidates []float64
	NumSprings int
	NumDampers int
	Targets    []TargetSpec
	Omega      []float64
	Load       PointLoad
	KBounds    Bounds
	CBounds    Bounds
	MaxIters   int
	Population int
}

type ValuesResult struct {
	KPoints       []Attachment
	CPoints       []Attachment
	BestObjective float64
	History       []float64
}

// PlacementConfig drives OptimizePlacement: both positions and magnitudes
// of springs and dampers are free.
type PlacementConfig struct {
	NumSprings int
	NumDampers int
	Targets    []TargetSpec
	Omega      []float64
	Load       PointLoad
	XBounds    Bounds
	KBounds    Bounds
	CBounds    Bounds
	MaxIters   int
	Population int
}

type PlacementResult struct {
	Springs       []Attachment
	Dampers       []Attachment
	BestObjective float64
	History       []float64
}

// OptimizeValues searches spring and damper magnitudes at fixed candidate
// locations with differential evolution.  History records the running best
// objective per iteration.
func OptimizeValues(mdl *Model, cfg ValuesConfig) (*ValuesResult, error) {
	if cfg.NumSprings > len(cfg.Candidates) || cfg.NumDampers > len(cfg.Candidates) {
		return nil, fmt.Errorf("%v candidate locations cannot host %v springs and %v dampers",
			len(cfg.Candidates), cfg.NumSprings, cfg.NumDampers)
	}
	if cfg.Population < 4 {
		return nil, fmt.Errorf("population of %v is too small for differential evolution", cfg.Population)
	}
	if err := cfg.KBounds.check("spring"); err != nil {
		return nil, err
	}
	if err := cfg.CBounds.check("damper"); err != nil {
		return nil, err
	}

	ndim := cfg.NumSprings + cfg.NumDampers
	if ndim == 0 {
		return nil, errors.New("nothing to optimize: no springs and no dampers")
	}
	low := make([]float64, ndim)
	up := make([]float64, ndim)
	for i := 0; i < cfg.NumSprings; i++ {
		low[i], up[i] = cfg.KBounds.Low, cfg.KBounds.Up
	}
	for i := 0; i < cfg.NumDampers; i++ {
		low[cfg.NumSprings+i], up[cfg.NumSprings+i] = cfg.CBounds.Low, cfg.CBounds.Up
	}

	decode := func(v []float64) (springs, dampers []Attachment) {
		for i := 0; i < cfg.NumSprings; i++ {
			springs = append(springs, Attachment{X: cfg.Candidates[i], Value: v[i]})
		}
		for i := 0; i < cfg.NumDampers; i++ {
			dampers = append(dampers, Attachment{X: cfg.Candidates[i], Value: v[cfg.NumSprings+i]})
		}
		return springs, dampers
	}

	obj := mdl.objectiver(cfg.Targets, cfg.Omega, cfg.Load, decode)
	m := mesh.NewBox(low, up)
	it := de.NewIterator(nil, devana.RandPop(cfg.Population, low, up))

	best, history, err := drive(it, obj, m, cfg.MaxIters)
	if err != nil {
		return nil, err
	}

	springs, dampers := decode(best.Pos())
	return &ValuesResult{
		KPoints:       springs,
		CPoints:       dampers,
		BestObjective: best.Val,
		History:       history,
	}, nil
}

// OptimizePlacement searches positions and magnitudes jointly with a
// particle swarm.  Genome layout is spring positions, spring magnitudes,
// damper positions, damper magnitudes.
func OptimizePlacement(mdl *Model, cfg PlacementConfig) (*PlacementResult, error) {
	if cfg.Population < 2 {
		return nil, fmt.Errorf("population of %v is too small for a swarm", cfg.Population)
	}
	for _, b := range []struct {
		name string
		b    Bounds
	}{{"position", cfg.XBounds}, {"spring", cfg.KBounds}, {"damper", cfg.CBounds}} {
		if err := b.b.check(b.name); err != nil {
			return nil, err
		}
	}

	ns, nd := cfg.NumSprings, cfg.NumDampers
	ndim := 2 * (ns + nd)
	if ndim == 0 {
		return nil, errors.New("nothing to optimize: no springs and no dampers")
	}
	low := make([]float64, ndim)
	up := make([]float64, ndim)
	fill := func(off, n int, b Bounds) {
		for i := 0; i < n; i++ {
			low[off+i], up[off+i] = b.Low, b.Up
		}
	}
	fill(0, ns, cfg.XBounds)
	fill(ns, ns, cfg.KBounds)
	fill(2*ns, nd, cfg.XBounds)
	fill(2*ns+nd, nd, cfg.CBounds)

	decode := func(v []float64) (springs, dampers []Attachment) {
		for i := 0; i < ns; i++ {
			springs = append(springs, Attachment{X: v[i], Value: v[ns+i]})
		}
		for i := 0; i < nd; i++ {
			dampers = append(dampers, Attachment{X: v[2*ns+i], Value: v[2*ns+nd+i]})
		}
		return springs, dampers
	}

	obj := mdl.objectiver(cfg.Targets, cfg.Omega, cfg.Load, decode)
	m := mesh.NewBox(low, up)
	it := swarm.NewIterator(nil, swarm.NewPopulationRand(cfg.Population, low, up),
		swarm.VmaxBounds(low, up))

	best, history, err := drive(it, obj, m, cfg.MaxIters)
	if err != nil {
		return nil, err
	}

	springs, dampers := decode(best.Pos())
	return &PlacementResult{
		Springs:       springs,
		Dampers:       dampers,
		BestObjective: best.Val,
		History:       history,
	}, nil
}

// objectiver builds the shared objective: decode the genome into
// attachments, run the frequency sweep, and score it against the targets.
// A failed sweep scores +infinity instead of aborting the run.
func (mdl *Model) objectiver(targets []TargetSpec, omega []float64, load PointLoad, decode func([]float64) ([]Attachment, []Attachment)) devana.Objectiver {
	return devana.Func(func(v []float64) float64 {
		springs, dampers := decode(v)
		resp, err := mdl.FrequencyResponse(omega, springs, dampers, load)
		if err != nil {
			return math.Inf(1)
		}
		val, err := mdl.Objective(resp, targets)
		if err != nil {
			return math.Inf(1)
		}
		return val
	})
}

func drive(it devana.Iterator, obj devana.Objectiver, m mesh.Mesh, maxIters int) (devana.Point, []float64, error) {
	if maxIters < 1 {
		return devana.Point{}, nil, fmt.Errorf("need at least one iteration, got %v", maxIters)
	}

	best := devana.Point{Val: math.Inf(1)}
	history := make([]float64, 0, maxIters)
	for i := 0; i < maxIters; i++ {
		b, _, err := it.Iterate(obj, m)
		if err != nil {
			return devana.Point{}, nil, err
		}
		if b.Val < best.Val {
			best = b
		}
		history = append(history, best.Val)
	}
	if math.IsInf(best.Val, 1) {
		return devana.Point{}, nil, errors.New("every candidate failed to evaluate")
	}
	return best, history, nil
}
