// Package de implements DE/rand/1/bin differential evolution over
// box-bounded real vectors.  One Iterate call runs one generation: each
// population member is challenged by a trial vector built from three
// distinct peers, and the trial replaces its target whenever it is at least
// as good (greedy replacement).
package de

import (
	"math"

	"github.com/mahan2079/devana"
	"github.com/mahan2079/devana/mesh"
)

const (
	// DefaultF is the differential weight applied to the donor difference
	// vector.
	DefaultF = 0.7
	// DefaultCR is the binomial crossover rate.
	DefaultCR = 0.9
)

type Option func(*Iterator)

func Weight(f float64) Option {
	return func(it *Iterator) { it.F = f }
}

func CrossRate(cr float64) Option {
	return func(it *Iterator) { it.CR = cr }
}

type Iterator struct {
	Pop []devana.Point
	devana.Evaler
	F  float64
	CR float64

	count int
	best  devana.Point
}

func NewIterator(e devana.Evaler, pop []devana.Point, opts ...Option) *Iterator {
	if e == nil {
		e = devana.SerialEvaler{ContinueOnErr: true}
	}
	if len(pop) < 4 {
		panic("de needs a population of at least 4")
	}

	it := &Iterator{
		Pop:    pop,
		Evaler: e,
		F:      DefaultF,
		CR:     DefaultCR,
		best:   devana.Point{Val: math.Inf(1)},
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

func (it *Iterator) AddPoint(p devana.Point) {
	if p.Val < it.best.Val {
		it.best = p
	}
}

func (it *Iterator) Iterate(obj devana.Objectiver, m mesh.Mesh) (best devana.Point, neval int, err error) {
	it.count++

	// seed evaluation of the initial population
	n, err := it.evalFresh(obj, m)
	neval += n
	if err != nil {
		return devana.Point{Val: math.Inf(1)}, neval, err
	}

	trials := make([]devana.Point, len(it.Pop))
	for i := range it.Pop {
		trials[i] = it.trial(i, m)
	}

	results, n, err := it.Evaler.Eval(obj, trials...)
	neval += n
	if err != nil {
		return devana.Point{Val: math.Inf(1)}, neval, err
	}

	for i, tr := range results {
		if tr.Val <= it.Pop[i].Val {
			it.Pop[i] = tr
		}
	}

	for _, p := range it.Pop {
		if p.Val < it.best.Val {
			it.best = p
		}
	}
	return it.best, neval, nil
}

// trial builds the mutant a + F*(b-c) from three peers distinct from each
// other and from target i, then binomially crosses it with the target.  At
// least one gene always comes from the mutant.
func (it *Iterator) trial(i int, m mesh.Mesh) devana.Point {
	a, b, c := it.pickPeers(i)
	target := it.Pop[i]

	ndim := target.Len()
	pos := target.Pos()
	forced := devana.Rand.Intn(ndim)
	for g := 0; g < ndim; g++ {
		if g == forced || devana.RandFloat() < it.CR {
			pos[g] = a.At(g) + it.F*(b.At(g)-c.At(g))
		}
	}

	p := devana.NewPoint(pos, math.Inf(1))
	if m != nil {
		p = devana.Nearest(p, m)
	}
	return p
}

func (it *Iterator) pickPeers(i int) (a, b, c devana.Point) {
	n := len(it.Pop)
	idx := make([]int, 0, 3)
	for len(idx) < 3 {
		r := devana.Rand.Intn(n)
		if r == i {
			continue
		}
		dup := false
		for _, v := range idx {
			if v == r {
				dup = true
				break
			}
		}
		if !dup {
			idx = append(idx, r)
		}
	}
	return it.Pop[idx[0]], it.Pop[idx[1]], it.Pop[idx[2]]
}

func (it *Iterator) evalFresh(obj devana.Objectiver, m mesh.Mesh) (neval int, err error) {
	var stale []int
	var points []devana.Point
	for i, p := range it.Pop {
		if math.IsInf(p.Val, 1) {
			if m != nil {
				p = devana.Nearest(p, m)
			}
			stale = append(stale, i)
			points = append(points, p)
		}
	}
	if len(points) == 0 {
		return 0, nil
	}

	results, n, err := it.Evaler.Eval(obj, points...)
	if err != nil {
		return n, err
	}
	for i, p := range results {
		it.Pop[stale[i]] = p
	}
	return n, nil
}
