// Package devana provides the shared machinery for the derivative-free
// optimizers in this repository: candidate points, objective evaluation, and
// the single-iteration solver interface implemented by the ga, de, and swarm
// packages.
package devana

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mahan2079/devana/mesh"
)

// Point is an immutable candidate solution: a position in parameter space
// together with its objective value.
type Point struct {
	pos []float64
	Val float64
}

func NewPoint(pos []float64, val float64) Point {
	cpos := make([]float64, len(pos))
	copy(cpos, pos)
	return Point{pos: cpos, Val: val}
}

func (p Point) At(i int) float64 { return p.pos[i] }

func (p Point) Len() int { return len(p.pos) }

func (p Point) Pos() []float64 {
	pos := make([]float64, len(p.pos))
	copy(pos, p.pos)
	return pos
}

// Hash returns a digest of the point's position, ignoring its value.  Points
// at identical positions hash identically.
func (p Point) Hash() [sha1.Size]byte {
	data := make([]byte, p.Len()*8)
	for i := 0; i < p.Len(); i++ {
		binary.BigEndian.PutUint64(data[i*8:], math.Float64bits(p.At(i)))
	}
	return sha1.Sum(data)
}

func L2Dist(p1, p2 Point) float64 {
	tot := 0.0
	for i := 0; i < p1.Len(); i++ {
		diff := p1.At(i) - p2.At(i)
		tot += diff * diff
	}
	return math.Sqrt(tot)
}

type Iterator interface {
	// Iterate runs a single iteration of a solver and reports the number of
	// function evaluations n and the best point.
	Iterate(obj Objectiver, m mesh.Mesh) (best Point, n int, err error)

	// AddPoint injects an externally discovered point (e.g. a known good
	// solution) into the iterator's state before the next iteration.
	AddPoint(p Point)
}

type Evaler interface {
	// Eval evaluates each point using obj and returns the values and number
	// of function evaluations n.  Unevaluated points should not be returned
	// in the results slice.
	Eval(obj Objectiver, points ...Point) (results []Point, n int, err error)
}

type Objectiver interface {
	// Objective evaluates the variables in v and returns the objective
	// function value.  The objective function must be framed so that lower
	// values are better.  If the evaluation fails, positive infinity should
	// be returned along with an error.
	Objective(v []float64) (float64, error)
}

// CacheEvaler wraps an Evaler and memoizes objective values by position hash.
// The genetic algorithm frequently re-produces identical individuals (fixed
// genes, elitist copies); cached values avoid re-running the full frequency
// sweep for them.
type CacheEvaler struct {
	ev    Evaler
	cache map[[sha1.Size]byte]float64
	// UseCount reports how many evaluations were answered from the cache.
	UseCount int
}

func NewCacheEvaler(ev Evaler) *CacheEvaler {
	return &CacheEvaler{
		ev:    ev,
		cache: map[[sha1.Size]byte]float64{},
	}
}

func (ev *CacheEvaler) Eval(obj Objectiver, points ...Point) (results []Point, n int, err error) {
	fromnew := make([]int, 0, len(points))
	newp := make([]Point, 0, len(points))
	for i, p := range points {
		if val, ok := ev.cache[p.Hash()]; ok {
			points[i].Val = val
			ev.UseCount++
		} else {
			fromnew = append(fromnew, i)
			newp = append(newp, p)
		}
	}

	newresults, n, err := ev.ev.Eval(obj, newp...)
	for _, p := range newresults {
		ev.cache[p.Hash()] = p.Val
	}

	for i, p := range newresults {
		points[fromnew[i]].Val = p.Val
	}

	// shrink if error resulted in fewer new results being returned
	if len(newresults) < len(newp) {
		points = points[:fromnew[len(newresults)-1]+1]
	}

	return points, n, err
}

type SerialEvaler struct {
	ContinueOnErr bool
}

func (ev SerialEvaler) Eval(obj Objectiver, points ...Point) (results []Point, n int, err error) {
	results = make([]Point, 0, len(points))
	for _, p := range points {
		p.Val, err = obj.Objective(p.Pos())
		results = append(results, p)
		if err != nil && !ev.ContinueOnErr {
			return results, len(results), err
		}
	}
	return results, len(results), nil
}

// Func adapts an ordinary function into an Objectiver that never fails.
type Func func([]float64) float64

func (f Func) Objective(v []float64) (float64, error) { return f(v), nil }

// ObjectivePrinter wraps an Objectiver and prints every evaluation - handy
// for eyeballing a misbehaving optimization run.
type ObjectivePrinter struct {
	Objectiver
	Count int
}

func NewObjectivePrinter(obj Objectiver) *ObjectivePrinter {
	return &ObjectivePrinter{Objectiver: obj}
}

func (op *ObjectivePrinter) Objective(v []float64) (float64, error) {
	val, err := op.Objectiver.Objective(v)

	op.Count++
	fmt.Print(op.Count, " ")
	for _, x := range v {
		fmt.Print(x, " ")
	}
	fmt.Println("    ", val)

	return val, err
}

// Nearest returns p projected onto m with its value reset to +infinity if
// the projection moved the point.
func Nearest(p Point, m mesh.Mesh) Point {
	pos := m.Nearest(p.Pos())
	q := NewPoint(pos, p.Val)
	if L2Dist(p, q) > 0 {
		q.Val = math.Inf(1)
	}
	return q
}
