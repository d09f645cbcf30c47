// Package ga implements a generational genetic algorithm over real-valued,
// box-bounded design vectors.  Selection is tournament, crossover is blend,
// and mutation perturbs genes by a fraction of their bound range; every
// genetic operation is followed by a clamp back into bounds, which also
// pins fixed parameters (bounds with lower == upper).  One call to Iterate
// runs one generation.
package ga

import (
	"database/sql"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/mahan2079/devana"
	"github.com/mahan2079/devana/mesh"
)

const (
	DefaultTournSize   = 3
	DefaultCxPb        = 0.7
	DefaultMutPb       = 0.2
	DefaultIndPb       = 0.1
	DefaultBlendAlpha  = 0.5
	DefaultPerturbFrac = 0.1
)

const (
	// TblIndivs is the name of the sql database table that receives every
	// individual's genome and fitness for each generation.
	TblIndivs = "gaindivs"
	// TblBest is the name of the sql database table that receives the best
	// point at each generation.
	TblBest = "gabest"
)

type Option func(*Iterator)

func Tournament(size int) Option {
	return func(it *Iterator) { it.TournSize = size }
}

func Crossover(cxpb, alpha float64) Option {
	return func(it *Iterator) {
		it.CxPb = cxpb
		it.BlendAlpha = alpha
	}
}

func Mutation(mutpb, indpb, perturbFrac float64) Option {
	return func(it *Iterator) {
		it.MutPb = mutpb
		it.IndPb = indpb
		it.PerturbFrac = perturbFrac
	}
}

func DB(db *sql.DB) Option {
	return func(it *Iterator) { it.Db = db }
}

// AdaptiveRates alternates exploration and exploitation phases: after
// stagnationLimit generations without improvement of the running best, the
// mutation and crossover probabilities jump to the loose-mutation or
// tight-crossover ends of their configured ranges and back.
func AdaptiveRates(stagnationLimit int, cxMin, cxMax, mutMin, mutMax float64) Option {
	return func(it *Iterator) {
		it.StagnationLimit = stagnationLimit
		it.cxMin, it.cxMax = cxMin, cxMax
		it.mutMin, it.mutMax = mutMin, mutMax
	}
}

// Stats summarizes one generation's fitness distribution.  Std is the
// population standard deviation sqrt(E[x^2]-E[x]^2).
type Stats struct {
	Min  float64
	Max  float64
	Mean float64
	Std  float64
}

type Iterator struct {
	Pop []devana.Point
	devana.Evaler
	TournSize   int
	CxPb        float64
	MutPb       float64
	IndPb       float64
	BlendAlpha  float64
	PerturbFrac float64
	// StagnationLimit enables adaptive rate control when positive.
	StagnationLimit int
	Db              *sql.DB

	low, up        []float64
	cxMin, cxMax   float64
	mutMin, mutMax float64
	exploring      bool
	stagnant       int

	count int
	best  devana.Point
	stats Stats
}

// NewIterator builds a GA iterator over the box bounds low/up.  The initial
// population pop is evaluated lazily on the first Iterate call.  If e is
// nil, a SerialEvaler is used - fitness evaluation is deliberately not
// fanned out.
func NewIterator(e devana.Evaler, pop []devana.Point, low, up []float64, opts ...Option) *Iterator {
	if e == nil {
		e = devana.SerialEvaler{ContinueOnErr: true}
	}
	if len(low) != len(up) {
		panic("ga bound vectors have different lengths")
	}

	it := &Iterator{
		Pop:         pop,
		Evaler:      e,
		TournSize:   DefaultTournSize,
		CxPb:        DefaultCxPb,
		MutPb:       DefaultMutPb,
		IndPb:       DefaultIndPb,
		BlendAlpha:  DefaultBlendAlpha,
		PerturbFrac: DefaultPerturbFrac,
		low:         append([]float64{}, low...),
		up:          append([]float64{}, up...),
		best:        devana.Point{Val: math.Inf(1)},
	}

	for _, opt := range opts {
		opt(it)
	}
	it.initdb()
	return it
}

func (it *Iterator) AddPoint(p devana.Point) {
	if p.Val < it.best.Val {
		it.best = p
	}
}

// Stats returns the fitness statistics of the most recent generation.
func (it *Iterator) Stats() Stats { return it.stats }

// Generation returns how many generations have been run.
func (it *Iterator) Generation() int { return it.count }

// Rates returns the current crossover and mutation probabilities (they move
// under adaptive rate control).
func (it *Iterator) Rates() (cxpb, mutpb float64) { return it.CxPb, it.MutPb }

func (it *Iterator) Iterate(obj devana.Objectiver, m mesh.Mesh) (best devana.Point, neval int, err error) {
	it.count++

	// evaluate whatever is stale - on the first generation that is the whole
	// initial population
	n, err := it.evalInvalid(obj, m)
	neval += n
	if err != nil {
		return devana.Point{Val: math.Inf(1)}, neval, err
	}

	offspring := it.selectTournament()
	it.crossover(offspring)
	it.mutate(offspring)
	for i, p := range offspring {
		offspring[i] = it.clamp(p, m)
	}
	it.Pop = offspring

	n, err = it.evalInvalid(obj, m)
	neval += n
	if err != nil {
		return devana.Point{Val: math.Inf(1)}, neval, err
	}

	improved := false
	for _, p := range it.Pop {
		if p.Val < it.best.Val {
			it.best = p
			improved = true
		}
	}
	it.adaptRates(improved)
	it.stats = computeStats(it.Pop)
	it.updateDb()

	return it.best, neval, nil
}

// evalInvalid evaluates every population member whose value is +infinity.
func (it *Iterator) evalInvalid(obj devana.Objectiver, m mesh.Mesh) (neval int, err error) {
	var stale []int
	var points []devana.Point
	for i, p := range it.Pop {
		if math.IsInf(p.Val, 1) {
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

func (it *Iterator) selectTournament() []devana.Point {
	out := make([]devana.Point, len(it.Pop))
	for i := range out {
		best := it.Pop[devana.Rand.Intn(len(it.Pop))]
		for k := 1; k < it.TournSize; k++ {
			if c := it.Pop[devana.Rand.Intn(len(it.Pop))]; c.Val < best.Val {
				best = c
			}
		}
		out[i] = best
	}
	return out
}

// crossover blends consecutive pairs in place with probability CxPb per
// pair.  Blended children get their values invalidated.
func (it *Iterator) crossover(pop []devana.Point) {
	for i := 0; i+1 < len(pop); i += 2 {
		if devana.RandFloat() >= it.CxPb {
			continue
		}
		a, b := pop[i].Pos(), pop[i+1].Pos()
		for g := range a {
			gamma := (1+2*it.BlendAlpha)*devana.RandFloat() - it.BlendAlpha
			x, y := a[g], b[g]
			a[g] = (1-gamma)*x + gamma*y
			b[g] = gamma*x + (1-gamma)*y
		}
		pop[i] = devana.NewPoint(a, math.Inf(1))
		pop[i+1] = devana.NewPoint(b, math.Inf(1))
	}
}

// mutate perturbs individuals with probability MutPb; inside a mutating
// individual each gene moves with probability IndPb by up to
// PerturbFrac*(up-low) in either direction.  Fixed genes have zero range
// and cannot move.
func (it *Iterator) mutate(pop []devana.Point) {
	for i, p := range pop {
		if devana.RandFloat() >= it.MutPb {
			continue
		}
		pos := p.Pos()
		touched := false
		for g := range pos {
			if devana.RandFloat() >= it.IndPb {
				continue
			}
			span := it.PerturbFrac * (it.up[g] - it.low[g])
			pos[g] += span * (2*devana.RandFloat() - 1)
			touched = true
		}
		if touched {
			pop[i] = devana.NewPoint(pos, math.Inf(1))
		}
	}
}

// clamp forces p back inside bounds and, when a mesh is supplied, onto the
// mesh grid.  Clamping a moved point invalidates its value.
func (it *Iterator) clamp(p devana.Point, m mesh.Mesh) devana.Point {
	pos := p.Pos()
	moved := false
	for g := range pos {
		v := math.Max(it.low[g], math.Min(it.up[g], pos[g]))
		if v != pos[g] {
			pos[g] = v
			moved = true
		}
	}
	q := devana.NewPoint(pos, p.Val)
	if moved {
		q = devana.NewPoint(pos, math.Inf(1))
	}
	if m != nil {
		q = devana.Nearest(q, m)
	}
	return q
}

func (it *Iterator) adaptRates(improved bool) {
	if it.StagnationLimit <= 0 {
		return
	}
	if improved {
		it.stagnant = 0
		return
	}
	it.stagnant++
	if it.stagnant < it.StagnationLimit {
		return
	}
	it.stagnant = 0
	it.exploring = !it.exploring
	if it.exploring {
		it.MutPb = it.mutMax
		it.CxPb = it.cxMin
	} else {
		it.MutPb = it.mutMin
		it.CxPb = it.cxMax
	}
}

func computeStats(pop []devana.Point) Stats {
	vals := make([]float64, len(pop))
	sumsq := 0.0
	for i, p := range pop {
		vals[i] = p.Val
		sumsq += p.Val * p.Val
	}
	n := float64(len(pop))
	mean := floats.Sum(vals) / n
	return Stats{
		Min:  floats.Min(vals),
		Max:  floats.Max(vals),
		Mean: mean,
		Std:  math.Sqrt(math.Max(0, sumsq/n-mean*mean)),
	}
}

func (it *Iterator) initdb() {
	if it.Db == nil {
		return
	}

	s := "CREATE TABLE IF NOT EXISTS " + TblIndivs + " (indiv INTEGER, gen INTEGER, val REAL"
	s += it.xdbsql("define")
	s += ");"
	_, err := it.Db.Exec(s)
	panicif(err)

	s = "CREATE TABLE IF NOT EXISTS " + TblBest + " (gen INTEGER, val REAL"
	s += it.xdbsql("define")
	s += ");"
	_, err = it.Db.Exec(s)
	panicif(err)
}

func (it *Iterator) xdbsql(op string) string {
	s := ""
	for i := range it.low {
		if op == "?" {
			s += ",?"
		} else if op == "define" {
			s += fmt.Sprintf(",x%v REAL", i)
		} else if op == "x" {
			s += fmt.Sprintf(",x%v", i)
		} else {
			panic("invalid db op " + op)
		}
	}
	return s
}

func (it *Iterator) updateDb() {
	if it.Db == nil {
		return
	}

	tx, err := it.Db.Begin()
	panicif(err)
	defer tx.Commit()

	s1 := "INSERT INTO " + TblIndivs + " (indiv,gen,val" + it.xdbsql("x") + ") VALUES (?,?,?" + it.xdbsql("?") + ");"
	for i, p := range it.Pop {
		args := []interface{}{i, it.count, p.Val}
		args = append(args, pos2iface(p.Pos())...)
		_, err := tx.Exec(s1, args...)
		panicif(err)
	}

	s2 := "INSERT INTO " + TblBest + " (gen,val" + it.xdbsql("x") + ") VALUES (?,?" + it.xdbsql("?") + ");"
	args := []interface{}{it.count, it.best.Val}
	args = append(args, pos2iface(it.best.Pos())...)
	_, err = tx.Exec(s2, args...)
	panicif(err)
}

func pos2iface(pos []float64) []interface{} {
	iface := []interface{}{}
	for _, v := range pos {
		iface = append(iface, v)
	}
	return iface
}

func panicif(err error) {
	if err != nil {
		panic(err.Error())
	}
}
