// Package swarm implements particle swarm optimization over box-bounded
// real vectors.  Particles carry velocity and a personal best; the swarm
// shares one global best.  One Iterate call evaluates the swarm at its
// current positions and then moves every particle.
package swarm

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/mahan2079/devana"
	"github.com/mahan2079/devana/mesh"
)

// The defaults follow the placement optimizer's tuning: fixed inertia with
// equal cognition and social factors.
const (
	DefaultCognition = 1.4
	DefaultSocial    = 1.4
	DefaultInertia   = 0.7
)

const (
	// TblParticles is the name of the sql database table that receives
	// particle positions and values for each iteration.
	TblParticles = "swarmparticles"
	// TblBest is the name of the sql database table that receives the best
	// position for the entire swarm at each iteration.
	TblBest = "swarmbest"
)

// Constriction calculates the constriction coefficient for the given c1 and
// c2 in the velocity equation
//
//	v_next = k*(v_curr + c1*rand*(p_personal-x) + c2*rand*(p_glob-x))
//
// c1+c2 should usually be greater than (but close to) 4.  See Clerc,
// "The swarm and the queen: towards a deterministic and adaptive particle
// swarm optimization", Proc. 1999 Congress on Evolutionary Computation.
func Constriction(c1, c2 float64) float64 {
	phi := c1 + c2
	return 2 / math.Abs(2-phi-math.Sqrt(phi*phi-4*phi))
}

type Particle struct {
	Id int
	devana.Point
	Vel  []float64
	Best devana.Point
}

func (p *Particle) Move(gbest devana.Point, vmax []float64, inertia, social, cognition float64) {
	// r1 and r2 are drawn separately for every dimension of the velocity.
	for i, currv := range p.Vel {
		r1 := devana.RandFloat()
		r2 := devana.RandFloat()
		p.Vel[i] = inertia*currv +
			cognition*r1*(p.Best.At(i)-p.At(i)) +
			social*r2*(gbest.At(i)-p.At(i))
		if math.Abs(p.Vel[i]) > vmax[i] {
			p.Vel[i] = math.Copysign(vmax[i], p.Vel[i])
		}
	}

	pos := make([]float64, p.Len())
	for i := range pos {
		pos[i] = p.At(i) + p.Vel[i]
	}
	p.Point = devana.NewPoint(pos, math.Inf(1))
}

// Kill reports whether the particle is both slow and close to the global
// best - such particles contribute nothing and can be removed.
func (p *Particle) Kill(gbest devana.Point, xtol, vtol float64) bool {
	if xtol == 0 || vtol == 0 {
		return false
	}

	totv := 0.0
	diffx := 0.0
	for i, v := range p.Vel {
		totv += v * v
		d := p.At(i) - gbest.At(i)
		diffx += d * d
	}
	return (totv < vtol*vtol) && (diffx < xtol*xtol)
}

func (p *Particle) Update(newp devana.Point) {
	// keep p's own (possibly projected) position; only the value and the
	// personal best move
	p.Val = newp.Val
	if p.Val < p.Best.Val {
		p.Best = newp
	}
}

type Population []*Particle

// NewPopulation initializes a swarm at the given points with zero initial
// velocities - particles start moving on the second iteration, once every
// starting position has been evaluated.
func NewPopulation(points []devana.Point) Population {
	pop := make(Population, len(points))
	for i, p := range points {
		pop[i] = &Particle{
			Id:    i,
			Point: p,
			Best:  devana.NewPoint(p.Pos(), math.Inf(1)),
			Vel:   make([]float64, p.Len()),
		}
	}
	return pop
}

// NewPopulationRand creates a swarm of n random particles inside the box
// bounds described by low and up.
func NewPopulationRand(n int, low, up []float64) Population {
	return NewPopulation(devana.RandPop(n, low, up))
}

func (pop Population) Points() []devana.Point {
	points := make([]devana.Point, 0, len(pop))
	for _, p := range pop {
		points = append(points, p.Point)
	}
	return points
}

func (pop Population) Best() *Particle {
	if len(pop) == 0 {
		return nil
	}

	best := pop[0]
	for _, p := range pop[1:] {
		if p.Best.Val < best.Best.Val {
			best = p
		}
	}
	return best
}

type Option func(*Iterator)

func Vmax(vmaxes []float64) Option {
	return func(it *Iterator) { it.Vmax = vmaxes }
}

// VmaxBounds limits particle speed per dimension to the bounded range of
// the problem.
func VmaxBounds(low, up []float64) Option {
	return func(it *Iterator) {
		vmax := make([]float64, len(low))
		for i := range vmax {
			vmax[i] = up[i] - low[i]
		}
		it.Vmax = vmax
	}
}

func DB(db *sql.DB) Option {
	return func(it *Iterator) { it.Db = db }
}

func KillTol(xtol, vtol float64) Option {
	return func(it *Iterator) {
		it.Xtol = xtol
		it.Vtol = vtol
	}
}

func LearnFactors(cognition, social float64) Option {
	return func(it *Iterator) {
		it.Cognition = cognition
		it.Social = social
	}
}

// LinInertia varies inertia linearly from start (high) down to end over
// maxiter iterations.
func LinInertia(start, end float64, maxiter int) Option {
	return func(it *Iterator) {
		it.InertiaFn = func(iter int) float64 {
			return start - (start-end)*float64(iter)/float64(maxiter)
		}
	}
}

func FixedInertia(v float64) Option {
	return func(it *Iterator) {
		it.InertiaFn = func(iter int) float64 { return v }
	}
}

type Iterator struct {
	// Xtol and Vtol are the distance-from-best and speed thresholds under
	// which a particle is removed.  Both must hold simultaneously; zero
	// disables removal.
	Xtol float64
	Vtol float64
	Pop  Population
	devana.Evaler
	Cognition float64
	Social    float64
	InertiaFn func(iter int) float64
	// Vmax is the speed limit per dimension.  If nil, infinity is used.
	Vmax  []float64
	Db    *sql.DB
	count int
	best  devana.Point
}

func NewIterator(e devana.Evaler, pop Population, opts ...Option) *Iterator {
	if e == nil {
		e = devana.SerialEvaler{ContinueOnErr: true}
	}

	vmax := make([]float64, pop[0].Len())
	for i := range vmax {
		vmax[i] = math.Inf(1)
	}

	it := &Iterator{
		Pop:       pop,
		Evaler:    e,
		Cognition: DefaultCognition,
		Social:    DefaultSocial,
		InertiaFn: func(iter int) float64 { return DefaultInertia },
		Vmax:      vmax,
		best:      devana.Point{Val: math.Inf(1)},
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

func (it *Iterator) Iterate(obj devana.Objectiver, m mesh.Mesh) (best devana.Point, neval int, err error) {
	it.count++

	// project positions onto the mesh before evaluating
	points := it.Pop.Points()
	if m != nil {
		for i, p := range points {
			points[i] = devana.Nearest(p, m)
		}
	}

	results, n, err := it.Evaler.Eval(obj, points...)
	if err != nil {
		return devana.Point{Val: math.Inf(1)}, n, err
	}
	for i := range results {
		it.Pop[i].Update(results[i])
	}

	pbest := it.Pop.Best()
	if pbest != nil && pbest.Best.Val < it.best.Val {
		it.best = pbest.Best
	}
	it.updateDb()

	for _, p := range it.Pop {
		p.Move(it.best, it.Vmax, it.InertiaFn(it.count), it.Social, it.Cognition)
	}

	// Drop converged particles.  This must happen after the global best has
	// been updated.
	alive := it.Pop[:0]
	for _, p := range it.Pop {
		if !p.Kill(it.best, it.Xtol, it.Vtol) {
			alive = append(alive, p)
		}
	}
	it.Pop = alive

	return it.best, n, nil
}

func (it *Iterator) initdb() {
	if it.Db == nil {
		return
	}

	s := "CREATE TABLE IF NOT EXISTS " + TblParticles + " (particle INTEGER, iter INTEGER, val REAL"
	s += it.xdbsql("define")
	s += ");"
	_, err := it.Db.Exec(s)
	panicif(err)

	s = "CREATE TABLE IF NOT EXISTS " + TblBest + " (iter INTEGER, val REAL"
	s += it.xdbsql("define")
	s += ");"
	_, err = it.Db.Exec(s)
	panicif(err)
}

func (it *Iterator) xdbsql(op string) string {
	s := ""
	for i := range it.Pop[0].Pos() {
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
	if it.Db == nil || len(it.Pop) == 0 {
		return
	}

	tx, err := it.Db.Begin()
	panicif(err)
	defer tx.Commit()

	s1 := "INSERT INTO " + TblParticles + " (particle,iter,val" + it.xdbsql("x") + ") VALUES (?,?,?" + it.xdbsql("?") + ");"
	for _, p := range it.Pop {
		args := []interface{}{p.Id, it.count, p.Val}
		args = append(args, pos2iface(p.Pos())...)
		_, err := tx.Exec(s1, args...)
		panicif(err)
	}

	s2 := "INSERT INTO " + TblBest + " (iter,val" + it.xdbsql("x") + ") VALUES (?,?" + it.xdbsql("?") + ");"
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
