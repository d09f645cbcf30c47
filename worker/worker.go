// Package worker runs DVA parameter optimizations end to end: it wraps the
// frequency sweep solver as a fitness function, drives the genetic
// algorithm generation by generation, and reports progress while it runs.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/mahan2079/devana"
	"github.com/mahan2079/devana/frf"
	"github.com/mahan2079/devana/ga"
	"github.com/mahan2079/devana/mesh"
)

// FailPenalty is the fitness assigned to a parameter vector whose sweep
// fails to solve.  One bad individual never aborts a run.
const FailPenalty = 1e6

// Config describes one optimization run.
type Config struct {
	Main  frf.MainParams
	Sweep frf.Sweep
	Goals map[int]frf.Goals

	// Params gives the search bounds per DVA parameter.  A parameter with
	// identical lower and upper bound is held fixed.
	Params []frf.ParamSpec

	PopSize     int
	Generations int
	CxPb        float64
	MutPb       float64

	// Tolerance stops the run early once the best fitness drops to or
	// below it.  Zero never stops early.
	Tolerance float64

	// SparsityAlpha weights the parameter-magnitude term of the fitness.
	SparsityAlpha float64

	// Seed, when nonzero, reseeds the shared random source at the start of
	// the run so results are reproducible.
	Seed int64

	// Adaptive enables stagnation-driven rate control.
	Adaptive        bool
	StagnationLimit int
	CxMin, CxMax    float64
	MutMin, MutMax  float64

	// DB, when set, receives per-generation population snapshots.
	DB *sql.DB

	Logger *zap.Logger
}

func (cfg *Config) validate() error {
	if len(cfg.Params) != frf.NumDVAParams {
		return fmt.Errorf("expected %v parameter specs, got %v", frf.NumDVAParams, len(cfg.Params))
	}
	if cfg.PopSize < 2 {
		return fmt.Errorf("population of %v is too small", cfg.PopSize)
	}
	if cfg.Generations < 1 {
		return fmt.Errorf("need at least one generation, got %v", cfg.Generations)
	}
	for _, p := range cfg.Params {
		if p.Low > p.Up {
			return fmt.Errorf("parameter %v has inverted bounds [%v,%v]", p.Name, p.Low, p.Up)
		}
	}
	return nil
}

// Progress is one per-generation report.
type Progress struct {
	Generation int
	Best       float64
	Stats      ga.Stats
}

// Outcome is the final product of a run: the best parameter vector found,
// its fitness, and the full sweep result re-solved at that vector.
type Outcome struct {
	Result         *frf.Result
	Best           frf.DVAParams
	BestVector     []float64
	ParameterNames []string
	BestFitness    float64
	Generations    int
	Evaluations    int
}

// Runner executes one optimization in a background goroutine.
type Runner struct {
	cfg      Config
	log      *zap.Logger
	progress chan Progress
	done     chan struct{}
	started  bool
	outcome  *Outcome
	err      error
}

func New(cfg Config) (*Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		log:      log,
		progress: make(chan Progress, cfg.Generations),
		done:     make(chan struct{}),
	}, nil
}

// Progress returns the channel of per-generation reports.  It is closed
// when the run finishes.  A slow consumer never blocks the run; reports it
// has no room for are dropped.
func (r *Runner) Progress() <-chan Progress { return r.progress }

// Start launches the run.  Cancel ctx to abort between generations.  A
// Runner runs exactly once.
func (r *Runner) Start(ctx context.Context) {
	if r.started {
		panic("worker: run already started")
	}
	r.started = true
	go func() {
		defer close(r.done)
		defer close(r.progress)
		r.outcome, r.err = r.run(ctx)
	}()
}

// Wait blocks until the run finishes and returns its outcome.
func (r *Runner) Wait() (*Outcome, error) {
	<-r.done
	return r.outcome, r.err
}

// Run is the blocking convenience wrapper around New/Start/Wait.
func Run(ctx context.Context, cfg Config) (*Outcome, error) {
	r, err := New(cfg)
	if err != nil {
		return nil, err
	}
	r.Start(ctx)
	return r.Wait()
}

func (r *Runner) run(ctx context.Context) (*Outcome, error) {
	cfg := r.cfg

	if cfg.Seed != 0 {
		devana.Rand = rand.New(rand.NewSource(cfg.Seed))
	}

	low := make([]float64, len(cfg.Params))
	up := make([]float64, len(cfg.Params))
	for i, p := range cfg.Params {
		low[i], up[i] = p.Low, p.Up
	}

	opts := []ga.Option{}
	if cfg.CxPb > 0 || cfg.MutPb > 0 {
		opts = append(opts,
			ga.Crossover(cfg.CxPb, ga.DefaultBlendAlpha),
			ga.Mutation(cfg.MutPb, ga.DefaultIndPb, ga.DefaultPerturbFrac),
		)
	}
	if cfg.Adaptive {
		opts = append(opts, ga.AdaptiveRates(cfg.StagnationLimit, cfg.CxMin, cfg.CxMax, cfg.MutMin, cfg.MutMax))
	}
	if cfg.DB != nil {
		opts = append(opts, ga.DB(cfg.DB))
	}

	ev := devana.NewCacheEvaler(devana.SerialEvaler{ContinueOnErr: true})
	it := ga.NewIterator(ev, devana.RandPop(cfg.PopSize, low, up), low, up, opts...)
	m := mesh.NewBox(low, up)
	obj := r.fitness()

	best := devana.Point{Val: math.Inf(1)}
	gens, evals := 0, 0
	for gen := 0; gen < cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b, n, err := it.Iterate(obj, m)
		evals += n
		gens++
		if err != nil {
			return nil, fmt.Errorf("generation %v: %w", gen, err)
		}
		best = b

		stats := it.Stats()
		r.log.Debug("generation done",
			zap.Int("generation", gen),
			zap.Float64("best", best.Val),
			zap.Float64("mean", stats.Mean),
			zap.Int("evals", evals),
		)
		select {
		case r.progress <- Progress{Generation: gen, Best: best.Val, Stats: stats}:
		default:
		}

		if cfg.Tolerance > 0 && best.Val <= cfg.Tolerance {
			r.log.Info("tolerance reached", zap.Int("generation", gen), zap.Float64("best", best.Val))
			break
		}
	}

	if math.IsInf(best.Val, 1) {
		return nil, fmt.Errorf("no individual ever evaluated successfully")
	}

	dva, err := frf.DVAFromSlice(best.Pos())
	if err != nil {
		return nil, err
	}
	// re-solve at the winner so the outcome carries the full sweep result,
	// not just a fitness number
	res, err := frf.Solve(cfg.Main, dva, cfg.Sweep, cfg.Goals)
	if err != nil {
		return nil, fmt.Errorf("re-solving best individual: %w", err)
	}

	r.log.Info("run finished",
		zap.Float64("fitness", best.Val),
		zap.Int("generations", gens),
		zap.Int("evaluations", evals),
		zap.Int("cache_hits", ev.UseCount),
	)

	return &Outcome{
		Result:         res,
		Best:           dva,
		BestVector:     best.Pos(),
		ParameterNames: frf.ParamNames(),
		BestFitness:    best.Val,
		Generations:    gens,
		Evaluations:    evals,
	}, nil
}

// fitness builds the GA objective: distance of the singular response from
// one, plus a sparsity term that prefers small parameter magnitudes.
func (r *Runner) fitness() devana.Objectiver {
	cfg := r.cfg
	return devana.Func(func(v []float64) float64 {
		dva, err := frf.DVAFromSlice(v)
		if err != nil {
			return FailPenalty
		}
		res, err := frf.Solve(cfg.Main, dva, cfg.Sweep, cfg.Goals)
		if err != nil {
			r.log.Debug("sweep failed, penalizing individual", zap.Error(err))
			return FailPenalty
		}

		fit := math.Abs(res.SingularResponse - 1)
		if cfg.SparsityAlpha > 0 {
			tot := 0.0
			for _, x := range v {
				tot += math.Abs(x)
			}
			fit += cfg.SparsityAlpha * tot
		}
		return fit
	})
}
