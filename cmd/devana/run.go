package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mahan2079/devana/beam"
	"github.com/mahan2079/devana/frf"
	"github.com/mahan2079/devana/worker"
)

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func writeJSON(path string, v interface{}) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runSolve(configPath, out string, verbose bool) error {
	log, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		return err
	}
	goals, err := cfg.goals()
	if err != nil {
		return err
	}

	var res *frf.Result
	if len(cfg.DVA) == 0 {
		log.Info("solving baseline system without absorbers")
		res, err = frf.SolveBaseline(cfg.mainParams(), cfg.sweep(), goals)
	} else {
		var dva frf.DVAParams
		dva, err = frf.DVAFromSlice(cfg.DVA)
		if err != nil {
			return err
		}
		res, err = frf.Solve(cfg.mainParams(), dva, cfg.sweep(), goals)
	}
	if err != nil {
		return err
	}

	log.Info("sweep done",
		zap.Int("points", cfg.Sweep.Points),
		zap.Int("masses", len(res.Masses)),
		zap.Float64("singular_response", res.SingularResponse),
	)
	return writeJSON(out, res)
}

func runOptimize(configPath, out, dbPath string, runs int, verbose bool) error {
	log, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		return err
	}
	wcfg, err := cfg.workerConfig()
	if err != nil {
		return err
	}
	wcfg.Logger = log

	if dbPath != "" {
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return fmt.Errorf("opening log database: %w", err)
		}
		defer db.Close()
		wcfg.DB = db
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if runs > 0 {
		records, err := worker.Benchmark(ctx, wcfg, runs)
		if err != nil {
			return err
		}
		return writeJSON(out, records)
	}

	r, err := worker.New(wcfg)
	if err != nil {
		return err
	}
	r.Start(ctx)
	for p := range r.Progress() {
		log.Info("progress",
			zap.Int("generation", p.Generation),
			zap.Float64("best", p.Best),
			zap.Float64("mean", p.Stats.Mean),
		)
	}
	outcome, err := r.Wait()
	if err != nil {
		return err
	}
	return writeJSON(out, outcome)
}

// beamOutput is the combined result of whichever beam optimizations the
// config enables.
type beamOutput struct {
	Values    *beam.ValuesResult    `json:"values,omitempty"`
	Placement *beam.PlacementResult `json:"placement,omitempty"`
}

func runBeam(configPath, out string, verbose bool) error {
	log, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		return err
	}
	if cfg.Beam == nil {
		return errors.New("config has no beam section")
	}
	bc := cfg.Beam
	if bc.Values == nil && bc.Placement == nil {
		return errors.New("beam section enables neither values nor placement optimization")
	}

	mdl, err := bc.model()
	if err != nil {
		return err
	}
	omega, err := bc.omega()
	if err != nil {
		return err
	}
	targets, err := bc.targets()
	if err != nil {
		return err
	}
	load := beam.PointLoad{X: bc.Load.X, Amplitude: bc.Load.Amplitude}

	result := beamOutput{}
	if v := bc.Values; v != nil {
		log.Info("optimizing spring/damper values",
			zap.Int("springs", v.NumSprings),
			zap.Int("dampers", v.NumDampers),
		)
		result.Values, err = beam.OptimizeValues(mdl, beam.ValuesConfig{
			Candidates: v.Candidates,
			NumSprings: v.NumSprings,
			NumDampers: v.NumDampers,
			Targets:    targets,
			Omega:      omega,
			Load:       load,
			KBounds:    beam.Bounds{Low: v.KLow, Up: v.KUp},
			CBounds:    beam.Bounds{Low: v.CLow, Up: v.CUp},
			MaxIters:   v.MaxIters,
			Population: v.Population,
		})
		if err != nil {
			return err
		}
		log.Info("values done", zap.Float64("objective", result.Values.BestObjective))
	}
	if p := bc.Placement; p != nil {
		log.Info("optimizing spring/damper placement",
			zap.Int("springs", p.NumSprings),
			zap.Int("dampers", p.NumDampers),
		)
		result.Placement, err = beam.OptimizePlacement(mdl, beam.PlacementConfig{
			NumSprings: p.NumSprings,
			NumDampers: p.NumDampers,
			Targets:    targets,
			Omega:      omega,
			Load:       load,
			XBounds:    beam.Bounds{Low: p.XLow, Up: p.XUp},
			KBounds:    beam.Bounds{Low: p.KLow, Up: p.KUp},
			CBounds:    beam.Bounds{Low: p.CLow, Up: p.CUp},
			MaxIters:   p.MaxIters,
			Population: p.Population,
		})
		if err != nil {
			return err
		}
		log.Info("placement done", zap.Float64("objective", result.Placement.BestObjective))
	}

	return writeJSON(out, result)
}
