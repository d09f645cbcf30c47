package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Metrics captures the cost of one benchmark run.
type Metrics struct {
	RunID          string  `json:"run_id"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Generations    int     `json:"generations"`
	Evaluations    int     `json:"evaluations"`
}

// RunRecord is the exportable summary of one benchmark run.
type RunRecord struct {
	RunNumber      int       `json:"run_number"`
	BestFitness    float64   `json:"best_fitness"`
	BestSolution   []float64 `json:"best_solution"`
	ParameterNames []string  `json:"parameter_names"`
	Metrics        Metrics   `json:"benchmark_metrics"`
}

// Benchmark repeats the same optimization runs times sequentially and
// collects a record per run.  Runs are independent; each gets its own run
// id.  A failed run aborts the benchmark.
func Benchmark(ctx context.Context, cfg Config, runs int) ([]RunRecord, error) {
	if runs < 1 {
		return nil, fmt.Errorf("need at least one run, got %v", runs)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	records := make([]RunRecord, 0, runs)
	for i := 0; i < runs; i++ {
		id := uuid.NewString()
		start := time.Now()

		// offset the seed per run so a seeded benchmark still explores
		// independent trajectories
		runCfg := cfg
		if cfg.Seed != 0 {
			runCfg.Seed = cfg.Seed + int64(i)
		}
		out, err := Run(ctx, runCfg)
		if err != nil {
			return nil, fmt.Errorf("run %v (%v): %w", i+1, id, err)
		}
		elapsed := time.Since(start)

		log.Info("benchmark run done",
			zap.Int("run", i+1),
			zap.String("run_id", id),
			zap.Duration("elapsed", elapsed),
			zap.Float64("fitness", out.BestFitness),
		)

		records = append(records, RunRecord{
			RunNumber:      i + 1,
			BestFitness:    out.BestFitness,
			BestSolution:   out.BestVector,
			ParameterNames: out.ParameterNames,
			Metrics: Metrics{
				RunID:          id,
				ElapsedSeconds: elapsed.Seconds(),
				Generations:    out.Generations,
				Evaluations:    out.Evaluations,
			},
		})
	}
	return records, nil
}

// WriteRecords exports benchmark records as indented JSON.
func WriteRecords(w io.Writer, records []RunRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
