package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/retinotectal/config"
	"github.com/pthm-cable/retinotectal/simulation"
)

// failedFitness is returned for parameter vectors that cannot be run.
// Any real fitness lies in [-1, 1].
const failedFitness = 2.0

// FitnessEvaluator runs simulations and scores the resulting maps.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config
	logger     *slog.Logger

	mu         sync.Mutex
	lastSpread float64 // std dev of correlation across seeds, most recent call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config, logger *slog.Logger) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
		logger:     logger,
	}
}

// LastSpread returns the seed-to-seed deviation of the most recent evaluation.
func (fe *FitnessEvaluator) LastSpread() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSpread
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negative mean mapping correlation over all seeds.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, x []float64) float64 {
	cfg, err := fe.params.ApplyToConfig(fe.baseConfig, x)
	if err != nil {
		fe.logger.Warn("parameters rejected", "error", err)
		return failedFitness
	}

	// Run all seeds in parallel
	correlations := make([]float64, len(fe.seeds))
	errs := make([]error, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			correlations[idx], errs[idx] = fe.runSimulation(ctx, cfg, s)
		}(i, seed)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			fe.logger.Warn("evaluation failed", "error", err)
			return failedFitness
		}
	}

	mean, std := stat.MeanStdDev(correlations, nil)
	if len(correlations) < 2 {
		std = 0
	}
	fitness := -mean

	fe.mu.Lock()
	fe.lastSpread = std
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes one single-threaded run and returns its mapping correlation.
func (fe *FitnessEvaluator) runSimulation(ctx context.Context, cfg *config.Config, seed int64) (float64, error) {
	seeded, err := cfg.With(map[string]any{config.KeySeed: seed})
	if err != nil {
		return 0, err
	}

	sim, err := simulation.Build(seeded, simulation.Options{
		Logger:  fe.logger,
		Workers: 1, // seeds already run in parallel
	})
	if err != nil {
		return 0, err
	}
	defer sim.Close()

	res, err := sim.Run(ctx)
	if err != nil {
		return 0, err
	}
	r := res.MappingCorrelation()
	if math.IsNaN(r) {
		return 0, nil
	}
	return r, nil
}
