// Package main provides CMA-ES optimization for finding simulation parameters
// that produce a well ordered retinotectal map.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/retinotectal/config"
	"github.com/pthm-cable/retinotectal/logging"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	preset := flag.String("preset", "", "Base preset substrate type (overrides -config)")
	steps := flag.Int("steps", 0, "Steps per run (0 = config step_num)")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	logLevel := flag.String("log-level", "warn", "Log level for simulation runs")
	flag.Parse()

	logger := logging.NewLogger(*logLevel, logging.FormatText, os.Stderr)
	slog.SetDefault(logger)

	if err := run(*configPath, *preset, *steps, *seeds, *maxEvals, *population, *outputDir, logger); err != nil {
		slog.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, preset string, steps, seeds, maxEvals, population int, outputDir string, logger *slog.Logger) error {
	if outputDir == "" {
		return fmt.Errorf("-output is required")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := loadBase(configPath, preset, steps)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	params := NewParamVector()

	// Generate seeds for evaluation
	evalSeeds := make([]int64, seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, evalSeeds, baseCfg, logger)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	logPath := filepath.Join(outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness", "seed_std"}
	for _, spec := range params.Specs {
		header = append(header, spec.Key)
	}
	if err := logWriter.Write(header); err != nil {
		return err
	}

	// Track evaluations and timing
	evalCount := 0
	bestFitness := failedFitness
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if ctx.Err() != nil {
				return failedFitness
			}
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(ctx, clamped)
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", fitness), fmt.Sprintf("%.6f", evaluator.LastSpread())}
			for _, v := range clamped {
				row = append(row, fmt.Sprintf("%.6f", v))
			}
			_ = logWriter.Write(row)
			logWriter.Flush()

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(maxEvals-evalCount) * avgPerEval

			fmt.Printf("Eval %s/%s: mapping r=%.3f ±%.3f (best=%.3f) | elapsed: %s, ETA: %s\n",
				humanize.Comma(int64(evalCount)), humanize.Comma(int64(maxEvals)),
				-fitness, evaluator.LastSpread(), -bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // seeds run in parallel inside each evaluation
	}

	popSize := population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, maxEvals)
	fmt.Printf("Seeds per evaluation: %d, steps per run: %s\n",
		seeds, humanize.Comma(int64(baseCfg.Simulation.StepNum)))

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		logger.Warn("optimization ended", "error", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil {
		if result == nil {
			return fmt.Errorf("no evaluation completed")
		}
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best mapping correlation: %.4f\n", -bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Key, bestParams[i])
	}

	bestCfg, err := params.ApplyToConfig(baseCfg, bestParams)
	if err != nil {
		return err
	}
	configOutPath := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return err
	}
	fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	return nil
}

func loadBase(path, preset string, steps int) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if preset != "" {
		cfg, err = config.Preset(config.SubstrateType(preset))
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, err
	}
	overrides := map[string]any{config.KeyStatsWindow: 0}
	if steps > 0 {
		overrides[config.KeyStepNum] = steps
	}
	return cfg.With(overrides)
}
