package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/retinotectal/config"
	"github.com/pthm-cable/retinotectal/logging"
	"github.com/pthm-cable/retinotectal/simulation"
	"github.com/pthm-cable/retinotectal/store"
)

// setupLogger installs the logger selected by the persistent flags as the default.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	logger := logging.NewLogger(level, format, os.Stderr)
	slog.SetDefault(logger)
	return logger
}

// loadConfig builds the configuration from --preset or --config, then
// --set overrides, then --seed.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	preset, _ := cmd.Flags().GetString("preset")

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
	return applyOverrides(cmd, cfg)
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) (*config.Config, error) {
	sets, _ := cmd.Flags().GetStringArray("set")
	overrides, err := parseSets(sets)
	if err != nil {
		return nil, err
	}

	seed, _ := cmd.Flags().GetInt64("seed")
	switch {
	case seed > 0:
		overrides[config.KeySeed] = seed
	case seed == 0 || cfg.Simulation.Seed == 0:
		overrides[config.KeySeed] = time.Now().UnixNano()
	}
	return cfg.With(overrides)
}

// parseSets turns key=value pairs into a flat mapping. Values are decoded as
// YAML scalars so numbers and booleans keep their type.
func parseSets(sets []string) (map[string]any, error) {
	m := make(map[string]any, len(sets))
	for _, s := range sets {
		key, raw, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: --set %q is not key=value", config.ErrConfiguration, s)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("%w: --set %s: %v", config.ErrConfiguration, key, err)
		}
		m[key] = v
	}
	return m, nil
}

func simOptions(cmd *cobra.Command, logger *slog.Logger) simulation.Options {
	workers, _ := cmd.Flags().GetInt("workers")
	return simulation.Options{
		Logger:  logger,
		Workers: workers,
		RunID:   store.NewRunID(),
	}
}

// signalContext is cancelled on interrupt so a long run stops between steps.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// openStore opens the run database when path is set.
func openStore(ctx context.Context, path string) (store.Store, error) {
	if path == "" {
		return nil, nil
	}
	s, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	return s, nil
}

// recordRun saves a summary of res. A nil store is a no-op.
func recordRun(ctx context.Context, s store.Store, id, kind, tag, outDir string, cfg *config.Config, res *simulation.Result) error {
	if s == nil {
		return nil
	}
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	return s.SaveRun(ctx, store.RunRecord{
		ID:                 id,
		Kind:               kind,
		Tag:                tag,
		Seed:               cfg.Simulation.Seed,
		Substrate:          string(cfg.Substrate.Type),
		Steps:              res.Steps,
		Cones:              len(res.Cones),
		MappingCorrelation: res.MappingCorrelation(),
		Spread:             res.Spread(),
		OutputDir:          outDir,
		Config:             string(data),
		CreatedAt:          time.Now().UTC(),
	})
}
