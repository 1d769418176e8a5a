package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/retinotectal/config"
	"github.com/pthm-cable/retinotectal/simulation"
	"github.com/pthm-cable/retinotectal/store"
	"github.com/pthm-cable/retinotectal/telemetry"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep <sweep.yaml>",
		Short: "Run every parameter combination of a sweep file",
		Long: `Runs every combination listed in a sweep file over the base config.
Each combination writes into <output-dir>/<key=value__...>/ and is recorded
in the run database, <output-dir>/runs.db unless --db is given.

Sweep file format:

  sweeps:
    sigma: [0.05, 0.1]
    adaptation_mu: [0.004, 0.006]
  selected:          # optional, values in key-sorted order
    - [0.006, 0.1]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(cmd)
			base, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sweep, err := config.LoadSweep(args[0])
			if err != nil {
				return err
			}
			outDir, _ := cmd.Flags().GetString("output-dir")
			dbPath, _ := cmd.Flags().GetString("db")
			if dbPath == "" {
				dbPath = filepath.Join(outDir, "runs.db")
			}

			ctx, cancel := signalContext()
			defer cancel()

			db, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			combos := sweep.Combos()
			logger.Info("starting sweep", "combinations", len(combos), "output_dir", outDir)

			for i, combo := range combos {
				cfg, err := base.With(combo.Overrides())
				if err != nil {
					return fmt.Errorf("combination %s: %w", combo.Tag(), err)
				}
				opts := simOptions(cmd, logger.With("combo", combo.Tag()))
				res, err := runCombo(ctx, cfg, filepath.Join(outDir, combo.Tag()), opts, db, combo.Tag())
				if err != nil {
					return fmt.Errorf("combination %s: %w", combo.Tag(), err)
				}
				logger.Info("combination done",
					"progress", fmt.Sprintf("%s/%s", humanize.Comma(int64(i+1)), humanize.Comma(int64(len(combos)))),
					"tag", combo.Tag(),
					"mapping", res.MappingCorrelation(),
				)
			}
			return nil
		},
	}

	cmd.Flags().String("output-dir", "sweep", "Root directory for per-combination output")
	cmd.Flags().String("db", "", "SQLite run database (default <output-dir>/runs.db)")
	return cmd
}

func runCombo(ctx context.Context, cfg *config.Config, dir string, opts simulation.Options, db store.Store, tag string) (*simulation.Result, error) {
	om, err := telemetry.NewOutputManager(dir)
	if err != nil {
		return nil, err
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		return nil, err
	}
	opts.Output = om

	sim, err := simulation.Build(cfg, opts)
	if err != nil {
		return nil, err
	}
	defer sim.Close()

	res, err := sim.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := recordRun(ctx, db, opts.RunID, "sweep", tag, dir, cfg, res); err != nil {
		slog.Warn("failed to record run", "run_id", opts.RunID, "error", err)
	}
	return res, nil
}
