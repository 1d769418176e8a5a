package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/retinotectal/simulation"
	"github.com/pthm-cable/retinotectal/telemetry"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation",
		Long: `Runs one simulation to completion and prints the mapping summary.

With --output-dir the run writes config.yaml, final.csv, trajectories.csv,
interim.csv, substrate.csv, lifetimes.csv and the windowed stats, perf and
bookmark tables. Snapshots go to --snapshot-dir, defaulting to
<output-dir>/snapshots.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(cmd)
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			outDir, _ := cmd.Flags().GetString("output-dir")
			snapDir, _ := cmd.Flags().GetString("snapshot-dir")
			dbPath, _ := cmd.Flags().GetString("db")
			if snapDir == "" && outDir != "" {
				snapDir = filepath.Join(outDir, "snapshots")
			}

			ctx, cancel := signalContext()
			defer cancel()

			db, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			om, err := telemetry.NewOutputManager(outDir)
			if err != nil {
				return err
			}
			defer om.Close()
			if err := om.WriteConfig(cfg); err != nil {
				return err
			}

			opts := simOptions(cmd, logger)
			opts.Output = om
			opts.SnapshotDir = snapDir

			logger.Info("starting simulation",
				"run_id", opts.RunID,
				"substrate", cfg.Substrate.Type,
				"cones", cfg.Simulation.GCCount,
				"steps", humanize.Comma(int64(cfg.Simulation.StepNum)),
				"seed", cfg.Simulation.Seed,
			)

			sim, err := simulation.Build(cfg, opts)
			if err != nil {
				return err
			}
			defer sim.Close()

			res, err := sim.Run(ctx)
			if err != nil {
				return fmt.Errorf("run %s: %w", opts.RunID, err)
			}
			if err := recordRun(ctx, db, opts.RunID, "run", "", outDir, cfg, res); err != nil {
				return err
			}

			fmt.Printf("run %s: %s steps, %d cones, mapping r=%.3f, spread %.1f\n",
				opts.RunID, humanize.Comma(int64(res.Steps)), len(res.Cones),
				res.MappingCorrelation(), res.Spread())
			return nil
		},
	}

	cmd.Flags().String("output-dir", "", "Directory for CSV output (empty = none)")
	cmd.Flags().String("snapshot-dir", "", "Directory for JSON snapshots")
	cmd.Flags().String("db", "", "SQLite run database to record the run in")
	return cmd
}
