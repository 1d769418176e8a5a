package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/retinotectal/config"
	"github.com/pthm-cable/retinotectal/simulation"
	"github.com/pthm-cable/retinotectal/telemetry"
)

func newTwoPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "two-phase",
		Short: "Grow a second cohort against a frozen first cohort",
		Long: `Runs the first cohort with the base config, freezes and marks the part
selected by --keep, then grows a second cohort from --second (default: the
base config) alongside it. Output and snapshots cover the second run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(cmd)
			first, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			second := first
			if path, _ := cmd.Flags().GetString("second"); path != "" {
				loaded, err := config.Load(path)
				if err != nil {
					return fmt.Errorf("second cohort config: %w", err)
				}
				if second, err = loaded.With(map[string]any{config.KeySeed: first.Simulation.Seed + 1}); err != nil {
					return err
				}
			}
			keep, _ := cmd.Flags().GetString("keep")
			outDir, _ := cmd.Flags().GetString("output-dir")
			dbPath, _ := cmd.Flags().GetString("db")

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
			if err := om.WriteConfig(second); err != nil {
				return err
			}

			opts := simOptions(cmd, logger)
			opts.Output = om
			res, err := simulation.RunTwoPhase(ctx, first, second, keep, opts)
			if err != nil {
				return err
			}
			if err := recordRun(ctx, db, opts.RunID, "two_phase", keep, outDir, second, res.Second); err != nil {
				return err
			}

			fmt.Printf("first cohort: mapping r=%.3f\n", res.First.MappingCorrelation())
			fmt.Printf("second cohort: mapping r=%.3f, spread %.1f\n",
				res.Second.MappingCorrelation(), res.Second.Spread())
			return nil
		},
	}

	cmd.Flags().String("second", "", "Config YAML for the second cohort (empty = base config)")
	cmd.Flags().String("keep", config.ScopeNasal, "Part of the first cohort to keep: full, nasal or temporal")
	cmd.Flags().String("output-dir", "", "Directory for CSV output of the second run")
	cmd.Flags().String("db", "", "SQLite run database to record the run in")
	return cmd
}

func newExpansionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expansion",
		Short: "Compare an ablated mapping with the intact baseline",
		Long: `Runs the config with its gc_scope and substrate_scope, and again with both
scopes full, and reports how far the surviving projection spread.

  retinotectal expansion --set gc_scope=nasal --set substrate_scope=anterior`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(cmd)
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			outDir, _ := cmd.Flags().GetString("output-dir")
			dbPath, _ := cmd.Flags().GetString("db")

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
			res, err := simulation.RunExpansion(ctx, cfg, opts)
			if err != nil {
				return err
			}
			tag := cfg.Cones.Scope + "/" + cfg.Substrate.Scope
			if err := recordRun(ctx, db, opts.RunID, "expansion", tag, outDir, cfg, res.Ablated); err != nil {
				return err
			}

			fmt.Printf("baseline: mapping r=%.3f, spread %.1f\n", res.BaselineCorrelation, res.Baseline.Spread())
			fmt.Printf("ablated (%s): mapping r=%.3f, spread %.1f\n", tag, res.AblatedCorrelation, res.Ablated.Spread())
			fmt.Printf("spread ratio: %.2f\n", res.SpreadRatio)
			return nil
		},
	}

	cmd.Flags().String("output-dir", "", "Directory for CSV output of the ablated run")
	cmd.Flags().String("db", "", "SQLite run database to record the run in")
	return cmd
}
