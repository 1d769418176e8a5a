package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "retinotectal",
		Short: "Growth cone guidance simulation of the retinotectal projection",
		Long: `retinotectal grows retinal axons across a tectal substrate of ephrin
ligand and Eph receptor and reports the topographic map they settle into.

Parameters come from the embedded defaults, a preset or a YAML file, with
individual keys overridden by --set key=value.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config YAML (empty = use defaults)")
	rootCmd.PersistentFlags().String("preset", "", "Start from the reference config of a substrate type")
	rootCmd.PersistentFlags().StringArray("set", nil, "Override a parameter, e.g. --set sigma=0.1 (repeatable)")
	rootCmd.PersistentFlags().Int64("seed", -1, "RNG seed (0 = time-based, -1 = use config)")
	rootCmd.PersistentFlags().Int("workers", 0, "Potential evaluation workers (0 = config, then GOMAXPROCS)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format: json or text")
	rootCmd.MarkFlagsMutuallyExclusive("config", "preset")

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newTwoPhaseCmd(),
		newExpansionCmd(),
		newRunsCmd(),
		newPresetsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
