package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/retinotectal/config"
	"github.com/pthm-cable/retinotectal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs <runs.db>",
		Short: "List runs recorded in a run database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			ctx := context.Background()

			db, err := store.Open(ctx, args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(ctx, kind)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tTAG\tSUBSTRATE\tSEED\tSTEPS\tCONES\tMAPPING\tSPREAD\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d\t%.3f\t%.1f\t%s\n",
					r.ID, r.Kind, r.Tag, r.Substrate, r.Seed, humanize.Comma(int64(r.Steps)),
					r.Cones, r.MappingCorrelation, r.Spread, humanize.Time(r.CreatedAt))
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("kind", "", "Only list runs of this kind: run, sweep, two_phase, expansion")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [substrate_type]",
		Short: "List presets, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range config.PresetNames() {
					fmt.Println(name)
				}
				return nil
			}
			cfg, err := config.Preset(config.SubstrateType(args[0]))
			if err != nil {
				return err
			}
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}
