// Potential map tool: evaluates one growth cone's guidance potential at every
// cell it could occupy and writes the field as CSV for plotting.
//
// Usage: go run ./cmd/potentialmap -preset continuous_gradients -cone 0 -out potential.csv
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/retinotectal/components"
	"github.com/pthm-cable/retinotectal/config"
	"github.com/pthm-cable/retinotectal/logging"
	"github.com/pthm-cable/retinotectal/simulation"
	"github.com/pthm-cable/retinotectal/systems"
	"github.com/pthm-cable/retinotectal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	preset := flag.String("preset", "", "Preset substrate type (overrides -config)")
	cone := flag.Int("cone", 0, "Index of the cone in initial order")
	step := flag.Int("step", 0, "Step used for the fibre-fibre ramp")
	out := flag.String("out", "potential.csv", "Output CSV path")
	flag.Parse()

	slog.SetDefault(logging.NewLogger("info", logging.FormatText, os.Stderr))

	cfg, err := load(*configPath, *preset)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	records, err := potentialMap(cfg, *cone, *step)
	if err != nil {
		slog.Error("failed to evaluate potential", "error", err)
		os.Exit(1)
	}
	if err := telemetry.WriteCSV(*out, records); err != nil {
		slog.Error("failed to write csv", "error", err)
		os.Exit(1)
	}
	slog.Info("potential map written", "path", *out, "cells", humanize.Comma(int64(len(records))))
}

func load(path, preset string) (*config.Config, error) {
	if preset != "" {
		return config.Preset(config.SubstrateType(preset))
	}
	return config.Load(path)
}

// potentialMap places the cone at every cell where it fits and evaluates it
// alone on the substrate.
func potentialMap(cfg *config.Config, index, step int) ([]telemetry.PotentialRecord, error) {
	sub, err := simulation.BuildSubstrate(cfg)
	if err != nil {
		return nil, err
	}
	cones, err := simulation.InitialCones(cfg)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(cones) {
		return nil, fmt.Errorf("cone index %d out of range [0, %d)", index, len(cones))
	}
	calc, err := systems.NewCalculator(cfg, sub)
	if err != nil {
		return nil, err
	}

	c := cones[index]
	id := components.Identity{ID: c.ID, Radius: c.Radius, Origin: c.Origin}
	state := systems.NewConeState(id, components.Position{X: c.X, Y: c.Y}, components.NewSensors(c.Ligand, c.Receptor, c.Rho))

	var records []telemetry.PotentialRecord
	for row := 0; row < sub.Rows; row++ {
		for col := 0; col < sub.Cols; col++ {
			if !sub.Contains(col, row, c.Radius) {
				continue
			}
			pos := components.Position{X: float64(col), Y: float64(row)}
			fwd, rev, err := calc.Signals(state, pos, nil, step)
			if err != nil {
				return nil, err
			}
			p, err := calc.Potential(state, pos, nil, step)
			if err != nil {
				return nil, err
			}
			records = append(records, telemetry.PotentialRecord{
				Row: row, Col: col, Forward: fwd, Reverse: rev, Potential: p,
			})
		}
	}
	return records, nil
}
