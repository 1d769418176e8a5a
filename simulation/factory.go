package simulation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/retinotectal/config"
	"github.com/pthm-cable/retinotectal/systems"
)

// ConeSpec describes one cone to be placed in a simulation.
type ConeSpec struct {
	ID       int
	X, Y     float64
	Radius   int
	Ligand   float64
	Receptor float64
	Rho      float64
	Origin   float64 // retinal position
	Frozen   bool
	Marked   bool
}

// Build creates a simulation from configuration: the scoped substrate and
// the scoped cone population.
func Build(cfg *config.Config, opts Options) (*Simulation, error) {
	sub, err := BuildSubstrate(cfg)
	if err != nil {
		return nil, err
	}
	cones, err := InitialCones(cfg)
	if err != nil {
		return nil, err
	}
	return New(cfg, sub, cones, opts)
}

// BuildFromMap is Build over a flat parameter mapping.
func BuildFromMap(params map[string]any, opts Options) (*Simulation, error) {
	cfg, err := config.FromMap(params)
	if err != nil {
		return nil, err
	}
	return Build(cfg, opts)
}

// BuildSubstrate creates, fills and crops the substrate.
func BuildSubstrate(cfg *config.Config) (*systems.Substrate, error) {
	strategy, err := systems.StrategyFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	sub := systems.NewSubstrate(cfg.Substrate.Rows, cfg.Substrate.Cols, cfg.Simulation.GCSize)
	if err := sub.Initialize(strategy); err != nil {
		return nil, err
	}
	return sub.Crop(cfg.Substrate.Scope)
}

// InitialCones lays out gc_count cones on the retinal gradient and applies
// gc_scope. Cones start on the left border column, spread evenly over rows.
func InitialCones(cfg *config.Config) ([]ConeSpec, error) {
	sim, cn := cfg.Simulation, cfg.Cones
	n := sim.GCCount
	cols := float64(cfg.Substrate.Cols)
	size := sim.GCSize

	origins := linspace(1, cols, n)
	rows := linspace(float64(size), float64(cfg.Substrate.Rows-1+size), n)
	center := (cols + 1) / 2

	cones := make([]ConeSpec, n)
	for i := range cones {
		x := origins[i]
		cones[i] = ConeSpec{
			ID:       i,
			X:        float64(size),
			Y:        math.Trunc(rows[i]),
			Radius:   size,
			Receptor: cn.ReceptorFactor * math.Exp(cn.ReceptorDecay*(x+cn.ReceptorShift-center)),
			Ligand:   cn.LigandFactor * math.Exp(-cn.LigandDecay*(x+cn.LigandShift-center)),
			Rho:      cn.Rho,
			Origin:   x,
		}
	}
	return ScopeCones(cones, cn.Scope)
}

// ScopeCones keeps the nasal (first) or temporal (second) half of cones.
func ScopeCones(cones []ConeSpec, scope string) ([]ConeSpec, error) {
	half := len(cones) / 2
	switch scope {
	case config.ScopeFull:
		return cones, nil
	case config.ScopeNasal:
		return cones[:half], nil
	case config.ScopeTemporal:
		return cones[half:], nil
	default:
		return nil, fmt.Errorf("%w: unknown %s %q", config.ErrConfiguration, config.KeyGCScope, scope)
	}
}

// linspace returns n evenly spaced values over [lo, hi]. A single value is lo.
func linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
