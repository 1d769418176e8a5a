// Package components defines ECS components for the simulation.
package components

import "math"

// Position is a growth cone's location in padded substrate coordinates.
// X runs along columns, Y along rows.
type Position struct {
	X, Y float64
}

// Cell returns the grid cell containing the position.
func (p Position) Cell() (col, row int) {
	return int(math.Round(p.X)), int(math.Round(p.Y))
}

// Identity holds stable per-cone bookkeeping.
type Identity struct {
	ID     int
	Radius int
	Frozen bool // never proposes moves, still interacts and adapts
	Marked bool // provenance only

	// Origin is the retinal position the affinities were derived from.
	Origin float64
}

// Sensors holds the baseline affinities and their split between the
// exposed (outer) and sequestered (inner) pools.
type Sensors struct {
	Ligand   float64 // immutable baseline
	Receptor float64 // immutable baseline
	Rho      float64 // exposed fraction in [0,1]

	OuterLigand   float64
	OuterReceptor float64
	InnerLigand   float64
	InnerReceptor float64
}

// NewSensors creates sensors with the derived values already split by rho.
func NewSensors(ligand, receptor, rho float64) Sensors {
	s := Sensors{Ligand: ligand, Receptor: receptor}
	s.SetRho(rho)
	return s
}

// SetRho updates rho and recomputes the four derived sensor values.
func (s *Sensors) SetRho(rho float64) {
	s.Rho = rho
	s.OuterLigand = Round6(s.Ligand * rho)
	s.OuterReceptor = Round6(s.Receptor * rho)
	s.InnerLigand = Round6(s.Ligand * (1 - rho))
	s.InnerReceptor = Round6(s.Receptor * (1 - rho))
}

// Adaptation holds the latest potential and adaptation state.
type Adaptation struct {
	Potential   float64
	Coefficient float64 // starts at 1
	ResetForce  float64 // starts at 0
}

// NewAdaptation returns the initial adaptation state.
func NewAdaptation() Adaptation {
	return Adaptation{Coefficient: 1}
}

// Round6 rounds v to 6 decimal places.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
