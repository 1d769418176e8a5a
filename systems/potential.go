package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/retinotectal/components"
	"github.com/pthm-cable/retinotectal/config"
)

// SignalFloor is the lower bound applied to both signals before the log ratio.
const SignalFloor = 1e-4

// Channels toggles the potential contributions.
type Channels struct {
	Forward bool
	Reverse bool
	FF      bool
	FT      bool
	Cis     bool
}

// Ramp is the time-dependent fiber-fiber coefficient. It starts near zero
// and saturates toward Height over Total steps.
type Ramp struct {
	Steepness float64
	Shift     float64
	Height    float64
	Total     int
}

// Coefficient returns the FF coefficient at step.
func (r Ramp) Coefficient(step int) float64 {
	total := float64(r.Total)
	if total <= 0 {
		return 0
	}
	adj := float64(step) + 0.01*total
	x := math.Max(math.Pow(adj/total*r.Shift, r.Steepness), 1e-10)
	return (1 - math.Exp(-x)) * r.Height
}

// ConeState is the read-only view of a cone used during potential evaluation.
type ConeState struct {
	ID       int
	Position components.Position
	Radius   int
	Frozen   bool

	OuterLigand   float64
	OuterReceptor float64
	InnerLigand   float64
	InnerReceptor float64
}

// NewConeState captures the interaction-relevant state of a cone.
func NewConeState(id components.Identity, pos components.Position, s components.Sensors) ConeState {
	return ConeState{
		ID:            id.ID,
		Position:      pos,
		Radius:        id.Radius,
		Frozen:        id.Frozen,
		OuterLigand:   s.OuterLigand,
		OuterReceptor: s.OuterReceptor,
		InnerLigand:   s.InnerLigand,
		InnerReceptor: s.InnerReceptor,
	}
}

// Calculator evaluates guidance potentials against one substrate. It holds
// no mutable state and is safe for concurrent use.
type Calculator struct {
	Substrate *Substrate
	Kernel    *Kernel
	Overlap   Overlap
	Channels  Channels
	Ramp      Ramp
}

// NewCalculator wires a calculator from configuration.
func NewCalculator(cfg *config.Config, sub *Substrate) (*Calculator, error) {
	in := cfg.Interaction
	k, err := KernelFor(in.KernelDecay, in.KernelThreshold)
	if err != nil {
		return nil, err
	}
	if k.Radius > sub.Offset {
		return nil, fmt.Errorf("%w: kernel radius %d exceeds substrate border %d (raise %s or %s)",
			config.ErrConfiguration, k.Radius, sub.Offset, config.KeyGCSize, config.KeyKernelThreshold)
	}
	ov, err := NewOverlap(in.FFOverlap, k, cfg.Simulation.GCSize)
	if err != nil {
		return nil, err
	}
	return &Calculator{
		Substrate: sub,
		Kernel:    k,
		Overlap:   ov,
		Channels: Channels{
			Forward: in.ForwardSig,
			Reverse: in.ReverseSig,
			FF:      in.FFInter,
			FT:      in.FTInter,
			Cis:     in.CisInter,
		},
		Ramp: Ramp{
			Steepness: in.SigmoidSteepness,
			Shift:     in.SigmoidShift,
			Height:    in.SigmoidHeight,
			Total:     cfg.Simulation.StepNum,
		},
	}, nil
}

// FitRadius widens the circle overlap so its reach covers cones of the
// given radius. Kernel overlap does not depend on cone radius.
func (c *Calculator) FitRadius(radius int) {
	if ov, ok := c.Overlap.(CircleOverlap); ok && radius > ov.MaxRadius {
		c.Overlap = CircleOverlap{MaxRadius: radius}
	}
}

// Signals returns the forward and reverse signal of cone placed at pos,
// before toggles, rounding and flooring.
func (c *Calculator) Signals(cone ConeState, pos components.Position, neighbours []ConeState, step int) (fwd, rev float64, err error) {
	if c.Channels.FT {
		col, row := pos.Cell()
		lig, err := c.Kernel.Project(c.Substrate.Ligands, col, row)
		if err != nil {
			return 0, 0, err
		}
		rec, err := c.Kernel.Project(c.Substrate.Receptors, col, row)
		if err != nil {
			return 0, 0, err
		}
		fwd += cone.OuterReceptor * lig
		rev += cone.OuterLigand * rec
	}

	if c.Channels.FF {
		var ligSum, recSum float64
		for i := range neighbours {
			n := &neighbours[i]
			if n.ID == cone.ID {
				continue
			}
			w := c.Overlap.Weight(pos.X-n.Position.X, pos.Y-n.Position.Y, cone.Radius, n.Radius)
			if w == 0 {
				continue
			}
			ligSum += n.OuterLigand * w
			recSum += n.OuterReceptor * w
		}
		coef := c.Ramp.Coefficient(step)
		fwd += coef * cone.OuterReceptor * ligSum
		rev += coef * cone.OuterLigand * recSum
	}

	if c.Channels.Cis {
		cis := cone.InnerLigand * cone.InnerReceptor * c.Kernel.Sum
		fwd += cis
		rev += cis
	}
	return fwd, rev, nil
}

// Potential returns |ln rev - ln fwd| for cone placed at pos. neighbours
// may include the cone itself; it is skipped by ID.
func (c *Calculator) Potential(cone ConeState, pos components.Position, neighbours []ConeState, step int) (float64, error) {
	fwd, rev, err := c.Signals(cone, pos, neighbours, step)
	if err != nil {
		return 0, err
	}
	if !c.Channels.Forward {
		fwd = 0
	}
	if !c.Channels.Reverse {
		rev = 0
	}
	fwd = math.Max(components.Round6(fwd), SignalFloor)
	rev = math.Max(components.Round6(rev), SignalFloor)
	return math.Abs(math.Log(rev) - math.Log(fwd)), nil
}
