package config

import (
	"fmt"
	"strings"
)

// Validate checks ranges, enumerations and the parameters required by the
// selected substrate type. Every returned error wraps ErrConfiguration.
func (c *Config) Validate() error {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	sim := c.Simulation
	if sim.GCCount <= 0 {
		fail("%s must be positive, got %d", KeyGCCount, sim.GCCount)
	}
	if sim.GCSize < 1 {
		fail("%s must be at least 1, got %d", KeyGCSize, sim.GCSize)
	}
	if sim.StepSize <= 0 {
		fail("%s must be positive, got %g", KeyStepSize, sim.StepSize)
	}
	if sim.StepNum <= 0 {
		fail("%s must be positive, got %d", KeyStepNum, sim.StepNum)
	}
	if sim.Workers < 0 {
		fail("%s must not be negative, got %d", KeyWorkers, sim.Workers)
	}

	mv := c.Movement
	if !unit(mv.XStepPossibility) {
		fail("%s must be in [0,1], got %g", KeyXStepPossibility, mv.XStepPossibility)
	}
	if !unit(mv.YStepPossibility) {
		fail("%s must be in [0,1], got %g", KeyYStepPossibility, mv.YStepPossibility)
	}
	if !mv.Force && mv.Sigma <= 0 {
		fail("%s must be positive, got %g", KeySigma, mv.Sigma)
	}
	switch mv.Acceptance {
	case AcceptanceLogistic, AcceptanceGaussian:
	default:
		fail("unknown %s %q", KeyAcceptance, mv.Acceptance)
	}

	in := c.Interaction
	if in.SigmoidHeight < 0 {
		fail("%s must not be negative, got %g", KeySigmoidHeight, in.SigmoidHeight)
	}
	switch in.FFOverlap {
	case OverlapKernel, OverlapCircle:
	default:
		fail("unknown %s %q", KeyFFOverlap, in.FFOverlap)
	}
	if in.KernelDecay <= 0 {
		fail("%s must be positive, got %g", KeyKernelDecay, in.KernelDecay)
	}
	if in.KernelThreshold <= 0 || in.KernelThreshold >= 1 {
		fail("%s must be in (0,1), got %g", KeyKernelThreshold, in.KernelThreshold)
	}

	if !unit(c.Cones.Rho) {
		fail("%s must be in [0,1], got %g", KeyRho, c.Cones.Rho)
	}
	switch c.Cones.Scope {
	case ScopeFull, ScopeNasal, ScopeTemporal:
	default:
		fail("unknown %s %q", KeyGCScope, c.Cones.Scope)
	}

	if ad := c.Adaptation; ad.Enabled {
		if ad.Mu < 0 {
			fail("%s must not be negative, got %g", KeyAdaptationMu, ad.Mu)
		}
		if !unit(ad.Lambda) {
			fail("%s must be in [0,1], got %g", KeyAdaptationLambda, ad.Lambda)
		}
		if ad.History < 1 {
			fail("%s must be at least 1, got %d", KeyAdaptationHistory, ad.History)
		}
	}

	c.validateSubstrate(fail)

	if c.Reporting.StatsWindow < 0 {
		fail("%s must not be negative, got %d", KeyStatsWindow, c.Reporting.StatsWindow)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateSubstrate(fail func(string, ...any)) {
	s := c.Substrate
	if s.Rows <= 0 || s.Cols <= 0 {
		fail("%s and %s must be positive, got %dx%d", KeyRows, KeyCols, s.Rows, s.Cols)
	}
	switch s.Scope {
	case ScopeFull, ScopeAnterior, ScopePosterior:
	default:
		fail("unknown %s %q", KeySubstrateScope, s.Scope)
	}

	for _, key := range c.MissingSubstrateKeys() {
		fail("%s requires %s", s.Type, key)
	}

	switch s.Type {
	case ContinuousGradients:
		g := s.Gradient
		if g.LigandSteepness != nil && *g.LigandSteepness <= 0 {
			fail("%s must be positive", KeyGradLigandSteepness)
		}
		if g.ReceptorSteepness != nil && *g.ReceptorSteepness <= 0 {
			fail("%s must be positive", KeyGradReceptorSteepness)
		}
	case Wedges:
		w := s.Wedge
		if w.NarrowEdge != nil && *w.NarrowEdge < 1 {
			fail("%s must be at least 1", KeyWedgeNarrowEdge)
		}
		if w.WideEdge != nil && *w.WideEdge < 1 {
			fail("%s must be at least 1", KeyWedgeWideEdge)
		}
	case Stripe:
		if w := s.Stripe.Width; w != nil && *w <= 0 {
			fail("%s must be positive", KeyStripeWidth)
		}
	case Gap, GapInverted:
		g := s.Gap
		if g.Begin != nil && !unit(*g.Begin) {
			fail("%s must be in [0,1]", KeyGapBegin)
		}
		if g.End != nil && !unit(*g.End) {
			fail("%s must be in [0,1]", KeyGapEnd)
		}
		if g.FirstBlock != nil && !g.FirstBlock.Valid() {
			fail("unknown %s %q", KeyGapFirstBlock, *g.FirstBlock)
		}
		if s.Type == Gap && g.SecondBlock != nil && !g.SecondBlock.Valid() {
			fail("unknown %s %q", KeyGapSecondBlock, *g.SecondBlock)
		}
	default:
		fail("unknown %s %q", KeySubstrateType, s.Type)
	}
}

// MissingSubstrateKeys lists the parameters the selected substrate type
// needs but the configuration does not set.
func (c *Config) MissingSubstrateKeys() []string {
	s := c.Substrate
	var missing []string
	need := func(set bool, key string) {
		if !set {
			missing = append(missing, key)
		}
	}

	switch s.Type {
	case ContinuousGradients:
		g := s.Gradient
		need(g.LigandMin != nil, KeyGradLigandMin)
		need(g.LigandMax != nil, KeyGradLigandMax)
		need(g.ReceptorMin != nil, KeyGradReceptorMin)
		need(g.ReceptorMax != nil, KeyGradReceptorMax)
		need(g.LigandSteepness != nil, KeyGradLigandSteepness)
		need(g.ReceptorSteepness != nil, KeyGradReceptorSteepness)
	case Wedges:
		need(s.Wedge.NarrowEdge != nil, KeyWedgeNarrowEdge)
		need(s.Wedge.WideEdge != nil, KeyWedgeWideEdge)
	case Stripe:
		st := s.Stripe
		need(st.Forward != nil, KeyStripeForward)
		need(st.Reverse != nil, KeyStripeReverse)
		need(st.LigandConc != nil, KeyStripeLigandConc)
		need(st.ReceptorConc != nil, KeyStripeReceptorConc)
		need(st.Width != nil, KeyStripeWidth)
	case Gap:
		g := s.Gap
		need(g.Begin != nil, KeyGapBegin)
		need(g.End != nil, KeyGapEnd)
		need(g.FirstBlock != nil, KeyGapFirstBlock)
		need(g.SecondBlock != nil, KeyGapSecondBlock)
		need(g.FirstBlockConc != nil, KeyGapFirstBlockConc)
		need(g.SecondBlockConc != nil, KeyGapSecondBlockConc)
	case GapInverted:
		g := s.Gap
		need(g.Begin != nil, KeyGapBegin)
		need(g.End != nil, KeyGapEnd)
		need(g.FirstBlock != nil, KeyGapFirstBlock)
		need(g.FirstBlockConc != nil, KeyGapFirstBlockConc)
	}
	return missing
}

// Valid reports whether b names a known block type.
func (b BlockType) Valid() bool {
	return b == Ligand || b == Receptor
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
