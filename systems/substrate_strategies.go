package systems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/retinotectal/config"
)

// Strategy fills a substrate. Each substrate type has one parameter struct
// implementing it.
type Strategy interface {
	Kind() config.SubstrateType
	apply(s *Substrate) error
}

// Gradient lays opposing continuous gradients along the columns: ligand
// rises left to right, receptor falls. The border extrapolates each profile
// from the ratio of its two outermost samples.
type Gradient struct {
	LigandMin, LigandMax     float64
	ReceptorMin, ReceptorMax float64
	LigandSteepness          float64
	ReceptorSteepness        float64
}

// Wedge tiles receptor-only triangles on a ligand-only background.
type Wedge struct {
	NarrowEdge int
	WideEdge   int
}

// StripeAssay alternates ligand-only and receptor-only horizontal bands.
type StripeAssay struct {
	Forward, Reverse         bool
	LigandConc, ReceptorConc float64
	Width                    float64
}

// GapAssay places two typed column blocks separated by an empty zone.
type GapAssay struct {
	Begin, End      float64 // fractions of the padded width
	FirstBlock      config.BlockType
	SecondBlock     config.BlockType
	FirstBlockConc  float64
	SecondBlockConc float64
}

// InvertedGapAssay fills only the middle zone with the first block type.
type InvertedGapAssay struct {
	Begin, End     float64
	FirstBlock     config.BlockType
	FirstBlockConc float64
}

func (Gradient) Kind() config.SubstrateType         { return config.ContinuousGradients }
func (Wedge) Kind() config.SubstrateType            { return config.Wedges }
func (StripeAssay) Kind() config.SubstrateType      { return config.Stripe }
func (GapAssay) Kind() config.SubstrateType         { return config.Gap }
func (InvertedGapAssay) Kind() config.SubstrateType { return config.GapInverted }

// StrategyFromConfig selects and parameterizes the strategy for a substrate config.
func StrategyFromConfig(cfg *config.Config) (Strategy, error) {
	sc := cfg.Substrate
	if missing := cfg.MissingSubstrateKeys(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s requires %v", config.ErrConfiguration, sc.Type, missing)
	}

	var st Strategy
	switch sc.Type {
	case config.ContinuousGradients:
		g := sc.Gradient
		st = Gradient{
			LigandMin:         *g.LigandMin,
			LigandMax:         *g.LigandMax,
			ReceptorMin:       *g.ReceptorMin,
			ReceptorMax:       *g.ReceptorMax,
			LigandSteepness:   *g.LigandSteepness,
			ReceptorSteepness: *g.ReceptorSteepness,
		}
	case config.Wedges:
		st = Wedge{NarrowEdge: *sc.Wedge.NarrowEdge, WideEdge: *sc.Wedge.WideEdge}
	case config.Stripe:
		s := sc.Stripe
		st = StripeAssay{
			Forward:      *s.Forward,
			Reverse:      *s.Reverse,
			LigandConc:   *s.LigandConc,
			ReceptorConc: *s.ReceptorConc,
			Width:        *s.Width,
		}
	case config.Gap:
		g := sc.Gap
		st = GapAssay{
			Begin:           *g.Begin,
			End:             *g.End,
			FirstBlock:      *g.FirstBlock,
			SecondBlock:     *g.SecondBlock,
			FirstBlockConc:  *g.FirstBlockConc,
			SecondBlockConc: *g.SecondBlockConc,
		}
	case config.GapInverted:
		g := sc.Gap
		st = InvertedGapAssay{
			Begin:          *g.Begin,
			End:            *g.End,
			FirstBlock:     *g.FirstBlock,
			FirstBlockConc: *g.FirstBlockConc,
		}
	default:
		return nil, fmt.Errorf("%w: unknown substrate type %q", config.ErrConfiguration, sc.Type)
	}
	return st, nil
}

func (g Gradient) apply(s *Substrate) error {
	if g.LigandSteepness <= 0 || g.ReceptorSteepness <= 0 {
		return fmt.Errorf("%w: gradient steepness must be positive", config.ErrConfiguration)
	}
	if g.LigandMin < 0 || g.LigandMax < 0 || g.ReceptorMin < 0 || g.ReceptorMax < 0 {
		return fmt.Errorf("%w: gradient bounds must not be negative", config.ErrConfiguration)
	}

	n := s.InnerCols()
	t := make([]float64, n)
	if n > 1 {
		floats.Span(t, 0, 1)
	}

	ligand := make([]float64, n)
	receptor := make([]float64, n)
	for c := range t {
		ligand[c] = g.LigandMin + (g.LigandMax-g.LigandMin)*math.Pow(t[c], g.LigandSteepness)
		receptor[c] = g.ReceptorMin + (g.ReceptorMax-g.ReceptorMin)*math.Pow(t[n-1-c], g.ReceptorSteepness)
	}

	s.tileRows(
		extendBorder(ligand, s.Offset, g.LigandSteepness),
		extendBorder(receptor, s.Offset, g.ReceptorSteepness),
	)
	return nil
}

// extendBorder pads a profile by offset samples per side. Border sample k
// (1-based, counted outward) is edge·ratio^(k·steepness), where ratio is the
// edge sample over its inner neighbour.
func extendBorder(profile []float64, offset int, steepness float64) []float64 {
	n := len(profile)
	out := make([]float64, n+2*offset)
	copy(out[offset:], profile)
	if n == 0 {
		return out
	}

	left := edgeRatio(profile[0], profile[min(1, n-1)])
	right := edgeRatio(profile[n-1], profile[max(n-2, 0)])
	for k := 1; k <= offset; k++ {
		out[offset-k] = profile[0] * math.Pow(left, float64(k)*steepness)
		out[offset+n-1+k] = profile[n-1] * math.Pow(right, float64(k)*steepness)
	}
	return out
}

func edgeRatio(edge, inner float64) float64 {
	if inner == 0 || edge == inner {
		return 1
	}
	return edge / inner
}

func (w Wedge) apply(s *Substrate) error {
	if w.NarrowEdge < 1 || w.WideEdge < 1 {
		return fmt.Errorf("%w: wedge edges must be at least 1", config.ErrConfiguration)
	}

	for r := 0; r < s.Rows; r++ {
		s.SetRowLigandOnly(r, 1)
	}

	period := w.WideEdge + w.NarrowEdge
	ratio := float64(s.Cols) / float64(w.WideEdge) * 2
	half := w.WideEdge / 2

	for n := 0; n < s.Rows/period; n++ {
		start := n*period + 1
		end := start + half
		for i := start; i < end; i++ {
			s.fillRowPrefix(i, int(float64(i-start+1)*ratio))
		}

		if w.NarrowEdge > 1 {
			for i := end; i < end+w.NarrowEdge-1; i++ {
				s.SetRowReceptorOnly(i, 1)
			}
			end += w.NarrowEdge - 1
		}

		lowStart := end - 1
		lowEnd := lowStart + half
		for i := lowStart; i <= lowEnd; i++ {
			s.fillRowPrefix(i, int(float64(lowEnd-i+1)*ratio))
		}
	}
	return nil
}

// fillRowPrefix makes the first n cells of a row receptor-only.
func (s *Substrate) fillRowPrefix(row, n int) {
	if row < 0 || row >= s.Rows {
		return
	}
	n = min(n, s.Cols)
	for c := 0; c < n; c++ {
		s.Ligands.Set(row, c, 0)
		s.Receptors.Set(row, c, 1)
	}
}

func (st StripeAssay) apply(s *Substrate) error {
	if st.Width <= 0 {
		return fmt.Errorf("%w: stripe width must be positive", config.ErrConfiguration)
	}
	if st.LigandConc < 0 || st.ReceptorConc < 0 {
		return fmt.Errorf("%w: stripe concentrations must not be negative", config.ErrConfiguration)
	}

	for r := 0; r < s.Rows; r++ {
		band := int(math.Floor(float64(r) / st.Width))
		if band%2 == 0 {
			if st.Forward {
				s.SetRowLigandOnly(r, st.LigandConc)
			}
		} else if st.Reverse {
			s.SetRowReceptorOnly(r, st.ReceptorConc)
		}
	}
	return nil
}

func (g GapAssay) apply(s *Substrate) error {
	if err := checkBlock(g.FirstBlock, g.FirstBlockConc); err != nil {
		return err
	}
	if err := checkBlock(g.SecondBlock, g.SecondBlockConc); err != nil {
		return err
	}

	first, second := gapBounds(s.Cols, g.Begin, g.End)
	for c := 0; c < first; c++ {
		s.setBlockCol(c, g.FirstBlock, g.FirstBlockConc)
	}
	for c := first; c < second; c++ {
		s.SetColEmpty(c)
	}
	for c := second; c < s.Cols; c++ {
		s.setBlockCol(c, g.SecondBlock, g.SecondBlockConc)
	}
	return nil
}

func (g InvertedGapAssay) apply(s *Substrate) error {
	if err := checkBlock(g.FirstBlock, g.FirstBlockConc); err != nil {
		return err
	}

	first, second := gapBounds(s.Cols, g.Begin, g.End)
	for c := first; c < second; c++ {
		s.setBlockCol(c, g.FirstBlock, g.FirstBlockConc)
	}
	return nil
}

// gapBounds returns the first empty column and the first column of the
// trailing block.
func gapBounds(cols int, begin, end float64) (first, second int) {
	first = min(int(float64(cols)*begin), cols)
	second = min(first+int(float64(cols)*end), cols)
	return first, second
}

func (s *Substrate) setBlockCol(col int, block config.BlockType, conc float64) {
	if block == config.Ligand {
		s.SetColLigandOnly(col, conc)
	} else {
		s.SetColReceptorOnly(col, conc)
	}
}

func checkBlock(block config.BlockType, conc float64) error {
	if !block.Valid() {
		return fmt.Errorf("%w: unknown block type %q", config.ErrConfiguration, block)
	}
	if conc < 0 {
		return fmt.Errorf("%w: block concentration must not be negative", config.ErrConfiguration)
	}
	return nil
}
