package systems

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/retinotectal/config"
)

// Crop returns the anterior or posterior half of the substrate. The first
// row of the retained columns (border included) is re-tiled over every row,
// so the result is a fresh, initialized substrate. ScopeFull returns s.
func (s *Substrate) Crop(scope string) (*Substrate, error) {
	if !s.initialized {
		return nil, fmt.Errorf("%w: cannot crop an uninitialized substrate", config.ErrConfiguration)
	}

	off := s.Offset
	half := s.InnerCols()/2 + 2*off

	var from, to int
	switch scope {
	case config.ScopeFull:
		return s, nil
	case config.ScopeAnterior:
		from, to = 0, half
	case config.ScopePosterior:
		from, to = half-2*off, s.Cols
	default:
		return nil, fmt.Errorf("%w: unknown %s %q", config.ErrConfiguration, config.KeySubstrateScope, scope)
	}
	if to-from <= 2*off {
		return nil, fmt.Errorf("%w: substrate of %d columns is too narrow to crop", config.ErrConfiguration, s.InnerCols())
	}

	ligand := mat.Row(nil, 0, s.Ligands)[from:to]
	receptor := mat.Row(nil, 0, s.Receptors)[from:to]

	out := NewSubstrate(s.InnerRows(), to-from-2*off, off)
	out.tileRows(ligand, receptor)
	out.kind = s.kind
	out.initialized = true
	return out, nil
}
