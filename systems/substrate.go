package systems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/retinotectal/config"
)

// Substrate is the tectal field: ligand and receptor concentrations on a
// grid padded by Offset cells on every side. It is filled exactly once by
// Initialize and is read-only afterwards.
type Substrate struct {
	Rows, Cols int // padded dimensions
	Offset     int

	Ligands   *mat.Dense
	Receptors *mat.Dense

	kind        config.SubstrateType
	initialized bool
}

// NewSubstrate allocates an empty substrate of (rows+2·offset)x(cols+2·offset).
func NewSubstrate(rows, cols, offset int) *Substrate {
	pr, pc := rows+2*offset, cols+2*offset
	return &Substrate{
		Rows:      pr,
		Cols:      pc,
		Offset:    offset,
		Ligands:   mat.NewDense(pr, pc, nil),
		Receptors: mat.NewDense(pr, pc, nil),
	}
}

// Initialize fills the field with the given strategy. It may be called once.
func (s *Substrate) Initialize(strategy Strategy) error {
	if s.initialized {
		return fmt.Errorf("%w: substrate already initialized as %s", config.ErrConfiguration, s.kind)
	}
	if strategy == nil {
		return fmt.Errorf("%w: no substrate strategy", config.ErrConfiguration)
	}
	if err := strategy.apply(s); err != nil {
		return err
	}
	if err := s.checkField(); err != nil {
		return err
	}
	s.kind = strategy.Kind()
	s.initialized = true
	return nil
}

// Kind returns the strategy that filled the substrate.
func (s *Substrate) Kind() config.SubstrateType {
	return s.kind
}

// Initialized reports whether Initialize has completed.
func (s *Substrate) Initialized() bool {
	return s.initialized
}

// InnerCols is the number of columns excluding the border.
func (s *Substrate) InnerCols() int {
	return s.Cols - 2*s.Offset
}

// InnerRows is the number of rows excluding the border.
func (s *Substrate) InnerRows() int {
	return s.Rows - 2*s.Offset
}

// Contains reports whether a cone centered at (col,row) keeps its whole
// footprint of the given radius inside the field.
func (s *Substrate) Contains(col, row, radius int) bool {
	return col-radius >= 0 && row-radius >= 0 && col+radius < s.Cols && row+radius < s.Rows
}

// At returns the ligand and receptor concentration of a cell.
func (s *Substrate) At(col, row int) (ligand, receptor float64) {
	return s.Ligands.At(row, col), s.Receptors.At(row, col)
}

// SetColLigandOnly makes a column carry only ligand at conc.
func (s *Substrate) SetColLigandOnly(col int, conc float64) { s.setCol(col, conc, 0) }

// SetColReceptorOnly makes a column carry only receptor at conc.
func (s *Substrate) SetColReceptorOnly(col int, conc float64) { s.setCol(col, 0, conc) }

// SetColEmpty clears a column.
func (s *Substrate) SetColEmpty(col int) { s.setCol(col, 0, 0) }

// SetRowLigandOnly makes a row carry only ligand at conc.
func (s *Substrate) SetRowLigandOnly(row int, conc float64) { s.setRow(row, conc, 0) }

// SetRowReceptorOnly makes a row carry only receptor at conc.
func (s *Substrate) SetRowReceptorOnly(row int, conc float64) { s.setRow(row, 0, conc) }

// SetRowEmpty clears a row.
func (s *Substrate) SetRowEmpty(row int) { s.setRow(row, 0, 0) }

func (s *Substrate) setCol(col int, ligand, receptor float64) {
	if col < 0 || col >= s.Cols {
		return
	}
	for r := 0; r < s.Rows; r++ {
		s.Ligands.Set(r, col, ligand)
		s.Receptors.Set(r, col, receptor)
	}
}

func (s *Substrate) setRow(row int, ligand, receptor float64) {
	if row < 0 || row >= s.Rows {
		return
	}
	for c := 0; c < s.Cols; c++ {
		s.Ligands.Set(row, c, ligand)
		s.Receptors.Set(row, c, receptor)
	}
}

// tileRows copies the given profiles into every row.
func (s *Substrate) tileRows(ligand, receptor []float64) {
	for r := 0; r < s.Rows; r++ {
		s.Ligands.SetRow(r, ligand)
		s.Receptors.SetRow(r, receptor)
	}
}

func (s *Substrate) checkField() error {
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			l, rc := s.Ligands.At(r, c), s.Receptors.At(r, c)
			if !finiteNonNegative(l) || !finiteNonNegative(rc) {
				return fmt.Errorf("%w: substrate cell (col=%d,row=%d) has ligand=%g receptor=%g",
					config.ErrConfiguration, c, r, l, rc)
			}
		}
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
