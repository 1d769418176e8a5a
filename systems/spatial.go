package systems

import "math"

// SpatialGrid buckets cone snapshots by cell so fiber-fiber neighbours can
// be found without scanning the whole population. It stores indices into
// the caller's snapshot slice and is rebuilt once per step.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int
}

// NewSpatialGrid creates a grid covering a width x height field.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 4)
	}
	return &SpatialGrid{cellSize: cellSize, cols: cols, rows: rows, cells: cells}
}

// Clear removes all entries from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert records snapshot index i at (x,y).
func (g *SpatialGrid) Insert(i int, x, y float64) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], i)
}

// Rebuild clears the grid and inserts every snapshot in order.
func (g *SpatialGrid) Rebuild(states []ConeState) {
	g.Clear()
	for i := range states {
		g.Insert(i, states[i].Position.X, states[i].Position.Y)
	}
}

// QueryInto appends to dst the states within reach of (x,y) on both axes.
// Results follow cell order then insertion order, so they are deterministic.
func (g *SpatialGrid) QueryInto(dst []ConeState, states []ConeState, x, y, reach float64) []ConeState {
	span := int(math.Ceil(reach/g.cellSize)) + 1
	cc, cr := g.clamp(x, y)

	for r := max(cr-span, 0); r <= min(cr+span, g.rows-1); r++ {
		for c := max(cc-span, 0); c <= min(cc+span, g.cols-1); c++ {
			for _, i := range g.cells[r*g.cols+c] {
				s := &states[i]
				if math.Abs(s.Position.X-x) <= reach && math.Abs(s.Position.Y-y) <= reach {
					dst = append(dst, *s)
				}
			}
		}
	}
	return dst
}

func (g *SpatialGrid) clamp(x, y float64) (col, row int) {
	col = min(max(int(x/g.cellSize), 0), g.cols-1)
	row = min(max(int(y/g.cellSize), 0), g.rows-1)
	return col, row
}

func (g *SpatialGrid) cellIndex(x, y float64) int {
	col, row := g.clamp(x, y)
	return row*g.cols + col
}
