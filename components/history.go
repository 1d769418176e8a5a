package components

// History is a cone's append-only record: one entry per committed step,
// index 0 being the initial state. All series have equal length.
type History struct {
	Potential     []float64
	Coefficient   []float64
	Position      []Position
	Rho           []float64
	ResetForce    []float64
	OuterLigand   []float64
	OuterReceptor []float64
	InnerLigand   []float64
	InnerReceptor []float64
}

// NewHistory creates a history seeded with the initial state.
func NewHistory(pos Position, s Sensors, a Adaptation, capacity int) History {
	h := History{
		Potential:     make([]float64, 0, capacity),
		Coefficient:   make([]float64, 0, capacity),
		Position:      make([]Position, 0, capacity),
		Rho:           make([]float64, 0, capacity),
		ResetForce:    make([]float64, 0, capacity),
		OuterLigand:   make([]float64, 0, capacity),
		OuterReceptor: make([]float64, 0, capacity),
		InnerLigand:   make([]float64, 0, capacity),
		InnerReceptor: make([]float64, 0, capacity),
	}
	h.Record(pos, s, a)
	return h
}

// Record appends one entry.
func (h *History) Record(pos Position, s Sensors, a Adaptation) {
	h.Potential = append(h.Potential, a.Potential)
	h.Coefficient = append(h.Coefficient, a.Coefficient)
	h.Position = append(h.Position, pos)
	h.Rho = append(h.Rho, s.Rho)
	h.ResetForce = append(h.ResetForce, a.ResetForce)
	h.OuterLigand = append(h.OuterLigand, s.OuterLigand)
	h.OuterReceptor = append(h.OuterReceptor, s.OuterReceptor)
	h.InnerLigand = append(h.InnerLigand, s.InnerLigand)
	h.InnerReceptor = append(h.InnerReceptor, s.InnerReceptor)
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	return len(h.Potential)
}

// Window returns the newest n potentials ending with current, which is not
// yet recorded. The result is a fresh slice. It returns nil when fewer than
// n values exist.
func (h *History) Window(n int, current float64) []float64 {
	if n < 1 || h.Len()+1 < n {
		return nil
	}
	w := make([]float64, n)
	copy(w, h.Potential[h.Len()-(n-1):])
	w[n-1] = current
	return w
}
