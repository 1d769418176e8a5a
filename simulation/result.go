package simulation

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/retinotectal/components"
	"github.com/pthm-cable/retinotectal/systems"
	"github.com/pthm-cable/retinotectal/telemetry"
)

// Interim is the cone positions at a configured marker step, in cone order.
type Interim struct {
	Step      int
	Positions []components.Position
}

// GrowthCone is a read-only view of one cone.
type GrowthCone struct {
	components.Identity
	Position   components.Position
	Sensors    components.Sensors
	Adaptation components.Adaptation
	History    components.History
}

// Result is the outcome of a run.
type Result struct {
	Steps   int
	IDs     []int                 // cone order
	Final   []components.Position // cone order
	Interim []Interim
	Cones   []GrowthCone

	index map[int]int
}

// Cones returns a view of every cone in order. Histories share storage with
// the simulation and must not be modified.
func (s *Simulation) Cones() []GrowthCone {
	out := make([]GrowthCone, len(s.entities))
	for i, e := range s.entities {
		pos, id, sensors, adapt, history := s.cones.Get(e)
		out[i] = GrowthCone{
			Identity:   *id,
			Position:   *pos,
			Sensors:    *sensors,
			Adaptation: *adapt,
			History:    *history,
		}
	}
	return out
}

// Result assembles the current state. It may be called mid-run.
func (s *Simulation) Result() *Result {
	cones := s.Cones()
	r := &Result{
		Steps:   s.step,
		IDs:     make([]int, len(cones)),
		Final:   make([]components.Position, len(cones)),
		Interim: s.interim,
		Cones:   cones,
		index:   make(map[int]int, len(cones)),
	}
	for i, c := range cones {
		r.IDs[i] = c.ID
		r.Final[i] = c.Position
		r.index[c.ID] = i
	}
	return r
}

// Cone returns the cone with the given ID.
func (r *Result) Cone(id int) (*GrowthCone, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return &r.Cones[i], true
}

// History returns the history of the cone with the given ID.
func (r *Result) History(id int) (*components.History, bool) {
	c, ok := r.Cone(id)
	if !ok {
		return nil, false
	}
	return &c.History, true
}

// unmarked returns retinal origin and final tectal x of the unmarked cones.
func (r *Result) unmarked() (origin, x []float64) {
	for _, c := range r.Cones {
		if c.Marked {
			continue
		}
		origin = append(origin, c.Origin)
		x = append(x, c.Position.X)
	}
	return origin, x
}

// MappingCorrelation is the correlation between retinal origin and final
// tectal x over unmarked cones.
func (r *Result) MappingCorrelation() float64 {
	origin, x := r.unmarked()
	return telemetry.MappingCorrelation(origin, x)
}

// Spread is the range of final tectal x over unmarked cones.
func (r *Result) Spread() float64 {
	_, x := r.unmarked()
	if len(x) == 0 {
		return 0
	}
	return floats.Max(x) - floats.Min(x)
}

// FinalRecords returns one row per cone.
func (r *Result) FinalRecords() []telemetry.FinalRecord {
	out := make([]telemetry.FinalRecord, len(r.Cones))
	for i, c := range r.Cones {
		out[i] = telemetry.FinalRecord{
			ID:        c.ID,
			Marked:    c.Marked,
			Frozen:    c.Frozen,
			X:         c.Position.X,
			Y:         c.Position.Y,
			Rho:       c.Sensors.Rho,
			Potential: c.Adaptation.Potential,
		}
	}
	return out
}

// TrajectoryRecords flattens every history entry of every cone.
func (r *Result) TrajectoryRecords() []telemetry.TrajectoryRecord {
	var out []telemetry.TrajectoryRecord
	for _, c := range r.Cones {
		h := &c.History
		for step := 0; step < h.Len(); step++ {
			out = append(out, telemetry.TrajectoryRecord{
				ID:            c.ID,
				Step:          step,
				X:             h.Position[step].X,
				Y:             h.Position[step].Y,
				Potential:     h.Potential[step],
				Coefficient:   h.Coefficient[step],
				Rho:           h.Rho[step],
				ResetForce:    h.ResetForce[step],
				OuterLigand:   h.OuterLigand[step],
				OuterReceptor: h.OuterReceptor[step],
				InnerLigand:   h.InnerLigand[step],
				InnerReceptor: h.InnerReceptor[step],
			})
		}
	}
	return out
}

// InterimRecords flattens the interim snapshots.
func (r *Result) InterimRecords() []telemetry.InterimRecord {
	var out []telemetry.InterimRecord
	for _, snap := range r.Interim {
		for i, p := range snap.Positions {
			out = append(out, telemetry.InterimRecord{Step: snap.Step, ID: r.IDs[i], X: p.X, Y: p.Y})
		}
	}
	return out
}

// CellRecords dumps every substrate cell.
func CellRecords(sub *systems.Substrate) []telemetry.CellRecord {
	out := make([]telemetry.CellRecord, 0, sub.Rows*sub.Cols)
	for row := 0; row < sub.Rows; row++ {
		for col := 0; col < sub.Cols; col++ {
			lig, rec := sub.At(col, row)
			out = append(out, telemetry.CellRecord{Row: row, Col: col, Ligand: lig, Receptor: rec})
		}
	}
	return out
}

// Write saves the result tables through om.
func (r *Result) Write(om *telemetry.OutputManager, sub *systems.Substrate, lifetimes []telemetry.LifetimeStats) error {
	if om == nil {
		return nil
	}
	if err := om.WriteFinal(r.FinalRecords()); err != nil {
		return err
	}
	if err := om.WriteTrajectories(r.TrajectoryRecords()); err != nil {
		return err
	}
	if err := om.WriteInterim(r.InterimRecords()); err != nil {
		return err
	}
	if err := om.WriteSubstrate(CellRecords(sub)); err != nil {
		return err
	}
	return om.WriteLifetimes(lifetimes)
}

// snapshot captures the live state for a JSON snapshot.
func (s *Simulation) snapshot(bm *telemetry.Bookmark) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:       telemetry.SnapshotVersion,
		RunID:         s.runID,
		Seed:          s.cfg.Simulation.Seed,
		SubstrateType: string(s.substrate.Kind()),
		Rows:          s.substrate.Rows,
		Cols:          s.substrate.Cols,
		Offset:        s.substrate.Offset,
		Step:          s.step,
		FFCoef:        s.calc.Ramp.Coefficient(s.step),
		Bookmark:      bm,
	}
	for _, e := range s.entities {
		pos, id, sensors, adapt, _ := s.cones.Get(e)
		snap.Cones = append(snap.Cones, telemetry.ConeState{
			ID:          id.ID,
			Frozen:      id.Frozen,
			Marked:      id.Marked,
			X:           pos.X,
			Y:           pos.Y,
			Ligand:      sensors.Ligand,
			Receptor:    sensors.Receptor,
			Rho:         sensors.Rho,
			Potential:   adapt.Potential,
			Coefficient: adapt.Coefficient,
			ResetForce:  adapt.ResetForce,
			Lifetime:    s.lifetimes.Get(id.ID),
		})
	}
	return snap
}

func (s *Simulation) saveSnapshot(bm *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(s.snapshot(bm), s.snapshotDir)
	if err != nil {
		s.logger.Error("failed to save snapshot", "error", err)
		return
	}
	s.logger.Debug("snapshot saved", "path", path, "step", s.step)
}

func distance(a, b components.Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
