package telemetry

import "math"

// LifetimeStats tracks per-cone statistics over a run.
type LifetimeStats struct {
	ID     int  `csv:"id" json:"id"`
	Marked bool `csv:"marked" json:"marked"`

	Proposals int `csv:"proposals" json:"proposals"`
	Accepted  int `csv:"accepted" json:"accepted"`
	Rejected  int `csv:"rejected" json:"rejected"`
	Discarded int `csv:"discarded" json:"discarded"`
	Stayed    int `csv:"stayed" json:"stayed"`

	PathLength float64 `csv:"path_length" json:"path_length"`
	MinRho     float64 `csv:"min_rho" json:"min_rho"`
}

// LifetimeTracker manages per-cone lifetime statistics.
type LifetimeTracker struct {
	stats map[int]*LifetimeStats
	order []int
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{stats: make(map[int]*LifetimeStats)}
}

// Register creates lifetime stats for a cone.
func (lt *LifetimeTracker) Register(id int, marked bool, rho float64) {
	if _, ok := lt.stats[id]; !ok {
		lt.order = append(lt.order, id)
	}
	lt.stats[id] = &LifetimeStats{ID: id, Marked: marked, MinRho: rho}
}

// Get returns the lifetime stats for a cone, or nil if not found.
func (lt *LifetimeTracker) Get(id int) *LifetimeStats {
	return lt.stats[id]
}

// RecordOutcome counts a move outcome; dist is the distance moved on accept.
func (lt *LifetimeTracker) RecordOutcome(id int, o Outcome, dist float64) {
	s := lt.stats[id]
	if s == nil {
		return
	}
	switch o {
	case OutcomeAccepted:
		s.Proposals++
		s.Accepted++
		s.PathLength += dist
	case OutcomeRejected:
		s.Proposals++
		s.Rejected++
	case OutcomeDiscarded:
		s.Discarded++
	default:
		s.Stayed++
	}
}

// UpdateRho tracks the lowest rho reached.
func (lt *LifetimeTracker) UpdateRho(id int, rho float64) {
	if s := lt.stats[id]; s != nil {
		s.MinRho = math.Min(s.MinRho, rho)
	}
}

// All returns the tracked stats in registration order.
func (lt *LifetimeTracker) All() []LifetimeStats {
	out := make([]LifetimeStats, 0, len(lt.order))
	for _, id := range lt.order {
		out = append(out, *lt.stats[id])
	}
	return out
}

// Count returns the number of tracked cones.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
