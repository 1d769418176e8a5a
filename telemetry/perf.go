package telemetry

import (
	"log/slog"
	"time"
)

// Phase is one timed section of a simulation step.
type Phase uint8

const (
	PhaseSnapshot Phase = iota
	PhaseProposal
	PhasePotential
	PhaseAcceptance
	PhaseAdaptation
	PhaseRecord
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{
	"snapshot", "proposal", "potential", "acceptance", "adaptation", "record", "telemetry",
}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// stepTiming is the measured cost of one step.
type stepTiming struct {
	total  time.Duration
	phases [numPhases]time.Duration
	evals  int // potential evaluations
}

// PerfCollector times step phases over a ring of the most recent steps.
// It is not safe for concurrent use.
type PerfCollector struct {
	ring   []stepTiming
	next   int
	filled int

	cur        stepTiming
	stepStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector averages over the last window steps (100 when window < 1).
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 100
	}
	return &PerfCollector{ring: make([]stepTiming, window)}
}

// StartStep begins timing a step.
func (p *PerfCollector) StartStep() {
	p.cur = stepTiming{}
	p.stepStart = time.Now()
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and opens ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase, p.phaseStart, p.inPhase = ph, now, true
}

// CountEvaluations adds n potential evaluations to the current step.
func (p *PerfCollector) CountEvaluations(n int) {
	p.cur.evals += n
}

// EndStep closes the running phase and stores the step in the ring.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.stepStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// PerfStats summarizes the steps currently in the ring.
type PerfStats struct {
	Steps int

	AvgStep time.Duration
	MinStep time.Duration
	MaxStep time.Duration

	// PhaseAvg is the mean time per step spent in each phase.
	PhaseAvg [numPhases]time.Duration

	StepsPerSecond float64
	// EvalsPerSecond is potential evaluations per second of potential phase.
	EvalsPerSecond float64
	// EvalsPerStep is the mean number of potential evaluations in a step.
	EvalsPerStep float64
}

// Stats aggregates the ring. It returns the zero value before any step ends.
func (p *PerfCollector) Stats() PerfStats {
	if p.filled == 0 {
		return PerfStats{}
	}

	st := PerfStats{Steps: p.filled, MinStep: p.ring[0].total}
	var total, potential time.Duration
	var evals int
	for _, s := range p.ring[:p.filled] {
		total += s.total
		st.MinStep = min(st.MinStep, s.total)
		st.MaxStep = max(st.MaxStep, s.total)
		for ph, d := range s.phases {
			st.PhaseAvg[ph] += d
		}
		potential += s.phases[PhasePotential]
		evals += s.evals
	}

	n := time.Duration(p.filled)
	st.AvgStep = total / n
	for ph := range st.PhaseAvg {
		st.PhaseAvg[ph] /= n
	}
	st.EvalsPerStep = float64(evals) / float64(p.filled)
	if st.AvgStep > 0 {
		st.StepsPerSecond = float64(time.Second) / float64(st.AvgStep)
	}
	if potential > 0 {
		st.EvalsPerSecond = float64(evals) / potential.Seconds()
	}
	return st
}

// Share returns the percentage of the average step spent in ph.
func (s PerfStats) Share(ph Phase) float64 {
	if s.AvgStep <= 0 || ph >= numPhases {
		return 0
	}
	return float64(s.PhaseAvg[ph]) / float64(s.AvgStep) * 100
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
		slog.Float64("evals_per_sec", s.EvalsPerSecond),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct := s.Share(ph); pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd     int     `csv:"window_end"`
	AvgStepUS     int64   `csv:"avg_step_us"`
	MinStepUS     int64   `csv:"min_step_us"`
	MaxStepUS     int64   `csv:"max_step_us"`
	StepsPerSec   float64 `csv:"steps_per_sec"`
	EvalsPerSec   float64 `csv:"evals_per_sec"`
	EvalsPerStep  float64 `csv:"evals_per_step"`
	SnapshotPct   float64 `csv:"snapshot_pct"`
	ProposalPct   float64 `csv:"proposal_pct"`
	PotentialPct  float64 `csv:"potential_pct"`
	AcceptancePct float64 `csv:"acceptance_pct"`
	AdaptationPct float64 `csv:"adaptation_pct"`
	RecordPct     float64 `csv:"record_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgStepUS:     s.AvgStep.Microseconds(),
		MinStepUS:     s.MinStep.Microseconds(),
		MaxStepUS:     s.MaxStep.Microseconds(),
		StepsPerSec:   s.StepsPerSecond,
		EvalsPerSec:   s.EvalsPerSecond,
		EvalsPerStep:  s.EvalsPerStep,
		SnapshotPct:   s.Share(PhaseSnapshot),
		ProposalPct:   s.Share(PhaseProposal),
		PotentialPct:  s.Share(PhasePotential),
		AcceptancePct: s.Share(PhaseAcceptance),
		AdaptationPct: s.Share(PhaseAdaptation),
		RecordPct:     s.Share(PhaseRecord),
		TelemetryPct:  s.Share(PhaseTelemetry),
	}
}
