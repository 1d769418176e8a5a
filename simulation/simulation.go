// Package simulation runs growth cones over a substrate and collects the
// resulting projection.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/retinotectal/components"
	"github.com/pthm-cable/retinotectal/config"
	"github.com/pthm-cable/retinotectal/systems"
	"github.com/pthm-cable/retinotectal/telemetry"
)

var (
	// ErrCompleted is returned by Step once all configured steps have run.
	ErrCompleted = errors.New("simulation completed")
	// ErrUnknownCone is returned when an ID names no cone.
	ErrUnknownCone = errors.New("unknown cone")
)

// State is the lifecycle stage of a simulation.
type State uint8

const (
	StateInitialized State = iota
	StateStepping
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateStepping:
		return "stepping"
	case StateCompleted:
		return "completed"
	}
	return "unknown"
}

// Options holds the runtime collaborators of a simulation.
type Options struct {
	Logger *slog.Logger // nil = slog.Default()

	// Source drives every random draw. nil = PCG seeded from the config seed.
	Source rand.Source

	// Workers for potential evaluation. 0 = config workers, then GOMAXPROCS.
	Workers int

	Output      *telemetry.OutputManager // nil = no CSV output
	SnapshotDir string                   // empty = no JSON snapshots
	RunID       string
}

type coneMapper = ecs.Map5[
	components.Position,
	components.Identity,
	components.Sensors,
	components.Adaptation,
	components.History,
]

type coneFilter = ecs.Filter5[
	components.Position,
	components.Identity,
	components.Sensors,
	components.Adaptation,
	components.History,
]

// Simulation owns a substrate and an ordered cone population and advances
// them in discrete steps.
type Simulation struct {
	cfg       *config.Config
	logger    *slog.Logger
	substrate *systems.Substrate
	calc      *systems.Calculator
	accept    systems.Acceptance
	adapt     systems.AdaptationParams

	world    *ecs.World
	cones    *coneMapper
	filter   *coneFilter
	entities []ecs.Entity // cone order
	index    map[int]int  // cone ID -> position in entities

	rng    *rand.Rand
	xTrial distuv.Bernoulli
	yTrial distuv.Bernoulli

	grid     *systems.SpatialGrid
	reach    float64
	parallel *parallelState

	step    int
	state   State
	err     error
	interim []Interim

	collector   *telemetry.Collector
	perf        *telemetry.PerfCollector
	bookmarks   *telemetry.BookmarkDetector
	lifetimes   *telemetry.LifetimeTracker
	output      *telemetry.OutputManager
	snapshotDir string
	runID       string
}

// New creates a simulation over an initialized substrate. Cones are placed
// in the given order, which is the order of every sequential phase.
// Initial potentials are evaluated at step 0 and form history entry 0.
func New(cfg *config.Config, sub *systems.Substrate, cones []ConeSpec, opts Options) (*Simulation, error) {
	if sub == nil || !sub.Initialized() {
		return nil, fmt.Errorf("%w: substrate not initialized", config.ErrConfiguration)
	}
	if len(cones) == 0 {
		return nil, fmt.Errorf("%w: no growth cones", config.ErrConfiguration)
	}

	calc, err := systems.NewCalculator(cfg, sub)
	if err != nil {
		return nil, err
	}
	accept, err := systems.NewAcceptance(cfg.Movement)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	src := opts.Source
	if src == nil {
		seed := uint64(cfg.Simulation.Seed)
		src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Simulation.Workers
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Adopted cones may be wider than this config's gc_size.
	for _, c := range cones {
		calc.FitRadius(c.Radius)
	}
	world := ecs.NewWorld()
	reach := calc.Overlap.Reach() + 1

	s := &Simulation{
		cfg:       cfg,
		logger:    logger,
		substrate: sub,
		calc:      calc,
		accept:    accept,
		adapt: systems.AdaptationParams{
			Mu:     cfg.Adaptation.Mu,
			Lambda: cfg.Adaptation.Lambda,
		},
		world:  world,
		cones:  ecs.NewMap5[components.Position, components.Identity, components.Sensors, components.Adaptation, components.History](world),
		filter: ecs.NewFilter5[components.Position, components.Identity, components.Sensors, components.Adaptation, components.History](world),
		index:  make(map[int]int, len(cones)),

		rng:    rand.New(src),
		xTrial: distuv.Bernoulli{P: cfg.Movement.XStepPossibility, Src: src},
		yTrial: distuv.Bernoulli{P: cfg.Movement.YStepPossibility, Src: src},

		grid:     systems.NewSpatialGrid(float64(sub.Cols), float64(sub.Rows), max(reach, 1)),
		reach:    reach,
		parallel: newParallelState(workers, len(cones)),

		perf:        telemetry.NewPerfCollector(max(cfg.Reporting.StatsWindow, 1)),
		lifetimes:   telemetry.NewLifetimeTracker(),
		output:      opts.Output,
		snapshotDir: opts.SnapshotDir,
		runID:       opts.RunID,
	}

	if cfg.Reporting.StatsWindow > 0 {
		s.collector = telemetry.NewCollector(cfg.Reporting.StatsWindow)
		var ffHeight float64
		if cfg.Interaction.FFInter {
			ffHeight = cfg.Interaction.SigmoidHeight
		}
		s.bookmarks = telemetry.NewBookmarkDetector(10, cfg.Cones.Rho, ffHeight)
	}

	if err := s.spawn(cones); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// spawn creates the cone entities and records their initial state.
func (s *Simulation) spawn(cones []ConeSpec) error {
	for _, c := range cones {
		if _, dup := s.index[c.ID]; dup {
			return fmt.Errorf("%w: duplicate cone id %d", config.ErrConfiguration, c.ID)
		}
		col, row := components.Position{X: c.X, Y: c.Y}.Cell()
		if !s.substrate.Contains(col, row, c.Radius) {
			return fmt.Errorf("%w: cone %d at (%g, %g) does not fit the %dx%d substrate",
				config.ErrConfiguration, c.ID, c.X, c.Y, s.substrate.Cols, s.substrate.Rows)
		}

		pos := components.Position{X: c.X, Y: c.Y}
		id := components.Identity{ID: c.ID, Radius: c.Radius, Frozen: c.Frozen, Marked: c.Marked, Origin: c.Origin}
		sensors := components.NewSensors(c.Ligand, c.Receptor, c.Rho)
		adapt := components.NewAdaptation()
		var history components.History

		s.index[c.ID] = len(s.entities)
		s.entities = append(s.entities, s.cones.NewEntity(&pos, &id, &sensors, &adapt, &history))
		s.lifetimes.Register(c.ID, c.Marked, c.Rho)
	}

	s.takeSnapshots()
	for i := range s.parallel.intents {
		s.parallel.intents[i] = intent{}
	}
	if err := s.computePotentials(0); err != nil {
		return err
	}

	capacity := s.cfg.Simulation.StepNum + 1
	for i, e := range s.entities {
		pos, _, sensors, adapt, history := s.cones.Get(e)
		adapt.Potential = s.parallel.intents[i].Current
		*history = components.NewHistory(*pos, *sensors, *adapt, capacity)
	}
	return nil
}

// Step advances the simulation by one step.
func (s *Simulation) Step() error {
	if s.err != nil {
		return s.err
	}
	if s.state == StateCompleted {
		return ErrCompleted
	}
	s.state = StateStepping
	step := s.step + 1

	s.perf.StartStep()

	// Phase A: snapshot and propose (single-threaded, cone order)
	s.perf.StartPhase(telemetry.PhaseSnapshot)
	s.takeSnapshots()
	s.perf.StartPhase(telemetry.PhaseProposal)
	s.propose()

	// Phase B: evaluate potentials from snapshots only
	s.perf.StartPhase(telemetry.PhasePotential)
	if err := s.computePotentials(step); err != nil {
		s.perf.EndStep()
		s.fail(fmt.Errorf("step %d: %w", step, err))
		return s.err
	}
	s.perf.CountEvaluations(s.parallel.evaluations())

	// Phase C: accept and commit (single-threaded, cone order)
	s.perf.StartPhase(telemetry.PhaseAcceptance)
	s.commit()

	s.perf.StartPhase(telemetry.PhaseAdaptation)
	if s.cfg.Adaptation.Enabled && step%s.cfg.Adaptation.History == 0 {
		s.adaptAll()
	}

	s.perf.StartPhase(telemetry.PhaseRecord)
	s.record()
	s.step = step
	if s.cfg.Derived.InterimMarkers[step] {
		s.captureInterim(step)
	}

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.report(step)
	s.perf.EndStep()

	if step >= s.cfg.Simulation.StepNum {
		s.state = StateCompleted
		s.logger.Debug("simulation completed", "steps", humanize.Comma(int64(step)))
	}
	return nil
}

// Run steps until completion or until ctx is done, then returns the result.
// Output files are written when an output manager is configured.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	for s.state != StateCompleted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.Step(); err != nil {
			return nil, err
		}
	}

	res := s.Result()
	if s.output != nil {
		if err := res.Write(s.output, s.substrate, s.lifetimes.All()); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Freeze stops a cone from proposing moves. It keeps interacting and adapting.
func (s *Simulation) Freeze(id int) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCone, id)
	}
	_, ident, _, _, _ := s.cones.Get(s.entities[i])
	ident.Frozen = true
	return nil
}

// Close stops the worker pool.
func (s *Simulation) Close() {
	s.parallel.stopWorkers()
}

// State returns the lifecycle stage.
func (s *Simulation) State() State { return s.state }

// CurrentStep returns the number of completed steps.
func (s *Simulation) CurrentStep() int { return s.step }

// Substrate returns the field the cones grow on.
func (s *Simulation) Substrate() *systems.Substrate { return s.substrate }

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() *config.Config { return s.cfg }

// Lifetimes returns per-cone move statistics in cone order.
func (s *Simulation) Lifetimes() []telemetry.LifetimeStats { return s.lifetimes.All() }

func (s *Simulation) fail(err error) {
	s.err = err
	s.state = StateCompleted
	s.logger.Error("simulation aborted", "error", err)
}

// takeSnapshots captures every cone in order and rebuilds the spatial grid.
func (s *Simulation) takeSnapshots() {
	p := s.parallel
	p.snapshots = p.snapshots[:0]
	for _, e := range s.entities {
		pos, id, sensors, _, _ := s.cones.Get(e)
		p.snapshots = append(p.snapshots, systems.NewConeState(*id, *pos, *sensors))
	}

	n := len(p.snapshots)
	if cap(p.intents) < n {
		p.intents = make([]intent, n)
	}
	p.intents = p.intents[:n]

	s.grid.Rebuild(p.snapshots)
}

// propose draws a move for every non-frozen cone. Draw order is fixed:
// x trial, y trial, then a direction coin per firing axis.
func (s *Simulation) propose() {
	p := s.parallel
	stepSize := s.cfg.Simulation.StepSize
	off := float64(s.substrate.Offset)
	maxX := float64(s.substrate.Cols-1) - off
	maxY := float64(s.substrate.Rows-1) - off

	for i := range p.snapshots {
		snap := &p.snapshots[i]
		in := &p.intents[i]
		*in = intent{Outcome: telemetry.OutcomeStayed, Target: snap.Position}
		if snap.Frozen {
			continue
		}

		moveX := s.xTrial.Rand() == 1
		moveY := s.yTrial.Rand() == 1
		if moveX {
			in.Target.X += s.direction() * stepSize
		}
		if moveY {
			in.Target.Y += s.direction() * stepSize
		}
		if !moveX && !moveY {
			continue
		}

		t := in.Target
		if t.X < off || t.X > maxX || t.Y < off || t.Y > maxY {
			in.Outcome = telemetry.OutcomeDiscarded
			in.Target = snap.Position
			continue
		}
		in.Moving = true
	}
}

func (s *Simulation) direction() float64 {
	if s.rng.IntN(2) == 0 {
		return -1
	}
	return 1
}

// commit applies acceptance decisions in cone order.
func (s *Simulation) commit() {
	p := s.parallel
	for i, e := range s.entities {
		in := &p.intents[i]
		pos, id, _, adapt, _ := s.cones.Get(e)

		adapt.Potential = in.Current
		var dist float64
		if in.Moving {
			u := s.rng.Float64()
			if systems.Accept(s.accept, in.Current, in.Candidate, u) {
				dist = distance(*pos, in.Target)
				*pos = in.Target
				adapt.Potential = in.Candidate
				in.Outcome = telemetry.OutcomeAccepted
			} else {
				in.Outcome = telemetry.OutcomeRejected
			}
		}

		if s.collector != nil {
			s.collector.Record(in.Outcome)
		}
		s.lifetimes.RecordOutcome(id.ID, in.Outcome, dist)
	}
}

// adaptAll runs one adaptation tick over every cone, frozen ones included.
func (s *Simulation) adaptAll() {
	h := s.cfg.Adaptation.History
	query := s.filter.Query()
	for query.Next() {
		_, id, sensors, adapt, history := query.Get()
		window := history.Window(h, adapt.Potential)
		if systems.Adapt(s.adapt, window, sensors, adapt) {
			s.lifetimes.UpdateRho(id.ID, sensors.Rho)
		}
	}
}

// record appends one history entry per cone.
func (s *Simulation) record() {
	query := s.filter.Query()
	for query.Next() {
		pos, _, sensors, adapt, history := query.Get()
		history.Record(*pos, *sensors, *adapt)
	}
}

func (s *Simulation) captureInterim(step int) {
	positions := make([]components.Position, len(s.entities))
	for i, e := range s.entities {
		pos, _, _, _, _ := s.cones.Get(e)
		positions[i] = *pos
	}
	s.interim = append(s.interim, Interim{Step: step, Positions: positions})

	if s.snapshotDir != "" {
		s.saveSnapshot(nil)
	}
}

// report flushes the telemetry window and checks for bookmarks.
func (s *Simulation) report(step int) {
	if s.collector == nil || !s.collector.ShouldFlush(step) {
		return
	}

	stats := s.collector.Flush(step, s.population(), s.calc.Ramp.Coefficient(step))
	perfStats := s.perf.Stats()

	s.logger.Info("window",
		"step", humanize.Comma(int64(step)),
		"of", humanize.Comma(int64(s.cfg.Simulation.StepNum)),
		"stats", stats,
	)
	s.logger.Debug("perf", "perf", perfStats)

	if err := s.output.WriteStats(stats); err != nil {
		s.logger.Error("failed to write stats", "error", err)
	}
	if err := s.output.WritePerf(perfStats, step); err != nil {
		s.logger.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		s.logger.Info("bookmark", "bookmark", bm)
		if err := s.output.WriteBookmark(bm); err != nil {
			s.logger.Error("failed to write bookmark", "error", err)
		}
		if s.snapshotDir != "" {
			s.saveSnapshot(&bm)
		}
	}
}

// population samples the live state for window statistics.
func (s *Simulation) population() telemetry.Population {
	var pop telemetry.Population
	query := s.filter.Query()
	for query.Next() {
		pos, id, sensors, adapt, _ := query.Get()
		pop.Potentials = append(pop.Potentials, adapt.Potential)
		pop.Rhos = append(pop.Rhos, sensors.Rho)
		pop.Coefficients = append(pop.Coefficients, adapt.Coefficient)
		if id.Frozen {
			pop.Frozen++
		}
		if !id.Marked {
			pop.RetinalOrder = append(pop.RetinalOrder, id.Origin)
			pop.TectalX = append(pop.TectalX, pos.X)
		}
	}
	return pop
}
