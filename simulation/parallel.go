package simulation

import (
	"sync"

	"github.com/pthm-cable/retinotectal/components"
	"github.com/pthm-cable/retinotectal/systems"
	"github.com/pthm-cable/retinotectal/telemetry"
)

// parallelThreshold is the minimum cone count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// intent captures one cone's proposal and evaluated potentials for a step.
type intent struct {
	Outcome   telemetry.Outcome
	Moving    bool // a candidate inside the interior was proposed
	Target    components.Position
	Current   float64
	Candidate float64
	Err       error
}

// workChunk represents a range of cones for a worker to process.
type workChunk struct {
	start, end int
	step       int
}

// parallelState holds the per-step buffers and the persistent worker pool.
type parallelState struct {
	snapshots  []systems.ConeState
	intents    []intent
	scratches  [][]systems.ConeState // per-worker neighbour buffers
	numWorkers int

	// Worker pool channels
	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState(numWorkers, capacity int) *parallelState {
	if numWorkers < 1 {
		numWorkers = 1
	}
	scratches := make([][]systems.ConeState, numWorkers)
	for i := range scratches {
		scratches[i] = make([]systems.ConeState, 0, 64)
	}
	return &parallelState{
		numWorkers: numWorkers,
		scratches:  scratches,
		snapshots:  make([]systems.ConeState, 0, capacity),
		intents:    make([]intent, 0, capacity),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Simulation) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(s *Simulation, workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.scratches[workerID] = s.computeChunk(chunk.start, chunk.end, p.scratches[workerID], chunk.step)
			p.doneChan <- struct{}{}
		}
	}
}

// computePotentials evaluates current and candidate potentials for every
// snapshot. The first error in cone order is returned.
func (s *Simulation) computePotentials(step int) error {
	p := s.parallel
	n := len(p.snapshots)

	if n < parallelThreshold || p.numWorkers == 1 {
		p.scratches[0] = s.computeChunk(0, n, p.scratches[0], step)
	} else {
		s.computeParallel(n, step)
	}

	for i := range p.intents {
		if err := p.intents[i].Err; err != nil {
			return err
		}
	}
	return nil
}

// evaluations returns how many potentials the last computePotentials
// evaluated: one per cone plus one per proposed candidate.
func (p *parallelState) evaluations() int {
	n := len(p.intents)
	for i := range p.intents {
		if p.intents[i].Moving {
			n++
		}
	}
	return n
}

// computeParallel dispatches work to the worker pool and waits for it.
func (s *Simulation) computeParallel(n, step int) {
	p := s.parallel
	if !p.running {
		p.startWorkers(s)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, step: step}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// computeChunk evaluates cones [i0, i1). It reads only snapshots and the
// spatial grid and writes only its own intents.
func (s *Simulation) computeChunk(i0, i1 int, scratch []systems.ConeState, step int) []systems.ConeState {
	p := s.parallel
	for i := i0; i < i1; i++ {
		snap := &p.snapshots[i]
		in := &p.intents[i]

		scratch = s.neighbours(scratch[:0], snap.Position)
		in.Current, in.Err = s.calc.Potential(*snap, snap.Position, scratch, step)
		if in.Err != nil || !in.Moving {
			continue
		}

		scratch = s.neighbours(scratch[:0], in.Target)
		in.Candidate, in.Err = s.calc.Potential(*snap, in.Target, scratch, step)
	}
	return scratch
}

// neighbours returns the snapshots that can interact with a cone at pos.
func (s *Simulation) neighbours(dst []systems.ConeState, pos components.Position) []systems.ConeState {
	if !s.calc.Channels.FF {
		return dst
	}
	return s.grid.QueryInto(dst, s.parallel.snapshots, pos.X, pos.Y, s.reach)
}
