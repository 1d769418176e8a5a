package telemetry

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Collector accumulates move outcomes within step windows and produces WindowStats.
type Collector struct {
	windowSteps int
	windowStart int

	// Outcome counters for the current window
	accepted  int
	rejected  int
	discarded int
	stayed    int
}

// NewCollector creates a collector that flushes every windowSteps steps.
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{windowSteps: windowSteps}
}

// Record counts one move outcome.
func (c *Collector) Record(o Outcome) {
	switch o {
	case OutcomeAccepted:
		c.accepted++
	case OutcomeRejected:
		c.rejected++
	case OutcomeDiscarded:
		c.discarded++
	default:
		c.stayed++
	}
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(step int) bool {
	return step-c.windowStart >= c.windowSteps
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(step int, pop Population, ffCoef float64) WindowStats {
	proposals := c.accepted + c.rejected
	var acceptRate float64
	if proposals > 0 {
		acceptRate = float64(c.accepted) / float64(proposals)
	}

	potMean, potP10, potP50, potP90 := Summarize(pop.Potentials)

	var rhoMean, rhoStd, rhoMin float64
	if len(pop.Rhos) > 0 {
		rhoMean, rhoStd = stat.PopMeanStdDev(pop.Rhos, nil)
		rhoMin = floats.Min(pop.Rhos)
	}
	var coefMean float64
	if len(pop.Coefficients) > 0 {
		coefMean = stat.Mean(pop.Coefficients, nil)
	}

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   step,

		Cones:  len(pop.Potentials),
		Frozen: pop.Frozen,

		Proposals:  proposals,
		Accepted:   c.accepted,
		Rejected:   c.rejected,
		Discarded:  c.discarded,
		Stayed:     c.stayed,
		AcceptRate: acceptRate,

		PotentialMean: potMean,
		PotentialP10:  potP10,
		PotentialP50:  potP50,
		PotentialP90:  potP90,

		RhoMean:  rhoMean,
		RhoStd:   rhoStd,
		RhoMin:   rhoMin,
		CoefMean: coefMean,

		FFCoef:      ffCoef,
		MappingCorr: MappingCorrelation(pop.RetinalOrder, pop.TectalX),
	}

	// Reset for next window
	c.windowStart = step
	c.accepted = 0
	c.rejected = 0
	c.discarded = 0
	c.stayed = 0

	return stats
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}
