package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of steps.
type WindowStats struct {
	WindowStart int `csv:"-"`
	WindowEnd   int `csv:"window_end"`

	Cones  int `csv:"cones"`
	Frozen int `csv:"frozen"`

	// Move outcomes during the window
	Proposals  int     `csv:"proposals"`
	Accepted   int     `csv:"accepted"`
	Rejected   int     `csv:"rejected"`
	Discarded  int     `csv:"discarded"`
	Stayed     int     `csv:"stayed"`
	AcceptRate float64 `csv:"accept_rate"`

	// Potential distribution at window end
	PotentialMean float64 `csv:"potential_mean"`
	PotentialP10  float64 `csv:"potential_p10"`
	PotentialP50  float64 `csv:"potential_p50"`
	PotentialP90  float64 `csv:"potential_p90"`

	// Adaptation state at window end
	RhoMean  float64 `csv:"rho_mean"`
	RhoStd   float64 `csv:"rho_std"`
	RhoMin   float64 `csv:"rho_min"`
	CoefMean float64 `csv:"coef_mean"`

	FFCoef float64 `csv:"ff_coef"`

	// Topographic order: correlation of retinal order with tectal x
	MappingCorr float64 `csv:"mapping_corr"`
}

// Population is a per-cone sample of the live state, taken at window end.
type Population struct {
	Potentials   []float64
	Rhos         []float64
	Coefficients []float64
	Frozen       int

	// Unmarked cones only
	RetinalOrder []float64
	TectalX      []float64
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Summarize returns the mean and the 10th, 50th and 90th percentiles.
func Summarize(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// MappingCorrelation is the Pearson correlation between retinal order and
// final tectal x. It returns 0 when fewer than two cones exist or either
// series is constant.
func MappingCorrelation(order, x []float64) float64 {
	if len(order) < 2 || len(order) != len(x) {
		return 0
	}
	c := stat.Correlation(order, x, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("cones", s.Cones),
		slog.Int("frozen", s.Frozen),
		slog.Int("proposals", s.Proposals),
		slog.Int("accepted", s.Accepted),
		slog.Int("rejected", s.Rejected),
		slog.Int("discarded", s.Discarded),
		slog.Float64("accept_rate", s.AcceptRate),
		slog.Float64("potential_mean", s.PotentialMean),
		slog.Float64("potential_p50", s.PotentialP50),
		slog.Float64("rho_mean", s.RhoMean),
		slog.Float64("rho_min", s.RhoMin),
		slog.Float64("coef_mean", s.CoefMean),
		slog.Float64("ff_coef", s.FFCoef),
		slog.Float64("mapping_corr", s.MappingCorr),
	)
}
