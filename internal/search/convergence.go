package search

import (
	"fmt"
	"math"

	"github.com/airframe-trades/optim-core/pkg/utils"
)

// ConvergenceStrategy decides when the population search should stop.
type ConvergenceStrategy interface {
	// CheckConvergence inspects the current population fitness values and
	// reports whether the search has converged, with a human-readable reason.
	CheckConvergence(fitness []float64) (bool, string)
	// Name returns the name of the convergence strategy
	Name() string
}

// SpreadStrategy converges when the population fitness spread, measured
// as standard deviation relative to the absolute mean, falls below the
// configured tolerance. This is the metric the generation callback also
// reports.
type SpreadStrategy struct {
	tolerance float64
}

// NewSpreadStrategy creates a relative-spread convergence strategy.
func NewSpreadStrategy(tolerance float64) *SpreadStrategy {
	if tolerance <= 0 {
		tolerance = 1e-3
	}
	return &SpreadStrategy{tolerance: tolerance}
}

func (s *SpreadStrategy) Name() string {
	return "relative_spread"
}

func (s *SpreadStrategy) CheckConvergence(fitness []float64) (bool, string) {
	metric := s.Metric(fitness)
	if metric < s.tolerance {
		return true, fmt.Sprintf("population spread %.6f below tolerance %.6f", metric, s.tolerance)
	}
	return false, ""
}

// Metric returns stddev(fitness)/|mean(fitness)|. A near-zero mean makes
// the ratio meaningless, so it degrades to the raw standard deviation.
func (s *SpreadStrategy) Metric(fitness []float64) float64 {
	return spreadMetric(fitness)
}

func spreadMetric(fitness []float64) float64 {
	if len(fitness) < 2 {
		return math.Inf(1)
	}
	mean := utils.Mean(fitness)
	sd := utils.StdDev(fitness)
	if math.Abs(mean) < 1e-12 {
		return sd
	}
	return sd / math.Abs(mean)
}
