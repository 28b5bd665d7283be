package search

import (
	"github.com/airframe-trades/optim-core/internal/geometry"
	"github.com/airframe-trades/optim-core/pkg/config"
	"github.com/airframe-trades/optim-core/pkg/logger"
	"github.com/airframe-trades/optim-core/pkg/utils"
)

// StagnationMonitor tracks generation-to-generation improvement of the
// best objective and, after enough flat generations, injects a normal
// perturbation into the best population member to push the search off a
// local optimum.
type StagnationMonitor struct {
	threshold int
	delta     float64
	scale     float64
	counter   int
}

// NewStagnationMonitor builds a monitor from configuration.
func NewStagnationMonitor(cfg config.Stagnation) *StagnationMonitor {
	return &StagnationMonitor{
		threshold: cfg.Threshold,
		delta:     cfg.Delta,
		scale:     cfg.PerturbationScale,
	}
}

// Counter returns the consecutive non-improving generation count.
func (m *StagnationMonitor) Counter() int { return m.counter }

// Observe records one generation's best-objective improvement and
// reports whether a perturbation should fire. An improvement at or above
// delta resets the counter; reaching the threshold fires exactly once
// and resets it.
func (m *StagnationMonitor) Observe(improvement float64) bool {
	if improvement >= m.delta {
		m.counter = 0
		return false
	}
	m.counter++
	if m.counter < m.threshold {
		return false
	}
	m.counter = 0
	return true
}

// Perturb returns a copy of the best vector with N(0, scale) noise added
// per parameter, clamped back into bounds.
func (m *StagnationMonitor) Perturb(best []float64, bounds geometry.Bounds, rng *utils.RandSource) []float64 {
	out := make([]float64, len(best))
	for i := range best {
		out[i] = best[i] + rng.NormFloat64(0, m.scale)
	}
	out = bounds.Clamp(out)
	logger.Info("stagnation detected, perturbing best member", "scale", m.scale)
	return out
}
