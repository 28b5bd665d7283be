package evaluation

import (
	"math"
	"time"

	"github.com/airframe-trades/optim-core/internal/geometry"
)

// OptimizerContext is the single home for the run's mutable search
// state. It is owned by the driver/evaluator pairing and mutated only by
// the sequential evaluation loop, so it needs no locking under the
// baseline contract; a parallel rewrite would have to synchronize it.
type OptimizerContext struct {
	RunID     string
	StartTime time.Time

	EvalCount  int
	Generation int

	BestObjective float64
	BestVector    geometry.DesignVector
	HasBest       bool

	PrevObjective float64
	HasPrev       bool

	LastSimDuration time.Duration
}

// NewOptimizerContext creates the context for one run.
func NewOptimizerContext(runID string) *OptimizerContext {
	return &OptimizerContext{
		RunID:         runID,
		StartTime:     time.Now(),
		BestObjective: math.Inf(-1),
	}
}

// Elapsed returns the wall time since the run started.
func (c *OptimizerContext) Elapsed() time.Duration {
	return time.Since(c.StartTime)
}

// Observe records one evaluation's objective. It returns the
// improvement over the previous evaluation and whether this design is a
// new best. The best objective is monotone non-decreasing for the
// lifetime of the context.
func (c *OptimizerContext) Observe(obj float64, v geometry.DesignVector) (improvement float64, newBest bool) {
	if c.HasPrev {
		improvement = obj - c.PrevObjective
	}
	c.PrevObjective = obj
	c.HasPrev = true

	if !c.HasBest || obj > c.BestObjective {
		c.BestObjective = obj
		c.BestVector = v
		c.HasBest = true
		newBest = true
	}
	return improvement, newBest
}

// Best returns the best objective and vector observed so far.
func (c *OptimizerContext) Best() (float64, geometry.DesignVector, bool) {
	return c.BestObjective, c.BestVector, c.HasBest
}
