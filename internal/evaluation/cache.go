package evaluation

import (
	"github.com/airframe-trades/optim-core/internal/geometry"
	"github.com/airframe-trades/optim-core/pkg/config"
	"github.com/airframe-trades/optim-core/pkg/logger"
	"github.com/airframe-trades/optim-core/pkg/utils"
)

// cgKey is a design vector quantized to per-parameter tolerances. Two
// vectors within tolerance in every parameter collide; one parameter
// past tolerance separates them.
type cgKey [geometry.NumParams]float64

// CGCache memoizes the extracted center of gravity. Tolerances are
// tighter for the parameters with the largest CG impact. Eviction is a
// wholesale clear past the ceiling: over a multi-day run the map only
// has to stay bounded, and clearing avoids the bookkeeping of an LRU for
// a quantity that is cheap to re-extract once.
type CGCache struct {
	tolerances [geometry.NumParams]float64
	maxEntries int
	entries    map[cgKey]float64
}

// NewCGCache creates a cache with the configured tolerances and ceiling.
func NewCGCache(cfg config.Cache) *CGCache {
	return &CGCache{
		tolerances: [geometry.NumParams]float64{
			cfg.SpanToleranceMM,
			cfg.SweepToleranceDeg,
			cfg.XLocToleranceMM,
			cfg.TaperTolerance,
			cfg.TipToleranceMM,
			cfg.CtrlTolerance,
		},
		maxEntries: cfg.MaxEntries,
		entries:    make(map[cgKey]float64),
	}
}

func (c *CGCache) key(v geometry.DesignVector) cgKey {
	x := v.Slice()
	var k cgKey
	for i := range x {
		k[i] = utils.RoundTo(x[i], c.tolerances[i])
	}
	return k
}

// Lookup returns the cached CG for a vector, if present.
func (c *CGCache) Lookup(v geometry.DesignVector) (float64, bool) {
	cg, ok := c.entries[c.key(v)]
	return cg, ok
}

// Store records the CG for a vector, clearing the whole cache first if
// the ceiling has been reached.
func (c *CGCache) Store(v geometry.DesignVector, cg float64) {
	if len(c.entries) >= c.maxEntries {
		logger.Info("cg cache ceiling reached, clearing", "entries", len(c.entries))
		c.entries = make(map[cgKey]float64)
	}
	c.entries[c.key(v)] = cg
}

// Len returns the current entry count.
func (c *CGCache) Len() int {
	return len(c.entries)
}
