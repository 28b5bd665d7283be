package metrics

import (
	"sort"
	"sync"
	"time"
)

// Run counter and sample names.
const (
	MetricEvaluations   = "evaluations"
	MetricFailures      = "evaluation_failures"
	MetricCacheHits     = "cg_cache_hits"
	MetricCacheMisses   = "cg_cache_misses"
	MetricTier2Runs     = "tier2_runs"
	MetricGateFailures  = "gate_failures"
	MetricPerturbations = "stagnation_perturbations"
	MetricSimSeconds    = "sim_seconds"
)

// Aggregation summarizes one sample series.
type Aggregation struct {
	Count int
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
	P50   float64
	P95   float64
}

// Collector accumulates run counters and timing samples. The evaluation
// loop is the only writer during a run, but the collector is still
// guarded so the shutdown path and any reporting goroutine can read it
// safely.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	counters  map[string]int64
	samples   map[string][]float64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		counters:  make(map[string]int64),
		samples:   make(map[string][]float64),
	}
}

// Inc increments a named counter by one.
func (c *Collector) Inc(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name]++
}

// Counter returns the current value of a named counter.
func (c *Collector) Counter(name string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[name]
}

// Observe appends one value to a named sample series.
func (c *Collector) Observe(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples[name] = append(c.samples[name], value)
}

// Aggregate computes summary statistics over a sample series, or nil
// when the series is empty.
func (c *Collector) Aggregate(name string) *Aggregation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	points := c.samples[name]
	if len(points) == 0 {
		return nil
	}

	sorted := append([]float64(nil), points...)
	sort.Float64s(sorted)

	agg := &Aggregation{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
	}
	for _, v := range sorted {
		agg.Sum += v
	}
	agg.Mean = agg.Sum / float64(agg.Count)
	return agg
}

// Summary returns every counter value plus the run duration, for the
// end-of-run report.
func (c *Collector) Summary() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any, len(c.counters)+1)
	for name, v := range c.counters {
		out[name] = v
	}
	out["run_seconds"] = time.Since(c.startTime).Seconds()
	return out
}

// percentile uses nearest-rank on a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
