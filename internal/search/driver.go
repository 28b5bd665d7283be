package search

import (
	"context"
	"fmt"
	"math"

	"github.com/airframe-trades/optim-core/internal/geometry"
	"github.com/airframe-trades/optim-core/pkg/config"
	"github.com/airframe-trades/optim-core/pkg/logger"
	"github.com/airframe-trades/optim-core/pkg/utils"
)

// EvaluateFunc scores one candidate. The driver minimizes the returned
// value. Any error aborts the run; the caller decides which errors mean
// stop versus failure before they reach the driver.
type EvaluateFunc func(ctx context.Context, x []float64) (float64, error)

// GenerationStats is handed to the generation callback at every
// boundary.
type GenerationStats struct {
	Generation  int
	BestFitness float64
	BestVector  []float64
	MeanFitness float64
	Spread      float64
	Perturbed   bool
}

// GenerationFunc runs at each generation boundary. A returned error
// unwinds the search; best-so-far stays recoverable from the Result.
type GenerationFunc func(ctx context.Context, stats GenerationStats) error

// Result is the final outcome of a search run. BestVector and
// BestFitness are valid even when Err is set: early termination never
// loses the best design observed so far.
type Result struct {
	BestVector  []float64
	BestFitness float64
	Generations int
	Evaluations int
	Converged   bool
	Reason      string
}

// Driver runs a differential-evolution search (best1bin trial
// generation: trial = best + F*(r1 - r2), binomial crossover) over a
// bounded box. Evaluation is strictly sequential; the driver owns the
// population, the caller owns everything behind EvaluateFunc.
type Driver struct {
	cfg         config.Search
	bounds      geometry.Bounds
	rng         *utils.RandSource
	convergence ConvergenceStrategy
	stagnation  *StagnationMonitor
	onGen       GenerationFunc
	onGenStart  func(gen int)
}

// NewDriver builds a search driver.
func NewDriver(cfg config.Search, stag config.Stagnation, bounds geometry.Bounds, rng *utils.RandSource) *Driver {
	return &Driver{
		cfg:         cfg,
		bounds:      bounds,
		rng:         rng,
		convergence: NewSpreadStrategy(cfg.Tolerance),
		stagnation:  NewStagnationMonitor(stag),
	}
}

// WithGenerationCallback sets the end-of-generation callback.
func (d *Driver) WithGenerationCallback(fn GenerationFunc) *Driver {
	d.onGen = fn
	return d
}

// WithConvergence replaces the default relative-spread strategy.
func (d *Driver) WithConvergence(s ConvergenceStrategy) *Driver {
	d.convergence = s
	return d
}

// WithGenerationStart sets a hook invoked before a generation's
// evaluations begin. Initialization counts as generation 0.
func (d *Driver) WithGenerationStart(fn func(gen int)) *Driver {
	d.onGenStart = fn
	return d
}

// Run executes the search. The baseline, when non-nil, seeds slot 0 of
// the initial population; the rest is sampled uniformly from the box.
func (d *Driver) Run(ctx context.Context, baseline []float64, evaluate EvaluateFunc) (*Result, error) {
	if evaluate == nil {
		return nil, fmt.Errorf("evaluation function is required")
	}
	np := d.cfg.PopulationSize
	if np < 4 {
		return nil, fmt.Errorf("population size %d too small for differential evolution (need >= 4)", np)
	}

	pop := make([][]float64, np)
	fit := make([]float64, np)
	for i := range pop {
		if i == 0 && baseline != nil {
			pop[i] = d.bounds.Clamp(append([]float64(nil), baseline...))
		} else {
			pop[i] = d.bounds.Sample(d.rng)
		}
	}

	res := &Result{BestFitness: math.Inf(1)}

	if d.onGenStart != nil {
		d.onGenStart(0)
	}
	logger.Info("initializing population",
		"size", np,
		"seeded_baseline", baseline != nil,
		"convergence", d.convergence.Name(),
	)
	for i := range pop {
		f, err := evaluate(ctx, pop[i])
		if err != nil {
			return res, err
		}
		fit[i] = f
		res.Evaluations++
		if f < res.BestFitness {
			res.BestFitness = f
			res.BestVector = append([]float64(nil), pop[i]...)
		}
	}

	prevBest := res.BestFitness
	for gen := 1; gen <= d.cfg.MaxGenerations; gen++ {
		res.Generations = gen
		if d.onGenStart != nil {
			d.onGenStart(gen)
		}
		bestIdx := argmin(fit)

		for i := 0; i < np; i++ {
			trial := d.trial(pop, bestIdx, i)
			f, err := evaluate(ctx, trial)
			if err != nil {
				return res, err
			}
			res.Evaluations++

			// Greedy selection: ties keep the challenger, matching the
			// usual DE convention.
			if f <= fit[i] {
				pop[i] = trial
				fit[i] = f
			}
			if f < res.BestFitness {
				res.BestFitness = f
				res.BestVector = append([]float64(nil), trial...)
			}
		}

		bestIdx = argmin(fit)
		spread := spreadMetric(fit)

		// The driver minimizes, so the published improvement is the drop
		// in best fitness since the previous generation.
		improvement := prevBest - res.BestFitness
		prevBest = res.BestFitness
		perturbed := false
		if d.stagnation.Observe(improvement) {
			pop[bestIdx] = d.stagnation.Perturb(pop[bestIdx], d.bounds, d.rng)
			f, err := evaluate(ctx, pop[bestIdx])
			if err != nil {
				return res, err
			}
			res.Evaluations++
			fit[bestIdx] = f
			if f < res.BestFitness {
				res.BestFitness = f
				res.BestVector = append([]float64(nil), pop[bestIdx]...)
			}
			perturbed = true
		}

		stats := GenerationStats{
			Generation:  gen,
			BestFitness: res.BestFitness,
			BestVector:  append([]float64(nil), res.BestVector...),
			MeanFitness: utils.Mean(fit),
			Spread:      spread,
			Perturbed:   perturbed,
		}
		logger.Info("generation complete",
			"gen", gen,
			"best_fitness", stats.BestFitness,
			"spread", stats.Spread,
			"perturbed", perturbed,
		)
		if d.onGen != nil {
			if err := d.onGen(ctx, stats); err != nil {
				return res, err
			}
		}

		if converged, reason := d.convergence.CheckConvergence(fit); converged {
			res.Converged = true
			res.Reason = reason
			return res, nil
		}
	}

	res.Reason = fmt.Sprintf("max generations reached (%d)", d.cfg.MaxGenerations)
	return res, nil
}

// trial builds one best1bin candidate for target index i: mutate around
// the current best with the scaled difference of two distinct random
// members, then binomial crossover against the target with one forced
// index so the trial always differs.
func (d *Driver) trial(pop [][]float64, bestIdx, i int) []float64 {
	np := len(pop)
	r1 := d.pickDistinct(np, i, -1)
	r2 := d.pickDistinct(np, i, r1)

	dim := len(pop[i])
	trial := make([]float64, dim)
	forced := d.rng.Intn(dim)
	for j := 0; j < dim; j++ {
		if j == forced || d.rng.Float64() < d.cfg.Crossover {
			trial[j] = pop[bestIdx][j] + d.cfg.Mutation*(pop[r1][j]-pop[r2][j])
		} else {
			trial[j] = pop[i][j]
		}
	}
	return d.bounds.Clamp(trial)
}

func (d *Driver) pickDistinct(np, a, b int) int {
	for {
		r := d.rng.Intn(np)
		if r != a && r != b {
			return r
		}
	}
}

func argmin(xs []float64) int {
	idx := 0
	for i, x := range xs {
		if x < xs[idx] {
			idx = i
		}
	}
	return idx
}
