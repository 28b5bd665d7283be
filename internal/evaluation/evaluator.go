package evaluation

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/airframe-trades/optim-core/internal/aero"
	"github.com/airframe-trades/optim-core/internal/control"
	"github.com/airframe-trades/optim-core/internal/geometry"
	"github.com/airframe-trades/optim-core/internal/metrics"
	"github.com/airframe-trades/optim-core/pkg/config"
	"github.com/airframe-trades/optim-core/pkg/logger"
)

// SweepRunner is the simulator surface the evaluator depends on.
// *aero.Runner implements it; tests substitute a stub.
type SweepRunner interface {
	UpdateGeometry(ctx context.Context) error
	RunSweep(ctx context.Context) (time.Duration, error)
	ResultsPath() string
	StabilityPath() string
}

// Evaluator turns one design vector into a fitness for the search
// driver. The driver minimizes, so Evaluate returns the negation of the
// internally maximized objective.
//
// Every failure except a control-channel stop is converted at this
// boundary into the configured failure objective plus a failure-flagged
// history row; the driver never sees the difference between a bad design
// and a broken evaluation.
type Evaluator struct {
	cfg     *config.Config
	runner  SweepRunner
	cache   *CGCache
	history *HistoryLog
	channel control.Channel
	state   *OptimizerContext
	metrics *metrics.Collector

	desPath       string
	massPropsPath string
	angles        []float64
	analyzer      stabilityAnalyzer
}

// NewEvaluator wires the evaluation pipeline.
func NewEvaluator(cfg *config.Config, runner SweepRunner, cache *CGCache,
	history *HistoryLog, channel control.Channel, state *OptimizerContext) *Evaluator {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cfg.WorkDir, p)
	}
	angles := cfg.Simulator.SweepAngles()
	return &Evaluator{
		cfg:           cfg,
		runner:        runner,
		cache:         cache,
		history:       history,
		channel:       channel,
		state:         state,
		desPath:       resolve(cfg.Artifacts.DesFile),
		massPropsPath: resolve(cfg.Artifacts.MassPropsFile),
		angles:        angles,
		analyzer:      stabilityAnalyzer{pen: &cfg.Penalties, angles: angles},
	}
}

// WithMetrics attaches a run-metrics collector.
func (e *Evaluator) WithMetrics(c *metrics.Collector) *Evaluator {
	e.metrics = c
	return e
}

// State exposes the shared optimizer context (driver and evaluator own
// it jointly; only the sequential loop mutates it).
func (e *Evaluator) State() *OptimizerContext { return e.state }

func (e *Evaluator) count(name string) {
	if e.metrics != nil {
		e.metrics.Inc(name)
	}
}

// Status builds the current status snapshot.
func (e *Evaluator) Status(state control.State) *control.Status {
	st := &control.Status{
		RunID:          e.state.RunID,
		State:          state,
		Iteration:      e.state.EvalCount,
		Generation:     e.state.Generation,
		ElapsedSeconds: e.state.Elapsed().Seconds(),
		LastSimSeconds: e.state.LastSimDuration.Seconds(),
	}
	if best, vec, ok := e.state.Best(); ok {
		st.BestObjective = &best
		st.BestDesign = vec.Slice()
	}
	return st
}

// Evaluate runs the tiered pipeline for one candidate.
func (e *Evaluator) Evaluate(ctx context.Context, x []float64) (float64, error) {
	if err := e.channel.Poll(ctx, e.Status(control.StateRunning)); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	v, err := geometry.FromSlice(x)
	if err != nil {
		return 0, err
	}

	e.state.EvalCount++
	e.count(metrics.MetricEvaluations)
	rec := &EvaluationRecord{
		Iteration:  e.state.EvalCount,
		Generation: e.state.Generation,
		Vector:     v,
		Category:   CategoryUnknown,
		Status:     EvalStatusOK,
	}

	// Stage 1: analytic trailing-edge penalty, no simulator call.
	rec.Penalties.TrailingEdge = TrailingEdgePenalty(v, &e.cfg.Penalties)

	// Stage 2: geometry update and the cheap sweep.
	if err := geometry.WriteDES(v, e.desPath); err != nil {
		return e.fail(rec, "geometry", err)
	}
	if err := e.runner.UpdateGeometry(ctx); err != nil {
		return e.fail(rec, "geometry", err)
	}
	simDur, err := e.runner.RunSweep(ctx)
	e.state.LastSimDuration = simDur
	rec.SimS = simDur.Seconds()
	if e.metrics != nil {
		e.metrics.Observe(metrics.MetricSimSeconds, simDur.Seconds())
	}
	if err != nil {
		return e.fail(rec, "simulation", err)
	}

	table, err := aero.ParseTableFile(e.runner.ResultsPath())
	if err != nil {
		return e.fail(rec, "simulation", err)
	}

	band := BandScore(table, e.angles, &e.cfg.Scoring)
	rec.BandScore = band.Score
	rec.CenterAngle = band.CenterAngle

	// Stage 3: center of gravity, cached by quantized geometry.
	cg, hit := e.cache.Lookup(v)
	if hit {
		e.count(metrics.MetricCacheHits)
	} else {
		e.count(metrics.MetricCacheMisses)
		cg, err = aero.ParseTotalCG(e.massPropsPath)
		if err != nil {
			return e.fail(rec, "extraction", err)
		}
		e.cache.Store(v, cg)
	}
	rec.CG = cg

	// Stage 4: span penalty.
	rec.Penalties.Span = SpanPenalty(v.Span, &e.cfg.Penalties)

	// Stages 5-6: the gate decides whether the expensive stability
	// analysis is worth its cost.
	var stab StabilityResult
	if GatePassed(band.Score, rec.Penalties.Span, &e.cfg.Penalties) {
		e.count(metrics.MetricTier2Runs)
		stab = e.analyzer.Analyze(v, e.runner.StabilityPath(), table, cg)
		if stab.InvalidGeometry {
			rec.Penalties.InvalidGeometry = e.cfg.Penalties.InvalidGeometryPenalty
		}
	} else {
		e.count(metrics.MetricGateFailures)
		rec.Penalties.GateFailure = e.cfg.Penalties.GateFailurePenalty
		stab = e.analyzer.analyticEstimate(v, cg)
	}
	rec.MarginPct = stab.MarginPct
	rec.NeutralPt = stab.NeutralPoint
	rec.RefChord = stab.RefChord
	rec.Source = stab.Source
	rec.Category = Categorize(stab.MarginPct, &e.cfg.Penalties)
	rec.Penalties.Crash, rec.Penalties.Slug = StabilityPenalties(stab.MarginPct, &e.cfg.Penalties)

	rec.Penalties.ScoreCeiling = ScoreCeilingPenalty(band.Score, &e.cfg.Penalties)

	// Stage 7: compose and record.
	rec.Objective = ComposeObjective(band.Score, rec.Penalties, &e.cfg.Penalties)
	return e.finish(rec, v)
}

// finish records the evaluation, updates best-so-far, and publishes the
// status snapshot.
func (e *Evaluator) finish(rec *EvaluationRecord, v geometry.DesignVector) (float64, error) {
	rec.ElapsedS = e.state.Elapsed().Seconds()
	rec.Improvement, rec.NewBest = e.state.Observe(rec.Objective, v)

	if err := e.history.Append(rec); err != nil {
		logger.Warn("history append failed", "error", err)
	}
	if err := e.channel.PublishStatus(e.Status(control.StateRunning)); err != nil {
		logger.Warn("status publish failed", "error", err)
	}

	logger.Info("evaluation complete",
		"iter", rec.Iteration,
		"gen", rec.Generation,
		"design", v.String(),
		"band_score", rec.BandScore,
		"static_margin_pct", rec.MarginPct,
		"sm_source", string(rec.Source),
		"objective", rec.Objective,
		"best", e.state.BestObjective,
		"new_best", rec.NewBest,
		"status", rec.Status,
	)

	return -rec.Objective, nil
}

// fail converts any evaluation failure into the configured failure
// objective plus a failure-flagged record. A context cancellation is the
// one thing passed through: it means the process is shutting down, not
// that the design was bad.
func (e *Evaluator) fail(rec *EvaluationRecord, kind string, cause error) (float64, error) {
	// A canceled parent context means shutdown, not a bad design. A
	// deadline is the per-call simulator timeout and stays a failure.
	if errors.Is(cause, context.Canceled) {
		return 0, cause
	}

	e.count(metrics.MetricFailures)
	logger.Warn("evaluation failed, assigning failure objective",
		"iter", rec.Iteration, "kind", kind, "error", cause)

	rec.Status = "failed:" + kind
	rec.Objective = e.cfg.Penalties.FailureObjective
	rec.Category = CategoryUnknown
	return e.finish(rec, rec.Vector)
}
