package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/airframe-trades/optim-core/internal/aero"
	"github.com/airframe-trades/optim-core/internal/control"
	"github.com/airframe-trades/optim-core/internal/evaluation"
	"github.com/airframe-trades/optim-core/internal/geometry"
	"github.com/airframe-trades/optim-core/internal/metrics"
	"github.com/airframe-trades/optim-core/internal/search"
	"github.com/airframe-trades/optim-core/pkg/config"
	"github.com/airframe-trades/optim-core/pkg/logger"
	"github.com/airframe-trades/optim-core/pkg/utils"
)

func main() {
	var configPath string
	var logLevel string
	var workDir string
	var seed int64
	var maxGenerations int
	var populationSize int

	flag.StringVar(&configPath, "config", "", "path to YAML configuration (defaults apply when empty)")
	flag.StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flag.StringVar(&workDir, "work-dir", "", "working directory override for simulator artifacts")
	flag.Int64Var(&seed, "seed", 0, "random seed override (0 keeps the configured seed)")
	flag.IntVar(&maxGenerations, "max-generations", 0, "max generations override")
	flag.IntVar(&populationSize, "population", 0, "population size override")
	flag.Parse()

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Error("failed to load configuration", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if workDir != "" {
		cfg.WorkDir = workDir
	}
	if seed != 0 {
		cfg.Search.Seed = seed
	}
	if maxGenerations > 0 {
		cfg.Search.MaxGenerations = maxGenerations
	}
	if populationSize > 0 {
		cfg.Search.PopulationSize = populationSize
	}

	logger.SetDefault(logger.NewText(cfg.LogLevel, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("optimizer run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cfg.WorkDir, p)
	}

	runID := utils.GenerateRunID()
	logger.Info("starting optimizer run",
		"run_id", runID,
		"work_dir", cfg.WorkDir,
		"strategy", cfg.Search.Strategy,
		"population", cfg.Search.PopulationSize,
		"max_generations", cfg.Search.MaxGenerations,
	)

	channel := control.NewFileChannel(
		resolve(cfg.Artifacts.StatusFile),
		resolve(cfg.Artifacts.CommandFile),
		cfg.Control.PausePoll(),
	)
	history, err := evaluation.OpenHistoryLog(resolve(cfg.Artifacts.HistoryFile))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := history.Close(); cerr != nil {
			logger.Warn("history close failed", "error", cerr)
		}
	}()

	state := evaluation.NewOptimizerContext(runID)
	collector := metrics.NewCollector()
	evaluator := evaluation.NewEvaluator(
		cfg,
		aero.NewRunner(cfg),
		evaluation.NewCGCache(cfg.Cache),
		history,
		channel,
		state,
	).WithMetrics(collector)

	bounds := geometry.BoundsFromConfig(cfg.Bounds)
	rng := utils.NewRandSource(cfg.Search.Seed)
	driver := search.NewDriver(cfg.Search, cfg.Stagnation, bounds, rng).
		WithGenerationStart(func(gen int) { state.Generation = gen }).
		WithGenerationCallback(func(ctx context.Context, stats search.GenerationStats) error {
			if stats.Perturbed {
				collector.Inc(metrics.MetricPerturbations)
			}
			return channel.Poll(ctx, evaluator.Status(control.StateRunning))
		})

	result, runErr := driver.Run(ctx, cfg.Baseline, evaluator.Evaluate)

	logger.Info("search finished",
		"generations", result.Generations,
		"evaluations", result.Evaluations,
		"converged", result.Converged,
		"reason", result.Reason,
	)
	if best, vec, ok := state.Best(); ok {
		logger.Info("best design",
			"objective", best,
			"design", vec.String(),
			"elapsed_minutes", state.Elapsed().Minutes(),
		)
	}
	logRunMetrics(collector)

	// Terminal status write. A stop request already finalized the record;
	// everything else gets its terminal state published here.
	switch {
	case runErr == nil:
		reason := "max generations"
		if result.Converged {
			reason = result.Reason
		}
		logger.Info("optimization complete", "reason", reason)
		if perr := channel.PublishStatus(evaluator.Status(control.StateCompleted)); perr != nil {
			logger.Warn("final status publish failed", "error", perr)
		}
		return nil
	case errors.Is(runErr, control.ErrStopRequested):
		logger.Info("optimization stopped by external command")
		return nil
	case errors.Is(runErr, context.Canceled):
		logger.Info("optimization interrupted by signal")
		if perr := channel.PublishStatus(evaluator.Status(control.StateStopped)); perr != nil {
			logger.Warn("final status publish failed", "error", perr)
		}
		return nil
	default:
		if perr := channel.PublishStatus(evaluator.Status(control.StateError)); perr != nil {
			logger.Warn("final status publish failed", "error", perr)
		}
		return runErr
	}
}

func logRunMetrics(collector *metrics.Collector) {
	attrs := []any{}
	for name, v := range collector.Summary() {
		attrs = append(attrs, name, v)
	}
	logger.Info("run metrics", attrs...)
	if agg := collector.Aggregate(metrics.MetricSimSeconds); agg != nil {
		logger.Info("simulator call timings",
			"count", agg.Count,
			"total_s", agg.Sum,
			"mean_s", agg.Mean,
			"p95_s", agg.P95,
			"max_s", agg.Max,
		)
	}
}
