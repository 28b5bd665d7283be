package config

import (
	"fmt"
	"os"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if cfg.Simulator.Executable == "" {
		return fmt.Errorf("simulator executable cannot be empty")
	}
	if cfg.Simulator.GeometryScript == "" || cfg.Simulator.CruiseScript == "" {
		return fmt.Errorf("simulator geometry_script and cruise_script must both be set")
	}
	if cfg.Simulator.SweepAngleStep <= 0 {
		return fmt.Errorf("sweep_angle_step must be positive, got %f", cfg.Simulator.SweepAngleStep)
	}
	if cfg.Simulator.SweepAngleEnd < cfg.Simulator.SweepAngleStart {
		return fmt.Errorf("sweep_angle_end %f is before sweep_angle_start %f",
			cfg.Simulator.SweepAngleEnd, cfg.Simulator.SweepAngleStart)
	}

	if err := validateBounds(&cfg.Bounds); err != nil {
		return fmt.Errorf("bounds validation failed: %w", err)
	}
	if cfg.Baseline != nil && len(cfg.Baseline) != 6 {
		return fmt.Errorf("baseline must have 6 parameters, got %d", len(cfg.Baseline))
	}

	if err := validateSearch(&cfg.Search); err != nil {
		return fmt.Errorf("search validation failed: %w", err)
	}
	if err := validateScoring(&cfg.Scoring); err != nil {
		return fmt.Errorf("scoring validation failed: %w", err)
	}
	if err := validateStagnation(&cfg.Stagnation); err != nil {
		return fmt.Errorf("stagnation validation failed: %w", err)
	}
	if err := validatePenalties(&cfg.Penalties); err != nil {
		return fmt.Errorf("penalties validation failed: %w", err)
	}
	if err := validateCache(&cfg.Cache); err != nil {
		return fmt.Errorf("cache validation failed: %w", err)
	}

	return nil
}

func validateBounds(b *Bounds) error {
	ranges := []struct {
		name string
		r    Range
	}{
		{"span_mm", b.SpanMM},
		{"sweep_deg", b.SweepDeg},
		{"xloc_mm", b.XLocMM},
		{"taper", b.Taper},
		{"tip_mm", b.TipMM},
		{"ctrl_frac", b.CtrlFrac},
	}
	for _, br := range ranges {
		if br.r.Max < br.r.Min {
			return fmt.Errorf("%s: max %f is below min %f", br.name, br.r.Max, br.r.Min)
		}
	}
	return nil
}

func validateSearch(s *Search) error {
	if s.Strategy != "best1bin" {
		return fmt.Errorf("unknown strategy: %s (only best1bin is supported)", s.Strategy)
	}
	if s.PopulationSize < 4 {
		return fmt.Errorf("population_size must be at least 4, got %d", s.PopulationSize)
	}
	if s.MaxGenerations <= 0 {
		return fmt.Errorf("max_generations must be positive, got %d", s.MaxGenerations)
	}
	if s.Mutation <= 0 || s.Mutation > 2 {
		return fmt.Errorf("mutation must be in (0, 2], got %f", s.Mutation)
	}
	if s.Crossover < 0 || s.Crossover > 1 {
		return fmt.Errorf("crossover must be in [0, 1], got %f", s.Crossover)
	}
	if s.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %f", s.Tolerance)
	}
	return nil
}

func validateScoring(s *Scoring) error {
	if s.BandWindow < 2 {
		return fmt.Errorf("band_window must be at least 2, got %d", s.BandWindow)
	}
	if s.BandSpreadWeight < 0 {
		return fmt.Errorf("band_spread_weight cannot be negative, got %f", s.BandSpreadWeight)
	}
	if s.BandClipMax <= 0 {
		return fmt.Errorf("band_clip_max must be positive, got %f", s.BandClipMax)
	}
	return nil
}

func validateStagnation(s *Stagnation) error {
	if s.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %d", s.Threshold)
	}
	if s.Delta < 0 {
		return fmt.Errorf("delta cannot be negative, got %f", s.Delta)
	}
	if s.PerturbationScale <= 0 {
		return fmt.Errorf("perturbation_scale must be positive, got %f", s.PerturbationScale)
	}
	return nil
}

func validatePenalties(p *Penalties) error {
	if p.EfficiencyWeight <= 0 {
		return fmt.Errorf("efficiency_weight must be positive, got %f", p.EfficiencyWeight)
	}
	if p.StabilityCeilingPct <= p.StabilityFloorPct {
		return fmt.Errorf("stability_ceiling_pct %f must be above stability_floor_pct %f",
			p.StabilityCeilingPct, p.StabilityFloorPct)
	}
	if p.SweetSpotLowPct < p.StabilityFloorPct || p.SweetSpotHighPct > p.StabilityCeilingPct {
		return fmt.Errorf("sweet spot band [%f, %f] must sit inside the stability band [%f, %f]",
			p.SweetSpotLowPct, p.SweetSpotHighPct, p.StabilityFloorPct, p.StabilityCeilingPct)
	}
	if p.CrashWeight <= 0 || p.SlugWeight <= 0 {
		return fmt.Errorf("crash_weight and slug_weight must both be positive")
	}
	if p.FailureObjective >= 0 {
		return fmt.Errorf("failure_objective must be negative, got %f", p.FailureObjective)
	}
	return nil
}

func validateCache(c *Cache) error {
	tols := []struct {
		name string
		v    float64
	}{
		{"span_tolerance_mm", c.SpanToleranceMM},
		{"sweep_tolerance_deg", c.SweepToleranceDeg},
		{"xloc_tolerance_mm", c.XLocToleranceMM},
		{"taper_tolerance", c.TaperTolerance},
		{"tip_tolerance_mm", c.TipToleranceMM},
		{"ctrl_tolerance", c.CtrlTolerance},
	}
	for _, t := range tols {
		if t.v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", t.name, t.v)
		}
	}
	if c.MaxEntries <= 0 {
		return fmt.Errorf("max_entries must be positive, got %d", c.MaxEntries)
	}
	return nil
}
