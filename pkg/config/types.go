package config

import "time"

// Config is the top-level optimizer configuration.
type Config struct {
	LogLevel   string     `yaml:"log_level"`
	WorkDir    string     `yaml:"work_dir"`
	Artifacts  Artifacts  `yaml:"artifacts"`
	Simulator  Simulator  `yaml:"simulator"`
	Bounds     Bounds     `yaml:"bounds"`
	Baseline   []float64  `yaml:"baseline,omitempty"`
	Search     Search     `yaml:"search"`
	Scoring    Scoring    `yaml:"scoring"`
	Stagnation Stagnation `yaml:"stagnation"`
	Penalties  Penalties  `yaml:"penalties"`
	Cache      Cache      `yaml:"cache"`
	Control    Control    `yaml:"control"`
}

// Artifacts names the files shared with the external simulator and with
// observers. Relative paths are resolved against work_dir.
type Artifacts struct {
	DesFile       string `yaml:"des_file"`        // geometry description consumed by the geometry tool
	ResultsFile   string `yaml:"results_file"`    // cheap-pass tabular output
	StabilityFile string `yaml:"stability_file"`  // expensive-pass stability report
	MassPropsFile string `yaml:"mass_props_file"` // mass-properties table (Total_CG row)
	HistoryFile   string `yaml:"history_file"`    // append-only evaluation log
	StatusFile    string `yaml:"status_file"`     // status snapshot record
	CommandFile   string `yaml:"command_file"`    // command token
}

// Simulator describes how to invoke the external simulator.
type Simulator struct {
	Executable       string  `yaml:"executable"`
	GeometryScript   string  `yaml:"geometry_script"`
	CruiseScript     string  `yaml:"cruise_script"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	HeartbeatSeconds int     `yaml:"heartbeat_seconds"`
	SweepAngleStart  float64 `yaml:"sweep_angle_start"`
	SweepAngleEnd    float64 `yaml:"sweep_angle_end"`
	SweepAngleStep   float64 `yaml:"sweep_angle_step"`
}

// Range is one parameter's box constraint.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Bounds holds the box constraints for the six design parameters.
type Bounds struct {
	SpanMM   Range `yaml:"span_mm"`
	SweepDeg Range `yaml:"sweep_deg"`
	XLocMM   Range `yaml:"xloc_mm"`
	Taper    Range `yaml:"taper"`
	TipMM    Range `yaml:"tip_mm"`
	CtrlFrac Range `yaml:"ctrl_frac"`
}

// Search configures the population-based global search.
type Search struct {
	Strategy       string  `yaml:"strategy"` // "best1bin"
	PopulationSize int     `yaml:"population_size"`
	MaxGenerations int     `yaml:"max_generations"`
	Mutation       float64 `yaml:"mutation"`  // differential weight F
	Crossover      float64 `yaml:"crossover"` // crossover probability CR
	Tolerance      float64 `yaml:"tolerance"` // convergence tolerance on the population spread
	Seed           int64   `yaml:"seed"`
}

// Scoring configures Tier-1 band-score extraction. The band score is
// the best contiguous window of the performance-vs-angle curve, scored
// as window mean minus a fraction of window spread so a usable operating
// range beats a spiky single-point optimum.
type Scoring struct {
	BandWindow       int     `yaml:"band_window"`
	BandSpreadWeight float64 `yaml:"band_spread_weight"`
	BandClipMax      float64 `yaml:"band_clip_max"`
	SentinelScore    float64 `yaml:"sentinel_score"` // low score substituted when the row is missing or malformed
}

// Stagnation configures stagnation detection and recovery.
type Stagnation struct {
	Threshold         int     `yaml:"threshold"`          // consecutive non-improving generations before perturbing
	Delta             float64 `yaml:"delta"`              // minimum improvement to count as progress
	PerturbationScale float64 `yaml:"perturbation_scale"` // stddev of the normal perturbation
}

// Penalties holds every objective weight and constraint threshold. These
// are tunable policy data, not control-flow constants.
type Penalties struct {
	EfficiencyWeight float64 `yaml:"efficiency_weight"`
	SpanWeight       float64 `yaml:"span_weight"`

	TrailingEdgeLimitMM float64 `yaml:"trailing_edge_limit_mm"`
	TrailingEdgeCoeff   float64 `yaml:"trailing_edge_coeff"`

	SpanHighMM    float64 `yaml:"span_high_mm"`    // spans above this are penalized
	SpanHighRefMM float64 `yaml:"span_high_ref_mm"` // quadratic reference for the high side
	SpanHighCoeff float64 `yaml:"span_high_coeff"`
	SpanLowMM     float64 `yaml:"span_low_mm"` // spans below this are penalized
	SpanLowRefMM  float64 `yaml:"span_low_ref_mm"`
	SpanLowCoeff  float64 `yaml:"span_low_coeff"`

	ScoreCeiling      float64 `yaml:"score_ceiling"`
	ScoreCeilingCoeff float64 `yaml:"score_ceiling_coeff"`

	GateBandScore      float64 `yaml:"gate_band_score"`       // Tier-2 gate: band score must exceed this
	GateSpanPenaltyMax float64 `yaml:"gate_span_penalty_max"` // Tier-2 gate: span penalty must stay below this
	GateFailurePenalty float64 `yaml:"gate_failure_penalty"`

	StabilityFloorPct   float64 `yaml:"stability_floor_pct"`
	StabilityCeilingPct float64 `yaml:"stability_ceiling_pct"`
	SweetSpotLowPct     float64 `yaml:"sweet_spot_low_pct"`
	SweetSpotHighPct    float64 `yaml:"sweet_spot_high_pct"`
	CrashWeight         float64 `yaml:"crash_weight"`
	SlugWeight          float64 `yaml:"slug_weight"`

	InvalidGeometryPenalty     float64 `yaml:"invalid_geometry_penalty"`
	InvalidGeometryToleranceMM float64 `yaml:"invalid_geometry_tolerance_mm"`

	// Fallback slope-to-margin conversion. The scale is uncalibrated
	// against the primary method; results are usable for rank ordering
	// only and are flagged as fallback in the history log.
	FallbackSlopeScale     float64 `yaml:"fallback_slope_scale"`
	FallbackUnstableMargin float64 `yaml:"fallback_unstable_margin"`

	// FailureObjective is the objective assigned when a simulator call or
	// extraction fails outright. Large and negative so failed candidates
	// rank below every valid design.
	FailureObjective float64 `yaml:"failure_objective"`
}

// Cache configures the geometry-keyed CG cache. Tolerances are tighter
// for parameters with larger CG impact.
type Cache struct {
	SpanToleranceMM   float64 `yaml:"span_tolerance_mm"`
	SweepToleranceDeg float64 `yaml:"sweep_tolerance_deg"`
	XLocToleranceMM   float64 `yaml:"xloc_tolerance_mm"`
	TaperTolerance    float64 `yaml:"taper_tolerance"`
	TipToleranceMM    float64 `yaml:"tip_tolerance_mm"`
	CtrlTolerance     float64 `yaml:"ctrl_tolerance"`
	MaxEntries        int     `yaml:"max_entries"`
}

// Control configures the process control channel.
type Control struct {
	PausePollSeconds int `yaml:"pause_poll_seconds"`
}

// SimTimeout returns the per-call simulator timeout.
func (s *Simulator) SimTimeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 45 * time.Minute
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Heartbeat returns the interval for in-flight progress logging.
func (s *Simulator) Heartbeat() time.Duration {
	if s.HeartbeatSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.HeartbeatSeconds) * time.Second
}

// PausePoll returns the polling interval used while paused.
func (c *Control) PausePoll() time.Duration {
	if c.PausePollSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.PausePollSeconds) * time.Second
}

// SweepAngles expands the configured angle sweep into the fixed sequence
// the cheap-pass rows are aligned to.
func (s *Simulator) SweepAngles() []float64 {
	start, end, step := s.SweepAngleStart, s.SweepAngleEnd, s.SweepAngleStep
	if step <= 0 {
		return nil
	}
	var angles []float64
	for a := start; a <= end+step/2; a += step {
		angles = append(angles, a)
	}
	return angles
}

// DefaultConfig returns a configuration carrying the tuned constants of
// the production runs.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		WorkDir:  ".",
		Artifacts: Artifacts{
			DesFile:       "current.des",
			ResultsFile:   "Results.csv",
			StabilityFile: "current.aerocenter.stab",
			MassPropsFile: "current_MassProps.csv",
			HistoryFile:   "opt_history.csv",
			StatusFile:    "optimizer_status.json",
			CommandFile:   "optimizer_control.txt",
		},
		Simulator: Simulator{
			Executable:       "vsp",
			GeometryScript:   "update_geom.vspscript",
			CruiseScript:     "cruise.vspscript",
			TimeoutSeconds:   2700,
			HeartbeatSeconds: 30,
			SweepAngleStart:  2,
			SweepAngleEnd:    16,
			SweepAngleStep:   1,
		},
		Bounds: Bounds{
			SpanMM:   Range{Min: 275, Max: 480},
			SweepDeg: Range{Min: 0, Max: 40},
			XLocMM:   Range{Min: 220, Max: 340},
			Taper:    Range{Min: 0.6, Max: 0.9},
			TipMM:    Range{Min: 95, Max: 125},
			CtrlFrac: Range{Min: 0.22, Max: 0.22},
		},
		Baseline: []float64{330.0, 25.0, 320.0, 0.833333, 120.0, 0.22},
		Search: Search{
			Strategy:       "best1bin",
			PopulationSize: 20,
			MaxGenerations: 40,
			Mutation:       0.7,
			Crossover:      0.8,
			Tolerance:      5e-3,
		},
		Scoring: Scoring{
			BandWindow:       4,
			BandSpreadWeight: 0.2,
			BandClipMax:      17.5,
			SentinelScore:    0.001,
		},
		Stagnation: Stagnation{
			Threshold:         5,
			Delta:             0.01,
			PerturbationScale: 3.0,
		},
		Penalties: Penalties{
			EfficiencyWeight:    0.7,
			SpanWeight:          0.3,
			TrailingEdgeLimitMM: 630.0,
			TrailingEdgeCoeff:   0.002,
			SpanHighMM:          360.0,
			SpanHighRefMM:       350.0,
			SpanHighCoeff:       0.001,
			SpanLowMM:           320.0,
			SpanLowRefMM:        330.0,
			SpanLowCoeff:        0.0005,
			ScoreCeiling:        16.0,
			ScoreCeilingCoeff:   2.0,
			GateBandScore:       8.0,
			GateSpanPenaltyMax:  1.0,
			GateFailurePenalty:  2.0,
			StabilityFloorPct:   5.0,
			StabilityCeilingPct: 15.0,
			SweetSpotLowPct:     8.0,
			SweetSpotHighPct:    12.0,
			CrashWeight:         10.0,
			SlugWeight:          0.35,

			InvalidGeometryPenalty:     5.0,
			InvalidGeometryToleranceMM: 10.0,

			FallbackSlopeScale:     50.0,
			FallbackUnstableMargin: -5.0,

			FailureObjective: -1000.0,
		},
		Cache: Cache{
			SpanToleranceMM:   1.0,
			SweepToleranceDeg: 0.5,
			XLocToleranceMM:   0.5,
			TaperTolerance:    0.01,
			TipToleranceMM:    1.0,
			CtrlTolerance:     0.01,
			MaxEntries:        10000,
		},
		Control: Control{
			PausePollSeconds: 2,
		},
	}
}
