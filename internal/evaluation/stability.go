package evaluation

import (
	"github.com/airframe-trades/optim-core/internal/aero"
	"github.com/airframe-trades/optim-core/internal/geometry"
	"github.com/airframe-trades/optim-core/pkg/config"
	"github.com/airframe-trades/optim-core/pkg/logger"
	"github.com/airframe-trades/optim-core/pkg/utils"
)

// MarginSource records how a stability margin was obtained, so a
// fallback estimate is never mistaken for a primary measurement.
type MarginSource string

const (
	SourcePrimary  MarginSource = "primary"
	SourceFallback MarginSource = "fallback"
	SourceAnalytic MarginSource = "analytic"
)

// StabilityCategory labels a margin for the history log.
type StabilityCategory string

const (
	CategoryUnstable     StabilityCategory = "unstable"
	CategoryAcceptable   StabilityCategory = "acceptable"
	CategorySweetSpot    StabilityCategory = "sweet_spot"
	CategoryOverlyStable StabilityCategory = "overly_stable"
	CategoryUnknown      StabilityCategory = "unknown"
)

// StabilityResult is the Tier-2 outcome.
type StabilityResult struct {
	MarginPct       float64
	NeutralPoint    float64
	RefChord        float64
	Source          MarginSource
	InvalidGeometry bool
}

// stabilityAnalyzer derives the static margin from the expensive-pass
// report, falling back to a pitching-moment slope fit over the cheap
// pass when the report is absent or unusable.
type stabilityAnalyzer struct {
	pen    *config.Penalties
	angles []float64
}

// Analyze runs the primary extraction and degrades to the fallback
// estimate rather than aborting. A neutral point ahead of the leading
// edge beyond tolerance is geometrically impossible; it flags the
// result and switches to the fallback while keeping the evaluation
// alive.
func (a *stabilityAnalyzer) Analyze(v geometry.DesignVector, stabPath string, t *aero.Table, cg float64) StabilityResult {
	refChord, chordErr := t.Float(aero.LabelRefChord)
	if chordErr != nil || refChord <= 0 {
		logger.Warn("reference chord unavailable, using analytic estimate", "error", chordErr)
		refChord = geometry.EstimateMAC(v)
	}

	np, err := aero.ParseNeutralPoint(stabPath)
	if err != nil {
		logger.Warn("primary stability extraction failed, using slope fallback", "error", err)
		return a.fallback(t, cg, refChord)
	}

	res := StabilityResult{
		MarginPct:    (np - cg) / refChord * 100.0,
		NeutralPoint: np,
		RefChord:     refChord,
		Source:       SourcePrimary,
	}

	if np < v.XLoc-a.pen.InvalidGeometryToleranceMM {
		logger.Warn("neutral point ahead of leading edge, flagging invalid geometry",
			"neutral_point", np, "xloc", v.XLoc)
		fb := a.fallback(t, cg, refChord)
		fb.InvalidGeometry = true
		return fb
	}

	return res
}

// fallback fits a line to the pitching-moment coefficient over the angle
// sweep. A negative slope indicates stability; the slope-to-margin scale
// is uncalibrated and only preserves rank ordering. A non-negative
// slope is treated as strongly unstable.
func (a *stabilityAnalyzer) fallback(t *aero.Table, cg, refChord float64) StabilityResult {
	res := StabilityResult{
		RefChord: refChord,
		Source:   SourceFallback,
	}

	cm, err := t.Floats(aero.LabelPitchingMoment, len(a.angles))
	if err != nil {
		logger.Warn("pitching-moment row unavailable for fallback", "error", err)
		res.MarginPct = a.pen.FallbackUnstableMargin
		return res
	}

	// The table's own angle row is authoritative when present; the
	// configured sweep stands in when the solver omitted it.
	alphas, err := t.Floats(aero.LabelAlpha, len(a.angles))
	if err != nil {
		alphas = a.angles
	}

	slope := utils.LinearFit(alphas, cm)
	if slope >= 0 {
		res.MarginPct = a.pen.FallbackUnstableMargin
		return res
	}
	res.MarginPct = -slope * a.pen.FallbackSlopeScale
	return res
}

// analyticEstimate substitutes a cheap stability estimate for designs
// that never reach the expensive analysis, so gated-out candidates are
// never favored purely by omission.
func (a *stabilityAnalyzer) analyticEstimate(v geometry.DesignVector, cg float64) StabilityResult {
	mac := geometry.EstimateMAC(v)
	np := geometry.EstimateNeutralPoint(v)
	return StabilityResult{
		MarginPct:    (np - cg) / mac * 100.0,
		NeutralPoint: np,
		RefChord:     mac,
		Source:       SourceAnalytic,
	}
}

// Categorize labels a margin relative to the configured bands.
func Categorize(marginPct float64, p *config.Penalties) StabilityCategory {
	switch {
	case marginPct < p.StabilityFloorPct:
		return CategoryUnstable
	case marginPct > p.StabilityCeilingPct:
		return CategoryOverlyStable
	case marginPct >= p.SweetSpotLowPct && marginPct <= p.SweetSpotHighPct:
		return CategorySweetSpot
	default:
		return CategoryAcceptable
	}
}
