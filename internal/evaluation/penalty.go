package evaluation

import (
	"github.com/airframe-trades/optim-core/internal/geometry"
	"github.com/airframe-trades/optim-core/pkg/config"
)

// Breakdown is the full penalty decomposition of one evaluation.
type Breakdown struct {
	TrailingEdge    float64
	Span            float64
	ScoreCeiling    float64
	Crash           float64
	Slug            float64
	GateFailure     float64
	InvalidGeometry float64
}

// TrailingEdgePenalty is quadratic in the overhang past the limit and
// exactly zero at or below it, so it is continuous at the boundary.
func TrailingEdgePenalty(v geometry.DesignVector, p *config.Penalties) float64 {
	te := geometry.TrailingEdgeX(v)
	if te <= p.TrailingEdgeLimitMM {
		return 0
	}
	excess := te - p.TrailingEdgeLimitMM
	return p.TrailingEdgeCoeff * excess * excess
}

// SpanPenalty penalizes deviation from the target span band,
// asymmetrically: long spans hurt more than short ones.
func SpanPenalty(span float64, p *config.Penalties) float64 {
	if span > p.SpanHighMM {
		d := span - p.SpanHighRefMM
		return p.SpanHighCoeff * d * d
	}
	if span < p.SpanLowMM {
		d := p.SpanLowRefMM - span
		return p.SpanLowCoeff * d * d
	}
	return 0
}

// ScoreCeilingPenalty penalizes band scores above the plausibility
// ceiling; scores that high are solver artifacts more often than real
// aerodynamics.
func ScoreCeilingPenalty(bandScore float64, p *config.Penalties) float64 {
	if bandScore <= p.ScoreCeiling {
		return 0
	}
	return p.ScoreCeilingCoeff * (bandScore - p.ScoreCeiling)
}

// StabilityPenalties returns the crash and slug penalties for a margin:
// proportional to the shortfall below the floor (heavy) or the excess
// above the ceiling (light), zero inside the band.
func StabilityPenalties(marginPct float64, p *config.Penalties) (crash, slug float64) {
	if marginPct < p.StabilityFloorPct {
		crash = p.CrashWeight * (p.StabilityFloorPct - marginPct)
	} else if marginPct > p.StabilityCeilingPct {
		slug = p.SlugWeight * (marginPct - p.StabilityCeilingPct)
	}
	return crash, slug
}

// GatePassed is the Tier-2 gate: a pure, deterministic predicate of the
// band score and span penalty. The gate-failure penalty applied when it
// fails is additive, not exclusionary; a gated-out design remains
// eligible to be the run's best.
func GatePassed(bandScore, spanPenalty float64, p *config.Penalties) bool {
	return bandScore > p.GateBandScore && spanPenalty < p.GateSpanPenaltyMax
}

// ComposeObjective combines the band score and penalty breakdown into
// the final objective. No clipping: negative objectives are preserved so
// the search keeps ranking information among bad designs.
func ComposeObjective(bandScore float64, b Breakdown, p *config.Penalties) float64 {
	return p.EfficiencyWeight*bandScore -
		p.SpanWeight*b.Span -
		b.TrailingEdge -
		b.ScoreCeiling -
		b.Crash -
		b.Slug -
		b.GateFailure -
		b.InvalidGeometry
}
