package evaluation

import (
	"github.com/airframe-trades/optim-core/internal/aero"
	"github.com/airframe-trades/optim-core/pkg/config"
	"github.com/airframe-trades/optim-core/pkg/logger"
	"github.com/airframe-trades/optim-core/pkg/utils"
)

// BandResult is the Tier-1 extraction outcome.
type BandResult struct {
	Score       float64
	CenterAngle float64
	Curve       []float64
	Sentinel    bool // the performance row was missing or malformed
}

// BandScore extracts the banded performance score from the cheap-pass
// table: the performance-ratio row is sign-flipped (simulator
// convention), clipped, and scanned with a fixed-width window scored as
// mean minus a fraction of standard deviation. A missing or malformed
// row yields the documented low sentinel instead of an error so a bad
// table never aborts an evaluation.
func BandScore(t *aero.Table, angles []float64, sc *config.Scoring) BandResult {
	curve, err := t.Floats(aero.LabelPerformanceRatio, len(angles))
	if err != nil {
		logger.Warn("band score unavailable, using sentinel", "error", err)
		return BandResult{Score: sc.SentinelScore, Sentinel: true}
	}

	for i := range curve {
		curve[i] = utils.ClampFloat64(-curve[i], 0, sc.BandClipMax)
	}

	w := sc.BandWindow
	if len(curve) < w {
		logger.Warn("curve shorter than band window, using sentinel",
			"points", len(curve), "window", w)
		return BandResult{Score: sc.SentinelScore, Curve: curve, Sentinel: true}
	}

	bestScore := 0.0
	bestIdx := -1
	for i := 0; i+w <= len(curve); i++ {
		band := curve[i : i+w]
		score := utils.Mean(band) - sc.BandSpreadWeight*utils.StdDev(band)
		if bestIdx < 0 || score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	return BandResult{
		Score:       bestScore,
		CenterAngle: angles[bestIdx+w/2],
		Curve:       curve,
	}
}
