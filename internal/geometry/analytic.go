package geometry

import "math"

// TrailingEdgeX returns the longitudinal position of the wing tip
// trailing edge: wing placement plus the sweep-induced offset of the
// tip plus the tip chord itself.
func TrailingEdgeX(v DesignVector) float64 {
	sweepRad := v.Sweep * math.Pi / 180.0
	return v.XLoc + math.Sin(sweepRad)*v.Span + v.Tip
}

// EstimateMAC estimates the mean aerodynamic chord from the tip chord
// and taper ratio using the trapezoidal-wing formula. Used when the
// simulator's reference chord is unavailable, and by the analytic
// stability estimate for gated-out designs.
func EstimateMAC(v DesignVector) float64 {
	if v.Taper <= 0 {
		return v.Tip
	}
	root := v.Tip / v.Taper
	t := v.Taper
	return (2.0 / 3.0) * root * (1 + t + t*t) / (1 + t)
}

// EstimateNeutralPoint is the cheap analytic neutral-point estimate used
// for designs that never reach the stability analysis. It places the
// neutral point aft of the wing placement by a sweep-corrected fraction
// of the estimated mean aerodynamic chord. Coarse, but it keeps
// gated-out candidates comparable instead of silently neutral.
func EstimateNeutralPoint(v DesignVector) float64 {
	mac := EstimateMAC(v)
	sweepRad := v.Sweep * math.Pi / 180.0
	// Quarter-chord point shifted aft with sweep; the half-span midpoint
	// carries the sweep offset into the longitudinal axis.
	return v.XLoc + 0.25*mac + 0.5*math.Sin(sweepRad)*v.Span*0.5
}
