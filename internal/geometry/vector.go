package geometry

import (
	"fmt"

	"github.com/airframe-trades/optim-core/pkg/config"
	"github.com/airframe-trades/optim-core/pkg/utils"
)

// NumParams is the dimensionality of the design space.
const NumParams = 6

// DesignVector is one candidate airframe geometry. Lengths are in mm,
// sweep in degrees, taper and control fraction nondimensional.
// Immutable per evaluation.
type DesignVector struct {
	Span  float64 // wing semispan
	Sweep float64 // leading-edge sweep angle
	XLoc  float64 // longitudinal wing placement
	Taper float64 // taper ratio
	Tip   float64 // tip chord
	Ctrl  float64 // control-surface chord fraction
}

// FromSlice builds a DesignVector from the search driver's parameter order.
func FromSlice(x []float64) (DesignVector, error) {
	if len(x) != NumParams {
		return DesignVector{}, fmt.Errorf("design vector needs %d parameters, got %d", NumParams, len(x))
	}
	return DesignVector{
		Span:  x[0],
		Sweep: x[1],
		XLoc:  x[2],
		Taper: x[3],
		Tip:   x[4],
		Ctrl:  x[5],
	}, nil
}

// Slice returns the vector in the search driver's parameter order.
func (v DesignVector) Slice() []float64 {
	return []float64{v.Span, v.Sweep, v.XLoc, v.Taper, v.Tip, v.Ctrl}
}

func (v DesignVector) String() string {
	return fmt.Sprintf("span=%.1f sweep=%.1f xloc=%.1f taper=%.3f tip=%.1f ctrl=%.3f",
		v.Span, v.Sweep, v.XLoc, v.Taper, v.Tip, v.Ctrl)
}

// Bounds is the design-space box, indexed in the driver's parameter order.
type Bounds [NumParams][2]float64

// BoundsFromConfig flattens the named configuration ranges into the
// driver's indexed form.
func BoundsFromConfig(b config.Bounds) Bounds {
	return Bounds{
		{b.SpanMM.Min, b.SpanMM.Max},
		{b.SweepDeg.Min, b.SweepDeg.Max},
		{b.XLocMM.Min, b.XLocMM.Max},
		{b.Taper.Min, b.Taper.Max},
		{b.TipMM.Min, b.TipMM.Max},
		{b.CtrlFrac.Min, b.CtrlFrac.Max},
	}
}

// Sample draws a uniform random point inside the box.
func (b Bounds) Sample(rng *utils.RandSource) []float64 {
	x := make([]float64, NumParams)
	for i := range x {
		x[i] = rng.UniformFloat64(b[i][0], b[i][1])
	}
	return x
}

// Clamp clips x to the box in place and returns it.
func (b Bounds) Clamp(x []float64) []float64 {
	for i := range x {
		x[i] = utils.ClampFloat64(x[i], b[i][0], b[i][1])
	}
	return x
}

// Contains reports whether x lies inside the box.
func (b Bounds) Contains(x []float64) bool {
	if len(x) != NumParams {
		return false
	}
	for i := range x {
		if x[i] < b[i][0] || x[i] > b[i][1] {
			return false
		}
	}
	return true
}
