package geometry

import (
	"math"
	"testing"
)

func TestTrailingEdgeX(t *testing.T) {
	// Zero sweep: trailing edge is placement plus tip chord.
	v := DesignVector{Span: 330, Sweep: 0, XLoc: 320, Tip: 120}
	if got := TrailingEdgeX(v); math.Abs(got-440) > 1e-9 {
		t.Fatalf("TE at zero sweep = %v, want 440", got)
	}

	// Sweep pushes the trailing edge aft, monotonically.
	prev := TrailingEdgeX(v)
	for sweep := 5.0; sweep <= 40; sweep += 5 {
		v.Sweep = sweep
		cur := TrailingEdgeX(v)
		if cur <= prev {
			t.Fatalf("trailing edge not monotone in sweep: %v at %v deg", cur, sweep)
		}
		prev = cur
	}
}

func TestEstimateMAC(t *testing.T) {
	// Untapered wing: MAC equals the chord.
	v := DesignVector{Tip: 120, Taper: 1.0}
	if got := EstimateMAC(v); math.Abs(got-120) > 1e-9 {
		t.Fatalf("MAC of untapered wing = %v, want 120", got)
	}

	// Tapered wing: MAC sits between tip and root chord.
	v.Taper = 0.8
	mac := EstimateMAC(v)
	root := v.Tip / v.Taper
	if mac <= v.Tip || mac >= root {
		t.Fatalf("MAC %v outside (%v, %v)", mac, v.Tip, root)
	}

	// Degenerate taper falls back to the tip chord instead of dividing
	// by zero.
	v.Taper = 0
	if got := EstimateMAC(v); got != v.Tip {
		t.Fatalf("MAC with zero taper = %v, want %v", got, v.Tip)
	}
}

func TestEstimateNeutralPoint(t *testing.T) {
	v := DesignVector{Span: 330, Sweep: 25, XLoc: 320, Taper: 0.83, Tip: 120}
	np := EstimateNeutralPoint(v)
	if np <= v.XLoc {
		t.Fatalf("neutral point %v should sit aft of the wing at %v", np, v.XLoc)
	}

	// More sweep moves the estimate aft.
	swept := v
	swept.Sweep = 40
	if EstimateNeutralPoint(swept) <= np {
		t.Fatalf("sweep did not move the neutral point aft")
	}
}
