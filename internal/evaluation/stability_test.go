package evaluation

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/airframe-trades/optim-core/internal/aero"
	"github.com/airframe-trades/optim-core/pkg/config"
)

func newAnalyzer() stabilityAnalyzer {
	cfg := config.DefaultConfig()
	return stabilityAnalyzer{pen: &cfg.Penalties, angles: cfg.Simulator.SweepAngles()}
}

func writeStabReport(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.stab")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}
	return path
}

func TestAnalyzePrimary(t *testing.T) {
	a := newAnalyzer()
	v := testVector()

	// Two conditions averaging to X = 333.5; with cg 310 and a 150mm
	// reference chord the margin is (333.5-310)/150*100.
	report := writeStabReport(t,
		"Aerodynamic Center is at: (333.0, 0.0, 12.0)\n"+
			"Aerodynamic Center is at: (334.0, 0.0, 12.0)\n")
	table := aero.ParseTable("FC_Cref_,150.0")

	res := a.Analyze(v, report, table, 310)
	if res.Source != SourcePrimary {
		t.Fatalf("source = %v, want primary", res.Source)
	}
	want := (333.5 - 310.0) / 150.0 * 100.0
	if math.Abs(res.MarginPct-want) > 1e-9 {
		t.Fatalf("margin = %v, want %v", res.MarginPct, want)
	}
	if res.InvalidGeometry {
		t.Fatalf("unexpected invalid-geometry flag")
	}
}

func TestAnalyzeInvalidGeometry(t *testing.T) {
	a := newAnalyzer()
	v := testVector() // XLoc 320

	// A neutral point far ahead of the wing is geometrically impossible:
	// the result is flagged and the fallback takes over.
	report := writeStabReport(t, "Aerodynamic Center is at: (250.0, 0.0, 12.0)\n")
	table := aero.ParseTable("FC_Cref_,150.0\nCMytot,-0.01,-0.02,-0.03,-0.04,-0.05,-0.06,-0.07,-0.08,-0.09,-0.10,-0.11,-0.12,-0.13,-0.14,-0.15")

	res := a.Analyze(v, report, table, 310)
	if !res.InvalidGeometry {
		t.Fatalf("expected invalid-geometry flag")
	}
	if res.Source != SourceFallback {
		t.Fatalf("source = %v, want fallback", res.Source)
	}
}

func TestAnalyzeFallbackSlope(t *testing.T) {
	a := newAnalyzer()
	v := testVector()

	// Missing report: fall back to the pitching-moment slope. The row
	// drops 0.01 per degree, so the slope is -0.01 and the margin is
	// -slope * scale.
	table := aero.ParseTable("FC_Cref_,150.0\nCMytot,-0.01,-0.02,-0.03,-0.04,-0.05,-0.06,-0.07,-0.08,-0.09,-0.10,-0.11,-0.12,-0.13,-0.14,-0.15")
	res := a.Analyze(v, filepath.Join(t.TempDir(), "absent.stab"), table, 310)
	if res.Source != SourceFallback {
		t.Fatalf("source = %v, want fallback", res.Source)
	}
	want := 0.01 * a.pen.FallbackSlopeScale
	if math.Abs(res.MarginPct-want) > 1e-9 {
		t.Fatalf("margin = %v, want %v", res.MarginPct, want)
	}
}

func TestAnalyzeFallbackUsesTableAlpha(t *testing.T) {
	a := newAnalyzer()
	v := testVector()

	// The table reports a sweep twice as coarse as the configured one.
	// The same pitching-moment drop over doubled angles halves the slope,
	// so the fit must use the table's own Alpha row.
	table := aero.ParseTable(
		"FC_Cref_,150.0\n" +
			"Alpha,2,4,6,8,10,12,14,16,18,20,22,24,26,28,30\n" +
			"CMytot,-0.01,-0.02,-0.03,-0.04,-0.05,-0.06,-0.07,-0.08,-0.09,-0.10,-0.11,-0.12,-0.13,-0.14,-0.15")
	res := a.Analyze(v, filepath.Join(t.TempDir(), "absent.stab"), table, 310)
	if res.Source != SourceFallback {
		t.Fatalf("source = %v, want fallback", res.Source)
	}
	want := 0.005 * a.pen.FallbackSlopeScale
	if math.Abs(res.MarginPct-want) > 1e-9 {
		t.Fatalf("margin = %v, want %v from the table's angle row", res.MarginPct, want)
	}
}

func TestAnalyzeFallbackUnstable(t *testing.T) {
	a := newAnalyzer()
	v := testVector()

	// A non-negative pitching-moment slope means the design is unstable;
	// the fallback pins it to the documented unstable margin.
	table := aero.ParseTable("FC_Cref_,150.0\nCMytot,0.01,0.02,0.03,0.04,0.05,0.06,0.07,0.08,0.09,0.10,0.11,0.12,0.13,0.14,0.15")
	res := a.Analyze(v, filepath.Join(t.TempDir(), "absent.stab"), table, 310)
	if res.MarginPct != a.pen.FallbackUnstableMargin {
		t.Fatalf("margin = %v, want %v", res.MarginPct, a.pen.FallbackUnstableMargin)
	}
}

func TestAnalyticEstimate(t *testing.T) {
	a := newAnalyzer()
	v := testVector()

	res := a.analyticEstimate(v, 310)
	if res.Source != SourceAnalytic {
		t.Fatalf("source = %v, want analytic", res.Source)
	}
	if res.RefChord <= 0 {
		t.Fatalf("reference chord = %v, want positive", res.RefChord)
	}
	if res.NeutralPoint <= v.XLoc {
		t.Fatalf("estimated neutral point %v should sit aft of the wing at %v", res.NeutralPoint, v.XLoc)
	}
}

func TestCategorize(t *testing.T) {
	p := &config.DefaultConfig().Penalties

	tests := []struct {
		margin float64
		want   StabilityCategory
	}{
		{-5, CategoryUnstable},
		{3, CategoryUnstable},
		{6, CategoryAcceptable},
		{8, CategorySweetSpot},
		{10, CategorySweetSpot},
		{12, CategorySweetSpot},
		{14, CategoryAcceptable},
		{17, CategoryOverlyStable},
	}
	for _, tt := range tests {
		if got := Categorize(tt.margin, p); got != tt.want {
			t.Errorf("Categorize(%v) = %v, want %v", tt.margin, got, tt.want)
		}
	}
}
