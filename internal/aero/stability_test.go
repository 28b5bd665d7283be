package aero

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestParseNeutralPointText(t *testing.T) {
	report := `
Case 1 converged.
Aerodynamic Center is at: (333.0, 0.0, 12.5)
Case 2 converged.
Aerodynamic Center is at: (334.0, 0.1, 12.4)
`
	np, err := ParseNeutralPointText(report)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if math.Abs(np-333.5) > 1e-9 {
		t.Fatalf("np = %v, want mean 333.5", np)
	}
}

func TestParseNeutralPointTextNoStatements(t *testing.T) {
	_, err := ParseNeutralPointText("solver log without the statement\n")
	var stabErr *StabilityExtractionError
	if !errors.As(err, &stabErr) {
		t.Fatalf("err = %v, want StabilityExtractionError", err)
	}
}

func TestParseNeutralPointMissingFile(t *testing.T) {
	_, err := ParseNeutralPoint(filepath.Join(t.TempDir(), "absent.stab"))
	var stabErr *StabilityExtractionError
	if !errors.As(err, &stabErr) {
		t.Fatalf("err = %v, want StabilityExtractionError", err)
	}
}

func TestParseTotalCG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mass.csv")
	content := "Name,Mass\nWing,0.8\nTotal_CG, 310.25, 0.0, 14.2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cg, err := ParseTotalCG(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cg != 310.25 {
		t.Fatalf("cg = %v, want 310.25", cg)
	}
}

func TestParseTotalCGErrors(t *testing.T) {
	dir := t.TempDir()

	noRow := filepath.Join(dir, "norow.csv")
	if err := os.WriteFile(noRow, []byte("Name,Mass\nWing,0.8\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := ParseTotalCG(noRow)
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Kind != RowNotFound {
		t.Fatalf("missing row: err = %v, want RowNotFound", err)
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("Total_CG,not-a-number\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err = ParseTotalCG(bad); !errors.As(err, &rowErr) || rowErr.Kind != RowMalformed {
		t.Fatalf("malformed row: err = %v, want RowMalformed", err)
	}
}
