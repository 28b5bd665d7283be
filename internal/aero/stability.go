package aero

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var aeroCenterRe = regexp.MustCompile(
	`Aerodynamic Center is at:\s*\(\s*([\d.eE+-]+),\s*([\d.eE+-]+),\s*([\d.eE+-]+)\)`)

// ParseNeutralPoint extracts the longitudinal neutral point from the
// stability report: the report contains one "Aerodynamic Center is at:
// (x, y, z)" statement per analyzed condition and the X coordinates are
// averaged.
func ParseNeutralPoint(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, &StabilityExtractionError{Reason: fmt.Sprintf("report %s unreadable: %v", path, err)}
	}
	return ParseNeutralPointText(string(data))
}

// ParseNeutralPointText extracts the mean aerodynamic-center X from the
// report text.
func ParseNeutralPointText(text string) (float64, error) {
	matches := aeroCenterRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, &StabilityExtractionError{Reason: "no aerodynamic center statements in report"}
	}
	sum := 0.0
	for _, m := range matches {
		x, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, &StabilityExtractionError{Reason: fmt.Sprintf("malformed X coordinate %q", m[1])}
		}
		sum += x
	}
	return sum / float64(len(matches)), nil
}

// ParseTotalCG extracts the longitudinal center of gravity from the
// mass-properties table row "Total_CG,x,y,z".
func ParseTotalCG(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, &SimulationError{Reason: fmt.Sprintf("missing mass-properties artifact %s", path), Err: err}
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(strings.TrimSpace(line), ",")
		if strings.TrimSpace(fields[0]) != "Total_CG" {
			continue
		}
		if len(fields) < 2 {
			return 0, &RowError{Label: "Total_CG", Kind: RowMalformed, Reason: "row has no coordinates"}
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return 0, &RowError{Label: "Total_CG", Kind: RowMalformed,
				Reason: fmt.Sprintf("X coordinate %q is not numeric", fields[1])}
		}
		return x, nil
	}
	return 0, &RowError{Label: "Total_CG", Kind: RowNotFound, Reason: "no Total_CG row in mass-properties table"}
}
