package aero

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Row labels in the cheap-pass tabular output.
const (
	LabelPerformanceRatio = "L_D"
	LabelAlpha            = "Alpha"
	LabelPitchingMoment   = "CMytot"
	LabelRefChord         = "FC_Cref_"
)

// Table is the parsed cheap-pass output: rows keyed by the label in
// column 0, values as the remaining comma-separated fields. Later rows
// with a repeated label win, matching the simulator's append behavior.
type Table struct {
	rows map[string][]string
}

// ParseTableFile reads and parses the cheap-pass artifact.
func ParseTableFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SimulationError{Reason: fmt.Sprintf("missing output artifact %s", path), Err: err}
	}
	if len(data) == 0 {
		return nil, &SimulationError{Reason: fmt.Sprintf("empty output artifact %s", path)}
	}
	return ParseTable(string(data)), nil
}

// ParseTable parses the tabular text format.
func ParseTable(text string) *Table {
	t := &Table{rows: make(map[string][]string)}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		label := strings.TrimSpace(fields[0])
		if label == "" {
			continue
		}
		t.rows[label] = fields[1:]
	}
	return t
}

// Floats extracts exactly n numeric values from the labeled row.
func (t *Table) Floats(label string, n int) ([]float64, error) {
	fields, ok := t.rows[label]
	if !ok {
		return nil, &RowError{Label: label, Kind: RowNotFound, Reason: "no row with this label"}
	}
	if len(fields) < n {
		return nil, &RowError{Label: label, Kind: RowMalformed,
			Reason: fmt.Sprintf("need %d values, row has %d", n, len(fields))}
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return nil, &RowError{Label: label, Kind: RowMalformed,
				Reason: fmt.Sprintf("value %d %q is not numeric", i, fields[i])}
		}
		out[i] = v
	}
	return out, nil
}

// Float extracts the first numeric value from the labeled row.
func (t *Table) Float(label string) (float64, error) {
	vals, err := t.Floats(label, 1)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}
