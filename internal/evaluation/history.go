package evaluation

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/airframe-trades/optim-core/internal/geometry"
)

// EvalStatusOK marks a clean evaluation row; failures carry
// "failed:<kind>" instead.
const EvalStatusOK = "ok"

// EvaluationRecord is one append-only history row. Created once per
// evaluation and never mutated after write.
type EvaluationRecord struct {
	Iteration  int
	Generation int
	ElapsedS   float64
	SimS       float64

	Vector geometry.DesignVector

	BandScore   float64
	CenterAngle float64
	MarginPct   float64
	NeutralPt   float64
	RefChord    float64
	CG          float64

	Penalties Breakdown
	Objective float64

	Category    StabilityCategory
	Source      MarginSource
	Improvement float64
	NewBest     bool
	Status      string
}

var historyHeader = []string{
	"iter", "gen", "elapsed_s", "sim_s",
	"span_mm", "sweep_deg", "xloc_mm", "taper", "tip_mm", "ctrl_frac",
	"band_score", "alpha_center", "static_margin_pct", "xnp_mm", "ref_chord_mm", "cg_x_mm",
	"te_penalty", "span_penalty", "score_ceiling_penalty", "crash_penalty", "slug_penalty",
	"gate_failure_penalty", "invalid_geom_penalty",
	"final_obj", "sm_category", "sm_source", "iter_improvement", "new_best", "status",
}

// HistoryLog appends one row per evaluation to a CSV artifact, flushing
// after every row so an external tailer always reads a consistent
// prefix.
type HistoryLog struct {
	f *os.File
	w *csv.Writer
}

// OpenHistoryLog opens (or creates) the history artifact, writing the
// header only when the file is new.
func OpenHistoryLog(path string) (*HistoryLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open history log %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat history log %s: %w", path, err)
	}

	h := &HistoryLog{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := h.w.Write(historyHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write history header: %w", err)
		}
		h.w.Flush()
		if err := h.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to flush history header: %w", err)
		}
	}
	return h, nil
}

// Append writes one record and flushes it to disk.
func (h *HistoryLog) Append(r *EvaluationRecord) error {
	row := []string{
		strconv.Itoa(r.Iteration),
		strconv.Itoa(r.Generation),
		fmt.Sprintf("%.1f", r.ElapsedS),
		fmt.Sprintf("%.1f", r.SimS),
		fmt.Sprintf("%.2f", r.Vector.Span),
		fmt.Sprintf("%.2f", r.Vector.Sweep),
		fmt.Sprintf("%.2f", r.Vector.XLoc),
		fmt.Sprintf("%.4f", r.Vector.Taper),
		fmt.Sprintf("%.2f", r.Vector.Tip),
		fmt.Sprintf("%.3f", r.Vector.Ctrl),
		fmt.Sprintf("%.5f", r.BandScore),
		fmt.Sprintf("%.1f", r.CenterAngle),
		fmt.Sprintf("%.3f", r.MarginPct),
		fmt.Sprintf("%.2f", r.NeutralPt),
		fmt.Sprintf("%.2f", r.RefChord),
		fmt.Sprintf("%.2f", r.CG),
		fmt.Sprintf("%.5f", r.Penalties.TrailingEdge),
		fmt.Sprintf("%.5f", r.Penalties.Span),
		fmt.Sprintf("%.5f", r.Penalties.ScoreCeiling),
		fmt.Sprintf("%.5f", r.Penalties.Crash),
		fmt.Sprintf("%.5f", r.Penalties.Slug),
		fmt.Sprintf("%.5f", r.Penalties.GateFailure),
		fmt.Sprintf("%.5f", r.Penalties.InvalidGeometry),
		fmt.Sprintf("%.5f", r.Objective),
		string(r.Category),
		string(r.Source),
		fmt.Sprintf("%.5f", r.Improvement),
		strconv.FormatBool(r.NewBest),
		r.Status,
	}
	if err := h.w.Write(row); err != nil {
		return fmt.Errorf("failed to append history row: %w", err)
	}
	h.w.Flush()
	if err := h.w.Error(); err != nil {
		return fmt.Errorf("failed to flush history row: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (h *HistoryLog) Close() error {
	h.w.Flush()
	if err := h.w.Error(); err != nil {
		h.f.Close()
		return err
	}
	return h.f.Close()
}
