package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/airframe-trades/optim-core/internal/control"
	"github.com/airframe-trades/optim-core/pkg/config"
)

// stubRunner stands in for the external simulator: RunSweep clears the
// previous call's artifacts and writes the canned ones, the way the
// real tool chain behaves.
type stubRunner struct {
	resultsPath   string
	stabilityPath string
	massPropsPath string

	table      string
	stabReport string
	massProps  string
	geomErr    error
	sweepErr   error

	sweepCalls int
}

func (s *stubRunner) UpdateGeometry(ctx context.Context) error { return s.geomErr }

func (s *stubRunner) RunSweep(ctx context.Context) (time.Duration, error) {
	s.sweepCalls++
	if s.sweepErr != nil {
		return time.Second, s.sweepErr
	}
	for path, content := range map[string]string{
		s.resultsPath:   s.table,
		s.stabilityPath: s.stabReport,
		s.massPropsPath: s.massProps,
	} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return 0, err
		}
		if content == "" {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return 0, err
		}
	}
	return 2 * time.Second, nil
}

func (s *stubRunner) ResultsPath() string   { return s.resultsPath }
func (s *stubRunner) StabilityPath() string { return s.stabilityPath }

func repeatRow(label string, value float64, n int) string {
	fields := make([]string, n)
	for i := range fields {
		fields[i] = fmt.Sprintf("%g", value)
	}
	return label + "," + strings.Join(fields, ",")
}

type evalFixture struct {
	cfg       *config.Config
	evaluator *Evaluator
	runner    *stubRunner
	state     *OptimizerContext
	channel   *control.FileChannel
}

func newEvalFixture(t *testing.T) *evalFixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.WorkDir = dir

	runner := &stubRunner{
		resultsPath:   filepath.Join(dir, cfg.Artifacts.ResultsFile),
		stabilityPath: filepath.Join(dir, cfg.Artifacts.StabilityFile),
		massPropsPath: filepath.Join(dir, cfg.Artifacts.MassPropsFile),
		// Flat performance curve scoring 12 and a stable pitching moment.
		table: repeatRow("L_D", -12, 15) + "\nFC_Cref_,150.0\n" +
			"CMytot,-0.01,-0.02,-0.03,-0.04,-0.05,-0.06,-0.07,-0.08,-0.09,-0.10,-0.11,-0.12,-0.13,-0.14,-0.15\n",
		// Neutral point at 323.5 with cg 310 and chord 150: margin 9%.
		stabReport: "Aerodynamic Center is at: (323.5, 0.0, 12.0)\n",
		massProps:  "Mass,1.2\nTotal_CG,310.0,0.0,14.0\n",
	}

	channel := control.NewFileChannel(
		filepath.Join(dir, cfg.Artifacts.StatusFile),
		filepath.Join(dir, cfg.Artifacts.CommandFile),
		10*time.Millisecond,
	)
	history, err := OpenHistoryLog(filepath.Join(dir, cfg.Artifacts.HistoryFile))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { history.Close() })

	state := NewOptimizerContext("run-test")
	ev := NewEvaluator(cfg, runner, NewCGCache(cfg.Cache), history, channel, state)
	return &evalFixture{cfg: cfg, evaluator: ev, runner: runner, state: state, channel: channel}
}

func (f *evalFixture) historyRows(t *testing.T) [][]string {
	t.Helper()
	return readHistoryRows(t, filepath.Join(f.cfg.WorkDir, f.cfg.Artifacts.HistoryFile))
}

func col(t *testing.T, rows [][]string, name string, rowIdx int) string {
	t.Helper()
	for i, h := range rows[0] {
		if h == name {
			return rows[rowIdx][i]
		}
	}
	t.Fatalf("no history column %q", name)
	return ""
}

func TestEvaluateSweetSpotDesign(t *testing.T) {
	f := newEvalFixture(t)

	// Band 12, margin 9%, no penalties: objective 0.7*12 and the driver
	// sees its negation.
	fitness, err := f.evaluator.Evaluate(context.Background(), f.cfg.Baseline)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(fitness+8.4) > 1e-6 {
		t.Fatalf("fitness = %v, want -8.4", fitness)
	}

	best, _, ok := f.state.Best()
	if !ok || math.Abs(best-8.4) > 1e-6 {
		t.Fatalf("best = %v ok=%v, want 8.4", best, ok)
	}

	rows := f.historyRows(t)
	if len(rows) != 2 {
		t.Fatalf("history rows = %d, want header + 1", len(rows))
	}
	if got := col(t, rows, "status", 1); got != EvalStatusOK {
		t.Fatalf("status = %q, want ok", got)
	}
	if got := col(t, rows, "sm_category", 1); got != string(CategorySweetSpot) {
		t.Fatalf("category = %q, want sweet_spot", got)
	}
	if got := col(t, rows, "sm_source", 1); got != string(SourcePrimary) {
		t.Fatalf("source = %q, want primary", got)
	}

	// The status snapshot was published.
	st, err := control.ReadStatusFile(filepath.Join(f.cfg.WorkDir, f.cfg.Artifacts.StatusFile))
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if st.BestObjective == nil || math.Abs(*st.BestObjective-8.4) > 1e-6 {
		t.Fatalf("published best = %v, want 8.4", st.BestObjective)
	}
}

func TestEvaluateGateFailure(t *testing.T) {
	f := newEvalFixture(t)

	// Band 5 misses the gate: the expensive report must not be consulted
	// and the analytic estimate fills in.
	f.runner.table = repeatRow("L_D", -5, 15) + "\nFC_Cref_,150.0\n"
	f.runner.stabReport = ""

	fitness, err := f.evaluator.Evaluate(context.Background(), f.cfg.Baseline)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.IsInf(fitness, 0) || math.IsNaN(fitness) {
		t.Fatalf("fitness not finite: %v", fitness)
	}

	rows := f.historyRows(t)
	if got := col(t, rows, "sm_source", 1); got != string(SourceAnalytic) {
		t.Fatalf("source = %q, want analytic", got)
	}
	if got := col(t, rows, "gate_failure_penalty", 1); got == "0.00000" {
		t.Fatalf("gate failure penalty missing")
	}
	if got := col(t, rows, "status", 1); got != EvalStatusOK {
		t.Fatalf("status = %q, want ok (gate failure is a penalty, not a failure)", got)
	}
}

func TestEvaluateSimulatorFailure(t *testing.T) {
	f := newEvalFixture(t)
	f.runner.sweepErr = errors.New("solver diverged")

	// The failure becomes the failure objective; the run continues.
	fitness, err := f.evaluator.Evaluate(context.Background(), f.cfg.Baseline)
	if err != nil {
		t.Fatalf("evaluate should swallow simulator failure, got %v", err)
	}
	if math.Abs(fitness-(-f.cfg.Penalties.FailureObjective)) > 1e-9 {
		t.Fatalf("fitness = %v, want %v", fitness, -f.cfg.Penalties.FailureObjective)
	}

	rows := f.historyRows(t)
	if len(rows) != 2 {
		t.Fatalf("history rows = %d, want exactly one row for the failed evaluation", len(rows))
	}
	if got := col(t, rows, "status", 1); got != "failed:simulation" {
		t.Fatalf("status = %q, want failed:simulation", got)
	}

	// A later clean evaluation still works and outranks the failure.
	f.runner.sweepErr = nil
	fitness, err = f.evaluator.Evaluate(context.Background(), f.cfg.Baseline)
	if err != nil {
		t.Fatalf("evaluate after failure: %v", err)
	}
	if fitness >= 0 {
		t.Fatalf("fitness = %v, want negative for a good design", fitness)
	}
	best, _, _ := f.state.Best()
	if math.Abs(best-8.4) > 1e-6 {
		t.Fatalf("best = %v, want the clean evaluation's 8.4", best)
	}
}

func TestEvaluateStopRequested(t *testing.T) {
	f := newEvalFixture(t)
	cmdPath := filepath.Join(f.cfg.WorkDir, f.cfg.Artifacts.CommandFile)
	if err := control.WriteCommand(cmdPath, control.CommandStop); err != nil {
		t.Fatalf("write command: %v", err)
	}

	_, err := f.evaluator.Evaluate(context.Background(), f.cfg.Baseline)
	if !errors.Is(err, control.ErrStopRequested) {
		t.Fatalf("err = %v, want ErrStopRequested", err)
	}
	if f.runner.sweepCalls != 0 {
		t.Fatalf("simulator invoked %d times after stop", f.runner.sweepCalls)
	}

	// No evaluation happened, so no history row either.
	rows := f.historyRows(t)
	if len(rows) != 1 {
		t.Fatalf("history rows = %d, want header only", len(rows))
	}

	st, err := control.ReadStatusFile(filepath.Join(f.cfg.WorkDir, f.cfg.Artifacts.StatusFile))
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if st.State != control.StateStopped {
		t.Fatalf("state = %q, want stopped", st.State)
	}
}

func TestEvaluateCGCacheReuse(t *testing.T) {
	f := newEvalFixture(t)

	if _, err := f.evaluator.Evaluate(context.Background(), f.cfg.Baseline); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}

	// The second sweep produces no mass-properties artifact: a repeat of
	// the same geometry must be served from the cache.
	f.runner.massProps = ""
	fitness, err := f.evaluator.Evaluate(context.Background(), f.cfg.Baseline)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if math.Abs(fitness+8.4) > 1e-6 {
		t.Fatalf("cached fitness = %v, want -8.4", fitness)
	}

	rows := f.historyRows(t)
	if got := col(t, rows, "status", 2); got != EvalStatusOK {
		t.Fatalf("second status = %q, want ok via cache", got)
	}
}

func TestEvaluateMissingMassProps(t *testing.T) {
	f := newEvalFixture(t)

	// Seed a mass-properties table from a previous design. When the sweep
	// fails to produce a fresh one, the evaluation must fail at
	// extraction rather than silently reusing the old CG.
	massPropsPath := filepath.Join(f.cfg.WorkDir, f.cfg.Artifacts.MassPropsFile)
	if err := os.WriteFile(massPropsPath, []byte("Total_CG,999.0,0.0,14.0\n"), 0o644); err != nil {
		t.Fatalf("seed stale mass props: %v", err)
	}
	f.runner.massProps = ""

	fitness, err := f.evaluator.Evaluate(context.Background(), f.cfg.Baseline)
	if err != nil {
		t.Fatalf("evaluate should score the failure, got %v", err)
	}
	if math.Abs(fitness-(-f.cfg.Penalties.FailureObjective)) > 1e-9 {
		t.Fatalf("fitness = %v, want the failure objective %v", fitness, -f.cfg.Penalties.FailureObjective)
	}

	rows := f.historyRows(t)
	if got := col(t, rows, "status", 1); got != "failed:extraction" {
		t.Fatalf("status = %q, want failed:extraction", got)
	}
	if got := col(t, rows, "cg_x_mm", 1); got == "999.00" {
		t.Fatalf("previous design's CG leaked into the evaluation")
	}
}

func TestEvaluateOneRowPerEvaluation(t *testing.T) {
	f := newEvalFixture(t)

	for i := 0; i < 3; i++ {
		if i == 1 {
			f.runner.sweepErr = errors.New("transient")
		} else {
			f.runner.sweepErr = nil
		}
		if _, err := f.evaluator.Evaluate(context.Background(), f.cfg.Baseline); err != nil {
			t.Fatalf("evaluate %d: %v", i, err)
		}
	}

	rows := f.historyRows(t)
	if len(rows) != 4 {
		t.Fatalf("history rows = %d, want header + 3", len(rows))
	}
	if f.state.EvalCount != 3 {
		t.Fatalf("eval count = %d, want 3", f.state.EvalCount)
	}
}
