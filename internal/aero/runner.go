package aero

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/airframe-trades/optim-core/pkg/config"
	"github.com/airframe-trades/optim-core/pkg/logger"
)

// Runner invokes the external simulator. Each call blocks for the full
// duration of the external process; a heartbeat goroutine reports
// elapsed time while a sweep is in flight but mutates no shared state.
type Runner struct {
	exe           string
	geometry      string
	cruise        string
	workDir       string
	resultsPath   string
	stabilityPath string
	massPropsPath string
	timeout       time.Duration
	heartbeat     time.Duration
}

// NewRunner builds a Runner from the simulator and artifact configuration.
// Relative artifact paths are resolved against workDir.
func NewRunner(cfg *config.Config) *Runner {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cfg.WorkDir, p)
	}
	return &Runner{
		exe:           cfg.Simulator.Executable,
		geometry:      cfg.Simulator.GeometryScript,
		cruise:        cfg.Simulator.CruiseScript,
		workDir:       cfg.WorkDir,
		resultsPath:   resolve(cfg.Artifacts.ResultsFile),
		stabilityPath: resolve(cfg.Artifacts.StabilityFile),
		massPropsPath: resolve(cfg.Artifacts.MassPropsFile),
		timeout:       cfg.Simulator.SimTimeout(),
		heartbeat:     cfg.Simulator.Heartbeat(),
	}
}

// ResultsPath returns the resolved cheap-pass artifact path.
func (r *Runner) ResultsPath() string { return r.resultsPath }

// StabilityPath returns the resolved stability report path.
func (r *Runner) StabilityPath() string { return r.stabilityPath }

// UpdateGeometry applies the current geometry description by running the
// geometry script.
func (r *Runner) UpdateGeometry(ctx context.Context) error {
	if err := r.runScript(ctx, r.geometry); err != nil {
		return &GeometryError{Reason: fmt.Sprintf("script %s", r.geometry), Err: err}
	}
	return nil
}

// RunSweep runs the cruise script and returns the call duration. Stale
// output artifacts from the previous call are removed first: reading an
// artifact that the current design did not produce is an invariant
// violation, not a recoverable state. The mass-properties table is on
// the list too; leaving it behind would let the previous design's CG
// leak into the current evaluation.
func (r *Runner) RunSweep(ctx context.Context) (time.Duration, error) {
	for _, stale := range []string{r.resultsPath, r.stabilityPath, r.massPropsPath} {
		if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, &SimulationError{Reason: fmt.Sprintf("could not remove stale artifact %s", stale), Err: err}
		}
	}

	start := time.Now()
	stop := r.startHeartbeat(start)
	err := r.runScript(ctx, r.cruise)
	stop()
	elapsed := time.Since(start)

	if err != nil {
		return elapsed, &SimulationError{Reason: fmt.Sprintf("script %s", r.cruise), Err: err}
	}

	info, statErr := os.Stat(r.resultsPath)
	if statErr != nil {
		return elapsed, &SimulationError{Reason: fmt.Sprintf("no output artifact %s produced", r.resultsPath), Err: statErr}
	}
	if info.Size() == 0 {
		return elapsed, &SimulationError{Reason: fmt.Sprintf("output artifact %s is empty", r.resultsPath)}
	}

	logger.Debug("simulator sweep completed", "elapsed_s", elapsed.Seconds())
	return elapsed, nil
}

func (r *Runner) runScript(ctx context.Context, script string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.exe, "-script", script)
	cmd.Dir = r.workDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		// The process is killed on context expiry but exec reports only
		// the signal; surface the context error so callers can tell a
		// shutdown from a timed-out or crashed call.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", r.exe, script, ctxErr)
		}
		tail := out
		if len(tail) > 500 {
			tail = tail[len(tail)-500:]
		}
		return fmt.Errorf("%s %s: %w (output tail: %s)", r.exe, script, err, string(tail))
	}
	return nil
}

// startHeartbeat logs elapsed time at the configured interval until the
// returned stop function is called.
func (r *Runner) startHeartbeat(start time.Time) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(r.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				logger.Info("simulator call in flight", "elapsed_s", time.Since(start).Seconds())
			}
		}
	}()
	return func() { close(done) }
}
