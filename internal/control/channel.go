// Package control implements the out-of-process control channel: a
// status record the optimizer publishes and a command token an external
// observer writes. The transport is behind the Channel interface so the
// file-based contract can be swapped without touching the core loop.
package control

import (
	"context"
	"errors"
	"time"
)

// ErrStopRequested unwinds the search when a stop command is observed.
// It is the only failure allowed to propagate out of the evaluator.
var ErrStopRequested = errors.New("stop requested via control channel")

// Command is one externally issued instruction.
type Command string

const (
	CommandNone   Command = ""
	CommandStop   Command = "stop"
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
)

// State is the optimizer's externally visible run state.
type State string

const (
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
	StateCompleted State = "completed"
	StateError     State = "error"
)

// Status is the externally readable progress snapshot. It is overwritten
// on every evaluation and generation boundary and finalized once on
// terminal states.
type Status struct {
	RunID          string    `json:"run_id"`
	State          State     `json:"status"`
	Paused         bool      `json:"paused"`
	Iteration      int       `json:"iteration"`
	Generation     int       `json:"generation"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	ElapsedMinutes float64   `json:"elapsed_minutes"`
	BestObjective  *float64  `json:"best_objective"`
	BestDesign     []float64 `json:"best_design,omitempty"`
	LastSimSeconds float64   `json:"last_sim_seconds"`
	Timestamp      time.Time `json:"timestamp"`
}

// Channel publishes status and ingests commands.
//
// Poll is called before every evaluation and at every generation
// boundary. A pending stop returns ErrStopRequested after finalizing the
// status; a pending pause blocks in a polling wait that keeps the status
// fresh and still honors stop and context cancellation. Transport
// errors are never fatal: an unreadable command is no command.
type Channel interface {
	PublishStatus(st *Status) error
	Poll(ctx context.Context, current *Status) error
}
