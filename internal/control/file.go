package control

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/airframe-trades/optim-core/pkg/logger"
)

// FileChannel is the file-based transport: a JSON status record at a
// well-known path and a single-line command token consumed once read.
type FileChannel struct {
	statusPath  string
	commandPath string
	pausePoll   time.Duration
}

// NewFileChannel creates a file-backed control channel.
func NewFileChannel(statusPath, commandPath string, pausePoll time.Duration) *FileChannel {
	if pausePoll <= 0 {
		pausePoll = 2 * time.Second
	}
	return &FileChannel{
		statusPath:  statusPath,
		commandPath: commandPath,
		pausePoll:   pausePoll,
	}
}

// PublishStatus overwrites the status record atomically (temp file plus
// rename) so an observer never reads a torn snapshot.
func (c *FileChannel) PublishStatus(st *Status) error {
	st.Timestamp = time.Now().UTC()
	st.ElapsedMinutes = st.ElapsedSeconds / 60.0

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	tmp := c.statusPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write status record: %w", err)
	}
	if err := os.Rename(tmp, c.statusPath); err != nil {
		return fmt.Errorf("failed to replace status record: %w", err)
	}
	return nil
}

// ReadCommand reads and consumes the command token. A missing or
// unreadable token is CommandNone, never an error.
func (c *FileChannel) ReadCommand() Command {
	data, err := os.ReadFile(c.commandPath)
	if err != nil {
		return CommandNone
	}
	// Consume the token regardless of content; a stuck unreadable file
	// must not replay forever.
	if err := os.Remove(c.commandPath); err != nil {
		logger.Warn("could not consume command token", "path", c.commandPath, "error", err)
	}

	token := Command(strings.ToLower(strings.TrimSpace(string(data))))
	switch token {
	case CommandStop, CommandPause, CommandResume:
		return token
	case CommandNone:
		return CommandNone
	default:
		logger.Warn("ignoring unrecognized command token", "token", string(token))
		return CommandNone
	}
}

// Poll checks for a pending command and applies its semantics to the
// current status. Stop finalizes the record to a terminal state and
// returns ErrStopRequested. Pause enters a bounded wait loop that keeps
// the record fresh and keeps watching for stop and resume.
func (c *FileChannel) Poll(ctx context.Context, current *Status) error {
	switch c.ReadCommand() {
	case CommandStop:
		return c.finalizeStop(current)
	case CommandPause:
		return c.pauseLoop(ctx, current)
	case CommandResume:
		// Resume without a preceding pause is a no-op.
		return nil
	default:
		return nil
	}
}

func (c *FileChannel) pauseLoop(ctx context.Context, current *Status) error {
	logger.Info("optimizer paused")
	current.Paused = true
	current.State = StatePaused
	if err := c.PublishStatus(current); err != nil {
		logger.Warn("status publish failed while pausing", "error", err)
	}

	ticker := time.NewTicker(c.pausePoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			switch c.ReadCommand() {
			case CommandStop:
				return c.finalizeStop(current)
			case CommandResume:
				logger.Info("optimizer resumed")
				current.Paused = false
				current.State = StateRunning
				if err := c.PublishStatus(current); err != nil {
					logger.Warn("status publish failed on resume", "error", err)
				}
				return nil
			default:
				// Keep the snapshot fresh so observers can tell a
				// paused run from a dead one.
				if err := c.PublishStatus(current); err != nil {
					logger.Warn("status publish failed while paused", "error", err)
				}
			}
		}
	}
}

func (c *FileChannel) finalizeStop(current *Status) error {
	logger.Info("stop command received")
	current.Paused = false
	current.State = StateStopped
	if err := c.PublishStatus(current); err != nil {
		logger.Warn("final status publish failed on stop", "error", err)
	}
	return ErrStopRequested
}

// WriteCommand writes a command token for the optimizer to consume. Used
// by external observers (and tests); the optimizer itself only reads.
func WriteCommand(commandPath string, cmd Command) error {
	if err := os.MkdirAll(filepath.Dir(commandPath), 0o755); err != nil {
		return fmt.Errorf("failed to create command directory: %w", err)
	}
	if err := os.WriteFile(commandPath, []byte(string(cmd)+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write command token: %w", err)
	}
	return nil
}

// ReadStatusFile reads a previously published status record.
func ReadStatusFile(statusPath string) (*Status, error) {
	data, err := os.ReadFile(statusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read status record: %w", err)
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse status record: %w", err)
	}
	return &st, nil
}
