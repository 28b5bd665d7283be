package control

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/airframe-trades/optim-core/pkg/logger"
)

// ObserverServer exposes a read/steer HTTP surface over the file-based
// control channel. It shares no process state with the optimizer: status
// comes from the status record, history from the log artifact, and
// commands go through the command token, so it can run on another host
// with the artifacts on a shared filesystem.
type ObserverServer struct {
	mux         *http.ServeMux
	statusPath  string
	historyPath string
	commandPath string
}

// NewObserverServer builds the observer around the three artifacts.
func NewObserverServer(statusPath, historyPath, commandPath string) *ObserverServer {
	s := &ObserverServer{
		mux:         http.NewServeMux(),
		statusPath:  statusPath,
		historyPath: historyPath,
		commandPath: commandPath,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/status", s.handleStatus)
	s.mux.HandleFunc("/v1/history", s.handleHistory)
	s.mux.HandleFunc("/v1/control", s.handleControl)

	return s
}

func (s *ObserverServer) Handler() http.Handler {
	return s.mux
}

func (s *ObserverServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *ObserverServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	st, err := ReadStatusFile(s.statusPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.writeError(w, http.StatusNotFound, "no status record yet")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "status read failed: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

// handleHistory returns the trailing rows of the evaluation log as CSV,
// header included. ?tail=N bounds the row count (default 50).
func (s *ObserverServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	tail := 50
	if v := r.URL.Query().Get("tail"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "tail must be a positive integer")
			return
		}
		tail = n
	}

	data, err := os.ReadFile(s.historyPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.writeError(w, http.StatusNotFound, "no history yet")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "history read failed: "+err.Error())
		return
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 0 {
		s.writeError(w, http.StatusNotFound, "no history yet")
		return
	}
	header, rows := lines[0], lines[1:]
	if len(rows) > tail {
		rows = rows[len(rows)-tail:]
	}

	w.Header().Set("Content-Type", "text/csv")
	out := append([]string{header}, rows...)
	if _, err := w.Write([]byte(strings.Join(out, "\n") + "\n")); err != nil {
		logger.Warn("history response write failed", "error", err)
	}
}

// handleControl writes a command token for the optimizer to consume.
func (s *ObserverServer) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cmd := Command(strings.ToLower(strings.TrimSpace(req.Command)))
	switch cmd {
	case CommandStop, CommandPause, CommandResume:
	default:
		s.writeError(w, http.StatusBadRequest, "command must be one of stop, pause, resume")
		return
	}

	if err := WriteCommand(s.commandPath, cmd); err != nil {
		s.writeError(w, http.StatusInternalServerError, "command write failed: "+err.Error())
		return
	}
	logger.Info("control command accepted", "command", string(cmd))
	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"command": string(cmd),
	})
}

func (s *ObserverServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("response encode failed", "error", err)
	}
}

func (s *ObserverServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
