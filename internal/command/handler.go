// Package command implements the local control plane: a JSON-RPC
// channel over a Unix domain socket, used by the CLI to toggle verbose
// diagnostics and inspect a running collector.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stssrv/forkstream/internal/log"
	"github.com/stssrv/forkstream/pkg/forkstream"
)

// StatsProvider exposes a running collector's counters to the control
// plane.
type StatsProvider interface {
	Stats() map[string]any
}

// Handler handles control plane commands.
type Handler struct {
	stats        StatsProvider
	shutdownFunc func() // invoked by daemon_shutdown
	startTime    time.Time
}

// NewHandler creates a command handler.
func NewHandler(stats StatsProvider) *Handler {
	return &Handler{
		stats:     stats,
		startTime: time.Now(),
	}
}

// SetShutdownFunc sets the callback invoked by the daemon_shutdown command.
func (h *Handler) SetShutdownFunc(fn func()) {
	h.shutdownFunc = fn
}

// Command represents a control plane command.
type Command struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     string          `json:"id"`
}

// Response represents a command response.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo represents an error in the response.
type ErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Handle processes a command and returns a response.
func (h *Handler) Handle(ctx context.Context, cmd Command) Response {
	log.GetLogger().WithField("method", cmd.Method).Debug("handling control command")

	switch cmd.Method {
	case "logger_on":
		return h.handleLogger(cmd, true)
	case "logger_off":
		return h.handleLogger(cmd, false)
	case "logger_status":
		return h.loggerStatus(cmd)
	case "daemon_stats":
		return h.handleStats(cmd)
	case "daemon_shutdown":
		return h.handleShutdown(cmd)
	case "ping":
		return Response{ID: cmd.ID, Result: "pong"}
	default:
		return Response{
			ID: cmd.ID,
			Error: &ErrorInfo{
				Code:    ErrCodeMethodNotFound,
				Message: fmt.Sprintf("method %q not found", cmd.Method),
			},
		}
	}
}

// handleLogger flips per-packet diagnostic logging, the runtime
// equivalent of the original dialplan CLI's "set logger on|off". The
// log level follows the toggle so the debug lines actually appear.
func (h *Handler) handleLogger(cmd Command, on bool) Response {
	forkstream.SetVerbose(on)
	level := "info"
	if on {
		level = "debug"
	}
	if err := log.SetLevel(level); err != nil {
		return Response{
			ID:    cmd.ID,
			Error: &ErrorInfo{Code: ErrCodeInternalError, Message: err.Error()},
		}
	}
	state := "disabled"
	if on {
		state = "enabled"
	}
	log.GetLogger().Infof("per-packet logging %s", state)
	return h.loggerStatus(cmd)
}

func (h *Handler) loggerStatus(cmd Command) Response {
	return Response{
		ID: cmd.ID,
		Result: map[string]any{
			"verbose": forkstream.Verbose(),
			"level":   log.Level(),
		},
	}
}

func (h *Handler) handleStats(cmd Command) Response {
	result := map[string]any{
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}
	if h.stats != nil {
		for k, v := range h.stats.Stats() {
			result[k] = v
		}
	}
	return Response{ID: cmd.ID, Result: result}
}

func (h *Handler) handleShutdown(cmd Command) Response {
	if h.shutdownFunc == nil {
		return Response{
			ID:    cmd.ID,
			Error: &ErrorInfo{Code: ErrCodeInternalError, Message: "shutdown not supported"},
		}
	}
	// Respond first, then stop: the socket goes away with the daemon.
	go h.shutdownFunc()
	return Response{ID: cmd.ID, Result: "shutting down"}
}
