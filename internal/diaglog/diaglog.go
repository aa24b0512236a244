// Package diaglog provides structured NDJSON diagnostic logging for
// MuteWatch. Activated by MUTEWATCH_DEBUG=true. When the env var is
// absent, all Log calls are no-ops and no file is created.
package diaglog

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// ── Component labels ─────────────────────────────────────────────────────────

const (
	ComponentProbe    = "probe"
	ComponentMonitor  = "monitor"
	ComponentCore     = "mutewatch-core"
	ComponentUI       = "mutewatch-ui"
	ComponentStatusWS = "status-ws"
)

// ── Event names ──────────────────────────────────────────────────────────────

const (
	EventProbeResult     = "probe_result"
	EventIntervalChange  = "interval_change"
	EventIconSizeChange  = "icon_size_change"
	EventKeywordChange   = "keyword_change"
	EventPositionSave    = "position_save"
	EventCommandDispatch = "command_dispatch"
	EventWSClientConnect = "ws_client_connect"
	EventWSClientGone    = "ws_client_gone"
)

// ── LogEntry ─────────────────────────────────────────────────────────────────

// LogEntry is one structured event record written as a single JSON line.
type LogEntry struct {
	Timestamp string      `json:"ts"` // RFC3339Nano
	Component string      `json:"component"`
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload,omitempty"`
}

// ── Logger ───────────────────────────────────────────────────────────────────

// Logger writes LogEntry values to a rolling NDJSON file. When debug mode
// is disabled every Log call is a no-op.
type Logger struct {
	rw      *rollingWriter
	mu      sync.Mutex
	enabled bool
}

// New opens (or creates) the NDJSON log file at path. If debug mode is
// disabled, path is ignored and a no-op logger is returned.
func New(path string) (*Logger, error) {
	if !IsDebugEnabled() {
		return &Logger{enabled: false}, nil
	}
	rw, err := newRollingWriter(path, 10*1024*1024)
	if err != nil {
		return nil, err
	}
	return &Logger{rw: rw, enabled: true}, nil
}

// Log serialises entry to JSON, appends a newline, and writes to the
// rolling file.
func (l *Logger) Log(entry LogEntry) {
	if l == nil || !l.enabled {
		return
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.rw.Write(data)
}

// Close flushes and closes the underlying file. Safe on nil/disabled logger.
func (l *Logger) Close() error {
	if l == nil || !l.enabled || l.rw == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rw.close()
}

// IsDebugEnabled reports whether MUTEWATCH_DEBUG is set to "true".
func IsDebugEnabled() bool {
	return os.Getenv("MUTEWATCH_DEBUG") == "true"
}

// NewNoOp returns a logger where every Log call is a no-op. Use as a safe
// fallback when New fails (e.g., disk full, permissions error).
func NewNoOp() *Logger {
	return &Logger{enabled: false}
}
