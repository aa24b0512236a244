// Package ipc carries state and commands between the mutewatch-core
// daemon and the mutewatch-ui overlay through files under
// ~/.cache/mutewatch.
package ipc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// StatusSnapshot is the daemon's published view after each poll. Detail
// is non-empty only when State is "unknown" and carries the last error
// classification for the detail viewer.
type StatusSnapshot struct {
	State      string    `json:"state"` // "muted", "unmuted", "unknown"
	Detail     string    `json:"detail,omitempty"`
	IntervalMS int       `json:"interval_ms"`
	IconSize   int       `json:"icon_size"`
	Timestamp  time.Time `json:"timestamp"`
}

// CacheDir returns the runtime state directory shared by both binaries.
func CacheDir() string {
	return filepath.Join(os.Getenv("HOME"), ".cache", "mutewatch")
}

// StatusPath returns the status file location.
func StatusPath() string {
	return filepath.Join(CacheDir(), "status.json")
}

// WriteStatus persists the snapshot using an atomic write so the UI
// watcher never observes a partial document.
func WriteStatus(status *StatusSnapshot) error {
	if err := os.MkdirAll(CacheDir(), 0755); err != nil {
		return err
	}
	return atomicWriteJSON(StatusPath(), status)
}

// ReadStatus loads the most recently published snapshot.
func ReadStatus() (*StatusSnapshot, error) {
	data, err := os.ReadFile(StatusPath())
	if err != nil {
		return nil, err
	}

	var status StatusSnapshot
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// atomicWriteJSON writes data to a file atomically using temp file + rename.
func atomicWriteJSON(path string, data interface{}) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "status-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	encoder := json.NewEncoder(tmpFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return err
	}

	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	tmpFile = nil // Prevent defer cleanup

	return os.Rename(tmpPath, path)
}
