// Package pidfile guards against duplicate daemon/UI instances with a
// per-binary PID file under the runtime cache directory.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// PIDFile represents an acquired single-instance lock.
type PIDFile struct {
	path string
	pid  int
}

// New writes the current PID to path. If the file already names a live
// process, an error is returned; a stale file is replaced.
func New(path string) (*PIDFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create PID directory: %w", err)
	}

	if data, err := os.ReadFile(path); err == nil {
		if existing, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
			if processAlive(existing) {
				return nil, fmt.Errorf("another instance is already running (PID %d)", existing)
			}
			if err := os.Remove(path); err != nil {
				return nil, fmt.Errorf("failed to remove stale PID file: %w", err)
			}
		}
	}

	pid := os.Getpid()
	if err := os.WriteFile(path, []byte(fmt.Sprintf("%d\n", pid)), 0644); err != nil {
		return nil, fmt.Errorf("failed to write PID file: %w", err)
	}

	return &PIDFile{path: path, pid: pid}, nil
}

// Remove deletes the PID file, but only if it still holds our PID.
func (p *PIDFile) Remove() error {
	if p == nil {
		return nil
	}
	if data, err := os.ReadFile(p.path); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid == p.pid {
			return os.Remove(p.path)
		}
	}
	return nil
}

// processAlive probes pid with signal 0.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return err == syscall.EPERM
}

// PathFor returns the standard PID file path for a given binary name.
func PathFor(name string) string {
	return filepath.Join(os.Getenv("HOME"), ".cache", "mutewatch", name+".pid")
}
