package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestNewWritesCurrentPID(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "test.pid")

	pf, err := New(pidPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pf.Remove()

	data, err := os.ReadFile(pidPath)
	if err != nil {
		t.Fatalf("read PID file: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("invalid PID content: %q", data)
	}
	if pid != os.Getpid() {
		t.Errorf("PID mismatch: got %d, want %d", pid, os.Getpid())
	}
}

func TestDuplicateInstanceRejected(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "test.pid")

	pf, err := New(pidPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pf.Remove()

	if _, err := New(pidPath); err == nil {
		t.Fatal("second New should fail while the first instance is alive")
	}
}

func TestStalePIDFileReplaced(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "test.pid")

	// A PID that cannot belong to a live process.
	if err := os.WriteFile(pidPath, []byte("999999999\n"), 0644); err != nil {
		t.Fatal(err)
	}

	pf, err := New(pidPath)
	if err != nil {
		t.Fatalf("New over stale file: %v", err)
	}
	defer pf.Remove()
}

func TestRemoveLeavesForeignFileAlone(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "test.pid")

	pf, err := New(pidPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Another process re-acquired the file after us.
	if err := os.WriteFile(pidPath, []byte("12345\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := pf.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(pidPath); err != nil {
		t.Error("Remove deleted a PID file it no longer owned")
	}
}

func TestPathForUsesCacheDir(t *testing.T) {
	t.Setenv("HOME", "/home/example")
	want := "/home/example/.cache/mutewatch/mutewatch-core.pid"
	if got := PathFor("mutewatch-core"); got != want {
		t.Errorf("PathFor: got %q, want %q", got, want)
	}
}
