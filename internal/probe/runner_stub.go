//go:build !darwin

package probe

import (
	"context"
	"fmt"
)

// OsascriptRunner is a stub on non-darwin platforms.
type OsascriptRunner struct{}

// NewOsascriptRunner returns the stub script runner.
func NewOsascriptRunner() *OsascriptRunner {
	return &OsascriptRunner{}
}

// Run always fails: accessibility scripting is a macOS facility.
func (r *OsascriptRunner) Run(ctx context.Context, script string) (string, error) {
	return "", fmt.Errorf("accessibility scripting not supported on this platform")
}
