//go:build darwin

package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// OsascriptRunner executes accessibility scripts through /usr/bin/osascript.
type OsascriptRunner struct{}

// NewOsascriptRunner returns the production script runner.
func NewOsascriptRunner() *OsascriptRunner {
	return &OsascriptRunner{}
}

// Run executes the script under ctx. The script traps its own menu-access
// errors, so a non-zero exit here means osascript itself failed (missing
// permissions, killed by the context deadline); stderr is folded into the
// returned error for classification.
func (r *OsascriptRunner) Run(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", err
		}
		return "", fmt.Errorf("osascript: %s", msg)
	}

	return stdout.String(), nil
}
