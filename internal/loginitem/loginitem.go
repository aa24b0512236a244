// Package loginitem manages the app's "start at login" registration via
// the System Events login items list.
package loginitem

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// itemName is how the app appears in System Settings > Login Items.
const itemName = "MuteWatch"

// Installed reports whether the app is registered as a login item.
func Installed() (bool, error) {
	script := `tell application "System Events" to get the name of every login item`
	out, err := exec.Command("osascript", "-e", script).CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("failed to list login items: %v (output: %s)", err, out)
	}
	for _, name := range strings.Split(string(out), ",") {
		if strings.TrimSpace(name) == itemName {
			return true, nil
		}
	}
	return false, nil
}

// Install registers the app bundle as a hidden login item.
func Install() error {
	bundle, err := bundlePath()
	if err != nil {
		return err
	}
	script := fmt.Sprintf(
		`tell application "System Events" to make login item at end with properties {path:"%s", hidden:true, name:"%s"}`,
		escapeAppleScript(bundle), itemName)
	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("failed to add login item: %v (output: %s)", err, out)
	}
	return nil
}

// Remove deletes the app's login item registration. Removing an item
// that does not exist is not an error.
func Remove() error {
	script := fmt.Sprintf(`tell application "System Events" to delete login item "%s"`, itemName)
	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		if strings.Contains(string(out), "Can’t get login item") {
			return nil
		}
		return fmt.Errorf("failed to remove login item: %v (output: %s)", err, out)
	}
	return nil
}

// bundlePath resolves the .app bundle containing the running executable.
func bundlePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}
	bundle, ok := bundleFromExecutable(exe)
	if !ok {
		return "", fmt.Errorf("executable %s is not inside an .app bundle", exe)
	}
	return bundle, nil
}

// bundleFromExecutable walks up from an executable path to the enclosing
// .app directory. Returns false when the binary runs outside a bundle
// (e.g. a bare build from the command line).
func bundleFromExecutable(exe string) (string, bool) {
	dir := filepath.Dir(exe)
	for dir != "/" && dir != "." {
		if strings.HasSuffix(dir, ".app") {
			return dir, true
		}
		dir = filepath.Dir(dir)
	}
	return "", false
}

func escapeAppleScript(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch ch {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
