package macui

import (
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// accessibilityPaneURL opens System Settings directly on the
// Accessibility privacy pane where osascript access is granted.
const accessibilityPaneURL = "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility"

// PromptForKeyword shows a text input dialog prefilled with the current
// keyword. Returns the entered text and true, or false when the user
// cancelled. Blocks while the dialog is open, so callers must run it
// off the main/UI thread.
func PromptForKeyword(prompt, current string) (string, bool) {
	script := fmt.Sprintf(`tell application "System Events"
	activate
	return text returned of (display dialog "%s" default answer "%s" with title "MuteWatch Settings")
end tell`, escapeAppleScript(prompt), escapeAppleScript(current))

	output, err := exec.Command("osascript", "-e", script).CombinedOutput()
	if err != nil {
		// Cancel exits osascript non-zero; not an error worth surfacing.
		log.Printf("Keyword dialog dismissed: %v", err)
		return "", false
	}

	text := strings.TrimSpace(string(output))
	if text == "" {
		return "", false
	}
	return text, true
}

// ShowDetail presents the latest probe detail (keyword dumps, scripting
// errors) in an alert. Blocks while open; call from a goroutine.
func ShowDetail(detail string) {
	if detail == "" {
		detail = "No details recorded for the last check."
	}
	script := fmt.Sprintf(`tell application "System Events"
	activate
	display alert "MuteWatch Status Details" message "%s" buttons {"Close"} default button "Close" as informational
end tell`, escapeAppleScript(detail))

	if output, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		log.Printf("Detail alert error: %v (output: %s)", err, output)
	}
}

// OpenAccessibilityPane jumps the user to the permission pane that
// osascript needs for menu inspection.
func OpenAccessibilityPane() {
	if err := exec.Command("open", accessibilityPaneURL).Run(); err != nil {
		log.Printf("Failed to open Accessibility settings: %v", err)
	}
}

// escapeAppleScript escapes special characters in AppleScript strings.
func escapeAppleScript(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch ch {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
