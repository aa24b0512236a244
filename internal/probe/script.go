package probe

import "strings"

// The target process is located by trying these names in order; the
// meeting menu is identified by its fixed menu-bar label. User keywords
// are deliberately NOT part of the script: the script only dumps the
// menu item names and matching happens in Go, so user-supplied text can
// never break or inject into the generated source.
var defaultProcessNames = []string{"zoom.us", "Zoom"}

const meetingMenuLabel = "ミーティング"

// Output markers shared between the script and classify.
const (
	markerNotRunning = "not_running"
	markerError      = "error:"
	markerItems      = "items:"
)

// buildScript generates the per-poll accessibility query. Menu access is
// trapped inside the script's try block so permission failures and
// missing menus come back as an error marker instead of a script error.
func buildScript(processNames []string, menuLabel string) string {
	var b strings.Builder

	b.WriteString("tell application \"System Events\"\n")
	b.WriteString("\tset targetProc to missing value\n")
	for i, name := range processNames {
		if i == 0 {
			b.WriteString("\tif (exists process \"" + escapeAppleScript(name) + "\") then\n")
		} else {
			b.WriteString("\telse if (exists process \"" + escapeAppleScript(name) + "\") then\n")
		}
		b.WriteString("\t\tset targetProc to \"" + escapeAppleScript(name) + "\"\n")
	}
	b.WriteString("\telse\n")
	b.WriteString("\t\treturn \"" + markerNotRunning + "\"\n")
	b.WriteString("\tend if\n")
	b.WriteString("\ttell process targetProc\n")
	b.WriteString("\t\ttry\n")
	b.WriteString("\t\t\ttell menu bar item \"" + escapeAppleScript(menuLabel) + "\" of menu bar 1\n")
	b.WriteString("\t\t\t\tset itemNames to name of menu items of menu 1\n")
	b.WriteString("\t\t\t\tset dump to \"\"\n")
	b.WriteString("\t\t\t\trepeat with itemName in itemNames\n")
	b.WriteString("\t\t\t\t\tset dump to dump & (itemName as text) & linefeed\n")
	b.WriteString("\t\t\t\tend repeat\n")
	b.WriteString("\t\t\t\treturn \"" + markerItems + "\" & dump\n")
	b.WriteString("\t\t\tend tell\n")
	b.WriteString("\t\ton error errMsg\n")
	b.WriteString("\t\t\treturn \"" + markerError + "\" & errMsg\n")
	b.WriteString("\t\tend try\n")
	b.WriteString("\tend tell\n")
	b.WriteString("end tell\n")

	return b.String()
}

// escapeAppleScript escapes special characters in AppleScript string
// literals.
func escapeAppleScript(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch ch {
		case '"':
			b.WriteString("\\\"")
		case '\\':
			b.WriteString("\\\\")
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\t':
			b.WriteString("\\t")
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
