package macui

import (
	"fmt"

	"github.com/tiroq/mutewatch/internal/probe"
)

const checkmark = " ✓"

// sizeLabel renders a menu title for an icon size preset, marking the
// currently active one.
func sizeLabel(size, current int) string {
	label := fmt.Sprintf("%d px", size)
	if size == current {
		label += checkmark
	}
	return label
}

// intervalLabel renders a menu title for a poll interval preset, marking
// the currently active one.
func intervalLabel(ms, current int) string {
	label := fmt.Sprintf("%d ms", ms)
	if ms == current {
		label += checkmark
	}
	return label
}

// statusTitle renders the headline menu entry for the latest probe result.
func statusTitle(out probe.Outcome) string {
	switch out.State {
	case probe.StateMuted:
		return "Mic: Muted"
	case probe.StateUnmuted:
		return "Mic: Unmuted"
	default:
		return "Mic: Unknown"
	}
}
