package macui

import (
	"fmt"

	"github.com/tiroq/mutewatch/internal/settings"
)

// menuEntry is one row of the configuration menu. The same entry list
// backs the status bar menu and the overlay's right-click menu.
type menuEntry struct {
	title     string
	separator bool
	disabled  bool
	checked   bool
	key       string // key equivalent, "" for none
	action    func()
	submenu   []menuEntry
}

func separatorEntry() menuEntry { return menuEntry{separator: true} }

// buildMenuEntries renders the configuration menu for a snapshot.
// Actions that open blocking dialogs run them in goroutines and forward
// the result through the callbacks.
func buildMenuEntries(version string, snap Snapshot, cb Callbacks) []menuEntry {
	entries := []menuEntry{
		{title: statusTitle(snap.Outcome), disabled: true},
	}
	if snap.Outcome.Detail != "" {
		detail := snap.Outcome.Detail
		entries = append(entries, menuEntry{title: "Show Details…", action: func() {
			go ShowDetail(detail)
		}})
	}
	entries = append(entries, separatorEntry())

	var sizes []menuEntry
	for _, size := range settings.IconSizePresets {
		size := size
		sizes = append(sizes, menuEntry{
			title:  sizeLabel(size, snap.Settings.IconSize),
			action: func() { cb.SetIconSize(size) },
		})
	}
	entries = append(entries, menuEntry{title: "Icon Size", submenu: sizes})

	var intervals []menuEntry
	for _, ms := range settings.IntervalPresets {
		ms := ms
		intervals = append(intervals, menuEntry{
			title:  intervalLabel(ms, snap.Settings.CheckIntervalMS),
			action: func() { cb.SetInterval(ms) },
		})
	}
	entries = append(entries, menuEntry{title: "Poll Interval", submenu: intervals})
	entries = append(entries, separatorEntry())

	muted := snap.Settings.MutedKeyword
	unmuted := snap.Settings.UnmutedKeyword
	loginInstalled := snap.LoginItem
	entries = append(entries,
		menuEntry{title: "Edit Muted Keyword…", action: func() {
			editKeyword("Menu item title shown while muted:", muted, cb.SetMutedKeyword)
		}},
		menuEntry{title: "Edit Unmuted Keyword…", action: func() {
			editKeyword("Menu item title shown while unmuted:", unmuted, cb.SetUnmutedKeyword)
		}},
		separatorEntry(),
		menuEntry{title: "Open Accessibility Settings…", action: func() {
			go OpenAccessibilityPane()
		}},
		menuEntry{title: "Start at Login", checked: loginInstalled, action: func() {
			cb.ToggleLoginItem(!loginInstalled)
		}},
		separatorEntry(),
		menuEntry{title: fmt.Sprintf("MuteWatch v%s", version), disabled: true},
		menuEntry{title: "Quit MuteWatch", key: "q", action: func() { cb.Quit() }},
	)
	return entries
}

// editKeyword shows the blocking input dialog off the main thread and
// forwards a non-empty result.
func editKeyword(prompt, current string, apply func(string)) {
	go func() {
		if text, ok := PromptForKeyword(prompt, current); ok {
			apply(text)
		}
	}()
}
