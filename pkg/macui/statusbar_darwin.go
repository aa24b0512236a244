//go:build darwin

package macui

import (
	"github.com/progrium/darwinkit/macos/appkit"
	"github.com/progrium/darwinkit/objc"

	"github.com/tiroq/mutewatch/internal/probe"
	"github.com/tiroq/mutewatch/internal/settings"
)

// Snapshot carries everything the menu renders: the active settings,
// the latest probe outcome and the login item registration state.
type Snapshot struct {
	Settings  settings.Settings
	Outcome   probe.Outcome
	LoginItem bool
}

// Callbacks are invoked from menu actions. They run on the main thread
// and must not block; anything slow belongs in a goroutine.
type Callbacks struct {
	SetIconSize       func(size int)
	SetInterval       func(ms int)
	SetMutedKeyword   func(keyword string)
	SetUnmutedKeyword func(keyword string)
	ToggleLoginItem   func(install bool)
	Quit              func()
}

// StatusBar is the menu bar entry mirroring the overlay state and
// hosting all configuration. Methods must run on the main thread.
type StatusBar struct {
	item      appkit.StatusItem
	callbacks Callbacks
	version   string
	overlay   *Overlay
}

// NewStatusBar installs the status item with an unknown-state icon.
// Refresh must be called once settings and status are available.
func NewStatusBar(version string, cb Callbacks) *StatusBar {
	item := appkit.StatusBar_SystemStatusBar().StatusItemWithLength(appkit.VariableStatusItemLength)
	// The status bar holds only a weak reference; without this the item
	// disappears on the next GC cycle.
	item.Retain()
	item.Button().SetImage(menubarIconForState(probe.StateUnknown))
	item.Button().SetToolTip("MuteWatch")

	return &StatusBar{item: item, callbacks: cb, version: version}
}

// AttachOverlay makes the overlay window serve the same configuration
// menu on right-click.
func (sb *StatusBar) AttachOverlay(o *Overlay) {
	sb.overlay = o
}

// Refresh rebuilds the menu from the given snapshot and updates the
// status bar icon. Rebuilding is cheap at this menu size and keeps
// checkmark bookkeeping trivial.
func (sb *StatusBar) Refresh(snap Snapshot) {
	sb.item.Button().SetImage(menubarIconForState(snap.Outcome.State))

	entries := buildMenuEntries(sb.version, snap, sb.callbacks)
	sb.item.SetMenu(renderMenu(entries))
	if sb.overlay != nil {
		// A second NSMenu from the same entries: one menu instance
		// cannot be installed in two places at once.
		sb.overlay.view.SetMenu(renderMenu(entries))
	}
}

// renderMenu materializes an entry list as an NSMenu.
func renderMenu(entries []menuEntry) appkit.Menu {
	menu := appkit.NewMenu()
	for _, e := range entries {
		if e.separator {
			menu.AddItem(appkit.MenuItem_SeparatorItem())
			continue
		}
		action := e.action
		if action == nil {
			action = func() {}
		}
		item := appkit.NewMenuItemWithAction(e.title, e.key, func(objc.Object) { action() })
		if e.disabled {
			item.SetEnabled(false)
		}
		if e.checked {
			item.SetState(appkit.ControlStateValueOn)
		}
		if len(e.submenu) > 0 {
			item.SetSubmenu(renderMenu(e.submenu))
		}
		menu.AddItem(item)
	}
	return menu
}
