//go:build !darwin

package macui

import (
	"log"

	"github.com/tiroq/mutewatch/internal/probe"
	"github.com/tiroq/mutewatch/internal/settings"
)

// Non-darwin builds get logging stand-ins so the UI binary still
// compiles for development on other platforms.

type Snapshot struct {
	Settings  settings.Settings
	Outcome   probe.Outcome
	LoginItem bool
}

type Callbacks struct {
	SetIconSize       func(size int)
	SetInterval       func(ms int)
	SetMutedKeyword   func(keyword string)
	SetUnmutedKeyword func(keyword string)
	ToggleLoginItem   func(install bool)
	Quit              func()
}

type Overlay struct {
	size  float64
	state probe.MuteState
}

func NewOverlay(size float64, x, y *float64) *Overlay {
	log.Println("Overlay: stub implementation, no window on this platform")
	return &Overlay{size: size}
}

func (o *Overlay) SetState(state probe.MuteState) {
	if state != o.state {
		o.state = state
		log.Printf("Overlay state: %s", state)
	}
}

func (o *Overlay) SetIconSize(size float64) { o.size = size }

func (o *Overlay) Position() (x, y float64) { return 0, 0 }

type StatusBar struct {
	version string
}

func NewStatusBar(version string, cb Callbacks) *StatusBar {
	log.Println("StatusBar: stub implementation, no menu on this platform")
	return &StatusBar{version: version}
}

func (sb *StatusBar) AttachOverlay(o *Overlay) {}

func (sb *StatusBar) Refresh(snap Snapshot) {
	log.Printf("Status: %s", statusTitle(snap.Outcome))
}
