//go:build darwin

package macui

import (
	"github.com/progrium/darwinkit/macos/appkit"
	"github.com/progrium/darwinkit/macos/foundation"
	"github.com/progrium/darwinkit/objc"

	"github.com/tiroq/mutewatch/internal/probe"
)

// menubarIconSize is the logical size for the menu bar icon.
const menubarIconSize = 18.0

// colorForState maps a mute state to its indicator color.
func colorForState(state probe.MuteState) appkit.Color {
	switch state {
	case probe.StateMuted:
		return appkit.Color_SystemRedColor()
	case probe.StateUnmuted:
		return appkit.Color_SystemGreenColor()
	default:
		return appkit.Color_SystemGrayColor()
	}
}

// iconForState draws a filled disc of the state color at the given
// logical size.
//
// Uses lockFocus/unlockFocus drawing, compatible with macOS 10.14+.
// The disc is inset slightly so antialiasing never clips at the image
// edge.
func iconForState(state probe.MuteState, size float64) appkit.Image {
	dim := foundation.Size{Width: size, Height: size}
	img := appkit.ImageClass.Alloc().InitWithSize(dim)

	objc.Call[objc.Void](img, objc.Sel("lockFocus"))

	inset := size * 0.05
	rect := foundation.Rect{
		Origin: foundation.Point{X: inset, Y: inset},
		Size:   foundation.Size{Width: size - 2*inset, Height: size - 2*inset},
	}

	colorForState(state).SetFill()
	appkit.BezierPath_BezierPathWithOvalInRect(rect).Fill()

	objc.Call[objc.Void](img, objc.Sel("unlockFocus"))
	return img
}

// menubarIconForState is the small disc shown in the status bar.
func menubarIconForState(state probe.MuteState) appkit.Image {
	return iconForState(state, menubarIconSize)
}
