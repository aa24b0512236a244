//go:build darwin

package macui

import (
	"github.com/progrium/darwinkit/macos/appkit"
	"github.com/progrium/darwinkit/macos/foundation"
	"github.com/progrium/darwinkit/objc"

	"github.com/tiroq/mutewatch/internal/probe"
)

// floatingWindowLevel is NSFloatingWindowLevel; keeps the overlay above
// normal windows without covering menus or dialogs.
const floatingWindowLevel = 3

// defaultOverlayOrigin places the overlay in the top right corner of the
// main screen on first launch, before the user has dragged it anywhere.
func defaultOverlayOrigin(size float64) foundation.Point {
	screen := appkit.Screen_MainScreen()
	if screen.Ptr() == nil {
		return foundation.Point{X: defaultMargin, Y: defaultMargin}
	}
	frame := screen.Frame()
	x, y := topRightOrigin(frame.Size.Width, frame.Size.Height, size, defaultMargin)
	return foundation.Point{X: frame.Origin.X + x, Y: frame.Origin.Y + y}
}

// Overlay is the borderless always-on-top indicator window. All methods
// must run on the main thread.
type Overlay struct {
	window appkit.Window
	view   appkit.ImageView
	size   float64
	state  probe.MuteState
}

// NewOverlay creates and shows the overlay window. x and y restore a
// previously saved position; nil means the default corner.
func NewOverlay(size float64, x, y *float64) *Overlay {
	origin := defaultOverlayOrigin(size)
	if x != nil && y != nil {
		origin = foundation.Point{X: *x, Y: *y}
	}

	rect := foundation.Rect{
		Origin: origin,
		Size:   foundation.Size{Width: size, Height: size},
	}
	win := appkit.WindowClass.Alloc().InitWithContentRectStyleMaskBackingDefer(
		rect, appkit.WindowStyleMaskBorderless, appkit.BackingStoreBuffered, false)

	win.SetOpaque(false)
	win.SetBackgroundColor(appkit.Color_ClearColor())
	win.SetHasShadow(false)
	// Dragging anywhere on the disc moves the window.
	win.SetMovableByWindowBackground(true)
	win.SetCollectionBehavior(appkit.WindowCollectionBehaviorCanJoinAllSpaces)
	objc.Call[objc.Void](win, objc.Sel("setLevel:"), floatingWindowLevel)

	view := appkit.ImageViewClass.Alloc().Init()
	view.SetImageScaling(appkit.ImageScaleProportionallyUpOrDown)
	win.SetContentView(view)

	o := &Overlay{window: win, view: view, size: size, state: probe.StateUnknown}
	o.redraw()
	win.MakeKeyAndOrderFront(nil)
	return o
}

// SetState updates the indicator color. No-op when unchanged so the
// image is not redrawn on every poll.
func (o *Overlay) SetState(state probe.MuteState) {
	if state == o.state {
		return
	}
	o.state = state
	o.redraw()
}

// SetIconSize resizes the window in place, keeping its origin.
func (o *Overlay) SetIconSize(size float64) {
	if size == o.size {
		return
	}
	o.size = size
	o.window.SetContentSize(foundation.Size{Width: size, Height: size})
	o.redraw()
}

// Position returns the window's current screen origin.
func (o *Overlay) Position() (x, y float64) {
	frame := o.window.Frame()
	return frame.Origin.X, frame.Origin.Y
}

func (o *Overlay) redraw() {
	o.view.SetImage(iconForState(o.state, o.size))
}
