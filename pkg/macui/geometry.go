package macui

// defaultMargin is the gap between the overlay and the screen edges on
// first launch, in points.
const defaultMargin = 20

// topRightOrigin computes the overlay's first-launch origin: the top
// right corner of the screen, inset by the margin. Coordinates follow
// AppKit's bottom-left origin convention.
func topRightOrigin(screenWidth, screenHeight, size, margin float64) (x, y float64) {
	return screenWidth - size - margin, screenHeight - size - margin
}
