// Package render drives the per-frame pipeline for one rendering surface:
// visible-rect computation, landmark update, item culling, and drawing
// through a backend-neutral surface abstraction.
package render

// Surface is the minimal drawing backend contract: path primitives plus fill
// and stroke. Coordinates are surface pixels; the loop does all world-to-
// screen conversion before calling in. Implementations may sit on a GPU
// context, a software rasterizer, or a test recorder.
type Surface interface {
	Clear(color string)
	MoveTo(x, y float64)
	LineTo(x, y float64)
	ClosePath()

	// Fill and Stroke consume the current path.
	Fill(color string)
	Stroke(color string, width float64)

	// Text draws a single line at the given baseline position and pixel size.
	Text(x, y, size float64, color, text string)
}
