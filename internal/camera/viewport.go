package camera

import "github.com/msstter/Infinite-canvas/internal/domain"

// Viewport owns the camera state for one rendering surface: a pan offset
// (screen-space translation of the world origin) and a Zoom. Each surface
// gets its own Viewport; pan/zoom state is never shared between surfaces.
type Viewport struct {
	zoom   *Zoom
	panX   float64
	panY   float64
	width  float64 // surface size in pixels
	height float64
}

// NewViewport creates a viewport for a surface of the given pixel size, with
// the world origin at the top-left corner and scale 1.
func NewViewport(width, height float64) *Viewport {
	return &Viewport{zoom: NewZoom(), width: width, height: height}
}

func (v *Viewport) Zoom() *Zoom          { return v.zoom }
func (v *Viewport) Pan() (x, y float64)  { return v.panX, v.panY }
func (v *Viewport) Size() (w, h float64) { return v.width, v.height }
func (v *Viewport) SetPan(x, y float64)  { v.panX, v.panY = x, y }

func (v *Viewport) Resize(width, height float64) {
	v.width, v.height = width, height
}

// PanBy shifts the view by a screen-space delta, e.g. from a drag.
func (v *Viewport) PanBy(dx, dy float64) {
	v.panX += dx
	v.panY += dy
}

// ScreenToWorld converts surface pixel coordinates to world coordinates.
func (v *Viewport) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	scale := v.zoom.EffectiveScale()
	return (sx - v.panX) / scale, (sy - v.panY) / scale
}

// WorldToScreen converts world coordinates to surface pixel coordinates.
func (v *Viewport) WorldToScreen(wx, wy float64) (sx, sy float64) {
	scale := v.zoom.EffectiveScale()
	return wx*scale + v.panX, wy*scale + v.panY
}

// VisibleRect returns the world-space rectangle currently covered by the
// surface. Computed fresh each frame from pan and scale.
func (v *Viewport) VisibleRect() domain.BoundingBox {
	scale := v.zoom.EffectiveScale()
	return domain.BoundingBox{
		X:      -v.panX / scale,
		Y:      -v.panY / scale,
		Width:  v.width / scale,
		Height: v.height / scale,
	}
}

// HandleWheel applies a wheel event at screen point (sx, sy), keeping the
// world point under the cursor fixed. Order matters: capture the world point
// before the zoom changes, apply the zoom, then solve the pan from that fixed
// point.
func (v *Viewport) HandleWheel(sx, sy, delta float64) {
	wx, wy := v.ScreenToWorld(sx, sy)
	v.zoom.ApplyWheelDelta(delta)
	scale := v.zoom.EffectiveScale()
	v.panX = sx - wx*scale
	v.panY = sy - wy*scale
}
