package camera

import (
	"math"

	"github.com/msstter/Infinite-canvas/internal/domain"
)

// Wheel step factors. One notch in multiplies the mantissa by zoomInFactor,
// one notch out by zoomOutFactor.
const (
	zoomInFactor  = 1.1
	zoomOutFactor = 0.9
)

// Zoom represents an effective scale factor as mantissa * 2^exponent with the
// mantissa held inside [0.5, 2). Floating-point values lose relative precision
// as their magnitude grows; keeping the mantissa bounded and carrying the
// magnitude in an integer exponent lets the camera zoom through thousands of
// wheel steps without the scale itself degrading. Zoom is unbounded in both
// directions.
type Zoom struct {
	mantissa float64
	exponent int
}

// NewZoom returns a zoom at scale 1 (mantissa 1, exponent 0).
func NewZoom() *Zoom {
	return &Zoom{mantissa: 1}
}

// ApplyWheelDelta applies one wheel step. Negative delta (wheel up) zooms in,
// positive zooms out, matching browser deltaY conventions. A zero delta is a
// no-op.
func (z *Zoom) ApplyWheelDelta(delta float64) {
	if delta == 0 {
		return
	}
	if delta < 0 {
		z.mantissa *= zoomInFactor
	} else {
		z.mantissa *= zoomOutFactor
	}
	z.normalize()
}

// ApplyFactor multiplies the scale by an arbitrary positive factor, e.g.
// from a pinch gesture. Factors of exactly 2 or 0.5 re-partition into the
// exponent without touching the mantissa's precision at all.
func (z *Zoom) ApplyFactor(factor float64) {
	if factor <= 0 {
		return
	}
	z.mantissa *= factor
	z.normalize()
}

// normalize folds mantissa overflow into the exponent. Must run after every
// mantissa mutation; it re-partitions magnitude without changing the
// effective scale.
func (z *Zoom) normalize() {
	for z.mantissa >= 2 {
		z.mantissa /= 2
		z.exponent++
	}
	for z.mantissa < 0.5 {
		z.mantissa *= 2
		z.exponent--
	}
}

// EffectiveScale returns mantissa * 2^exponent, the multiplier converting
// world-unit lengths to screen pixels.
func (z *Zoom) EffectiveScale() float64 {
	return math.Ldexp(z.mantissa, z.exponent)
}

// ScaledLength converts a screen-space length into the world-space length
// that renders at that screen size under the current zoom. Tools use this at
// creation time so e.g. a stroke keeps a constant on-screen width.
func (z *Zoom) ScaledLength(length float64) float64 {
	return math.Ldexp(length/z.mantissa, -z.exponent)
}

// State returns the zoom decomposition, e.g. for capture on a new text card.
func (z *Zoom) State() domain.ZoomState {
	return domain.ZoomState{Mantissa: z.mantissa, Exponent: z.exponent}
}

// SetState restores a captured decomposition. Non-positive mantissas reset
// to scale 1; anything else is re-normalized into [0.5, 2).
func (z *Zoom) SetState(s domain.ZoomState) {
	z.mantissa = s.Mantissa
	z.exponent = s.Exponent
	if z.mantissa <= 0 {
		z.mantissa = 1
		z.exponent = 0
		return
	}
	z.normalize()
}
