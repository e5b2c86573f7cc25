package domain

// Point is a world-space coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is an axis-aligned rectangle in world units.
// Width and Height are never negative.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BoundingBox) MaxX() float64 { return b.X + b.Width }
func (b BoundingBox) MaxY() float64 { return b.Y + b.Height }

// Intersects reports whether the two rectangles overlap. Boxes that merely
// touch along an edge count as overlapping, so zero-area boxes (a horizontal
// stroke, a point) are still found by queries over their position.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.X <= o.MaxX() && o.X <= b.MaxX() &&
		b.Y <= o.MaxY() && o.Y <= b.MaxY()
}

// Contains reports whether o lies fully inside b.
func (b BoundingBox) Contains(o BoundingBox) bool {
	return o.X >= b.X && o.Y >= b.Y && o.MaxX() <= b.MaxX() && o.MaxY() <= b.MaxY()
}

// ContainsPoint reports whether the point (x, y) lies inside b.
func (b BoundingBox) ContainsPoint(x, y float64) bool {
	return x >= b.X && x <= b.MaxX() && y >= b.Y && y <= b.MaxY()
}

// BoundsOf computes the bounding box of a point sequence, padded by pad on
// every side. Strokes pad by half their rendering width so the painted area
// is fully covered. Returns a zero box for an empty sequence.
func BoundsOf(points []Point, pad float64) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return BoundingBox{
		X:      minX - pad,
		Y:      minY - pad,
		Width:  maxX - minX + 2*pad,
		Height: maxY - minY + 2*pad,
	}
}
