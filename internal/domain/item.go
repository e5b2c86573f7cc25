package domain

// ItemKind discriminates the closed set of drawable item variants.
type ItemKind string

const (
	KindStroke   ItemKind = "stroke"
	KindTextCard ItemKind = "textcard"
)

// ZoomState captures an effective scale factor as mantissa * 2^exponent.
// The mantissa is kept inside [0.5, 2); magnitude is carried by the integer
// exponent so the value stays precise across extreme zoom ranges.
type ZoomState struct {
	Mantissa float64 `json:"mantissa"`
	Exponent int     `json:"exponent"`
}

// Item is a drawable canvas item. The set of implementations is closed:
// Stroke and TextCard. Consumers switch exhaustively on the concrete type
// (or Kind), so adding a variant forces every consumption site to be updated.
type Item interface {
	ItemID() string
	Bounds() BoundingBox
	Kind() ItemKind

	sealed()
}

// Stroke is a freehand polyline with a world-space rendering width.
type Stroke struct {
	ID     string
	Box    BoundingBox
	Points []Point // ordered, at least two
	Width  float64 // world units
	Color  string  // hex, e.g. "#d4a24e"
}

func (s *Stroke) ItemID() string      { return s.ID }
func (s *Stroke) Bounds() BoundingBox { return s.Box }
func (s *Stroke) Kind() ItemKind      { return KindStroke }
func (s *Stroke) sealed()             {}

// TextCard is a rich-text card. The zoom state at creation time is kept so
// the card's on-screen scale can be recomputed relative to the current
// viewport zoom; the pixel footprint is scaled, never re-flowed.
type TextCard struct {
	ID      string
	Box     BoundingBox
	Zoom    ZoomState // viewport zoom when the card was placed
	Title   string
	Content string // opaque rich-content blob, owned by the editor layer

	// Fixed CSS-like footprint in screen pixels at creation zoom.
	PixelWidth  float64
	PixelHeight float64
}

func (c *TextCard) ItemID() string      { return c.ID }
func (c *TextCard) Bounds() BoundingBox { return c.Box }
func (c *TextCard) Kind() ItemKind      { return KindTextCard }
func (c *TextCard) sealed()             {}
