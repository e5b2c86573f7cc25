package render

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/msstter/Infinite-canvas/internal/camera"
	"github.com/msstter/Infinite-canvas/internal/domain"
	"github.com/msstter/Infinite-canvas/internal/landmark"
	"github.com/msstter/Infinite-canvas/internal/store"
)

const (
	backgroundColor = "#10131c"
	cardFillColor   = "#f5f1e6"
	cardEdgeColor   = "#3a3f52"
	cardTitleColor  = "#22252f"
)

// landmarkShades darken with depth so nested blobs read as terrain.
var landmarkShades = []string{
	"#1c2b33", "#22343d", "#293d46", "#314750", "#39515a",
	"#425b64", "#4b656e", "#546f78", "#5d7982",
}

// Loop is the per-surface render/cull loop. It subscribes to the store's
// revision counter, marking itself dirty on change; the host calls
// RenderFrame once per display tick when dirty (or when the camera moved).
type Loop struct {
	view    *camera.Viewport
	canvas  *store.Store
	gen     *landmark.Generator
	surface Surface
	log     zerolog.Logger

	// dirty and seenRev are written from revision callbacks, which can run
	// on another goroutine (the snapshot watcher commits re-imports off the
	// host thread) while the host polls Dirty and renders.
	dirty       atomic.Bool
	seenRev     atomic.Uint64
	unsubscribe func()

	// handles is the surface-local cache of drawable handles, reconciled
	// against the visible set each frame.
	handles map[string]domain.Item
}

// NewLoop wires a loop to one viewport and surface. Call Close when the
// surface goes away.
func NewLoop(view *camera.Viewport, canvas *store.Store, gen *landmark.Generator, surface Surface, log zerolog.Logger) *Loop {
	l := &Loop{
		view:    view,
		canvas:  canvas,
		gen:     gen,
		surface: surface,
		log:     log,
		handles: make(map[string]domain.Item),
	}
	l.dirty.Store(true)
	l.unsubscribe = canvas.Subscribe(func(rev uint64) {
		// Revision callbacks must stay cheap: only mark dirty.
		l.dirty.Store(true)
		l.seenRev.Store(rev)
	})
	return l
}

// Close cancels the revision subscription.
func (l *Loop) Close() {
	if l.unsubscribe != nil {
		l.unsubscribe()
		l.unsubscribe = nil
	}
}

// Dirty reports whether the canvas changed since the last rendered frame.
func (l *Loop) Dirty() bool { return l.dirty.Load() }

// MarkDirty forces a redraw on the next tick, e.g. after a camera move.
func (l *Loop) MarkDirty() { l.dirty.Store(true) }

// RenderFrame runs one full frame: visible rect, landmark update, item cull,
// handle reconciliation, draw.
func (l *Loop) RenderFrame() {
	rect := l.view.VisibleRect()
	scale := l.view.Zoom().EffectiveScale()

	nodes := l.gen.Update(rect, scale)
	items := l.canvas.VisibleItems(rect)

	added, removed := l.reconcile(items)
	if added+removed > 0 {
		l.log.Debug().Int("visible", len(items)).Int("added", added).Int("removed", removed).
			Msg("visible set reconciled")
	}

	l.surface.Clear(backgroundColor)
	for _, n := range nodes {
		l.drawLandmark(n)
	}
	for _, it := range items {
		l.drawItem(it, scale)
	}
	l.dirty.Store(false)
}

// reconcile replaces the handle cache with the current visible set and
// reports how many handles appeared and disappeared.
func (l *Loop) reconcile(items []domain.Item) (added, removed int) {
	next := make(map[string]domain.Item, len(items))
	for _, it := range items {
		id := it.ItemID()
		if _, ok := l.handles[id]; !ok {
			added++
		}
		next[id] = it
	}
	removed = len(l.handles) + added - len(next)
	l.handles = next
	return added, removed
}

func (l *Loop) drawLandmark(n *landmark.Node) {
	if len(n.Polygon) == 0 {
		return
	}
	shade := landmarkShades[n.Depth%len(landmarkShades)]
	for i, p := range n.Polygon {
		sx, sy := l.view.WorldToScreen(p.X, p.Y)
		if i == 0 {
			l.surface.MoveTo(sx, sy)
		} else {
			l.surface.LineTo(sx, sy)
		}
	}
	l.surface.ClosePath()
	l.surface.Fill(shade)
}

// drawItem dispatches on the closed item set. A new item kind fails to
// compile here until it is handled.
func (l *Loop) drawItem(it domain.Item, scale float64) {
	switch v := it.(type) {
	case *domain.Stroke:
		l.drawStroke(v, scale)
	case *domain.TextCard:
		l.drawTextCard(v, scale)
	default:
		panic(fmt.Sprintf("render: unhandled item kind %T", it))
	}
}

func (l *Loop) drawStroke(s *domain.Stroke, scale float64) {
	if len(s.Points) < 2 {
		return
	}
	for i, p := range s.Points {
		sx, sy := l.view.WorldToScreen(p.X, p.Y)
		if i == 0 {
			l.surface.MoveTo(sx, sy)
		} else {
			l.surface.LineTo(sx, sy)
		}
	}
	l.surface.Stroke(s.Color, math.Max(s.Width*scale, 0.5))
}

func (l *Loop) drawTextCard(c *domain.TextCard, scale float64) {
	x0, y0 := l.view.WorldToScreen(c.Box.X, c.Box.Y)
	x1, y1 := l.view.WorldToScreen(c.Box.MaxX(), c.Box.MaxY())

	l.surface.MoveTo(x0, y0)
	l.surface.LineTo(x1, y0)
	l.surface.LineTo(x1, y1)
	l.surface.LineTo(x0, y1)
	l.surface.ClosePath()
	l.surface.Fill(cardFillColor)

	l.surface.MoveTo(x0, y0)
	l.surface.LineTo(x1, y0)
	l.surface.LineTo(x1, y1)
	l.surface.LineTo(x0, y1)
	l.surface.ClosePath()
	l.surface.Stroke(cardEdgeColor, 1)

	// The card's pixel footprint is fixed at creation zoom and scaled, not
	// re-flowed: the title size tracks the ratio of current to creation
	// scale.
	creation := math.Ldexp(c.Zoom.Mantissa, c.Zoom.Exponent)
	if creation <= 0 {
		creation = 1
	}
	size := 14 * scale / creation
	if size < 4 || c.Title == "" {
		return
	}
	pad := 6 * scale / creation
	l.surface.Text(x0+pad, y0+pad+size, size, cardTitleColor, c.Title)
}
