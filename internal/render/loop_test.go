package render_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/msstter/Infinite-canvas/internal/camera"
	"github.com/msstter/Infinite-canvas/internal/domain"
	"github.com/msstter/Infinite-canvas/internal/landmark"
	"github.com/msstter/Infinite-canvas/internal/render"
	"github.com/msstter/Infinite-canvas/internal/storage"
	"github.com/msstter/Infinite-canvas/internal/store"
)

// recordingSurface logs every drawing call for assertions.
type recordingSurface struct {
	calls []string
}

func (r *recordingSurface) Clear(color string) { r.record("clear %s", color) }
func (r *recordingSurface) MoveTo(x, y float64) {
	r.record("moveto %.1f %.1f", x, y)
}
func (r *recordingSurface) LineTo(x, y float64) {
	r.record("lineto %.1f %.1f", x, y)
}
func (r *recordingSurface) ClosePath()        { r.record("closepath") }
func (r *recordingSurface) Fill(color string) { r.record("fill %s", color) }
func (r *recordingSurface) Stroke(color string, width float64) {
	r.record("stroke %s %.1f", color, width)
}
func (r *recordingSurface) Text(x, y, size float64, color, text string) {
	r.record("text %q", text)
}

func (r *recordingSurface) record(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recordingSurface) count(prefix string) int {
	n := 0
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func newTestLoop(t *testing.T) (*store.Store, *camera.Viewport, *render.Loop, *recordingSurface) {
	t.Helper()
	canvas := store.New(storage.NewMemory(), zerolog.Nop())

	// No roots: landmark drawing is covered separately.
	cfg := landmark.DefaultConfig()
	cfg.RootCount = 0
	gen := landmark.New(cfg, zerolog.Nop())

	surface := &recordingSurface{}
	view := camera.NewViewport(800, 600)
	loop := render.NewLoop(view, canvas, gen, surface, zerolog.Nop())
	t.Cleanup(loop.Close)
	return canvas, view, loop, surface
}

func TestLoop_DrawsVisibleItems(t *testing.T) {
	canvas, _, loop, surface := newTestLoop(t)

	if _, err := canvas.AddStroke([]domain.Point{{X: 10, Y: 10}, {X: 100, Y: 80}}, 3, "#d4a24e"); err != nil {
		t.Fatal(err)
	}
	if _, err := canvas.AddTextCard(domain.BoundingBox{X: 200, Y: 100, Width: 150, Height: 80},
		domain.ZoomState{Mantissa: 1}, "hello", "body", 150, 80); err != nil {
		t.Fatal(err)
	}
	// Off-screen item must not be drawn.
	if _, err := canvas.AddStroke([]domain.Point{{X: 5000, Y: 5000}, {X: 5100, Y: 5100}}, 3, "#fff"); err != nil {
		t.Fatal(err)
	}

	loop.RenderFrame()

	if got := surface.count("clear"); got != 1 {
		t.Fatalf("%d clears", got)
	}
	// One stroke for the visible stroke item, one for the card edge.
	if got := surface.count("stroke"); got != 2 {
		t.Fatalf("%d stroke calls: %v", got, surface.calls)
	}
	if got := surface.count("fill"); got != 1 {
		t.Fatalf("%d fill calls: %v", got, surface.calls)
	}
	if got := surface.count(`text "hello"`); got != 1 {
		t.Fatalf("title drawn %d times: %v", got, surface.calls)
	}
}

func TestLoop_DirtyLifecycle(t *testing.T) {
	canvas, _, loop, _ := newTestLoop(t)

	if !loop.Dirty() {
		t.Fatal("new loop starts clean")
	}
	loop.RenderFrame()
	if loop.Dirty() {
		t.Fatal("still dirty after a frame")
	}

	if _, err := canvas.AddStroke([]domain.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, 1, "#fff"); err != nil {
		t.Fatal(err)
	}
	if !loop.Dirty() {
		t.Fatal("mutation did not mark the loop dirty")
	}
	loop.RenderFrame()
	if loop.Dirty() {
		t.Fatal("still dirty after redraw")
	}

	loop.MarkDirty()
	if !loop.Dirty() {
		t.Fatal("MarkDirty had no effect")
	}
}

func TestLoop_CloseStopsNotifications(t *testing.T) {
	canvas, _, loop, _ := newTestLoop(t)
	loop.RenderFrame()
	loop.Close()

	if _, err := canvas.AddStroke([]domain.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, 1, "#fff"); err != nil {
		t.Fatal(err)
	}
	if loop.Dirty() {
		t.Fatal("closed loop still receives notifications")
	}
}

// Revision callbacks can fire on another goroutine, e.g. when the snapshot
// watcher commits a re-import, while the host polls Dirty and renders. Run
// under the race detector this covers the dirty-flag handoff.
func TestLoop_DirtyAcrossGoroutines(t *testing.T) {
	canvas, _, loop, _ := newTestLoop(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			x := float64(i)
			if _, err := canvas.AddStroke([]domain.Point{{X: x, Y: 0}, {X: x + 1, Y: 1}}, 1, "#fff"); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	for i := 0; i < 200; i++ {
		if loop.Dirty() {
			loop.RenderFrame()
		}
		loop.MarkDirty()
	}
	<-done

	loop.RenderFrame()
	if loop.Dirty() {
		t.Fatal("dirty after the final frame")
	}
	if canvas.Len() != 200 {
		t.Fatalf("len = %d", canvas.Len())
	}
}

// The title is skipped once the card is zoomed out far enough that the text
// would be unreadable.
func TestLoop_TitleSkippedWhenTiny(t *testing.T) {
	canvas, view, loop, surface := newTestLoop(t)
	if _, err := canvas.AddTextCard(domain.BoundingBox{X: 10, Y: 10, Width: 150, Height: 80},
		domain.ZoomState{Mantissa: 1}, "hello", "body", 150, 80); err != nil {
		t.Fatal(err)
	}

	// 14px at scale 1/8 is under the 4px floor.
	view.Zoom().ApplyFactor(1.0 / 8.0)
	view.SetPan(400, 300)
	loop.RenderFrame()

	if got := surface.count("text"); got != 0 {
		t.Fatalf("title drawn at unreadable size: %v", surface.calls)
	}
	if got := surface.count("fill"); got != 1 {
		t.Fatalf("card body not drawn: %v", surface.calls)
	}
}

func TestLoop_DrawsLandmarks(t *testing.T) {
	canvas := store.New(storage.NewMemory(), zerolog.Nop())
	cfg := landmark.Config{
		Seed:              3,
		RootCount:         2,
		RootRegion:        domain.BoundingBox{X: -200, Y: -200, Width: 400, Height: 400},
		RootRadiusMin:     40,
		RootRadiusMax:     60,
		MaxDepth:          1,
		MaxChildren:       2,
		ChildAreaFraction: 0.4,
		PlacementRetries:  30,
		CacheCeiling:      64,
	}
	gen := landmark.New(cfg, zerolog.Nop())
	surface := &recordingSurface{}
	view := camera.NewViewport(800, 600)
	view.SetPan(400, 300)
	loop := render.NewLoop(view, canvas, gen, surface, zerolog.Nop())
	defer loop.Close()

	loop.RenderFrame()

	// Every visible blob fills one closed polygon; no items exist, so all
	// fills are landmark fills.
	fills := surface.count("fill")
	if fills == 0 {
		t.Fatalf("no landmark fills: %v", surface.calls)
	}
	if closed := surface.count("closepath"); closed != fills {
		t.Fatalf("%d closepath calls for %d fills", closed, fills)
	}
}
