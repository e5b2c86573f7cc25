// Package landmark generates the infinite, deterministic background pattern:
// a forest of recursively nested circular "landmass" blobs rendered beneath
// the items. Geometry is produced lazily as the viewport moves, cached,
// pruned under a fixed ceiling, and regenerated bit-identically from the seed
// when a pruned region comes back into view.
package landmark

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/msstter/Infinite-canvas/internal/domain"
)

// Config controls the shape of the generated pattern. Determinism holds per
// (Seed, Config) pair: changing either produces a different but equally
// stable pattern.
type Config struct {
	Seed       int64
	RootCount  int
	RootRegion domain.BoundingBox // world region the roots are scattered over

	RootRadiusMin float64
	RootRadiusMax float64

	MaxDepth    int // hard recursion bound
	MaxChildren int // per node

	// ChildAreaFraction caps the summed child area relative to the parent's,
	// so the pattern never visually fills in completely at any depth.
	ChildAreaFraction float64

	// PlacementRetries bounds rejection sampling per blob. A root that cannot
	// be placed within the budget is dropped with a warning.
	PlacementRetries int

	// CacheCeiling is the materialized-node count that triggers pruning.
	CacheCeiling int
}

// DefaultConfig returns the tuning used by the demo binary.
func DefaultConfig() Config {
	return Config{
		Seed:              1,
		RootCount:         24,
		RootRegion:        domain.BoundingBox{X: -40000, Y: -40000, Width: 80000, Height: 80000},
		RootRadiusMin:     1500,
		RootRadiusMax:     6000,
		MaxDepth:          8,
		MaxChildren:       5,
		ChildAreaFraction: 0.4,
		PlacementRetries:  30,
		CacheCeiling:      4096,
	}
}

// Node is one blob in the pattern. Its identifier is derived from its
// parent's identifier and its index among siblings ("L3", "L3_1", "L3_1_0"),
// which is what makes regeneration after eviction reproduce identical
// geometry: all randomness is keyed by (seed, identifier).
type Node struct {
	ID     string
	Center domain.Point
	Radius float64
	Depth  int

	// Polygon is the cached boundary, a jittered circle. Nil until the node
	// is first visited on screen at sufficient scale.
	Polygon []domain.Point

	parent    *Node
	children  []*Node
	expanded  bool
	lastTouch uint64
}

func (n *Node) Children() []*Node { return n.children }

// Stats is a point-in-time view of the generator's cache.
type Stats struct {
	CachedNodes int
	Generated   uint64 // polygons materialized since construction
	Evicted     uint64
}

// Generator owns the blob forest for one canvas. It is driven from the
// render tick and is not safe for concurrent use.
type Generator struct {
	cfg   Config
	log   zerolog.Logger
	roots []*Node
	arena map[string]*Node
	frame uint64
	stats Stats
}

// New places the root blobs from the seeded sequence and returns the
// generator. Root placement happens once; roots are never evicted.
func New(cfg Config, log zerolog.Logger) *Generator {
	g := &Generator{cfg: cfg, log: log, arena: make(map[string]*Node)}
	g.placeRoots()
	return g
}

// rng derives a deterministic random source from the seed and a key, usually
// a node identifier. This is the determinism contract: same key, same
// sequence, forever.
func (g *Generator) rng(key string) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s", g.cfg.Seed, key)
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func (g *Generator) placeRoots() {
	r := g.rng("roots")
	region := g.cfg.RootRegion
	for i := 0; i < g.cfg.RootCount; i++ {
		placed := false
		for try := 0; try < g.cfg.PlacementRetries; try++ {
			radius := g.cfg.RootRadiusMin + r.Float64()*(g.cfg.RootRadiusMax-g.cfg.RootRadiusMin)
			center := domain.Point{
				X: region.X + r.Float64()*region.Width,
				Y: region.Y + r.Float64()*region.Height,
			}
			if overlapsAny(center, radius, g.roots) {
				continue
			}
			n := &Node{ID: fmt.Sprintf("L%d", i), Center: center, Radius: radius}
			g.roots = append(g.roots, n)
			g.arena[n.ID] = n
			placed = true
			break
		}
		if !placed {
			g.log.Warn().Int("root", i).Int("retries", g.cfg.PlacementRetries).
				Msg("root blob placement failed, skipping")
		}
	}
}

func overlapsAny(center domain.Point, radius float64, nodes []*Node) bool {
	for _, n := range nodes {
		dx, dy := center.X-n.Center.X, center.Y-n.Center.Y
		minDist := radius + n.Radius
		if dx*dx+dy*dy < minDist*minDist {
			return true
		}
	}
	return false
}

// Update traverses the forest for one frame and returns the nodes visible in
// rect at the given effective scale, materializing geometry and children
// lazily and pruning the cache when it exceeds the ceiling.
func (g *Generator) Update(rect domain.BoundingBox, scale float64) []*Node {
	g.frame++
	// A node smaller than one screen pixel is never materialized.
	minRadius := 0.0
	if scale > 0 {
		minRadius = 1.0 / scale
	}
	var visible []*Node
	for _, root := range g.roots {
		g.visit(root, rect, minRadius, &visible)
	}
	if len(g.arena) > g.cfg.CacheCeiling {
		g.prune()
	}
	return visible
}

func (g *Generator) visit(n *Node, rect domain.BoundingBox, minRadius float64, out *[]*Node) {
	if n.Radius < minRadius {
		return
	}
	if !circleIntersects(n.Center, n.Radius, rect) {
		return
	}
	if n.Polygon == nil {
		n.Polygon = g.polygon(n)
		g.stats.Generated++
	}
	if !n.expanded && n.Depth < g.cfg.MaxDepth {
		g.expand(n)
	}
	n.lastTouch = g.frame
	*out = append(*out, n)
	for _, c := range n.children {
		g.visit(c, rect, minRadius, out)
	}
}

// polygon generates the boundary as a jittered circle. Purely a function of
// (seed, node id, radius), so an evicted node regenerates identically.
func (g *Generator) polygon(n *Node) []domain.Point {
	r := g.rng(n.ID + "/poly")
	const vertices = 24
	pts := make([]domain.Point, vertices)
	for i := range pts {
		angle := 2 * math.Pi * float64(i) / vertices
		jitter := 0.78 + 0.3*r.Float64()
		pts[i] = domain.Point{
			X: n.Center.X + math.Cos(angle)*n.Radius*jitter,
			Y: n.Center.Y + math.Sin(angle)*n.Radius*jitter,
		}
	}
	return pts
}

// expand generates n's children by seeded placement strictly inside the
// parent's disk. Children are always generated as a complete batch from a
// fresh derived sequence, so a collapsed node re-expands to the same set.
func (g *Generator) expand(n *Node) {
	n.expanded = true
	r := g.rng(n.ID + "/children")
	count := 1 + r.Intn(g.cfg.MaxChildren)
	areaBudget := g.cfg.ChildAreaFraction * math.Pi * n.Radius * n.Radius
	usedArea := 0.0
	for i := 0; i < count; i++ {
		placed := false
		for try := 0; try < g.cfg.PlacementRetries; try++ {
			radius := n.Radius * (0.12 + 0.23*r.Float64())
			area := math.Pi * radius * radius
			if usedArea+area > areaBudget {
				continue
			}
			angle := 2 * math.Pi * r.Float64()
			dist := (n.Radius - radius) * math.Sqrt(r.Float64())
			center := domain.Point{
				X: n.Center.X + math.Cos(angle)*dist,
				Y: n.Center.Y + math.Sin(angle)*dist,
			}
			if overlapsAny(center, radius, n.children) {
				continue
			}
			child := &Node{
				ID:     fmt.Sprintf("%s_%d", n.ID, i),
				Center: center,
				Radius: radius,
				Depth:  n.Depth + 1,
				parent: n,
			}
			n.children = append(n.children, child)
			g.arena[child.ID] = child
			usedArea += area
			placed = true
			break
		}
		if !placed {
			// Decorative background: skipping a child is fine and, being
			// seed-determined, reproducible.
			continue
		}
	}
}

// prune collapses subtrees that were not touched by the most recent visible
// set: their children leave the arena and their cached polygons are dropped.
// Roots always stay so the forest layout survives.
func (g *Generator) prune() {
	for _, root := range g.roots {
		g.pruneNode(root)
	}
}

func (g *Generator) pruneNode(n *Node) {
	if n.lastTouch == g.frame {
		for _, c := range n.children {
			g.pruneNode(c)
		}
		return
	}
	if n.expanded {
		for _, c := range n.children {
			g.discard(c)
		}
		n.children = nil
		n.expanded = false
	}
	n.Polygon = nil
}

func (g *Generator) discard(n *Node) {
	for _, c := range n.children {
		g.discard(c)
	}
	delete(g.arena, n.ID)
	g.stats.Evicted++
}

// Stats returns cache counters for logging.
func (g *Generator) Stats() Stats {
	st := g.stats
	st.CachedNodes = len(g.arena)
	return st
}

// Roots exposes the root blobs, mainly for tests.
func (g *Generator) Roots() []*Node { return g.roots }

func circleIntersects(c domain.Point, r float64, rect domain.BoundingBox) bool {
	cx := math.Max(rect.X, math.Min(c.X, rect.MaxX()))
	cy := math.Max(rect.Y, math.Min(c.Y, rect.MaxY()))
	dx, dy := c.X-cx, c.Y-cy
	return dx*dx+dy*dy <= r*r
}
