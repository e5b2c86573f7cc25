// Package spatial provides a region quadtree over item bounding boxes,
// answering rectangle-overlap queries in time proportional to tree depth
// rather than total item count.
package spatial

import (
	"errors"
	"fmt"
	"sort"

	"github.com/msstter/Infinite-canvas/internal/domain"
)

// WorldExtent is the half-width of the fixed outer bound, per axis. 2^43
// world units (~8.8e12) is chosen to exceed any plausible pan or zoom range;
// inserts outside it fail loudly rather than silently dropping data.
const WorldExtent = float64(1 << 43)

const (
	nodeCapacity = 8
	maxTreeDepth = 48
)

// ErrOutOfBounds is returned when a bounding box lies outside the fixed
// outer bound of the index.
var ErrOutOfBounds = errors.New("spatial: bounding box outside index bounds")

// Entry is one indexed bounding box. Entries are non-owning: the item store
// holds the canonical item; the index only keeps the identifier and a copy of
// the box for lookup.
type Entry struct {
	ID  string
	Box domain.BoundingBox

	seq uint64 // insertion order, for stable query results
}

type node struct {
	box     domain.BoundingBox
	depth   int
	entries []Entry
	child   [4]*node // nil until subdivided
}

// Index is a region quadtree. It is not safe for concurrent use; the item
// store serializes all access behind its own lock.
type Index struct {
	root *node
	byID map[string]*node
	seq  uint64
}

// NewIndex creates an empty index covering [-WorldExtent, WorldExtent] on
// both axes.
func NewIndex() *Index {
	return &Index{
		root: &node{box: domain.BoundingBox{
			X:      -WorldExtent,
			Y:      -WorldExtent,
			Width:  2 * WorldExtent,
			Height: 2 * WorldExtent,
		}},
		byID: make(map[string]*node),
	}
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int { return len(ix.byID) }

// Has reports whether id is indexed.
func (ix *Index) Has(id string) bool {
	_, ok := ix.byID[id]
	return ok
}

// BoxOf returns the indexed bounding box for id.
func (ix *Index) BoxOf(id string) (domain.BoundingBox, bool) {
	n, ok := ix.byID[id]
	if !ok {
		return domain.BoundingBox{}, false
	}
	for _, e := range n.entries {
		if e.ID == id {
			return e.Box, true
		}
	}
	return domain.BoundingBox{}, false
}

// Insert adds an entry at its bounding box. It fails with ErrOutOfBounds if
// the box does not lie fully inside the outer bound, and with an error if the
// id is already indexed (geometry changes go through Update).
func (ix *Index) Insert(id string, box domain.BoundingBox) error {
	if !ix.root.box.Contains(box) {
		return fmt.Errorf("%w: %+v", ErrOutOfBounds, box)
	}
	if _, dup := ix.byID[id]; dup {
		return fmt.Errorf("spatial: id %q already indexed", id)
	}
	ix.seq++
	ix.insert(ix.root, Entry{ID: id, Box: box, seq: ix.seq})
	return nil
}

func (ix *Index) insert(n *node, e Entry) {
	if n.child[0] == nil {
		if len(n.entries) < nodeCapacity || n.depth >= maxTreeDepth {
			n.entries = append(n.entries, e)
			ix.byID[e.ID] = n
			return
		}
		ix.subdivide(n)
	}
	if c := childFor(n, e.Box); c != nil {
		ix.insert(c, e)
		return
	}
	// Straddles a quadrant boundary; stays at this level.
	n.entries = append(n.entries, e)
	ix.byID[e.ID] = n
}

func (ix *Index) subdivide(n *node) {
	hw, hh := n.box.Width/2, n.box.Height/2
	for i := 0; i < 4; i++ {
		n.child[i] = &node{
			box: domain.BoundingBox{
				X:      n.box.X + float64(i%2)*hw,
				Y:      n.box.Y + float64(i/2)*hh,
				Width:  hw,
				Height: hh,
			},
			depth: n.depth + 1,
		}
	}
	kept := n.entries[:0]
	for _, e := range n.entries {
		if c := childFor(n, e.Box); c != nil {
			ix.insert(c, e)
		} else {
			kept = append(kept, e)
			ix.byID[e.ID] = n
		}
	}
	n.entries = kept
}

// childFor returns the quadrant fully containing box, or nil if the box
// straddles a boundary.
func childFor(n *node, box domain.BoundingBox) *node {
	for _, c := range n.child {
		if c.box.Contains(box) {
			return c
		}
	}
	return nil
}

// Remove drops the entry for id. Returns false if id is not indexed.
func (ix *Index) Remove(id string) bool {
	n, ok := ix.byID[id]
	if !ok {
		return false
	}
	for i, e := range n.entries {
		if e.ID == id {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			break
		}
	}
	delete(ix.byID, id)
	return true
}

// Update moves id to a new bounding box. Quadtree entries do not support
// in-place box mutation; the entry is removed and re-inserted. If the new box
// is out of bounds the old entry is kept and the error returned.
func (ix *Index) Update(id string, box domain.BoundingBox) error {
	if !ix.root.box.Contains(box) {
		return fmt.Errorf("%w: %+v", ErrOutOfBounds, box)
	}
	if !ix.Remove(id) {
		return fmt.Errorf("spatial: id %q not indexed", id)
	}
	ix.seq++
	ix.insert(ix.root, Entry{ID: id, Box: box, seq: ix.seq})
	return nil
}

// Query returns every entry whose box intersects rect, ordered by insertion
// sequence. The ordering is stable across identical queries on unchanged
// data, so downstream rendering keeps a consistent z-order.
func (ix *Index) Query(rect domain.BoundingBox) []Entry {
	var out []Entry
	ix.query(ix.root, rect, &out)
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (ix *Index) query(n *node, rect domain.BoundingBox, out *[]Entry) {
	if !n.box.Intersects(rect) {
		return
	}
	for _, e := range n.entries {
		if e.Box.Intersects(rect) {
			*out = append(*out, e)
		}
	}
	if n.child[0] != nil {
		for _, c := range n.child {
			ix.query(c, rect, out)
		}
	}
}

// Entries returns every indexed entry in insertion order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, 0, len(ix.byID))
	ix.collect(ix.root, &out)
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (ix *Index) collect(n *node, out *[]Entry) {
	*out = append(*out, n.entries...)
	if n.child[0] != nil {
		for _, c := range n.child {
			ix.collect(c, out)
		}
	}
}

// Clear empties the tree. Used when bulk-reloading from an import.
func (ix *Index) Clear() {
	ix.root = &node{box: ix.root.box}
	ix.byID = make(map[string]*node)
	ix.seq = 0
}
