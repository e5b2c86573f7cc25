// Package store owns the canonical set of drawable items. It is the single
// writer-of-record: every mutation goes through it, and spatial-index updates
// are an always-paired private side effect of each operation, so the index
// and the item set can never reference different identifiers.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/msstter/Infinite-canvas/internal/domain"
	"github.com/msstter/Infinite-canvas/internal/spatial"
)

var ErrTooFewPoints = errors.New("store: a stroke needs at least two points")

const persistTimeout = 10 * time.Second

// Store mediates all item mutation through the spatial index and the
// persistence collaborator, and publishes a monotonically increasing revision
// counter that rendering surfaces subscribe to.
//
// In-memory state (items and index) is updated synchronously; persistence
// writes are issued fire-and-forget afterwards, so the in-memory view is
// always at least as current as disk. A mutex serializes access because Go
// callers run on real OS threads rather than a single cooperative scheduler.
type Store struct {
	log     zerolog.Logger
	records domain.RecordStore

	mu          sync.Mutex
	index       *spatial.Index
	items       map[string]domain.Item
	revision    uint64
	initialized bool
	subs        map[int]func(uint64)
	nextSub     int
}

// New creates a store over the given persistence collaborator.
func New(records domain.RecordStore, log zerolog.Logger) *Store {
	return &Store{
		log:     log,
		records: records,
		index:   spatial.NewIndex(),
		items:   make(map[string]domain.Item),
		subs:    make(map[int]func(uint64)),
	}
}

// ─────────────────────────────────────────────────────────────
// Revision counter and subscriptions
// ─────────────────────────────────────────────────────────────

// Revision returns the current revision counter.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Subscribe registers a callback invoked synchronously after every committed
// mutation. Callbacks must only mark their owner dirty for the next render
// tick, never do long-running work. The returned function cancels the
// subscription.
func (s *Store) Subscribe(fn func(revision uint64)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// bump increments the revision and returns the notification list. Called with
// the lock held, as the final step of a mutation: observers never see a
// revision that precedes the data being queryable.
func (s *Store) bump() (uint64, []func(uint64)) {
	s.revision++
	fns := make([]func(uint64), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return s.revision, fns
}

func notify(rev uint64, fns []func(uint64)) {
	for _, fn := range fns {
		fn(rev)
	}
}

// ─────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────

// AddStroke creates a stroke item from an ordered point sequence. The
// bounding box is the point extent padded by half the stroke width per side.
func (s *Store) AddStroke(points []domain.Point, width float64, color string) (*domain.Stroke, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}
	stroke := &domain.Stroke{
		ID:     uuid.NewString(),
		Box:    domain.BoundsOf(points, width/2),
		Points: append([]domain.Point(nil), points...),
		Width:  width,
		Color:  color,
	}
	if err := s.addItem(stroke); err != nil {
		return nil, err
	}
	return stroke, nil
}

// AddTextCard creates a text card item at the given box, capturing the
// viewport zoom so the card's on-screen scale can be recomputed later.
func (s *Store) AddTextCard(box domain.BoundingBox, zoom domain.ZoomState, title, content string, pixelWidth, pixelHeight float64) (*domain.TextCard, error) {
	card := &domain.TextCard{
		ID:          uuid.NewString(),
		Box:         box,
		Zoom:        zoom,
		Title:       title,
		Content:     content,
		PixelWidth:  pixelWidth,
		PixelHeight: pixelHeight,
	}
	if err := s.addItem(card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *Store) addItem(it domain.Item) error {
	rec, err := domain.EncodeItem(it)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.index.Insert(it.ItemID(), it.Bounds()); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("add %s: %w", it.Kind(), err)
	}
	s.items[it.ItemID()] = it
	rev, fns := s.bump()
	s.mu.Unlock()

	s.persistPut(rec)
	notify(rev, fns)
	return nil
}

// TextCardPatch holds the fields of a card that an update may change. Nil
// fields are left untouched.
type TextCardPatch struct {
	Title   *string
	Content *string
}

// UpdateTextCard merges patch into the card's payload and optionally moves it
// to newBox. A missing id is a benign race (the card may have been deleted by
// another surface between the edit starting and landing): it is logged and
// recovered locally, without an error and without a revision bump.
func (s *Store) UpdateTextCard(id string, patch TextCardPatch, newBox *domain.BoundingBox) error {
	s.mu.Lock()
	card, ok := s.items[id].(*domain.TextCard)
	if !ok {
		s.mu.Unlock()
		s.log.Warn().Str("id", id).Msg("update of missing text card ignored")
		return nil
	}
	if newBox != nil {
		// Re-index first: if the new box is rejected the whole operation
		// fails with the card untouched.
		if err := s.index.Update(id, *newBox); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("update textcard: %w", err)
		}
		card.Box = *newBox
	}
	if patch.Title != nil {
		card.Title = *patch.Title
	}
	if patch.Content != nil {
		card.Content = *patch.Content
	}
	rec, err := domain.EncodeItem(card)
	rev, fns := s.bump()
	s.mu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Str("id", id).Msg("encode for persistence failed")
	} else {
		s.persistPut(rec)
	}
	notify(rev, fns)
	return nil
}

// MoveTextCard moves a card without touching its payload.
func (s *Store) MoveTextCard(id string, box domain.BoundingBox) error {
	return s.UpdateTextCard(id, TextCardPatch{}, &box)
}

// DeleteTextCard removes a card from index, store, and persistence. Deleting
// a missing id is a no-op and does not bump the revision.
func (s *Store) DeleteTextCard(id string) {
	s.deleteItem(id, domain.KindTextCard)
}

// DeleteStroke removes a stroke. Same no-op semantics as DeleteTextCard.
func (s *Store) DeleteStroke(id string) {
	s.deleteItem(id, domain.KindStroke)
}

func (s *Store) deleteItem(id string, kind domain.ItemKind) {
	s.mu.Lock()
	it, ok := s.items[id]
	if !ok || it.Kind() != kind {
		s.mu.Unlock()
		s.log.Warn().Str("id", id).Str("kind", string(kind)).Msg("delete of missing item ignored")
		return
	}
	s.index.Remove(id)
	delete(s.items, id)
	rev, fns := s.bump()
	s.mu.Unlock()

	s.persistDelete(id)
	notify(rev, fns)
}

// ─────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────

// VisibleItems returns every item whose bounding box intersects rect, in the
// index's stable order. Multiple independent viewports cull against the same
// canonical data through this call.
func (s *Store) VisibleItems(rect domain.BoundingBox) []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.index.Query(rect)
	out := make([]domain.Item, 0, len(entries))
	for _, e := range entries {
		if it, ok := s.items[e.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// Item returns the item with the given id.
func (s *Store) Item(id string) (domain.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	return it, ok
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Initialized reports whether Init has completed. A viewport may render with
// zero items before that: acceptable empty-state behavior, not an error.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// ─────────────────────────────────────────────────────────────
// Load, import, export
// ─────────────────────────────────────────────────────────────

// Init loads all persisted items into memory and the index, then fires one
// revision bump. It must complete before viewports expect persisted data.
// Records that no longer decode are skipped with a warning rather than
// failing the whole load.
func (s *Store) Init(ctx context.Context) error {
	recs, err := s.records.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("init: list persisted items: %w", err)
	}

	s.mu.Lock()
	for _, rec := range recs {
		it, err := domain.DecodeItem(rec)
		if err != nil {
			s.log.Warn().Err(err).Str("id", rec.ID).Msg("skipping undecodable persisted item")
			continue
		}
		if err := s.index.Insert(it.ItemID(), it.Bounds()); err != nil {
			s.log.Warn().Err(err).Str("id", rec.ID).Msg("skipping unindexable persisted item")
			continue
		}
		s.items[it.ItemID()] = it
	}
	s.initialized = true
	rev, fns := s.bump()
	s.mu.Unlock()

	notify(rev, fns)
	return nil
}

// LoadSnapshot replaces the entire canvas with the snapshot's items. The
// snapshot is validated fully before any state is touched; a malformed
// snapshot is rejected as a *domain.SnapshotError with nothing mutated.
// After the persistence collaborator accepts the bulk replace, the index is
// rebuilt from scratch rather than incrementally reconciled: a full reload is
// rare, bulk, and correctness-critical.
func (s *Store) LoadSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	items := make([]domain.Item, 0, len(snap.Items))
	for _, rec := range snap.Items {
		it, err := domain.DecodeItem(rec)
		if err != nil {
			// Validate decodes every record; reaching this means the
			// snapshot changed underneath us.
			return &domain.SnapshotError{Reason: err.Error()}
		}
		items = append(items, it)
	}
	if err := s.records.BulkReplace(ctx, snap.Items); err != nil {
		return fmt.Errorf("load snapshot: bulk replace: %w", err)
	}

	s.mu.Lock()
	s.index.Clear()
	s.items = make(map[string]domain.Item, len(items))
	for _, it := range items {
		if err := s.index.Insert(it.ItemID(), it.Bounds()); err != nil {
			s.log.Warn().Err(err).Str("id", it.ItemID()).Msg("snapshot item outside index bounds, dropped")
			continue
		}
		s.items[it.ItemID()] = it
	}
	s.initialized = true
	rev, fns := s.bump()
	s.mu.Unlock()

	notify(rev, fns)
	return nil
}

// ExportSnapshot returns a serializable record of all items, ordered by id
// for reproducible output.
func (s *Store) ExportSnapshot() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	snap := domain.Snapshot{Version: domain.SnapshotVersion, Items: make([]domain.Record, 0, len(ids))}
	for _, id := range ids {
		rec, err := domain.EncodeItem(s.items[id])
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("export: %w", err)
		}
		snap.Items = append(snap.Items, rec)
	}
	return snap, nil
}

// ─────────────────────────────────────────────────────────────
// Fire-and-forget persistence
// ─────────────────────────────────────────────────────────────

// Writes are issued after the in-memory commit and never block a frame. A
// lost write is logged; the in-memory state stays authoritative for the
// session. Superseding writes to the same id are not cancelled: each Put is a
// full replace of that id's record, so last-write-wins is safe.

func (s *Store) persistPut(rec domain.Record) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.records.Put(ctx, rec); err != nil {
			s.log.Warn().Err(err).Str("id", rec.ID).Msg("persist put failed")
		}
	}()
}

func (s *Store) persistDelete(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.records.Delete(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("id", id).Msg("persist delete failed")
		}
	}()
}
