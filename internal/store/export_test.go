package store

import "github.com/msstter/Infinite-canvas/internal/spatial"

// IndexEntries exposes the spatial index contents so tests can check that
// index and item set always move together.
func (s *Store) IndexEntries() []spatial.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Entries()
}

// ItemIDs exposes the item set keys for the same pairing checks.
func (s *Store) ItemIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	return ids
}
