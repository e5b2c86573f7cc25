package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/msstter/Infinite-canvas/internal/domain"
)

// MemoryStore is an in-process record store. Used by tests and as the
// default when no durable backend is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.Record
}

func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.Record)}
}

func (m *MemoryStore) ListAll(_ context.Context) ([]domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Put(_ context.Context, rec domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *MemoryStore) ClearAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]domain.Record)
	return nil
}

func (m *MemoryStore) BulkReplace(_ context.Context, recs []domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]domain.Record, len(recs))
	for _, rec := range recs {
		m.records[rec.ID] = rec
	}
	return nil
}

// Len returns the stored record count, for tests.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
