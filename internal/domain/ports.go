package domain

import "context"

// RecordStore is the persistence collaborator. Implementations are keyed by
// record ID and crash-consistent per call: a Put either fully lands or not at
// all. The canvas store issues Put/Delete fire-and-forget after updating its
// in-memory state, so implementations must tolerate last-write-wins ordering.
type RecordStore interface {
	ListAll(ctx context.Context) ([]Record, error)
	Put(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error

	// BulkReplace atomically replaces the full record set.
	BulkReplace(ctx context.Context, recs []Record) error
}
