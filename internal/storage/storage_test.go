package storage_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msstter/Infinite-canvas/internal/domain"
	"github.com/msstter/Infinite-canvas/internal/storage"
)

func sampleRecords() []domain.Record {
	return []domain.Record{
		{
			ID:      "a",
			Kind:    domain.KindStroke,
			Box:     domain.BoundingBox{X: -1, Y: -1, Width: 12, Height: 2},
			Payload: []byte(`{"points":[{"x":0,"y":0},{"x":10,"y":0}],"width":2,"color":"#fff"}`),
		},
		{
			ID:      "b",
			Kind:    domain.KindTextCard,
			Box:     domain.BoundingBox{X: 30, Y: 40, Width: 80, Height: 50},
			Payload: []byte(`{"zoom":{"mantissa":1.5,"exponent":-2},"title":"t","content":"c","pixelWidth":80,"pixelHeight":50}`),
		},
	}
}

func exerciseStore(t *testing.T, rs domain.RecordStore) {
	t.Helper()
	ctx := context.Background()
	recs := sampleRecords()

	for _, rec := range recs {
		require.NoError(t, rs.Put(ctx, rec))
	}

	got, err := rs.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[0].ID, got[0].ID)
	assert.Equal(t, recs[0].Kind, got[0].Kind)
	assert.Equal(t, recs[0].Box, got[0].Box)
	assert.JSONEq(t, string(recs[0].Payload), string(got[0].Payload))

	// Put on an existing id replaces the record.
	updated := recs[1]
	updated.Box.X = 99
	require.NoError(t, rs.Put(ctx, updated))
	got, err = rs.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 99.0, got[1].Box.X)

	require.NoError(t, rs.Delete(ctx, "a"))
	require.NoError(t, rs.Delete(ctx, "never-existed"))
	got, err = rs.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	replacement := []domain.Record{{
		ID:      "c",
		Kind:    domain.KindStroke,
		Box:     domain.BoundingBox{Width: 5, Height: 5},
		Payload: []byte(`{"points":[{"x":1,"y":1},{"x":4,"y":4}],"width":1,"color":"#000"}`),
	}}
	require.NoError(t, rs.BulkReplace(ctx, replacement))
	got, err = rs.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	require.NoError(t, rs.ClearAll(ctx))
	got, err = rs.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore(t *testing.T) {
	rs, err := storage.Open(storage.DriverMemory, "")
	require.NoError(t, err)
	exerciseStore(t, rs)
}

func TestSQLiteStore(t *testing.T) {
	rs, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "canvas.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if c, ok := rs.(io.Closer); ok {
			c.Close()
		}
	})
	exerciseStore(t, rs)
}

// Records survive a close and reopen of the same database file.
func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "canvas.db")

	rs, err := storage.Open(storage.DriverSQLite, path)
	require.NoError(t, err)
	for _, rec := range sampleRecords() {
		require.NoError(t, rs.Put(ctx, rec))
	}
	require.NoError(t, rs.(io.Closer).Close())

	rs, err = storage.Open(storage.DriverSQLite, path)
	require.NoError(t, err)
	defer rs.(io.Closer).Close()
	got, err := rs.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := storage.Open("oracle", "")
	assert.Error(t, err)
}
