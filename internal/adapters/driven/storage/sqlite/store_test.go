package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore_CreatesSchema(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Contains(t, store.Path(), "quern.db")

	// Reopening must not re-run migrations.
	store2, err := NewStore(dir)
	require.NoError(t, err)
	store2.Close()
}

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	doc := &domain.Document{
		ID:          "doc-1",
		SourceLabel: "manual.txt",
		Provenance:  domain.ProvenanceOriginal,
		Content:     "full document text",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, docs.SaveDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.SourceLabel, got.SourceLabel)
	assert.Equal(t, domain.ProvenanceOriginal, got.Provenance)
	assert.Equal(t, doc.Content, got.Content)

	has, err := docs.HasDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = docs.HasDocument(ctx, "doc-2")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDocumentStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	_, err := docs.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = docs.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ChunksRoundTrip(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{
		ID: "doc-1", Content: "text", CreatedAt: time.Now().UTC(),
	}))

	chunks := []domain.Chunk{
		{ID: "c-2", DocumentID: "doc-1", Content: "second", Position: 1, Start: 40, End: 80},
		{ID: "c-1", DocumentID: "doc-1", Content: "first", Position: 0, Start: 0, End: 50},
	}
	require.NoError(t, docs.SaveChunks(ctx, chunks))

	got, err := docs.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c-1", got[0].ID, "chunks ordered by position")
	assert.Equal(t, "c-2", got[1].ID)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, 50, got[0].End)

	chunk, err := docs.GetChunk(ctx, "c-2")
	require.NoError(t, err)
	assert.Equal(t, "second", chunk.Content)
}

func TestDocumentStore_DeleteCascadesToChunks(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{
		ID: "doc-1", Content: "text", CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "c-1", DocumentID: "doc-1", Content: "a", Position: 0},
	}))

	require.NoError(t, docs.DeleteDocument(ctx, "doc-1"))

	_, err := docs.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = docs.GetChunk(ctx, "c-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListOrderedByRecency(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{
		ID: "old", Content: "x", CreatedAt: base.Add(-time.Hour),
	}))
	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{
		ID: "new", Content: "x", CreatedAt: base,
	}))

	listed, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "new", listed[0].ID)
	assert.Equal(t, "old", listed[1].ID)
}

func TestDocumentStore_SaveDocumentReplaces(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{
		ID: "doc-1", Content: "old text", CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{
		ID: "doc-1", Content: "new text", Provenance: domain.ProvenanceFeedback, CreatedAt: time.Now().UTC(),
	}))

	got, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "new text", got.Content)
	assert.Equal(t, domain.ProvenanceFeedback, got.Provenance)

	listed, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func entry(chunkID, docID string, vec []float32, at time.Time) driven.IndexEntry {
	return driven.IndexEntry{
		ChunkID:    chunkID,
		DocumentID: docID,
		Embedding:  vec,
		Provenance: domain.ProvenanceOriginal,
		IngestedAt: at,
	}
}

func TestVectorIndex_UpsertAndSearch(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, index.Upsert(ctx, entry("c-1", "d-1", []float32{1, 0, 0}, now)))
	require.NoError(t, index.Upsert(ctx, entry("c-2", "d-1", []float32{0, 1, 0}, now)))
	require.NoError(t, index.Upsert(ctx, entry("c-3", "d-2", []float32{0.9, 0.1, 0}, now)))

	hits, err := index.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "c-1", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "c-3", hits[1].ChunkID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestVectorIndex_SearchBreaksTiesByRecency(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	vec := []float32{0.5, 0.5, 0}

	older := entry("c-old", "d-old", vec, now.Add(-time.Hour))
	newer := entry("c-new", "d-new", vec, now)
	newer.Provenance = domain.ProvenanceFeedback
	require.NoError(t, index.Upsert(ctx, older))
	require.NoError(t, index.Upsert(ctx, newer))

	hits, err := index.Search(ctx, vec, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c-new", hits[0].ChunkID)
	assert.Equal(t, domain.ProvenanceFeedback, hits[0].Provenance)
}

func TestVectorIndex_RoundTripsMetadata(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex()
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	e := entry("c-1", "d-1", []float32{0.25, -0.5, 1.0}, at)
	e.SourceLabel = "user_feedback"
	e.Provenance = domain.ProvenanceFeedback
	require.NoError(t, index.Upsert(ctx, e))

	hits, err := index.Search(ctx, []float32{0.25, -0.5, 1.0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "d-1", hits[0].DocumentID)
	assert.Equal(t, "user_feedback", hits[0].SourceLabel)
	assert.Equal(t, domain.ProvenanceFeedback, hits[0].Provenance)
	assert.True(t, hits[0].IngestedAt.Equal(at))
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestVectorIndex_UpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, index.Upsert(ctx, entry("c-1", "d-1", []float32{1, 0}, now)))
	require.NoError(t, index.Upsert(ctx, entry("c-1", "d-1", []float32{0, 1}, now)))

	n, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := index.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestVectorIndex_DeleteByDocument(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, index.Upsert(ctx, entry("c-1", "d-1", []float32{1, 0}, now)))
	require.NoError(t, index.Upsert(ctx, entry("c-2", "d-1", []float32{0, 1}, now)))
	require.NoError(t, index.Upsert(ctx, entry("c-3", "d-2", []float32{1, 1}, now)))

	require.NoError(t, index.DeleteByDocument(ctx, "d-1"))

	n, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := index.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c-3", hits[0].ChunkID)
}

func TestVectorIndex_Delete(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex()
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, entry("c-1", "d-1", []float32{1, 0}, time.Now().UTC())))
	require.NoError(t, index.Delete(ctx, "c-1"))

	n, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVectorIndex_SearchEmptyIndex(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex()

	hits, err := index.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex()
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, entry("c-1", "d-1", []float32{1, 0, 0}, time.Now().UTC())))

	_, err := index.Search(ctx, []float32{1, 0}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestVectorIndex_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.VectorIndex().Upsert(ctx, entry("c-1", "d-1", []float32{1, 0}, time.Now().UTC())))
	require.NoError(t, store.DocumentStore().SaveDocument(ctx, &domain.Document{
		ID: "d-1", Content: "text", CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.VectorIndex().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = reopened.DocumentStore().GetDocument(ctx, "d-1")
	assert.NoError(t, err)
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	vec := []float32{0, 1, -1, 0.5, 3.1415927, -2.5e-8}
	assert.Equal(t, vec, bytesToFloat32Slice(float32SliceToBytes(vec)))
}
