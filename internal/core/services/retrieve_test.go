package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quern-dev/quern/internal/adapters/driven/storage/memory"
	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driven"
)

// seedIndex writes a chunk and its index entry directly into the fakes.
func seedIndex(
	t *testing.T,
	store *memory.DocumentStore,
	index *memory.VectorIndex,
	chunkID, docID string,
	vec []float32,
	ingestedAt time.Time,
	provenance domain.Provenance,
) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID: docID, Provenance: provenance, CreatedAt: ingestedAt,
	}))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: chunkID, DocumentID: docID, Content: "content of " + chunkID},
	}))
	require.NoError(t, index.Upsert(ctx, driven.IndexEntry{
		ChunkID:    chunkID,
		DocumentID: docID,
		Embedding:  vec,
		Provenance: provenance,
		IngestedAt: ingestedAt,
	}))
}

func TestRetrievalService_DescendingSimilarity(t *testing.T) {
	store := memory.NewDocumentStore()
	index := memory.NewVectorIndex()
	now := time.Now().UTC()

	seedIndex(t, store, index, "c-far", "d-1", []float32{0, 1, 0, 0}, now, domain.ProvenanceOriginal)
	seedIndex(t, store, index, "c-near", "d-2", []float32{1, 0, 0, 0}, now, domain.ProvenanceOriginal)
	seedIndex(t, store, index, "c-mid", "d-3", []float32{1, 1, 0, 0}, now, domain.ProvenanceOriginal)

	embedder := newMockEmbedder(4)
	embedder.vectors["query"] = []float32{1, 0, 0, 0}
	svc := NewRetrievalService(embedder, index, store, testSettings())

	result, err := svc.Retrieve(context.Background(), "query", 3)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 3)

	assert.Equal(t, "c-near", result.Chunks[0].Chunk.ID)
	assert.Equal(t, "c-mid", result.Chunks[1].Chunk.ID)
	assert.Equal(t, "c-far", result.Chunks[2].Chunk.ID)

	for i := 0; i < len(result.Chunks)-1; i++ {
		assert.GreaterOrEqual(t, result.Chunks[i].Similarity, result.Chunks[i+1].Similarity)
	}
}

func TestRetrievalService_TieBrokenByRecency(t *testing.T) {
	store := memory.NewDocumentStore()
	index := memory.NewVectorIndex()
	base := time.Now().UTC()

	// Identical vectors: exact similarity tie. The fresher feedback entry
	// must surface first.
	seedIndex(t, store, index, "c-old", "d-old", []float32{1, 0, 0, 0}, base.Add(-time.Hour), domain.ProvenanceOriginal)
	seedIndex(t, store, index, "c-new", "d-new", []float32{1, 0, 0, 0}, base, domain.ProvenanceFeedback)

	embedder := newMockEmbedder(4)
	embedder.vectors["query"] = []float32{1, 0, 0, 0}
	svc := NewRetrievalService(embedder, index, store, testSettings())

	result, err := svc.Retrieve(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 2)

	assert.Equal(t, "c-new", result.Chunks[0].Chunk.ID)
	assert.Equal(t, domain.ProvenanceFeedback, result.Chunks[0].Provenance)
	assert.Equal(t, "c-old", result.Chunks[1].Chunk.ID)
}

func TestRetrievalService_KLargerThanIndex(t *testing.T) {
	store := memory.NewDocumentStore()
	index := memory.NewVectorIndex()
	seedIndex(t, store, index, "c-1", "d-1", []float32{1, 0, 0, 0}, time.Now().UTC(), domain.ProvenanceOriginal)

	svc := NewRetrievalService(newMockEmbedder(4), index, store, testSettings())

	result, err := svc.Retrieve(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 1)
}

func TestRetrievalService_EmptyIndex(t *testing.T) {
	svc := NewRetrievalService(newMockEmbedder(4), memory.NewVectorIndex(), memory.NewDocumentStore(), testSettings())

	result, err := svc.Retrieve(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestRetrievalService_DefaultK(t *testing.T) {
	store := memory.NewDocumentStore()
	index := memory.NewVectorIndex()
	now := time.Now().UTC()
	for i, id := range []string{"c-1", "c-2", "c-3", "c-4", "c-5"} {
		vec := []float32{1, float32(i) * 0.1, 0, 0}
		seedIndex(t, store, index, id, "d-"+id, vec, now, domain.ProvenanceOriginal)
	}

	settings := testSettings()
	settings.RetrievalK = 3
	svc := NewRetrievalService(newMockEmbedder(4), index, store, settings)

	result, err := svc.Retrieve(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 3, "k <= 0 falls back to the configured retrieval k")
}

func TestRetrievalService_EmbeddingFailure(t *testing.T) {
	embedder := newMockEmbedder(4)
	embedder.embedErr = domain.ErrEmbeddingUnavailable
	svc := NewRetrievalService(embedder, memory.NewVectorIndex(), memory.NewDocumentStore(), testSettings())

	_, err := svc.Retrieve(context.Background(), "query", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestRetrievalService_IndexFailure(t *testing.T) {
	index := &failingVectorIndex{
		VectorIndex: memory.NewVectorIndex(),
		searchErr:   assert.AnError,
	}
	svc := NewRetrievalService(newMockEmbedder(4), index, memory.NewDocumentStore(), testSettings())

	_, err := svc.Retrieve(context.Background(), "query", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestRetrievalService_SkipsVanishedChunks(t *testing.T) {
	store := memory.NewDocumentStore()
	index := memory.NewVectorIndex()
	now := time.Now().UTC()

	seedIndex(t, store, index, "c-1", "d-1", []float32{1, 0, 0, 0}, now, domain.ProvenanceOriginal)

	// Entry present in the index but chunk already gone from the store:
	// an in-flight supersede is allowed to show through.
	require.NoError(t, index.Upsert(context.Background(), driven.IndexEntry{
		ChunkID:    "c-ghost",
		DocumentID: "d-ghost",
		Embedding:  []float32{1, 0, 0, 0},
		IngestedAt: now,
	}))

	svc := NewRetrievalService(newMockEmbedder(4), index, store, testSettings())

	result, err := svc.Retrieve(context.Background(), "query", 5)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "c-1", result.Chunks[0].Chunk.ID)
}
