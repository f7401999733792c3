package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driven"
)

func entry(chunkID, docID string, vec []float32) driven.IndexEntry {
	return driven.IndexEntry{
		ChunkID:    chunkID,
		DocumentID: docID,
		Embedding:  vec,
		Provenance: domain.ProvenanceOriginal,
		IngestedAt: time.Now().UTC(),
	}
}

func TestVectorIndex_SearchRanksByCosine(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, entry("c-x", "d-1", []float32{1, 0})))
	require.NoError(t, idx.Upsert(ctx, entry("c-y", "d-1", []float32{0, 1})))
	require.NoError(t, idx.Upsert(ctx, entry("c-mid", "d-1", []float32{1, 1})))

	hits, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "c-x", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "c-mid", hits[1].ChunkID)
	assert.Equal(t, "c-y", hits[2].ChunkID)
	assert.InDelta(t, 0.0, hits[2].Similarity, 1e-9)
}

func TestVectorIndex_SearchBreaksTiesByRecency(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	now := time.Now().UTC()
	vec := []float32{0.5, 0.5}

	older := entry("c-old", "d-old", vec)
	older.IngestedAt = now.Add(-time.Hour)
	newer := entry("c-new", "d-new", vec)
	newer.IngestedAt = now
	newer.Provenance = domain.ProvenanceFeedback
	require.NoError(t, idx.Upsert(ctx, older))
	require.NoError(t, idx.Upsert(ctx, newer))

	hits, err := idx.Search(ctx, vec, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c-new", hits[0].ChunkID)
	assert.Equal(t, domain.ProvenanceFeedback, hits[0].Provenance)
}

func TestVectorIndex_SearchKLargerThanIndex(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, entry("c-1", "d-1", []float32{1, 0})))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestVectorIndex_SearchEmptyIndex(t *testing.T) {
	idx := NewVectorIndex()

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorIndex_UpsertReplaces(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, entry("c-1", "d-1", []float32{1, 0})))
	require.NoError(t, idx.Upsert(ctx, entry("c-1", "d-1", []float32{0, 1})))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := idx.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
}

func TestVectorIndex_DeleteByDocument(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, entry("c-1", "d-1", []float32{1, 0})))
	require.NoError(t, idx.Upsert(ctx, entry("c-2", "d-1", []float32{0, 1})))
	require.NoError(t, idx.Upsert(ctx, entry("c-3", "d-2", []float32{1, 1})))

	require.NoError(t, idx.DeleteByDocument(ctx, "d-1"))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := idx.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c-3", hits[0].ChunkID)
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, entry("c-1", "d-1", []float32{1, 0, 0})))

	_, err := idx.Search(ctx, []float32{1, 0}, 1)
	assert.Error(t, err)
}
