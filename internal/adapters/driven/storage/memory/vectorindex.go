package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/quern-dev/quern/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// similarityEpsilon bounds the similarity difference treated as an exact
// tie. Tied entries rank by ingestion recency, newest first, so the
// tie-break applies before the result is cut to k.
const similarityEpsilon = 1e-9

// VectorIndex is an in-memory brute-force implementation of
// driven.VectorIndex using exact cosine similarity.
type VectorIndex struct {
	mu      sync.RWMutex
	entries map[string]driven.IndexEntry
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{entries: make(map[string]driven.IndexEntry)}
}

// Upsert inserts or replaces the entry for a chunk.
func (v *VectorIndex) Upsert(_ context.Context, entry driven.IndexEntry) error {
	if entry.ChunkID == "" {
		return fmt.Errorf("memory: entry chunk ID required")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	entry.Embedding = append([]float32(nil), entry.Embedding...)
	v.entries[entry.ChunkID] = entry
	return nil
}

// Delete removes the entry for a chunk.
func (v *VectorIndex) Delete(_ context.Context, chunkID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.entries, chunkID)
	return nil
}

// DeleteByDocument removes all entries belonging to a document.
func (v *VectorIndex) DeleteByDocument(_ context.Context, documentID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, entry := range v.entries {
		if entry.DocumentID == documentID {
			delete(v.entries, id)
		}
	}
	return nil
}

// Search returns the k entries with highest cosine similarity to the
// query vector, descending. Holding fewer than k entries is not an error.
func (v *VectorIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(v.entries))
	for _, entry := range v.entries {
		sim, err := cosineSimilarity(query, entry.Embedding)
		if err != nil {
			return nil, err
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:     entry.ChunkID,
			DocumentID:  entry.DocumentID,
			Similarity:  sim,
			SourceLabel: entry.SourceLabel,
			Provenance:  entry.Provenance,
			IngestedAt:  entry.IngestedAt,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		diff := hits[i].Similarity - hits[j].Similarity
		if diff > similarityEpsilon {
			return true
		}
		if diff < -similarityEpsilon {
			return false
		}
		return hits[i].IngestedAt.After(hits[j].IngestedAt)
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count reports the number of entries held by the index.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries), nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}

// cosineSimilarity computes the normalized dot product of two vectors,
// in [-1, 1]. Dimension mismatches and zero-magnitude vectors are errors.
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("memory: dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("memory: empty vectors")
	}

	var dot, na, nb float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na += va * va
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 0, fmt.Errorf("memory: zero-magnitude vector")
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
