package driven

import (
	"context"
	"time"

	"github.com/quern-dev/quern/internal/core/domain"
)

// VectorIndex provides persisted similarity search over chunk embeddings.
// The storage engine's internals are opaque; the core relies on exactly
// one entry per chunk, per-document write isolation and snapshot reads.
// Entries survive process restarts.
type VectorIndex interface {
	// Upsert inserts or replaces the entry for a chunk.
	Upsert(ctx context.Context, entry IndexEntry) error

	// Delete removes the entry for a chunk.
	Delete(ctx context.Context, chunkID string) error

	// DeleteByDocument removes all entries belonging to a document.
	// Used by the supersede step of re-ingestion.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Search returns the k entries with highest cosine similarity to the
	// query vector, descending. Fewer than k entries in the index is not
	// an error; all entries are returned.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Count reports the number of entries held by the index.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// IndexEntry binds a chunk's embedding to its retrieval metadata.
type IndexEntry struct {
	// ChunkID identifies the chunk. Exactly one entry exists per chunk.
	ChunkID string

	// DocumentID identifies the parent document.
	DocumentID string

	// Embedding is the chunk's fixed-dimension vector.
	Embedding []float32

	// SourceLabel is the parent document's origin label.
	SourceLabel string

	// Provenance is inherited from the parent document.
	Provenance domain.Provenance

	// IngestedAt is the entry's ingestion timestamp, used for
	// recency tie-breaking at query time.
	IngestedAt time.Time
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the matched chunk's parent document.
	DocumentID string

	// Similarity is the cosine similarity score in [-1, 1].
	Similarity float64

	// SourceLabel is the entry's origin label.
	SourceLabel string

	// Provenance is the entry's provenance tag.
	Provenance domain.Provenance

	// IngestedAt is the entry's ingestion timestamp.
	IngestedAt time.Time
}
