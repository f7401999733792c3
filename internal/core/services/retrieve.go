package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driven"
	"github.com/quern-dev/quern/internal/core/ports/driving"
	"github.com/quern-dev/quern/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// similarityEpsilon is the floating-point tolerance within which two
// similarity scores count as a tie.
const similarityEpsilon = 1e-9

// RetrievalService drives the query path: embed the query, search the
// vector index, hydrate and rank the matching chunks.
type RetrievalService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	docStore driven.DocumentStore
	settings domain.PipelineSettings
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	docStore driven.DocumentStore,
	settings domain.PipelineSettings,
) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		index:    index,
		docStore: docStore,
		settings: settings,
	}
}

// Retrieve returns up to k chunks ranked by descending cosine similarity
// to the query. Exact ties are broken by ingestion recency, most recent
// first, so freshly-learned feedback entries surface preferentially.
// An index holding fewer than k entries yields a short result, not an error.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	result := domain.RetrievalResult{Query: query}

	if k <= 0 {
		k = s.settings.RetrievalK
	}

	logger.Section("Retrieval")
	logger.Debug("Query: %q, k=%d", query, k)

	// Single-item batch through the gateway keeps the query path on the
	// same code path as ingestion.
	var vectors [][]float32
	err := withRetry(ctx, s.settings.MaxRetries, "query embedding", func(ctx context.Context) error {
		var embedErr error
		vectors, embedErr = s.embedder.EmbedBatch(ctx, []string{query})
		return embedErr
	})
	if err != nil {
		return result, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}

	var hits []driven.VectorHit
	err = withRetry(ctx, s.settings.MaxRetries, "index search", func(ctx context.Context) error {
		var searchErr error
		hits, searchErr = s.index.Search(ctx, vectors[0], k)
		return searchErr
	})
	if err != nil {
		return result, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}

	logger.Debug("Index returned %d hits", len(hits))

	sortHits(hits)

	result.Chunks = make([]domain.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.docStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// The chunk was superseded between search and hydration.
				// Acceptable staleness under read-uncommitted semantics.
				logger.Debug("Chunk %s vanished during hydration, skipping", hit.ChunkID)
				continue
			}
			return result, fmt.Errorf("%w: hydrate chunk %s: %w", domain.ErrRetrievalUnavailable, hit.ChunkID, err)
		}

		result.Chunks = append(result.Chunks, domain.ScoredChunk{
			Chunk:       *chunk,
			Similarity:  hit.Similarity,
			SourceLabel: hit.SourceLabel,
			Provenance:  hit.Provenance,
		})
	}

	logger.Info("Retrieved %d chunks", len(result.Chunks))
	return result, nil
}

// sortHits orders hits by descending similarity; scores within
// similarityEpsilon of each other are ordered by ingestion recency,
// most recent first.
func sortHits(hits []driven.VectorHit) {
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
}
