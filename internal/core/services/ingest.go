package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quern-dev/quern/internal/chunker"
	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driven"
	"github.com/quern-dev/quern/internal/core/ports/driving"
	"github.com/quern-dev/quern/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService drives the ingestion path: split the document into
// overlapping chunks, embed them through the gateway, and write one index
// entry per chunk to the vector index.
//
// Ingestions of the same document ID are serialized internally; the
// supersede-then-write sequence is not atomic and must never interleave.
// Ingestions of distinct IDs run fully concurrently.
type IngestService struct {
	splitter *chunker.Splitter
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	docStore driven.DocumentStore
	settings domain.PipelineSettings
	docLocks *keyedMutex
}

// NewIngestService creates a new ingestion service.
// The embedder is expected to be the gateway decorator so that batching,
// dimension checks and error translation are already in place.
func NewIngestService(
	splitter *chunker.Splitter,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	docStore driven.DocumentStore,
	settings domain.PipelineSettings,
) *IngestService {
	return &IngestService{
		splitter: splitter,
		embedder: embedder,
		index:    index,
		docStore: docStore,
		settings: settings,
		docLocks: newKeyedMutex(),
	}
}

// IngestText creates a document from raw text and ingests it.
func (s *IngestService) IngestText(ctx context.Context, text, sourceLabel string) (string, error) {
	doc := &domain.Document{
		ID:          uuid.New().String(),
		SourceLabel: sourceLabel,
		Provenance:  domain.ProvenanceOriginal,
		Content:     text,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := s.Ingest(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

// Ingest chunks, embeds and indexes a document. A pre-existing document
// with the same ID is superseded: its chunks and index entries are deleted
// before the new ones are written, so retried ingestion never duplicates.
//
// On partial failure the returned *domain.IngestionError carries the number
// of index entries written; those entries are not rolled back.
func (s *IngestService) Ingest(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: document ID required", domain.ErrInvalidInput)
	}
	if !doc.Provenance.IsValid() {
		return nil, fmt.Errorf("%w: unknown provenance %q", domain.ErrInvalidInput, doc.Provenance)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	s.docLocks.Lock(doc.ID)
	defer s.docLocks.Unlock(doc.ID)

	logger.Section("Ingestion")
	logger.Debug("Document %s (%s, %d bytes)", doc.ID, doc.SourceLabel, len(doc.Content))

	chunks := s.splitter.Split(doc)
	logger.Debug("Split into %d chunks (window=%d, overlap=%d)",
		len(chunks), s.splitter.Window(), s.splitter.Overlap())

	if err := s.supersede(ctx, doc.ID); err != nil {
		return nil, &domain.IngestionError{
			DocumentID: doc.ID, ChunksWritten: 0, ChunksTotal: len(chunks), Err: err,
		}
	}

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, &domain.IngestionError{
			DocumentID: doc.ID, ChunksWritten: 0, ChunksTotal: len(chunks),
			Err: fmt.Errorf("save document: %w", err),
		}
	}

	if len(chunks) == 0 {
		logger.Info("Document %s is empty, nothing indexed", doc.ID)
		return nil, nil
	}

	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return nil, &domain.IngestionError{
			DocumentID: doc.ID, ChunksWritten: 0, ChunksTotal: len(chunks),
			Err: fmt.Errorf("save chunks: %w", err),
		}
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	var embeddings [][]float32
	err := withRetry(ctx, s.settings.MaxRetries, "embedding", func(ctx context.Context) error {
		var embedErr error
		embeddings, embedErr = s.embedder.EmbedBatch(ctx, texts)
		return embedErr
	})
	if err != nil {
		return nil, &domain.IngestionError{
			DocumentID: doc.ID, ChunksWritten: 0, ChunksTotal: len(chunks), Err: err,
		}
	}

	written := 0
	for i, chunk := range chunks {
		entry := driven.IndexEntry{
			ChunkID:     chunk.ID,
			DocumentID:  doc.ID,
			Embedding:   embeddings[i],
			SourceLabel: doc.SourceLabel,
			Provenance:  doc.Provenance,
			IngestedAt:  doc.CreatedAt,
		}
		if err := s.index.Upsert(ctx, entry); err != nil {
			return nil, &domain.IngestionError{
				DocumentID: doc.ID, ChunksWritten: written, ChunksTotal: len(chunks),
				Err: fmt.Errorf("index write: %w", err),
			}
		}
		written++
	}

	logger.Info("Indexed document %s: %d chunks", doc.ID, written)
	return chunks, nil
}

// supersede removes the previous chunk set and index entries when the
// document ID has been ingested before.
func (s *IngestService) supersede(ctx context.Context, docID string) error {
	exists, err := s.docStore.HasDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("check existing document: %w", err)
	}
	if !exists {
		return nil
	}

	logger.Debug("Superseding existing document %s", docID)
	if err := s.index.DeleteByDocument(ctx, docID); err != nil {
		return fmt.Errorf("delete index entries: %w", err)
	}
	if err := s.docStore.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
