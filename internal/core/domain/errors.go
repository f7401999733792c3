package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates invalid pipeline configuration
	// (window, overlap fraction, retrieval k). Fatal at startup.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingUnavailable indicates the embedding capability is
	// unreachable or timed out. Never silently downgraded.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingDimensionMismatch indicates returned vectors do not
	// match the configured fixed dimension.
	ErrEmbeddingDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRetrievalUnavailable indicates the vector index or the embedding
	// path failed during a retrieval query. The caller decides whether to
	// answer without grounding or to surface the failure.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationUnavailable indicates the generation capability errored
	// or timed out beyond the retry budget.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrLLMUnavailable indicates no LLM service is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// IngestionError reports partial ingestion progress when embedding or an
// index write fails partway through a document's chunk list. Chunks already
// written are NOT rolled back; re-ingesting the same document ID supersedes
// them cleanly.
type IngestionError struct {
	// DocumentID is the document whose ingestion failed.
	DocumentID string

	// ChunksWritten is the number of index entries written before the failure.
	ChunksWritten int

	// ChunksTotal is the number of chunks the document split into.
	ChunksTotal int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed for document %s (%d/%d chunks written): %v",
		e.DocumentID, e.ChunksWritten, e.ChunksTotal, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *IngestionError) Unwrap() error {
	return e.Err
}
