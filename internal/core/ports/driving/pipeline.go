package driving

import (
	"context"

	"github.com/quern-dev/quern/internal/core/domain"
)

// Ingestor drives the ingestion path: chunk, embed, index.
type Ingestor interface {
	// IngestText creates a document from raw text and ingests it.
	// Returns the freshly allocated document ID.
	IngestText(ctx context.Context, text, sourceLabel string) (string, error)

	// Ingest chunks, embeds and indexes a fully-formed document.
	// Re-ingesting an existing document ID supersedes its prior chunk set.
	// Partial failures are reported as *domain.IngestionError; chunks
	// already written stay in place until a retried ingestion supersedes them.
	Ingest(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}

// Retriever drives the query path: embed the query, search the index,
// rank the results.
type Retriever interface {
	// Retrieve returns up to k chunks ranked by descending cosine
	// similarity to the query. Fewer than k results is a designed
	// outcome, never an error.
	Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error)
}

// Assistant produces grounded answers from retrieved context.
type Assistant interface {
	// Ask retrieves context for the question and generates a grounded
	// answer. With no relevant context the answer is explicitly
	// ungrounded, never fabricated-looking.
	Ask(ctx context.Context, question string, k int) (domain.GroundedAnswer, domain.RetrievalResult, error)

	// Answer generates a grounded answer from already-retrieved context.
	Answer(ctx context.Context, question string, result domain.RetrievalResult) (domain.GroundedAnswer, error)
}

// FeedbackRecorder folds validated answers back into the knowledge base.
type FeedbackRecorder interface {
	// Record packages the question/answer pair as a synthetic
	// feedback-provenance document and ingests it. Returns the new
	// document ID. Identical pairs produce distinct documents.
	Record(ctx context.Context, query, validatedAnswer string) (string, error)

	// RecordWithID is Record with a caller-supplied document ID, which
	// re-ingestion treats as a supersede of the prior record.
	RecordWithID(ctx context.Context, id, query, validatedAnswer string) (string, error)
}

// DocumentManager exposes corpus management to the driving adapters.
type DocumentManager interface {
	// List returns all documents, most recently ingested first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Chunks returns a document's chunks ordered by position.
	Chunks(ctx context.Context, id string) ([]domain.Chunk, error)

	// Delete removes a document, its chunks and its index entries.
	Delete(ctx context.Context, id string) error
}
