package domain

import "time"

// Provenance distinguishes originally-ingested material from
// feedback-derived material.
type Provenance string

// Available provenance tags.
const (
	// ProvenanceOriginal marks documents ingested from the source corpus.
	ProvenanceOriginal Provenance = "original"

	// ProvenanceFeedback marks documents created by the feedback loop
	// from user-validated answers.
	ProvenanceFeedback Provenance = "feedback"
)

// IsValid returns true if the provenance tag is recognised.
func (p Provenance) IsValid() bool {
	switch p {
	case ProvenanceOriginal, ProvenanceFeedback:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p Provenance) String() string {
	return string(p)
}

// Document is the raw ingested unit of knowledge.
// It is immutable once created; re-ingesting the same ID supersedes
// (deletes and rewrites) the previous chunk set rather than mutating it.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceLabel is a human-readable origin label (file name, "feedback", etc).
	SourceLabel string

	// Provenance tags whether the document came from the original corpus
	// or from the self-learning feedback loop.
	Provenance Provenance

	// Content is the full document text before chunking.
	Content string

	// CreatedAt is the ingestion timestamp.
	CreatedAt time.Time
}

// Chunk is a contiguous substring of a Document and the unit of
// indexing and retrieval. Consecutive chunks of the same document share
// a byte-identical overlap region at their boundary.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text payload of this chunk.
	Content string

	// Position is the sequence index within the parent document.
	Position int

	// Start is the byte offset of the chunk within the parent text.
	Start int

	// End is the byte offset one past the last byte of the chunk.
	End int
}

// FeedbackRecord is a validated question/answer pair awaiting ingestion.
// It is serialized into a synthetic Document and chunked, embedded and
// indexed identically to corpus material.
type FeedbackRecord struct {
	// Query is the original question text.
	Query string

	// Answer is the user-validated answer text.
	Answer string

	// CreatedAt is when the feedback was recorded.
	CreatedAt time.Time
}

// Serialize renders the record in the fixed form used for the synthetic
// document body, so the pair can itself be retrieved like any passage.
func (r FeedbackRecord) Serialize() string {
	return "Question: " + r.Query + "\nVerified Answer: " + r.Answer
}
