package domain

// ScoredChunk pairs a retrieved chunk with its similarity to the query.
type ScoredChunk struct {
	// Chunk is the retrieved chunk.
	Chunk Chunk

	// Similarity is the cosine similarity to the query embedding,
	// in [-1, 1], higher meaning more similar.
	Similarity float64

	// SourceLabel is the origin label of the parent document.
	SourceLabel string

	// Provenance tags whether the chunk came from corpus or feedback material.
	Provenance Provenance
}

// RetrievalResult is the ordered outcome of a retrieval query:
// at most k chunks, descending by similarity. Transient, produced per query.
type RetrievalResult struct {
	// Query is the original query text.
	Query string

	// Chunks are the retrieved chunks, best match first.
	Chunks []ScoredChunk
}

// Empty returns true when no relevant chunks were found.
// An empty result is a designed outcome, not an error.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// ChunkIDs returns the retrieved chunk identifiers in rank order.
func (r RetrievalResult) ChunkIDs() []string {
	ids := make([]string, len(r.Chunks))
	for i := range r.Chunks {
		ids[i] = r.Chunks[i].Chunk.ID
	}
	return ids
}

// GroundedAnswer is generated text whose claims are restricted to the
// supplied retrieved context, with traceable citations.
type GroundedAnswer struct {
	// Text is the generated answer.
	Text string

	// Grounded is false when no context was available and the answer
	// (or declining notice) is not backed by retrieved material.
	// Ungrounded answers must never be presented as grounded ones.
	Grounded bool

	// CitedChunkIDs are the context chunks the answer is auditable against.
	CitedChunkIDs []string
}
