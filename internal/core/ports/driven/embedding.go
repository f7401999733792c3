package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The embedding model's internal computation is opaque; the core only
// relies on the mapping being deterministic for a fixed model version.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//
// The core never talks to an implementation directly: services receive
// the gateway decorator, which adds batching, dimension verification,
// rate limiting and error translation on top of any implementation.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, order-preserving
	// and with output length equal to input length. Batching must not
	// change per-item results relative to single Embed calls.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed embedding vector size (e.g. 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
