package driven

import "github.com/quern-dev/quern/internal/core/domain"

// AIConfigValidator checks provider configurations by contacting the
// provider. The settings wizard uses it to reject bad credentials at
// configuration time instead of at first query.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding provider configuration.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM validates an LLM provider configuration.
	ValidateLLM(config *domain.LLMSettings) error
}
