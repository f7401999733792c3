package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// PipelineSettings holds the retrieval-augmentation pipeline configuration.
// The defaults mirror the product defaults, not protocol requirements;
// all values stay configurable.
type PipelineSettings struct {
	// ChunkWindow is the maximum chunk length in characters.
	ChunkWindow int

	// ChunkOverlapFraction is the overlap as a fraction of the window,
	// in [0, 1). The overlap length is round(window * fraction).
	ChunkOverlapFraction float64

	// RetrievalK is the number of chunks retrieved per query (>= 1).
	RetrievalK int

	// EmbeddingTimeout bounds a single embedding call.
	EmbeddingTimeout time.Duration

	// GenerationTimeout bounds a single generation call.
	GenerationTimeout time.Duration

	// MaxRetries is the automatic retry budget for transient
	// external-capability failures (>= 0).
	MaxRetries int
}

// DefaultPipelineSettings returns the product defaults.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		ChunkWindow:          800,
		ChunkOverlapFraction: 0.125,
		RetrievalK:           3,
		EmbeddingTimeout:     30 * time.Second,
		GenerationTimeout:    120 * time.Second,
		MaxRetries:           2,
	}
}

// Validate checks the settings and reports the first violation,
// wrapped in ErrInvalidConfig. Called once at startup; violations are fatal.
func (s PipelineSettings) Validate() error {
	if s.ChunkWindow <= 0 {
		return fmt.Errorf("%w: chunk window must be positive, got %d", ErrInvalidConfig, s.ChunkWindow)
	}
	if s.ChunkOverlapFraction < 0 || s.ChunkOverlapFraction >= 1 {
		return fmt.Errorf("%w: chunk overlap fraction must be in [0, 1), got %g", ErrInvalidConfig, s.ChunkOverlapFraction)
	}
	if s.Overlap() >= s.ChunkWindow {
		return fmt.Errorf("%w: overlap %d must be smaller than window %d", ErrInvalidConfig, s.Overlap(), s.ChunkWindow)
	}
	if s.RetrievalK < 1 {
		return fmt.Errorf("%w: retrieval k must be >= 1, got %d", ErrInvalidConfig, s.RetrievalK)
	}
	if s.EmbeddingTimeout <= 0 {
		return fmt.Errorf("%w: embedding timeout must be positive", ErrInvalidConfig)
	}
	if s.GenerationTimeout <= 0 {
		return fmt.Errorf("%w: generation timeout must be positive", ErrInvalidConfig)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must be >= 0, got %d", ErrInvalidConfig, s.MaxRetries)
	}
	return nil
}

// Overlap returns the overlap length in characters.
func (s PipelineSettings) Overlap() int {
	return int(float64(s.ChunkWindow)*s.ChunkOverlapFraction + 0.5)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider selects the embedding backend.
	Provider AIProvider

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model is the embedding model name.
	Model string

	// Dimensions is the fixed embedding vector size.
	Dimensions int

	// APIKey authenticates against cloud providers.
	APIKey string
}

// IsConfigured returns true when a recognised provider has been selected.
func (s *EmbeddingSettings) IsConfigured() bool {
	return s != nil && s.Provider.IsValid()
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider selects the generation backend.
	Provider AIProvider

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model is the generation model name.
	Model string

	// Temperature controls sampling randomness.
	Temperature float64

	// MaxTokens caps generated output length.
	MaxTokens int

	// APIKey authenticates against cloud providers.
	APIKey string
}

// IsConfigured returns true when a recognised provider has been selected.
func (s *LLMSettings) IsConfigured() bool {
	return s != nil && s.Provider.IsValid()
}

// AppSettings aggregates all application configuration.
type AppSettings struct {
	Pipeline  PipelineSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
}

// DefaultAppSettings returns the default application settings.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Pipeline: DefaultPipelineSettings(),
		// Embedding is left unconfigured - user must set up via settings wizard
		Embedding: EmbeddingSettings{},
		// LLM is left unconfigured - user must set up via settings wizard
		LLM: LLMSettings{
			Temperature: 0.3,
		},
	}
}

// AllEmbeddingProviders returns providers that support embedding operations.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
