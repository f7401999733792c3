package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driven"
	"github.com/quern-dev/quern/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkWindow       = "pipeline.chunk_window"
	keyChunkOverlap      = "pipeline.chunk_overlap_fraction"
	keyRetrievalK        = "pipeline.retrieval_k"
	keyEmbeddingTimeout  = "pipeline.embedding_timeout_seconds"
	keyGenerationTimeout = "pipeline.generation_timeout_seconds"
	keyMaxRetries        = "pipeline.max_retries"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedDimensions   = "embedding.dimensions"
	keyEmbedAPIKey       = "embedding.api_key"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMTemperature    = "llm.temperature"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyLLMAPIKey         = "llm.api_key"
)

// SettingsService manages application settings backed by a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings, falling back to defaults
// for keys absent from the config store.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Pipeline: domain.PipelineSettings{
			ChunkWindow:          s.getInt(keyChunkWindow, defaults.Pipeline.ChunkWindow),
			ChunkOverlapFraction: s.getFloat(keyChunkOverlap, defaults.Pipeline.ChunkOverlapFraction),
			RetrievalK:           s.getInt(keyRetrievalK, defaults.Pipeline.RetrievalK),
			EmbeddingTimeout:     s.getSeconds(keyEmbeddingTimeout, defaults.Pipeline.EmbeddingTimeout),
			GenerationTimeout:    s.getSeconds(keyGenerationTimeout, defaults.Pipeline.GenerationTimeout),
			MaxRetries:           s.getInt(keyMaxRetries, defaults.Pipeline.MaxRetries),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			Dimensions: s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:       s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save pipeline settings
	if err := s.configStore.Set(keyChunkWindow, settings.Pipeline.ChunkWindow); err != nil {
		return fmt.Errorf("save chunk window: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, settings.Pipeline.ChunkOverlapFraction); err != nil {
		return fmt.Errorf("save chunk overlap: %w", err)
	}
	if err := s.configStore.Set(keyRetrievalK, settings.Pipeline.RetrievalK); err != nil {
		return fmt.Errorf("save retrieval k: %w", err)
	}
	if err := s.configStore.Set(keyEmbeddingTimeout, int(settings.Pipeline.EmbeddingTimeout/time.Second)); err != nil {
		return fmt.Errorf("save embedding timeout: %w", err)
	}
	if err := s.configStore.Set(keyGenerationTimeout, int(settings.Pipeline.GenerationTimeout/time.Second)); err != nil {
		return fmt.Errorf("save generation timeout: %w", err)
	}
	if err := s.configStore.Set(keyMaxRetries, settings.Pipeline.MaxRetries); err != nil {
		return fmt.Errorf("save max retries: %w", err)
	}

	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if err := s.configStore.Set(keyEmbedDimensions, settings.Embedding.Dimensions); err != nil {
		return fmt.Errorf("save embedding dimensions: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	// Save LLM settings
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if err := s.configStore.Set(keyLLMTemperature, settings.LLM.Temperature); err != nil {
		return fmt.Errorf("save llm temperature: %w", err)
	}
	if err := s.configStore.Set(keyLLMMaxTokens, settings.LLM.MaxTokens); err != nil {
		return fmt.Errorf("save llm max_tokens: %w", err)
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	supported := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Dimensions follow the model where known
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetPipelineOption updates a single pipeline setting by key.
// Accepted keys: chunk_window, chunk_overlap_fraction, retrieval_k,
// embedding_timeout_seconds, generation_timeout_seconds, max_retries.
func (s *SettingsService) SetPipelineOption(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	switch key {
	case "chunk_window":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("chunk_window must be an integer: %w", err)
		}
		settings.Pipeline.ChunkWindow = n
	case "chunk_overlap_fraction":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("chunk_overlap_fraction must be a number: %w", err)
		}
		settings.Pipeline.ChunkOverlapFraction = f
	case "retrieval_k":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("retrieval_k must be an integer: %w", err)
		}
		settings.Pipeline.RetrievalK = n
	case "embedding_timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("embedding_timeout_seconds must be an integer: %w", err)
		}
		settings.Pipeline.EmbeddingTimeout = time.Duration(n) * time.Second
	case "generation_timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("generation_timeout_seconds must be an integer: %w", err)
		}
		settings.Pipeline.GenerationTimeout = time.Duration(n) * time.Second
	case "max_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_retries must be an integer: %w", err)
		}
		settings.Pipeline.MaxRetries = n
	default:
		return fmt.Errorf("unknown pipeline setting: %s", key)
	}

	if err := settings.Pipeline.Validate(); err != nil {
		return err
	}

	return s.Save(settings)
}

// Validate checks that current settings form a usable configuration.
// Pipeline violations are fatal; unconfigured providers are reported so
// the caller can point at the wizard.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Pipeline.Validate(); err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider is not configured")
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider is not configured")
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return fmt.Errorf("AI validator not configured")
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return fmt.Errorf("AI validator not configured")
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Config store accessors with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetFloat(key)
	}
	return defaultVal
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, ok := s.configStore.Get(key); ok {
		return time.Duration(s.configStore.GetInt(key)) * time.Second
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	if v := s.configStore.GetString(key); v != "" {
		return domain.AIProvider(v)
	}
	return defaultVal
}
