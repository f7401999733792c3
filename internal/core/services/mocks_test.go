package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockEmbedder implements driven.EmbeddingService with a deterministic
// hash-free embedding: each text maps to a fixed vector from the table,
// or to a default direction when absent.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	dims     int
	embedErr error
	failures int // transient errors returned before succeeding
	calls    int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{
		vectors: make(map[string][]float32),
		dims:    dims,
	}
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	// Default direction keeps unknown texts embeddable.
	v := make([]float32, m.dims)
	v[0] = 1
	return v
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.failures > 0 {
		m.failures--
		return nil, fmt.Errorf("%w: mock transient failure", domain.ErrEmbeddingUnavailable)
	}
	m.calls++

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// failingVectorIndex wraps a driven.VectorIndex and fails Upsert after a
// fixed number of successful writes.
type failingVectorIndex struct {
	driven.VectorIndex
	mu        sync.Mutex
	succeed   int
	written   int
	searchErr error
}

func (f *failingVectorIndex) Upsert(ctx context.Context, entry driven.IndexEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.written >= f.succeed {
		return fmt.Errorf("index write refused")
	}
	f.written++
	return f.VectorIndex.Upsert(ctx, entry)
}

func (f *failingVectorIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.VectorIndex.Search(ctx, query, k)
}

// mockLLM implements driven.LLMService returning a canned response.
type mockLLM struct {
	mu       sync.Mutex
	response string
	genErr   error
	failures int // errors returned before succeeding
	prompts  []string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.failures > 0 {
		m.failures--
		return "", fmt.Errorf("mock transient failure")
	}
	if m.genErr != nil {
		return "", m.genErr
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockRetriever implements driving.Retriever with a fixed result.
type mockRetriever struct {
	result domain.RetrievalResult
	err    error
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, _ int) (domain.RetrievalResult, error) {
	if m.err != nil {
		return domain.RetrievalResult{Query: query}, m.err
	}
	result := m.result
	result.Query = query
	return result, nil
}

// containsAll reports whether s contains every needle, in any order.
func containsAll(s string, needles ...string) bool {
	for _, n := range needles {
		if !strings.Contains(s, n) {
			return false
		}
	}
	return true
}
