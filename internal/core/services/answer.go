package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driven"
	"github.com/quern-dev/quern/internal/core/ports/driving"
	"github.com/quern-dev/quern/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.Assistant = (*AnswerService)(nil)

// systemInstruction mandates grounded answers: derive only from the
// supplied context, and state insufficiency rather than fabricate.
const systemInstruction = `You are a question answering assistant for a private document collection.
Answer using ONLY the context passages below. If the context does not contain
enough information to answer, say so plainly instead of guessing. When a
passage supports part of your answer, reference it by its chunk id, for
example [chunk 3f1c...].`

// ungroundedNotice is returned instead of a model call when no relevant
// context exists. It is a designed outcome, distinguishable from a
// grounded answer, never a fabricated-looking one.
const ungroundedNotice = "No relevant passages were found in the knowledge base for this question, so no grounded answer can be given."

// AnswerService assembles a grounded prompt from retrieved context and
// delegates to the external generation capability.
type AnswerService struct {
	llm         driven.LLMService
	retriever   driving.Retriever
	llmCfg      domain.LLMSettings
	settings    domain.PipelineSettings
	promptStore driven.PromptStore
}

// NewAnswerService creates a new answer service.
func NewAnswerService(
	llm driven.LLMService,
	retriever driving.Retriever,
	llmCfg domain.LLMSettings,
	settings domain.PipelineSettings,
) *AnswerService {
	return &AnswerService{
		llm:       llm,
		retriever: retriever,
		llmCfg:    llmCfg,
		settings:  settings,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the service uses hardcoded default prompts.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (s *AnswerService) loadPrompt(name, fallback string) string {
	if s.promptStore == nil {
		return fallback
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// Ask retrieves context for the question and generates a grounded answer.
func (s *AnswerService) Ask(ctx context.Context, question string, k int) (domain.GroundedAnswer, domain.RetrievalResult, error) {
	result, err := s.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return domain.GroundedAnswer{}, result, err
	}

	answer, err := s.Answer(ctx, question, result)
	return answer, result, err
}

// Answer generates a grounded answer from already-retrieved context.
// An empty context yields an explicitly ungrounded outcome without
// calling the model. Generation failures beyond the retry budget surface
// as domain.ErrGenerationUnavailable.
func (s *AnswerService) Answer(ctx context.Context, question string, result domain.RetrievalResult) (domain.GroundedAnswer, error) {
	logger.Section("Generation")

	if result.Empty() {
		logger.Info("Empty context, declining to answer")
		return domain.GroundedAnswer{
			Text:     s.loadPrompt(driven.PromptUngroundedNotice, ungroundedNotice),
			Grounded: false,
		}, nil
	}

	if s.llm == nil {
		return domain.GroundedAnswer{}, domain.ErrLLMUnavailable
	}

	prompt := s.buildPrompt(question, result)
	logger.Debug("Prompt: %d bytes, %d context chunks", len(prompt), len(result.Chunks))

	opts := driven.GenerateOptions{
		MaxTokens:   s.llmCfg.MaxTokens,
		Temperature: s.llmCfg.Temperature,
	}

	var text string
	err := withRetry(ctx, s.settings.MaxRetries, "generation", func(ctx context.Context) error {
		genCtx, cancel := context.WithTimeout(ctx, s.settings.GenerationTimeout)
		defer cancel()

		var genErr error
		text, genErr = s.llm.Generate(genCtx, prompt, opts)
		return genErr
	})
	if err != nil {
		return domain.GroundedAnswer{}, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	cited := extractCitations(text, result.ChunkIDs())
	logger.Info("Answer generated: %d bytes, %d citations", len(text), len(cited))

	return domain.GroundedAnswer{
		Text:          strings.TrimSpace(text),
		Grounded:      true,
		CitedChunkIDs: cited,
	}, nil
}

// buildPrompt concatenates the system instruction, the context chunks in
// descending-similarity order tagged with their chunk ids, and the user
// question verbatim.
func (s *AnswerService) buildPrompt(question string, result domain.RetrievalResult) string {
	var b strings.Builder
	b.WriteString(s.loadPrompt(driven.PromptSystemInstruction, systemInstruction))
	b.WriteString("\n\nContext:\n")

	for _, sc := range result.Chunks {
		fmt.Fprintf(&b, "\n[chunk %s]\n%s\n", sc.Chunk.ID, sc.Chunk.Content)
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

// extractCitations returns the context chunk ids the model explicitly
// referenced in its output. When the model does not self-cite, all
// supplied context ids are attached so the answer stays auditable
// against the retrieval result.
func extractCitations(text string, contextIDs []string) []string {
	var cited []string
	for _, id := range contextIDs {
		if strings.Contains(text, id) {
			cited = append(cited, id)
		}
	}
	if len(cited) == 0 {
		return contextIDs
	}
	return cited
}
