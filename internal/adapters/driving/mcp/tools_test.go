package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quern-dev/quern/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns grounded answer with citations", func(t *testing.T) {
		assistant := &mockAssistant{
			answer: domain.GroundedAnswer{
				Text:          "The SLA is 99.95% monthly uptime.",
				Grounded:      true,
				CitedChunkIDs: []string{"chunk-aaaa1111"},
			},
			result: domain.RetrievalResult{
				Chunks: []domain.ScoredChunk{
					{
						Chunk: domain.Chunk{
							ID:      "chunk-aaaa1111",
							Content: "Uptime is 99.95% monthly.",
						},
						Similarity:  0.91,
						SourceLabel: "sla.md",
					},
				},
			},
		}

		server, err := NewServer(&Ports{Answer: assistant})
		require.NoError(t, err)

		input := AskInput{Question: "what is the SLA?", K: 3}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "The SLA is 99.95% monthly uptime.", output.Answer)
		assert.True(t, output.Grounded)
		require.Len(t, output.Citations, 1)
		assert.Equal(t, "chunk-aaaa1111", output.Citations[0].ChunkID)
		assert.Equal(t, "sla.md", output.Citations[0].SourceLabel)
		assert.Equal(t, 0.91, output.Citations[0].Similarity)
	})

	t.Run("ungrounded answer has no citations", func(t *testing.T) {
		assistant := &mockAssistant{
			answer: domain.GroundedAnswer{
				Text:     "I don't have anything in the knowledge base about that.",
				Grounded: false,
			},
		}

		server, err := NewServer(&Ports{Answer: assistant})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "anything?"})

		require.NoError(t, err)
		assert.False(t, output.Grounded)
		assert.Empty(t, output.Citations)
	})

	t.Run("citation without matching chunk keeps the ID", func(t *testing.T) {
		assistant := &mockAssistant{
			answer: domain.GroundedAnswer{
				Text:          "answer",
				Grounded:      true,
				CitedChunkIDs: []string{"chunk-gone"},
			},
		}

		server, err := NewServer(&Ports{Answer: assistant})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.NoError(t, err)
		require.Len(t, output.Citations, 1)
		assert.Equal(t, "chunk-gone", output.Citations[0].ChunkID)
		assert.Empty(t, output.Citations[0].SourceLabel)
	})

	t.Run("propagates service error", func(t *testing.T) {
		assistant := &mockAssistant{err: errors.New("llm unavailable")}

		server, err := NewServer(&Ports{Answer: assistant})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})
		assert.ErrorContains(t, err, "llm unavailable")
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests text and returns document ID", func(t *testing.T) {
		ingestor := &mockIngestor{}
		server, err := NewServer(&Ports{
			Answer: &mockAssistant{},
			Ingest: ingestor,
		})
		require.NoError(t, err)

		input := IngestInput{Text: "some facts", SourceLabel: "notes.md"}
		_, output, err := server.handleIngest(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "doc-new", output.DocumentID)
		assert.Equal(t, "some facts", ingestor.lastText)
		assert.Equal(t, "notes.md", ingestor.lastLabel)
	})

	t.Run("defaults source label to mcp", func(t *testing.T) {
		ingestor := &mockIngestor{}
		server, err := NewServer(&Ports{
			Answer: &mockAssistant{},
			Ingest: ingestor,
		})
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Text: "some facts"})

		require.NoError(t, err)
		assert.Equal(t, "mcp", ingestor.lastLabel)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Answer: &mockAssistant{},
			Ingest: &mockIngestor{},
		})
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{})
		assert.ErrorContains(t, err, "empty")
	})

	t.Run("propagates ingestion error", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Answer: &mockAssistant{},
			Ingest: &mockIngestor{err: errors.New("embedding failed")},
		})
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Text: "some facts"})
		assert.ErrorContains(t, err, "embedding failed")
	})
}

func TestServer_handleTeach(t *testing.T) {
	ctx := context.Background()

	t.Run("records the pair and returns document ID", func(t *testing.T) {
		feedback := &mockFeedback{}
		server, err := NewServer(&Ports{
			Answer:   &mockAssistant{},
			Feedback: feedback,
		})
		require.NoError(t, err)

		input := TeachInput{Question: "what is the SLA?", Answer: "99.95% monthly"}
		_, output, err := server.handleTeach(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "feedback-doc-1", output.DocumentID)
		assert.Equal(t, "what is the SLA?", feedback.lastQuery)
		assert.Equal(t, "99.95% monthly", feedback.lastAnswer)
	})

	t.Run("propagates recording error", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Answer:   &mockAssistant{},
			Feedback: &mockFeedback{err: errors.New("store unavailable")},
		})
		require.NoError(t, err)

		_, _, err = server.handleTeach(ctx, nil, TeachInput{Question: "q", Answer: "a"})
		assert.ErrorContains(t, err, "store unavailable")
	})
}
