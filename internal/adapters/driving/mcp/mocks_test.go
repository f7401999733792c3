package mcp

import (
	"context"

	"github.com/quern-dev/quern/internal/core/domain"
)

// mockAssistant is a mock implementation of driving.Assistant.
type mockAssistant struct {
	answer domain.GroundedAnswer
	result domain.RetrievalResult
	err    error
}

func (m *mockAssistant) Ask(
	_ context.Context,
	question string,
	_ int,
) (domain.GroundedAnswer, domain.RetrievalResult, error) {
	if m.err != nil {
		return domain.GroundedAnswer{}, domain.RetrievalResult{}, m.err
	}
	result := m.result
	result.Query = question
	return m.answer, result, nil
}

func (m *mockAssistant) Answer(
	_ context.Context,
	_ string,
	_ domain.RetrievalResult,
) (domain.GroundedAnswer, error) {
	return m.answer, m.err
}

// mockIngestor is a mock implementation of driving.Ingestor.
type mockIngestor struct {
	lastText  string
	lastLabel string
	err       error
}

func (m *mockIngestor) IngestText(_ context.Context, text, sourceLabel string) (string, error) {
	m.lastText = text
	m.lastLabel = sourceLabel
	if m.err != nil {
		return "", m.err
	}
	return "doc-new", nil
}

func (m *mockIngestor) Ingest(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Chunk{{ID: "chunk-1", DocumentID: doc.ID}}, nil
}

// mockFeedback is a mock implementation of driving.FeedbackRecorder.
type mockFeedback struct {
	lastQuery  string
	lastAnswer string
	err        error
}

func (m *mockFeedback) Record(_ context.Context, query, validatedAnswer string) (string, error) {
	m.lastQuery = query
	m.lastAnswer = validatedAnswer
	if m.err != nil {
		return "", m.err
	}
	return "feedback-doc-1", nil
}

func (m *mockFeedback) RecordWithID(
	_ context.Context,
	id, query, validatedAnswer string,
) (string, error) {
	m.lastQuery = query
	m.lastAnswer = validatedAnswer
	if m.err != nil {
		return "", m.err
	}
	return id, nil
}

// mockDocumentManager is a mock implementation of driving.DocumentManager.
type mockDocumentManager struct {
	docs   []domain.Document
	doc    *domain.Document
	chunks []domain.Chunk
	err    error
}

func (m *mockDocumentManager) List(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocumentManager) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.doc, m.err
}

func (m *mockDocumentManager) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentManager) Delete(_ context.Context, _ string) error {
	return m.err
}
