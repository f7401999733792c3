package cli

import (
	"context"
	"time"

	"github.com/quern-dev/quern/internal/core/domain"
)

// Fake driving-port implementations with canned data.

type fakeIngestor struct {
	lastText  string
	lastLabel string
	docIDs    []string
	err       error
}

func (f *fakeIngestor) IngestText(_ context.Context, text, sourceLabel string) (string, error) {
	f.lastText = text
	f.lastLabel = sourceLabel
	if f.err != nil {
		return "", f.err
	}
	f.docIDs = append(f.docIDs, "doc-new")
	return "doc-new", nil
}

func (f *fakeIngestor) Ingest(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	f.lastText = doc.Content
	f.lastLabel = doc.SourceLabel
	if f.err != nil {
		return nil, f.err
	}
	f.docIDs = append(f.docIDs, doc.ID)
	return []domain.Chunk{{ID: "chunk-1", DocumentID: doc.ID}}, nil
}

type fakeRetriever struct {
	result domain.RetrievalResult
	err    error
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, _ int) (domain.RetrievalResult, error) {
	if f.err != nil {
		return domain.RetrievalResult{}, f.err
	}
	result := f.result
	result.Query = query
	return result, nil
}

type fakeAssistant struct {
	answer domain.GroundedAnswer
	result domain.RetrievalResult
	err    error
}

func (f *fakeAssistant) Ask(_ context.Context, question string, _ int) (domain.GroundedAnswer, domain.RetrievalResult, error) {
	if f.err != nil {
		return domain.GroundedAnswer{}, domain.RetrievalResult{}, f.err
	}
	result := f.result
	result.Query = question
	return f.answer, result, nil
}

func (f *fakeAssistant) Answer(_ context.Context, _ string, _ domain.RetrievalResult) (domain.GroundedAnswer, error) {
	return f.answer, f.err
}

type fakeFeedback struct {
	lastQuery  string
	lastAnswer string
	err        error
}

func (f *fakeFeedback) Record(_ context.Context, query, validatedAnswer string) (string, error) {
	f.lastQuery = query
	f.lastAnswer = validatedAnswer
	if f.err != nil {
		return "", f.err
	}
	return "feedback-doc-1", nil
}

func (f *fakeFeedback) RecordWithID(_ context.Context, id, query, validatedAnswer string) (string, error) {
	f.lastQuery = query
	f.lastAnswer = validatedAnswer
	if f.err != nil {
		return "", f.err
	}
	return id, nil
}

type fakeDocumentManager struct {
	docs   []domain.Document
	chunks []domain.Chunk
	err    error

	deleted []string
}

func (f *fakeDocumentManager) List(_ context.Context) ([]domain.Document, error) {
	return f.docs, f.err
}

func (f *fakeDocumentManager) Get(_ context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.docs {
		if f.docs[i].ID == id {
			return &f.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDocumentManager) Chunks(_ context.Context, id string) ([]domain.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Chunk
	for _, c := range f.chunks {
		if c.DocumentID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDocumentManager) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.docs {
		if f.docs[i].ID == id {
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

// setupTestServices wires fakes into the command tree and returns the
// fakes plus a cleanup that restores the previous services.
func setupTestServices() (*fakeIngestor, *fakeRetriever, *fakeAssistant, *fakeFeedback, *fakeDocumentManager, func()) {
	ingestor := &fakeIngestor{}
	retriever := &fakeRetriever{
		result: domain.RetrievalResult{
			Chunks: []domain.ScoredChunk{
				{
					Chunk:       domain.Chunk{ID: "chunk-aaaa1111", DocumentID: "doc-1", Content: "Uptime is 99.95% monthly.", Position: 0},
					Similarity:  0.91,
					SourceLabel: "sla.md",
					Provenance:  domain.ProvenanceOriginal,
				},
			},
		},
	}
	assistant := &fakeAssistant{
		answer: domain.GroundedAnswer{
			Text:          "The SLA is 99.95% monthly uptime.",
			Grounded:      true,
			CitedChunkIDs: []string{"chunk-aaaa1111"},
		},
		result: retriever.result,
	}
	feedback := &fakeFeedback{}
	docs := &fakeDocumentManager{
		docs: []domain.Document{
			{
				ID:          "doc-1",
				SourceLabel: "sla.md",
				Provenance:  domain.ProvenanceOriginal,
				Content:     "Uptime is 99.95% monthly.",
				CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		chunks: []domain.Chunk{
			{ID: "chunk-aaaa1111", DocumentID: "doc-1", Content: "Uptime is 99.95% monthly.", Position: 0, Start: 0, End: 25},
		},
	}

	SetServices(Services{
		Ingest:   ingestor,
		Retrieve: retriever,
		Answer:   assistant,
		Feedback: feedback,
		Document: docs,
	})

	cleanup := func() {
		SetServices(Services{})
	}
	return ingestor, retriever, assistant, feedback, docs, cleanup
}
