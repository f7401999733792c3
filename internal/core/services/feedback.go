package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quern-dev/quern/internal/core/domain"
	"github.com/quern-dev/quern/internal/core/ports/driving"
	"github.com/quern-dev/quern/internal/logger"
)

// Ensure FeedbackService implements the interface.
var _ driving.FeedbackRecorder = (*FeedbackService)(nil)

// feedbackSourceLabel marks feedback-derived documents in listings.
const feedbackSourceLabel = "user_feedback"

// FeedbackService is the self-learning loop: a user-confirmed answer is
// packaged as a synthetic document and re-enters the ingestion path with
// feedback provenance, becoming retrievable like any other passage.
//
// Identical pairs submitted twice produce two distinct documents; duplicate
// feedback reinforces retrieval weight by repetition. Natural-key
// deduplication is deliberately not performed.
type FeedbackService struct {
	ingestor driving.Ingestor
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(ingestor driving.Ingestor) *FeedbackService {
	return &FeedbackService{ingestor: ingestor}
}

// Record packages the validated question/answer pair as a feedback
// document under a freshly allocated ID and ingests it.
func (s *FeedbackService) Record(ctx context.Context, query, validatedAnswer string) (string, error) {
	return s.RecordWithID(ctx, uuid.New().String(), query, validatedAnswer)
}

// RecordWithID is Record with a caller-supplied document ID. Reusing an
// ID supersedes the earlier record instead of adding a duplicate.
func (s *FeedbackService) RecordWithID(ctx context.Context, id, query, validatedAnswer string) (string, error) {
	if query == "" || validatedAnswer == "" {
		return "", fmt.Errorf("%w: query and answer must be non-empty", domain.ErrInvalidInput)
	}

	record := domain.FeedbackRecord{
		Query:     query,
		Answer:    validatedAnswer,
		CreatedAt: time.Now().UTC(),
	}

	doc := &domain.Document{
		ID:          id,
		SourceLabel: feedbackSourceLabel,
		Provenance:  domain.ProvenanceFeedback,
		Content:     record.Serialize(),
		CreatedAt:   record.CreatedAt,
	}

	logger.Section("Feedback")
	logger.Debug("Recording validated answer for %q as document %s", query, id)

	if _, err := s.ingestor.Ingest(ctx, doc); err != nil {
		return "", fmt.Errorf("ingest feedback: %w", err)
	}

	logger.Info("Knowledge base updated from feedback: document %s", id)
	return id, nil
}
