package mcp

import (
	"github.com/quern-dev/quern/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ingest adds documents to the knowledge base.
	Ingest driving.Ingestor

	// Retrieve runs raw similarity queries.
	Retrieve driving.Retriever

	// Answer produces grounded answers.
	Answer driving.Assistant

	// Feedback folds validated answers back into the base.
	Feedback driving.FeedbackRecorder

	// Document exposes corpus management.
	Document driving.DocumentManager
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	// The remaining ports are optional; their tools and resources
	// degrade gracefully when absent.
	return nil
}
