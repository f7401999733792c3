// Package tui provides the interactive chat interface for quern.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/quern-dev/quern/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the chat TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer produces grounded answers for typed questions.
	Answer driving.Assistant

	// Feedback folds confirmed answers back into the knowledge base.
	// Optional; teaching is disabled when nil.
	Feedback driving.FeedbackRecorder
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
