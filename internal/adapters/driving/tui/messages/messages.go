// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/quern-dev/quern/internal/core/domain"
)

// AnswerReceived carries a completed question/answer round trip
// back to the model.
type AnswerReceived struct {
	Question string
	Answer   domain.GroundedAnswer
	Result   domain.RetrievalResult
	Err      error
}

// FeedbackSaved signals that a confirmed answer was folded back
// into the knowledge base.
type FeedbackSaved struct {
	DocumentID string
	Err        error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
