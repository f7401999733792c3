package tui

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("tui: answer service is required")

// ErrNoFeedbackService is returned when teaching is attempted without a
// feedback recorder wired in.
var ErrNoFeedbackService = errors.New("tui: feedback service is not configured")
