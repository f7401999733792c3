// Package chunker splits document text into overlapping windows that
// preserve local context at the boundaries. It is pure computation:
// no I/O, no suspension points.
package chunker

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/quern-dev/quern/internal/core/domain"
)

// boundaryLookback is how far back from the hard cutoff the splitter
// searches for a natural boundary. Best-effort refinement only; the
// overlap invariant always holds regardless.
const boundaryLookback = 64

// Splitter produces overlapping chunks of a fixed maximum window.
// Each chunk after the first begins at least overlap bytes before the
// end of its predecessor, so consecutive chunks share a byte-identical
// region of at least that length. Cuts always land on UTF-8 rune
// boundaries, so no chunk edge splits a multi-byte sequence.
type Splitter struct {
	window  int
	overlap int
}

// New creates a splitter for the given window size in characters and
// overlap fraction in [0, 1). A derived overlap that reaches the window
// size is a configuration error.
func New(window int, overlapFraction float64) (*Splitter, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: chunk window must be positive, got %d", domain.ErrInvalidConfig, window)
	}
	if overlapFraction < 0 || overlapFraction >= 1 {
		return nil, fmt.Errorf("%w: overlap fraction must be in [0, 1), got %g", domain.ErrInvalidConfig, overlapFraction)
	}

	overlap := int(float64(window)*overlapFraction + 0.5)
	if overlap >= window {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than window %d", domain.ErrInvalidConfig, overlap, window)
	}

	return &Splitter{window: window, overlap: overlap}, nil
}

// Window returns the configured maximum chunk length.
func (s *Splitter) Window() int {
	return s.window
}

// Overlap returns the derived overlap length.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split walks the document text left to right and produces its chunks.
// Empty text produces zero chunks; text no longer than the window
// produces exactly one chunk covering the whole text. The chunks cover
// the text without gaps: each chunk's Start offset falls inside its
// predecessor, overlap bytes before the predecessor's End or earlier
// when rune alignment requires it.
func (s *Splitter) Split(doc *domain.Document) []domain.Chunk {
	text := doc.Content
	if text == "" {
		return nil
	}

	textLen := len(text)
	estimated := textLen/(s.window-s.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	position := 0

	for start < textLen {
		end := start + s.window
		if end >= textLen {
			end = textLen
		} else {
			end = s.refineCut(text, start, end)
			end = snapToRuneStart(text, end, start+s.overlap)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    text[start:end],
			Position:   position,
			Start:      start,
			End:        end,
		})
		position++

		if end >= textLen {
			break
		}

		// The next chunk re-covers at least the last overlap bytes of
		// this one, extended left when rune alignment requires it.
		start = snapToRuneStart(text, end-s.overlap, start)
	}

	return chunks
}

// refineCut moves the hard cutoff back to a nearby natural boundary when
// one exists: paragraph break first, then sentence end, then whitespace.
// The cut never moves so far back that the chunk stops making progress
// past the overlap region.
func (s *Splitter) refineCut(text string, start, end int) int {
	lookback := boundaryLookback
	if lookback > s.window/4 {
		lookback = s.window / 4
	}

	// A shortened chunk must still extend beyond the shared overlap,
	// otherwise the walk would stall.
	floor := start + s.overlap + 1
	if low := end - lookback; low > floor {
		floor = low
	}
	if floor >= end {
		return end
	}

	if cut := lastParagraphBreak(text, floor, end); cut > 0 {
		return cut
	}
	if cut := lastSentenceEnd(text, floor, end); cut > 0 {
		return cut
	}
	if cut := lastWhitespace(text, floor, end); cut > 0 {
		return cut
	}
	return end
}

// snapToRuneStart moves a cut that lands inside a multi-byte UTF-8
// sequence to a rune boundary, preferring the start of that rune. When
// backing up would not pass floor, the cut moves forward instead so the
// walk keeps making progress.
func snapToRuneStart(text string, i, floor int) int {
	j := i
	for j > 0 && j < len(text) && !utf8.RuneStart(text[j]) {
		j--
	}
	if j > floor {
		return j
	}
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}

// lastParagraphBreak returns the cut position just past the last "\n\n"
// within [floor, end), or 0 when none exists.
func lastParagraphBreak(text string, floor, end int) int {
	for i := end - 1; i > floor; i-- {
		if text[i-1] == '\n' && text[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

// lastSentenceEnd returns the cut position just past the last sentence
// terminator within [floor, end), or 0 when none exists.
func lastSentenceEnd(text string, floor, end int) int {
	for i := end - 1; i >= floor; i-- {
		switch text[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return 0
}

// lastWhitespace returns the cut position just past the last space or
// tab within [floor, end), or 0 when none exists.
func lastWhitespace(text string, floor, end int) int {
	for i := end - 1; i >= floor; i-- {
		if text[i] == ' ' || text[i] == '\t' {
			return i + 1
		}
	}
	return 0
}
