// Package transcript renders the chat exchange history for the TUI.
package transcript

import (
	"fmt"
	"strings"

	"github.com/quern-dev/quern/internal/adapters/driving/tui/styles"
	"github.com/quern-dev/quern/internal/core/domain"
)

// Exchange is one question/answer round trip in the conversation.
type Exchange struct {
	Question string
	Answer   domain.GroundedAnswer
	Result   domain.RetrievalResult
}

// Log displays the scrollable conversation history.
type Log struct {
	exchanges []Exchange
	styles    *styles.Styles
	offset    int
	width     int
	height    int
}

// NewLog creates a new transcript log component.
func NewLog(s *styles.Styles) *Log {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &Log{
		styles: s,
		width:  80,
		height: 16,
	}
}

// Append adds a completed exchange and scrolls to the bottom.
func (l *Log) Append(ex Exchange) {
	l.exchanges = append(l.exchanges, ex)
	l.ScrollToBottom()
}

// Last returns the most recent exchange, or nil when empty.
func (l *Log) Last() *Exchange {
	if len(l.exchanges) == 0 {
		return nil
	}
	return &l.exchanges[len(l.exchanges)-1]
}

// Len returns the number of exchanges.
func (l *Log) Len() int {
	return len(l.exchanges)
}

// Clear wipes the conversation history.
func (l *Log) Clear() {
	l.exchanges = nil
	l.offset = 0
}

// ScrollUp moves the viewport one line up.
func (l *Log) ScrollUp() {
	if l.offset > 0 {
		l.offset--
	}
}

// ScrollDown moves the viewport one line down.
func (l *Log) ScrollDown() {
	if l.offset < l.maxOffset() {
		l.offset++
	}
}

// ScrollToBottom moves the viewport to the newest lines.
func (l *Log) ScrollToBottom() {
	l.offset = l.maxOffset()
}

// SetDimensions sets the viewport size.
func (l *Log) SetDimensions(width, height int) {
	l.width = width
	l.height = height
	if l.offset > l.maxOffset() {
		l.offset = l.maxOffset()
	}
}

// View renders the visible slice of the transcript.
func (l *Log) View() string {
	if len(l.exchanges) == 0 {
		return l.styles.Muted.Render("Ask a question to get started.")
	}

	lines := l.renderLines()

	start := l.offset
	if start > len(lines) {
		start = len(lines)
	}
	end := start + l.height
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}

// renderLines flattens all exchanges into styled, wrapped lines.
func (l *Log) renderLines() []string {
	var lines []string

	for i := range l.exchanges {
		ex := &l.exchanges[i]
		if i > 0 {
			lines = append(lines, "")
		}

		for _, line := range wrap("> "+ex.Question, l.width) {
			lines = append(lines, l.styles.Question.Render(line))
		}

		answerStyle := l.styles.Answer
		if !ex.Answer.Grounded {
			answerStyle = l.styles.Warning
		}
		for _, line := range wrap(ex.Answer.Text, l.width) {
			lines = append(lines, answerStyle.Render(line))
		}
		if !ex.Answer.Grounded {
			lines = append(lines, l.styles.Warning.Render("(ungrounded)"))
		}

		if citation := l.renderCitations(ex); citation != "" {
			lines = append(lines, l.styles.Citation.Render(citation))
		}
	}

	return lines
}

// renderCitations maps cited chunk IDs back to their source labels.
func (l *Log) renderCitations(ex *Exchange) string {
	if len(ex.Answer.CitedChunkIDs) == 0 {
		return ""
	}

	seen := make(map[string]bool)
	labels := make([]string, 0, len(ex.Answer.CitedChunkIDs))
	for _, id := range ex.Answer.CitedChunkIDs {
		for j := range ex.Result.Chunks {
			if ex.Result.Chunks[j].Chunk.ID != id {
				continue
			}
			label := ex.Result.Chunks[j].SourceLabel
			if label != "" && !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
			break
		}
	}

	if len(labels) == 0 {
		return fmt.Sprintf("Sources: %d passage(s)", len(ex.Answer.CitedChunkIDs))
	}
	return "Sources: " + strings.Join(labels, ", ")
}

// maxOffset is the largest scroll offset that still fills the viewport.
func (l *Log) maxOffset() int {
	total := len(l.renderLines())
	if total <= l.height {
		return 0
	}
	return total - l.height
}

// wrap breaks text into lines no wider than width, on word boundaries.
func wrap(text string, width int) []string {
	if width < 10 {
		width = 10
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	lines = append(lines, current)

	return lines
}
