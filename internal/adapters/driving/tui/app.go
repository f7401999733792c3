package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quern-dev/quern/internal/adapters/driving/tui/components/input"
	"github.com/quern-dev/quern/internal/adapters/driving/tui/components/status"
	"github.com/quern-dev/quern/internal/adapters/driving/tui/components/transcript"
	"github.com/quern-dev/quern/internal/adapters/driving/tui/keymap"
	"github.com/quern-dev/quern/internal/adapters/driving/tui/messages"
	"github.com/quern-dev/quern/internal/adapters/driving/tui/styles"
)

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// keymap holds the keybindings.
	keymap *keymap.KeyMap

	// input is the question input at the bottom of the screen.
	input *input.QuestionInput

	// transcript is the scrollable conversation history.
	transcript *transcript.Log

	// statusbar shows state and keybinding hints.
	statusbar *status.Bar

	// thinking is true while a question is in flight.
	thinking bool

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat application with the given ports.
func NewApp(ports *Ports) *App {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: transcript.NewLog(s),
		statusbar:  status.NewBar(s, km),
	}
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("quern - Grounded Chat"),
		a.input.Init(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		// Title, spacing, bordered input and status bar take six rows.
		a.transcript.SetDimensions(msg.Width, msg.Height-6)
		a.input.SetWidth(msg.Width)
		a.statusbar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.AnswerReceived:
		return a.handleAnswerReceived(msg)

	case messages.FeedbackSaved:
		if msg.Err != nil {
			a.err = msg.Err
			a.statusbar.SetState(status.StateError)
			a.statusbar.SetMessage(msg.Err.Error())
			return a, nil
		}
		a.statusbar.SetState(status.StateSaved)
		a.statusbar.SetMessage("Taught: " + msg.DocumentID)
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages to the input component for cursor blink.
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKeyMsg processes keyboard input.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(keyStr, a.keymap.Teach):
		return a, a.teachLast()

	case keymap.Matches(keyStr, a.keymap.Clear):
		a.transcript.Clear()
		a.statusbar.Clear()
		a.err = nil
		return a, nil

	case keymap.Matches(keyStr, a.keymap.ScrollUp):
		a.transcript.ScrollUp()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.ScrollDown):
		a.transcript.ScrollDown()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.Ask):
		return a, a.askTyped()
	}

	if a.thinking {
		// Ignore typing while a question is in flight.
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// askTyped submits the typed question to the answer service.
func (a *App) askTyped() tea.Cmd {
	if a.thinking {
		return nil
	}

	question := strings.TrimSpace(a.input.Value())
	if question == "" {
		return nil
	}

	a.thinking = true
	a.input.Reset()
	a.statusbar.SetState(status.StateThinking)

	return func() tea.Msg {
		if a.ports == nil || a.ports.Answer == nil {
			return messages.AnswerReceived{Question: question, Err: ErrMissingAnswerService}
		}
		answer, result, err := a.ports.Answer.Ask(a.ctx, question, 0)
		return messages.AnswerReceived{
			Question: question,
			Answer:   answer,
			Result:   result,
			Err:      err,
		}
	}
}

// teachLast records the most recent answer as validated feedback.
func (a *App) teachLast() tea.Cmd {
	last := a.transcript.Last()
	if last == nil {
		a.statusbar.SetMessage("Nothing to teach yet")
		return nil
	}

	question := last.Question
	answer := last.Answer.Text

	return func() tea.Msg {
		if a.ports == nil || a.ports.Feedback == nil {
			return messages.FeedbackSaved{Err: ErrNoFeedbackService}
		}
		id, err := a.ports.Feedback.Record(a.ctx, question, answer)
		return messages.FeedbackSaved{DocumentID: id, Err: err}
	}
}

// handleAnswerReceived folds a completed round trip into the transcript.
func (a *App) handleAnswerReceived(msg messages.AnswerReceived) (tea.Model, tea.Cmd) {
	a.thinking = false

	if msg.Err != nil {
		a.err = msg.Err
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return a, a.input.Focus()
	}

	a.err = nil
	a.transcript.Append(transcript.Exchange{
		Question: msg.Question,
		Answer:   msg.Answer,
		Result:   msg.Result,
	})

	a.statusbar.Clear()
	if !msg.Answer.Grounded {
		a.statusbar.SetMessage("Ungrounded answer")
	}

	return a, a.input.Focus()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("quern"))
	b.WriteString("\n\n")
	b.WriteString(a.transcript.View())
	b.WriteString("\n")
	b.WriteString(a.input.View())
	b.WriteString("\n")
	b.WriteString(a.statusbar.View())

	return b.String()
}

// Run starts the chat application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Transcript returns the conversation log.
func (a *App) Transcript() *transcript.Log {
	return a.transcript
}

// Thinking returns whether a question is in flight.
func (a *App) Thinking() bool {
	return a.thinking
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}
