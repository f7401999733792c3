package driven

// Prompt template names recognised by the prompt store.
const (
	// PromptSystemInstruction is the grounding instruction prepended to
	// every generation prompt.
	PromptSystemInstruction = "system_instruction"

	// PromptUngroundedNotice is the text returned when no relevant
	// context exists and no model call is made.
	PromptUngroundedNotice = "ungrounded_notice"
)

// PromptStore provides access to user-customisable prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)
}
