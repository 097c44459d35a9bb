package driven

// PromptStore provides access to generative prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return an
	// error; consumers fall back to their built-in defaults.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptSubQuestions deconstructs a question into sub-questions.
	// The template expects %d (maximum count) and %s (question).
	PromptSubQuestions = "sub_questions"

	// PromptSynthesis composes a grounded answer from snippets.
	// The template expects %s (question) and %s (formatted snippets).
	PromptSynthesis = "synthesis"
)

// PromptStoreAware is an optional interface for adapters that can use
// custom prompts. Adapters implementing it can have their templates
// customised by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable
	// prompts. If not set, the adapter uses hardcoded defaults.
	SetPromptStore(store PromptStore)
}
