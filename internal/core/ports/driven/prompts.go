package driven

// PromptStore provides access to prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// PromptName returns the well-known template name for a language, style and part.
// Part is PromptPartSystem or PromptPartHuman.
func PromptName(language, style, part string) string {
	return "rag_" + language + "_" + style + "_" + part
}

// Prompt template parts.
const (
	PromptPartSystem = "system"
	PromptPartHuman  = "human"
)
