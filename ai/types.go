package ai

// Request is one generation request for a single (document, model) pair.
type Request struct {
	// Model is the model identifier the registry routed this request to.
	Model string

	// SystemPrompt carries task-level instructions. May be empty.
	SystemPrompt string

	// Prompt is the fully rendered user prompt: template, input block,
	// and any appended file content or schema instructions.
	Prompt string

	// JSONMode asks the provider to constrain output to JSON. Providers
	// without a JSON mode ignore it; the prompt carries the fallback
	// instructions.
	JSONMode bool

	// Temperature for sampling. Zero is the default for enrichment work.
	Temperature float64

	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int
}
