package llm

// Options contains model inference parameters.
type Options struct {
	Temperature float64 // Creativity (0.0-2.0)
	MaxTokens   int     // Max tokens to generate, 0 for provider default

	// JSON asks the provider for a JSON object response when it supports it.
	JSON bool
}
