package llm

// ChatRequest represents an OpenAI-compatible chat completion request.
type ChatRequest struct {
	Model       string    `json:"model"`                 // Model name (e.g., "gpt-4o-mini")
	Messages    []Message `json:"messages"`              // Conversation history
	Temperature *float64  `json:"temperature,omitempty"` // Sampling temperature
	MaxTokens   int       `json:"max_tokens,omitempty"`  // Max tokens to generate

	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ResponseFormat selects structured output ("json_object") on providers that support it.
type ResponseFormat struct {
	Type string `json:"type"`
}
