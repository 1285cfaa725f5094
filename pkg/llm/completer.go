package llm

import "context"

// Completion is the text a provider generated for a conversation.
type Completion struct {
	Model string
	Text  string
	Usage Usage
}

// Completer sends a conversation to an LLM provider and returns its reply.
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts Options) (*Completion, error)
}
