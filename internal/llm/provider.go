package llm

import (
	"context"
)

// Provider defines the interface for LLM providers
// All providers MUST support structured output (JSON Schema) so melody
// responses can be parsed reliably.
type Provider interface {
	// Generate runs one text-generation call against the provider
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// Message is a single chat message sent to the provider.
type Message struct {
	Role    string `json:"role"` // "system" or "user"
	Content string `json:"content"`
}

// GenerationRequest contains all parameters needed for one generation call
type GenerationRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int64
	// Structured output schema - optional but strongly recommended
	OutputSchema *OutputSchema
}

// OutputSchema defines the expected JSON output structure
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema object
}

// ChoiceMessage mirrors the wire shape of a choice message: content is
// nullable on the wire, so it stays a pointer here and shape validation
// happens in the invoker.
type ChoiceMessage struct {
	Content *string `json:"content"`
}

// Choice is one completion returned by the provider.
type Choice struct {
	Message *ChoiceMessage `json:"message"`
}

// Usage carries token accounting for one call.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// GenerationResponse contains the result from the LLM
type GenerationResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}
