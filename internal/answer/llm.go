// Package answer turns retrieved chunks into a grounded answer. It defines a
// provider-agnostic LLM interface with an OpenAI implementation and a
// deterministic mock, the query translator, and the answer composer.
package answer

import (
	"context"
	"errors"
)

var (
	ErrLLMFailed     = errors.New("LLM request failed")
	ErrInvalidConfig = errors.New("invalid LLM configuration")
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat completion request.
type Message struct {
	Role    Role
	Content string
}

// CompletionOptions are the per-call generation limits.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
}

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Complete returns the model's reply to messages.
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
}

// LLMConfig holds configuration for the OpenAI provider.
type LLMConfig struct {
	// Model specifies the model identifier (e.g., "gpt-5-chat-latest", "gpt-4o")
	Model string

	// APIKey is the authentication key for the provider
	APIKey string

	// BaseURL overrides the API endpoint for compatible gateways
	BaseURL string
}

// DefaultLLMConfig returns the production model.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{Model: "gpt-5-chat-latest"}
}

// Tuning holds the numeric parameters of the query path.
type Tuning struct {
	SearchTopK           int
	MaxTokensAnswer      int
	MaxTokensTranslate   int
	TemperatureAnswer    float64
	TemperatureTranslate float64
}

// DefaultTuning returns the production tuning values.
func DefaultTuning() Tuning {
	return Tuning{
		SearchTopK:           7,
		MaxTokensAnswer:      1500,
		MaxTokensTranslate:   150,
		TemperatureAnswer:    1.0,
		TemperatureTranslate: 1.0,
	}
}
