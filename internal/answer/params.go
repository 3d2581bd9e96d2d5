package answer

import (
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

// RequestParams is the model-specific shape of a completion request.
type RequestParams struct {
	Model string

	// MaxCompletionTokens is set for the gpt-5 family, MaxTokens otherwise.
	MaxTokens           int
	MaxCompletionTokens int

	// Temperature is nil when the model does not accept it.
	Temperature *float64
}

// newerModelFamily reports whether model takes max_completion_tokens and
// rejects a temperature.
func newerModelFamily(model string) bool {
	return strings.Contains(model, "gpt-5")
}

// ParamsForModel selects the token budget parameter and temperature for model.
func ParamsForModel(model string, opts CompletionOptions) RequestParams {
	p := RequestParams{Model: model}
	if newerModelFamily(model) {
		p.MaxCompletionTokens = opts.MaxTokens
		return p
	}
	p.MaxTokens = opts.MaxTokens
	temperature := opts.Temperature
	p.Temperature = &temperature
	return p
}

// BuildChatParams builds an OpenAI chat completion request for model.
func BuildChatParams(model string, messages []Message, opts CompletionOptions) openai.ChatCompletionNewParams {
	p := ParamsForModel(model, opts)

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.Model),
		Messages: toOpenAIMessages(messages),
	}
	if p.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(p.MaxCompletionTokens))
	}
	if p.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.MaxTokens))
	}
	if p.Temperature != nil {
		params.Temperature = openai.Float(*p.Temperature)
	}
	return params
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
