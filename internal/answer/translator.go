package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Yates-Labs/bayan/internal/lang"
)

// Translator renders a question in the other supported language.
type Translator struct {
	llm     LLM
	prompts PromptSource
	opts    CompletionOptions
	logger  *zap.Logger
}

// NewTranslator creates a Translator.
func NewTranslator(llm LLM, prompts PromptSource, tuning Tuning, logger *zap.Logger) (*Translator, error) {
	if llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrInvalidConfig)
	}
	if prompts == nil {
		return nil, fmt.Errorf("%w: prompt source is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{
		llm:     llm,
		prompts: prompts,
		opts:    CompletionOptions{MaxTokens: tuning.MaxTokensTranslate, Temperature: tuning.TemperatureTranslate},
		logger:  logger,
	}, nil
}

// Translate translates text from source into source.Other(). It reports
// false when the model fails or returns nothing usable.
func (t *Translator) Translate(ctx context.Context, text string, source lang.Language) (string, bool) {
	target := source.Other()
	prompt := strings.ReplaceAll(t.prompts.TranslationPrompt(source), TargetLanguagePlaceholder, target.String())

	out, err := t.llm.Complete(ctx, []Message{
		{Role: RoleSystem, Content: prompt},
		{Role: RoleUser, Content: text},
	}, t.opts)
	if err != nil {
		t.logger.Warn("translation failed", zap.String("target", target.String()), zap.Error(err))
		return "", false
	}

	out = strings.TrimSpace(out)
	if out == "" {
		t.logger.Warn("translation returned empty text", zap.String("target", target.String()))
		return "", false
	}
	return out, true
}
