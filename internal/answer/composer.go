package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Yates-Labs/bayan/internal/lang"
	"github.com/Yates-Labs/bayan/internal/rag"
)

// ContextDelimiter separates source stanzas in the grounding context.
const ContextDelimiter = "\n\n---\n\n"

// UnknownSource stands in for a candidate with no source.
const UnknownSource = "N/A"

// Status is the terminal state of one answer attempt.
type Status string

const (
	StatusDone              Status = "done"
	StatusNoData            Status = "no_data"
	StatusAnswerFailed      Status = "answer_failed"
	StatusTranslationFailed Status = "translation_failed"
)

// Composition is the composer's result. On failure Text is a localized
// message and Sources is empty.
type Composition struct {
	Text    string
	Sources []string
	Status  Status
}

// Composer builds the grounding prompt and calls the model.
type Composer struct {
	llm     LLM
	prompts PromptSource
	opts    CompletionOptions
	logger  *zap.Logger
}

// NewComposer creates a Composer.
func NewComposer(llm LLM, prompts PromptSource, tuning Tuning, logger *zap.Logger) (*Composer, error) {
	if llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrInvalidConfig)
	}
	if prompts == nil {
		return nil, fmt.Errorf("%w: prompt source is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		llm:     llm,
		prompts: prompts,
		opts:    CompletionOptions{MaxTokens: tuning.MaxTokensAnswer, Temperature: tuning.TemperatureAnswer},
		logger:  logger,
	}, nil
}

// BuildContext joins one "Source/Content" stanza per candidate, in order.
func BuildContext(candidates []rag.SearchResult) string {
	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = fmt.Sprintf("Source: %s\nContent: %s", sourceOf(c), c.Text)
	}
	return strings.Join(parts, ContextDelimiter)
}

// BuildUserTurn places the question after the grounding context.
func BuildUserTurn(contextText, question string) string {
	return fmt.Sprintf("%s\n\nQuestion: %s\nAnswer:", contextText, question)
}

// Sources returns the distinct candidate sources in first-seen order.
func Sources(candidates []rag.SearchResult) []string {
	seen := make(map[string]struct{}, len(candidates))
	sources := make([]string, 0, len(candidates))
	for _, c := range candidates {
		s := sourceOf(c)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		sources = append(sources, s)
	}
	return sources
}

func sourceOf(c rag.SearchResult) string {
	if c.Source == "" {
		return UnknownSource
	}
	return c.Source
}

// Compose answers question in language l from candidates. An empty
// candidate set returns the no-data message without calling the model.
func (c *Composer) Compose(ctx context.Context, question string, l lang.Language, candidates []rag.SearchResult) Composition {
	if len(candidates) == 0 {
		c.logger.Info("no candidates retrieved, answering with no-data message")
		return c.failure(StatusNoData, KindNoData, l)
	}

	userTurn := BuildUserTurn(BuildContext(candidates), question)
	c.logger.Debug("full prompt sent to LLM", zap.String("prompt", userTurn))

	text, err := c.llm.Complete(ctx, []Message{
		{Role: RoleSystem, Content: c.prompts.SystemPrompt(l)},
		{Role: RoleUser, Content: userTurn},
	}, c.opts)
	if err != nil {
		c.logger.Error("answer generation failed", zap.Error(err))
		return c.failure(StatusAnswerFailed, KindAPIFailed, l)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.logger.Error("answer generation returned empty text")
		return c.failure(StatusAnswerFailed, KindAPIFailed, l)
	}

	return Composition{Text: text, Sources: Sources(candidates), Status: StatusDone}
}

func (c *Composer) failure(status Status, kind ErrorKind, l lang.Language) Composition {
	return Composition{
		Text:    c.prompts.ErrorMessage(kind, l),
		Sources: []string{},
		Status:  status,
	}
}
