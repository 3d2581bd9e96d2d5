package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Yates-Labs/bayan/internal/answer"
	"github.com/Yates-Labs/bayan/internal/lang"
	"github.com/Yates-Labs/bayan/internal/rag"
)

var (
	ErrEmptyQuestion   = errors.New("question is empty")
	ErrInvalidPipeline = errors.New("invalid pipeline")
)

// Translator renders a question in the other language.
type Translator interface {
	Translate(ctx context.Context, text string, source lang.Language) (string, bool)
}

// Retriever searches with both language variants of a question.
type Retriever interface {
	RetrieveDual(ctx context.Context, original, translated string) []rag.SearchResult
}

// Composer answers a question from retrieved candidates.
type Composer interface {
	Compose(ctx context.Context, question string, l lang.Language, candidates []rag.SearchResult) answer.Composition
}

// Answer is the outcome of one question. Text is always set, either the
// model's answer or a localized message.
type Answer struct {
	Text       string
	Sources    []string
	Status     answer.Status
	Language   lang.Language
	Translated string
}

// Pipeline runs the query path: detect, translate, retrieve, compose.
type Pipeline struct {
	translator Translator
	retriever  Retriever
	composer   Composer
	prompts    answer.PromptSource
	logger     *zap.Logger
}

// NewPipeline wires a Pipeline from its stages.
func NewPipeline(translator Translator, retriever Retriever, composer Composer, prompts answer.PromptSource, logger *zap.Logger) (*Pipeline, error) {
	if translator == nil || retriever == nil || composer == nil {
		return nil, fmt.Errorf("%w: translator, retriever and composer are required", ErrInvalidPipeline)
	}
	if prompts == nil {
		return nil, fmt.Errorf("%w: prompt source is required", ErrInvalidPipeline)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		translator: translator,
		retriever:  retriever,
		composer:   composer,
		prompts:    prompts,
		logger:     logger,
	}, nil
}

// Answer answers question. Upstream failures are reported through
// Answer.Status; the only error is ErrEmptyQuestion.
func (p *Pipeline) Answer(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}

	l := lang.Detect(question)
	log := p.logger.With(zap.String("language", l.String()))
	log.Info("received question", zap.String("question", question))

	translated, ok := p.translator.Translate(ctx, question, l)
	if !ok {
		log.Warn("translation failed, answering with localized message")
		return Answer{
			Text:     p.prompts.ErrorMessage(answer.KindTranslationFailed, l),
			Sources:  []string{},
			Status:   answer.StatusTranslationFailed,
			Language: l,
		}, nil
	}
	log.Debug("translated question", zap.String("translated", translated))

	candidates := p.retriever.RetrieveDual(ctx, question, translated)
	log.Info("retrieved candidates", zap.Int("count", len(candidates)))

	c := p.composer.Compose(ctx, question, l, candidates)
	return Answer{
		Text:       c.Text,
		Sources:    c.Sources,
		Status:     c.Status,
		Language:   l,
		Translated: translated,
	}, nil
}
