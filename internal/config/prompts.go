package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Yates-Labs/bayan/internal/answer"
	"github.com/Yates-Labs/bayan/internal/lang"
)

// ErrMissingPrompt is returned by Prompts.Validate.
var ErrMissingPrompt = errors.New("missing required prompt")

const (
	rulesHeader        = "\n\n**Here's how to respond (CRITICAL RULES):**\n"
	defaultTranslation = "Translate the following to {target_language}. Return only the translation."
	defaultError       = "An error occurred. Please try again."
	unknownVersion     = "unknown"
)

// SystemPrompt is a role statement plus numbered rules.
type SystemPrompt struct {
	Role  string   `yaml:"role" json:"role"`
	Rules []string `yaml:"rules" json:"rules"`
}

// PromptSet holds the prompt text keyed by language code.
type PromptSet struct {
	System        map[string]SystemPrompt      `yaml:"system" json:"system"`
	Translation   map[string]string            `yaml:"translation" json:"translation"`
	ErrorMessages map[string]map[string]string `yaml:"error_messages" json:"error_messages"`
}

// TuningFile is the optional "config" block of the prompts file. Absent
// values keep their defaults.
type TuningFile struct {
	SearchTopK           *int     `yaml:"search_top_k" json:"search_top_k"`
	MaxTokensAnswer      *int     `yaml:"max_tokens_answer" json:"max_tokens_answer"`
	MaxTokensTranslate   *int     `yaml:"max_tokens_translate" json:"max_tokens_translate"`
	TemperatureAnswer    *float64 `yaml:"temperature_answer" json:"temperature_answer"`
	TemperatureTranslate *float64 `yaml:"temperature_translate" json:"temperature_translate"`
}

// Models names the models a prompts file was written for.
type Models struct {
	LLM       string `yaml:"llm" json:"llm"`
	Embedding string `yaml:"embedding" json:"embedding"`
}

// Prompts is the prompt and tuning lookup used by the answering path.
type Prompts struct {
	VersionTag string     `yaml:"version" json:"version"`
	Prompts    PromptSet  `yaml:"prompts" json:"prompts"`
	Config     TuningFile `yaml:"config" json:"config"`
	ModelNames Models     `yaml:"models" json:"models"`

	logger *zap.Logger
}

var _ answer.PromptSource = (*Prompts)(nil)

// DefaultPrompts is the built-in fallback used when no prompts file loads.
func DefaultPrompts() *Prompts {
	return &Prompts{
		VersionTag: "1.0.0",
		Prompts: PromptSet{
			System: map[string]SystemPrompt{
				lang.English.String(): {
					Role:  "You are an expert AI assistant for Data Saudi.",
					Rules: []string{"Provide helpful answers based on provided information."},
				},
			},
		},
		logger: zap.NewNop(),
	}
}

// LoadPrompts reads a YAML (or JSON) prompts file. A missing or unparsable
// file is logged and the built-in defaults are returned.
func LoadPrompts(path string, logger *zap.Logger) *Prompts {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("prompts file not readable, using defaults", zap.String("path", path), zap.Error(err))
		return withLogger(DefaultPrompts(), logger)
	}

	p, err := ParsePrompts(data)
	if err != nil {
		logger.Error("error parsing prompts file, using defaults", zap.String("path", path), zap.Error(err))
		return withLogger(DefaultPrompts(), logger)
	}

	logger.Info("loaded prompts", zap.String("path", path), zap.String("version", p.Version()))
	return withLogger(p, logger)
}

// ParsePrompts decodes prompts from YAML. JSON documents parse as YAML.
func ParsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.logger = zap.NewNop()
	return &p, nil
}

func withLogger(p *Prompts, logger *zap.Logger) *Prompts {
	p.logger = logger
	return p
}

// SystemPrompt renders the role and numbered rules for l. A language
// without a system prompt falls back to the default English role.
func (p *Prompts) SystemPrompt(l lang.Language) string {
	sp, ok := p.Prompts.System[l.String()]
	if !ok || sp.Role == "" {
		p.logger.Warn("system prompt not found", zap.String("language", l.String()))
		return DefaultPrompts().Prompts.System[lang.English.String()].Role
	}

	var b strings.Builder
	b.WriteString(sp.Role)
	b.WriteString(rulesHeader)
	for i, rule := range sp.Rules {
		fmt.Fprintf(&b, "\n%d. %s", i+1, rule)
	}
	return b.String()
}

// TranslationPrompt returns the translation template for text written in
// source.
func (p *Prompts) TranslationPrompt(source lang.Language) string {
	t, ok := p.Prompts.Translation[source.String()]
	if !ok || t == "" {
		p.logger.Warn("translation prompt not found", zap.String("language", source.String()))
		return defaultTranslation
	}
	return t
}

// ErrorMessage returns the localized text for kind.
func (p *Prompts) ErrorMessage(kind answer.ErrorKind, l lang.Language) string {
	msg, ok := p.Prompts.ErrorMessages[string(kind)][l.String()]
	if !ok || msg == "" {
		p.logger.Warn("error message not found", zap.String("kind", string(kind)), zap.String("language", l.String()))
		return defaultError
	}
	return msg
}

// Tuning returns the answering knobs, defaulting any the file omits.
func (p *Prompts) Tuning() answer.Tuning {
	t := answer.DefaultTuning()
	c := p.Config
	if c.SearchTopK != nil && *c.SearchTopK > 0 {
		t.SearchTopK = *c.SearchTopK
	}
	if c.MaxTokensAnswer != nil && *c.MaxTokensAnswer > 0 {
		t.MaxTokensAnswer = *c.MaxTokensAnswer
	}
	if c.MaxTokensTranslate != nil && *c.MaxTokensTranslate > 0 {
		t.MaxTokensTranslate = *c.MaxTokensTranslate
	}
	if c.TemperatureAnswer != nil {
		t.TemperatureAnswer = *c.TemperatureAnswer
	}
	if c.TemperatureTranslate != nil {
		t.TemperatureTranslate = *c.TemperatureTranslate
	}
	return t
}

// Models returns the model names declared by the file, possibly empty.
func (p *Prompts) Models() Models {
	return p.ModelNames
}

// Version returns the file's version tag.
func (p *Prompts) Version() string {
	if p.VersionTag == "" {
		return unknownVersion
	}
	return p.VersionTag
}

// Validate checks that the prompts the answering path depends on are
// present for both languages.
func (p *Prompts) Validate() error {
	var missing []string
	for _, l := range []lang.Language{lang.English, lang.Arabic} {
		code := l.String()
		sp, ok := p.Prompts.System[code]
		if !ok || sp.Role == "" {
			missing = append(missing, "prompts.system."+code+".role")
		}
		if !ok || len(sp.Rules) == 0 {
			missing = append(missing, "prompts.system."+code+".rules")
		}
		if p.Prompts.Translation[code] == "" {
			missing = append(missing, "prompts.translation."+code)
		}
		if p.Prompts.ErrorMessages[string(answer.KindTranslationFailed)][code] == "" {
			missing = append(missing, "prompts.error_messages.translation_failed."+code)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingPrompt, strings.Join(missing, ", "))
	}
	return nil
}

// ApplyModels overrides the configured model names with the ones the
// prompts file declares.
func (c *Config) ApplyModels(m Models) {
	if m.LLM != "" {
		c.LLMModel = m.LLM
	}
	if m.Embedding != "" {
		c.EmbeddingModel = m.Embedding
	}
}
