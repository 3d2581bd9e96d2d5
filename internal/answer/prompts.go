package answer

import "github.com/Yates-Labs/bayan/internal/lang"

// ErrorKind names a user-facing failure message.
type ErrorKind string

const (
	KindTranslationFailed ErrorKind = "translation_failed"
	KindAPIFailed         ErrorKind = "api_failed"
	KindNoData            ErrorKind = "no_data"
)

// TargetLanguagePlaceholder is replaced with the target language code in
// translation prompts.
const TargetLanguagePlaceholder = "{target_language}"

// PromptSource looks up prompt text by language.
type PromptSource interface {
	// SystemPrompt is the answering instruction in language l.
	SystemPrompt(l lang.Language) string

	// TranslationPrompt is the translation instruction for text written in
	// source. It may contain TargetLanguagePlaceholder.
	TranslationPrompt(source lang.Language) string

	// ErrorMessage is the localized text for a failure.
	ErrorMessage(kind ErrorKind, l lang.Language) string
}
