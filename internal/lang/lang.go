// Package lang implements the two-language model used across the pipeline.
// Text is classified as Arabic when it contains any character of the Arabic
// Unicode block (U+0600 to U+06FF), and English otherwise.
package lang

// Language is a supported language code.
type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"
)

const (
	arabicBlockStart = '\u0600'
	arabicBlockEnd   = '\u06FF'
)

// Detect classifies text as Arabic or English.
func Detect(text string) Language {
	for _, r := range text {
		if r >= arabicBlockStart && r <= arabicBlockEnd {
			return Arabic
		}
	}
	return English
}

// Other returns the counterpart language.
func (l Language) Other() Language {
	if l == Arabic {
		return English
	}
	return Arabic
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	return l == English || l == Arabic
}

// String returns the language code.
func (l Language) String() string {
	return string(l)
}

// Parse converts a code into a Language.
func Parse(code string) (Language, bool) {
	l := Language(code)
	return l, l.Valid()
}
