// Package analysis holds the lexical stages of the pipeline: normalization,
// term frequency ranking and the sentence index used for keyword search.
package analysis

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize lowercases text and deletes every rune that is neither a word
// character (letter, number, underscore) nor whitespace. Deleted runes are not
// replaced, so words separated only by punctuation merge.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// a Caser keeps state, so one is created per call
	lowered := cases.Lower(language.Und).String(text)
	return strings.Map(func(r rune) rune {
		if isWordRune(r) || isSpace(r) {
			return r
		}
		return -1
	}, lowered)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// isSpace extends unicode.IsSpace with the ASCII file, group, record and
// unit separators (U+001C to U+001F), which also split words.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// Tokenize splits normalized text on runs of whitespace.
func Tokenize(normalized string) []string {
	return strings.FieldsFunc(normalized, isSpace)
}
