// Package keywords tokenises narration and node labels and scores how much two keyword sets overlap.
package keywords

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinKeywordLength is the shortest token kept; shorter tokens carry no topical signal.
const MinKeywordLength = 3

// Analyzer extracts keywords from free text.
type Analyzer struct {
	stopWords map[string]bool
	minLength int
}

// NewAnalyzer creates an analyzer with the default German/English stop words.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		stopWords: defaultStopWords(),
		minLength: MinKeywordLength,
	}
}

// NewAnalyzerWithStopWords creates an analyzer with a custom stop word list.
func NewAnalyzerWithStopWords(words []string) *Analyzer {
	stop := make(map[string]bool, len(words))
	for _, w := range words {
		stop[strings.ToLower(w)] = true
	}
	return &Analyzer{stopWords: stop, minLength: MinKeywordLength}
}

// Extract lowercases text, splits it on non-word characters and drops short tokens and stop words.
// Keywords are returned once each, in order of first appearance.
func (a *Analyzer) Extract(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]bool)
	var keywords []string
	for _, word := range Tokenize(text) {
		if utf8.RuneCountInString(word) < a.minLength || a.stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
	}
	return keywords
}

// IsStopWord reports whether word is filtered by this analyzer.
func (a *Analyzer) IsStopWord(word string) bool {
	return a.stopWords[strings.ToLower(word)]
}

// Tokenize breaks text into lowercase words. Letters, digits and underscores form words.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}

func defaultStopWords() map[string]bool {
	words := []string{
		// German
		"der", "die", "das", "und", "den", "dem", "des", "für", "mit", "von", "ist", "sind",
		"ein", "eine", "einen", "einem", "einer", "als", "auf", "auch", "bei", "oder", "wie",
		"was", "wir", "sie", "kann", "können", "werden", "wird", "nicht", "noch", "nur",
		"aus", "dass", "aber", "sich", "zum", "zur", "über", "uns", "ihr", "hier", "dann",
		// English
		"the", "and", "for", "are", "was", "were", "been", "being", "have", "has", "had",
		"with", "this", "that", "these", "those", "from", "but", "not", "you", "your",
		"our", "their", "they", "will", "would", "can", "could", "should", "about",
		"into", "than", "then", "there", "what", "which", "when", "who", "how", "its",
	}
	stop := make(map[string]bool, len(words))
	for _, w := range words {
		stop[w] = true
	}
	return stop
}
