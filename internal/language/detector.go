// Package language provides lightweight language detection and LLM-backed
// translation for the multilingual retrieval pipeline.
package language

import (
	"strings"
	"unicode"
)

// DefaultLanguage is returned when detection cannot decide.
const DefaultLanguage = "en"

// stopwords per language. Short, high-frequency function words dominate any
// real text, so a handful per language is enough to separate the supported
// set.
var stopwords = map[string][]string{
	"en": {"the", "and", "is", "of", "to", "in", "that", "it", "for", "with", "as", "was", "are", "this", "not"},
	"ru": {"и", "в", "не", "на", "что", "он", "как", "это", "по", "но", "его", "она", "они", "мы", "из"},
	"de": {"der", "die", "und", "das", "ist", "nicht", "mit", "ein", "eine", "den", "von", "auf", "für", "sich", "dem"},
	"fr": {"le", "la", "et", "les", "des", "est", "un", "une", "dans", "que", "pour", "qui", "pas", "sur", "avec"},
	"es": {"el", "la", "de", "que", "los", "las", "es", "un", "una", "por", "con", "para", "del", "más", "pero"},
}

// Detector guesses the language of a text among the supported set.
type Detector struct {
	supported []string
	wordSets  map[string]map[string]struct{}
}

// NewDetector creates a detector restricted to the given language codes.
// Unknown codes are ignored; an empty list enables all built-in languages.
func NewDetector(supported []string) *Detector {
	if len(supported) == 0 {
		for code := range stopwords {
			supported = append(supported, code)
		}
	}

	wordSets := make(map[string]map[string]struct{}, len(supported))
	for _, code := range supported {
		words, ok := stopwords[code]
		if !ok {
			continue
		}
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		wordSets[code] = set
	}

	return &Detector{supported: supported, wordSets: wordSets}
}

// Detect returns the most likely language code and a confidence in [0,1].
// Empty or undecidable text falls back to English with zero confidence.
func (d *Detector) Detect(text string) (string, float64) {
	if strings.TrimSpace(text) == "" {
		return DefaultLanguage, 0.0
	}

	// Cyrillic script is unambiguous within the supported set.
	if cyrillicRatio(text) > 0.3 {
		if _, ok := d.wordSets["ru"]; ok {
			return "ru", 0.95
		}
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return DefaultLanguage, 0.0
	}

	best := DefaultLanguage
	bestHits := 0
	total := 0
	for code, set := range d.wordSets {
		hits := 0
		for _, tok := range tokens {
			if _, ok := set[tok]; ok {
				hits++
			}
		}
		total += hits
		if hits > bestHits {
			bestHits = hits
			best = code
		}
	}

	if bestHits == 0 {
		return DefaultLanguage, 0.0
	}

	confidence := float64(bestHits) / float64(len(tokens))
	if confidence > 1 {
		confidence = 1
	}
	// Scale up when the winner clearly dominates other languages.
	if total > 0 && bestHits*2 > total {
		confidence = confidence/2 + 0.5
	}

	return best, confidence
}

// IsSupported reports whether code is in the supported set.
func (d *Detector) IsSupported(code string) bool {
	for _, c := range d.supported {
		if c == code {
			return true
		}
	}
	return false
}

// Supported returns the supported language codes.
func (d *Detector) Supported() []string {
	return d.supported
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func cyrillicRatio(text string) float64 {
	letters, cyrillic := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Cyrillic, r) {
			cyrillic++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(cyrillic) / float64(letters)
}
