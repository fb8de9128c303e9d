package moderation

import (
	"strings"

	"hook-screener/internal/models"
)

// LanguageDetector picks English or German from indicator words, then from
// which corpus the text resembles more.
type LanguageDetector struct {
	indicators []string
	threshold  int
	scorer     *SimilarityScorer
}

func NewLanguageDetector(indicators []string, threshold int, scorer *SimilarityScorer) *LanguageDetector {
	return &LanguageDetector{
		indicators: append([]string(nil), indicators...),
		threshold:  threshold,
		scorer:     scorer,
	}
}

// IndicatorCount counts indicator words that occur anywhere in the normalized
// text. Containment is by substring, so "ne" also counts inside "planet".
func (d *LanguageDetector) IndicatorCount(text string) int {
	lowered := Normalize(text)
	n := 0
	for _, word := range d.indicators {
		if strings.Contains(lowered, word) {
			n++
		}
	}
	return n
}

// Detect never fails; English is the default. corpora may be nil, in which
// case only the indicator count decides.
func (d *LanguageDetector) Detect(text string, cat models.Category, corpora CorpusLookup) models.Language {
	if d.IndicatorCount(text) >= d.threshold {
		return models.LanguageGerman
	}
	if corpora == nil || d.scorer == nil {
		return models.LanguageEnglish
	}

	english := d.matchCount(text, corpora.Corpus(models.LanguageEnglish, cat))
	german := d.matchCount(text, corpora.Corpus(models.LanguageGerman, cat))
	if german > english {
		return models.LanguageGerman
	}
	return models.LanguageEnglish
}

func (d *LanguageDetector) matchCount(text string, corpus Corpus) int {
	n := 0
	for _, hook := range corpus.Hooks {
		if d.scorer.Matches(text, hook) {
			n++
		}
	}
	return n
}
