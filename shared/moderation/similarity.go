package moderation

import (
	"strings"
	"unicode/utf8"
)

const (
	// Match when (phrase > 0.5 and word > 0.6) or (phrase > 0.7 and word > 0.4).
	strongPhraseThreshold = 0.7
	phraseThreshold       = 0.5
	wordThreshold         = 0.6
	looseWordThreshold    = 0.4

	tagOverlapBonus = 0.2
	// Ranking ignores tokens of this many runes or fewer.
	shortTokenRunes = 2
)

// Similarity is the pair of component scores behind Matches.
type Similarity struct {
	PhraseScore float64
	WordScore   float64
}

// SimilarityScorer compares a candidate hook with reference hooks.
type SimilarityScorer struct {
	extractor *KeyPhraseExtractor
}

func NewSimilarityScorer(extractor *KeyPhraseExtractor) *SimilarityScorer {
	return &SimilarityScorer{extractor: extractor}
}

// Compare returns the phrase and word scores of a against b. Both texts are
// normalized first. A text that normalizes to nothing scores zero.
func (s *SimilarityScorer) Compare(a, b string) Similarity {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return Similarity{}
	}

	wordsA, wordsB := strings.Split(na, " "), strings.Split(nb, " ")
	return Similarity{
		PhraseScore: phraseScore(s.extractor.Extract(na), s.extractor.Extract(nb)),
		WordScore:   overlapRatio(wordsA, wordsB),
	}
}

// Matches is the boolean "close enough to an approved hook" test.
func (s *SimilarityScorer) Matches(a, b string) bool {
	sim := s.Compare(a, b)
	return (sim.PhraseScore > phraseThreshold && sim.WordScore > wordThreshold) ||
		(sim.PhraseScore > strongPhraseThreshold && sim.WordScore > looseWordThreshold)
}

// Score ranks reference hooks for suggestions. It counts long-token overlap and
// adds a bonus when any concept tag is shared exactly. The result is in [0,1].
func (s *SimilarityScorer) Score(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}

	score := overlapRatio(longTokens(na), longTokens(nb))

	tagsB := make(map[string]bool)
	for _, tag := range s.extractor.Extract(nb) {
		tagsB[tag] = true
	}
	for _, tag := range s.extractor.Extract(na) {
		if tagsB[tag] {
			score += tagOverlapBonus
			break
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

// phraseScore counts tags of a that contain, or are contained in, some tag of b.
// Two tag-free texts agree vacuously.
func phraseScore(tagsA, tagsB []string) float64 {
	if len(tagsA) == 0 && len(tagsB) == 0 {
		return 1
	}
	if len(tagsA) == 0 || len(tagsB) == 0 {
		return 0
	}

	matching := 0
	for _, ta := range tagsA {
		for _, tb := range tagsB {
			if strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				matching++
				break
			}
		}
	}
	return float64(matching) / float64(max(len(tagsA), len(tagsB)))
}

// overlapRatio counts tokens of a (duplicates included) present in b.
func overlapRatio(a, b []string) float64 {
	denom := max(len(a), len(b))
	if denom == 0 {
		return 0
	}

	inB := make(map[string]bool, len(b))
	for _, w := range b {
		inB[w] = true
	}
	overlap := 0
	for _, w := range a {
		if inB[w] {
			overlap++
		}
	}
	return float64(overlap) / float64(denom)
}

func longTokens(normalized string) []string {
	var out []string
	for _, w := range strings.Split(normalized, " ") {
		if utf8.RuneCountInString(w) > shortTokenRunes {
			out = append(out, w)
		}
	}
	return out
}
