package moderation

import (
	"math"
	"testing"
)

const (
	friendHook = "My friend who works at XYZ showed me this trick and IM NOT OKAY"
	friendText = "My friend who works at Vinted showed me this trick and IM NOT OKAY"
	sheinText  = "sick of Shein ruining our planet"
	brandHook  = "sick of *brand name here* ruining our planet with fast fashion so I built an app to BANKRUPT them"
	sheinHook  = "sick and tired of Shein polluting the environment so I finally did something about it and made this to BANKRUPT them..."
)

func newTestScorer(t *testing.T) *SimilarityScorer {
	t.Helper()
	return NewSimilarityScorer(newTestExtractor(t))
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCompare(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name   string
		a, b   string
		phrase float64
		word   float64
	}{
		{name: "tag-free near duplicate", a: friendText, b: friendHook, phrase: 1, word: 13.0 / 14.0},
		{name: "shared concept, little overlap", a: sheinText, b: brandHook, phrase: 0.5, word: 5.0 / 19.0},
		{name: "same concept, different words", a: sheinText, b: sheinHook, phrase: 1, word: 3.0 / 21.0},
		{name: "empty side", a: "", b: friendHook, phrase: 0, word: 0},
		{name: "punctuation only", a: "?!", b: friendHook, phrase: 0, word: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := s.Compare(tt.a, tt.b)
			if !almostEqual(sim.PhraseScore, tt.phrase) {
				t.Errorf("PhraseScore = %v, want %v", sim.PhraseScore, tt.phrase)
			}
			if !almostEqual(sim.WordScore, tt.word) {
				t.Errorf("WordScore = %v, want %v", sim.WordScore, tt.word)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{name: "near duplicate", a: friendText, b: friendHook, expected: true},
		{name: "phrase at threshold", a: sheinText, b: brandHook, expected: false},
		{name: "low word overlap", a: sheinText, b: sheinHook, expected: false},
		{name: "empty", a: "", b: "", expected: false},
		{name: "one side empty", a: friendText, b: "...", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := s.Matches(tt.a, tt.b); result != tt.expected {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestMatchesReflexive(t *testing.T) {
	s := newTestScorer(t)
	for _, name := range PresetNames() {
		set, err := Preset(name)
		if err != nil {
			t.Fatalf("Preset(%s) error = %v", name, err)
		}
		for _, e := range set.Entries() {
			for _, hook := range e.Corpus.Hooks {
				if !s.Matches(hook, hook) {
					t.Errorf("Expected %q to match itself", hook)
				}
			}
		}
	}
	for _, text := range []string{"hello", "thrifted outfits only", sheinText} {
		if !s.Matches(text, text) {
			t.Errorf("Expected %q to match itself", text)
		}
	}
}

func TestScore(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{name: "identical tag-free", a: "it feels ILLEGAL to know this Vinted Hack", b: "it feels ILLEGAL to know this Vinted Hack", expected: 1},
		{name: "identical with tags is clamped", a: sheinHook, b: sheinHook, expected: 1},
		{name: "short tokens ignored", a: friendText, b: friendHook, expected: 0.9},
		{name: "tag bonus", a: "vinted pinterest", b: "pinterest vinted thrift shop", expected: 0.7},
		{name: "bonus on top of overlap", a: sheinText, b: brandHook, expected: 4.0/14.0 + 0.2},
		{name: "only short tokens", a: "is it ok", b: "is it ok", expected: 0},
		{name: "empty", a: "", b: friendHook, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Score(tt.a, tt.b)
			if !almostEqual(result, tt.expected) {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestScoreBounded(t *testing.T) {
	s := newTestScorer(t)
	set, err := Preset("standard")
	if err != nil {
		t.Fatalf("Preset() error = %v", err)
	}

	var hooks []string
	for _, e := range set.Entries() {
		hooks = append(hooks, e.Corpus.Hooks...)
	}
	for _, a := range hooks {
		for _, b := range hooks {
			if score := s.Score(a, b); score < 0 || score > 1 {
				t.Fatalf("Score out of range: %v for %q / %q", score, a, b)
			}
		}
	}
}
