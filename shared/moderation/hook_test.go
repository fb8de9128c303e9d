package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hook-screener/internal/models"

	"github.com/google/go-cmp/cmp"
)

func newTestHeuristic(t *testing.T) *HeuristicValidator {
	t.Helper()
	return NewHeuristicValidator(newTestScorer(t), DefaultPlaybook())
}

func standardCorpus(t *testing.T, lang models.Language, cat models.Category) Corpus {
	t.Helper()
	set, err := Preset("standard")
	if err != nil {
		t.Fatalf("Preset() error = %v", err)
	}
	return set.Corpus(lang, cat)
}

func TestHeuristicValidateMatch(t *testing.T) {
	h := newTestHeuristic(t)
	corpus := standardCorpus(t, models.LanguageEnglish, models.CategoryShort)

	res, err := h.Validate(context.Background(), friendText, models.LanguageEnglish, models.CategoryShort, corpus)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !res.IsValid {
		t.Error("Expected hook to be valid")
	}
	if res.BestMatch != friendHook {
		t.Errorf("BestMatch = %q, want %q", res.BestMatch, friendHook)
	}
	if res.Validator != "heuristic" {
		t.Errorf("Validator = %q, want heuristic", res.Validator)
	}
}

func TestHeuristicValidateMismatchSuggestsClosestHook(t *testing.T) {
	h := newTestHeuristic(t)
	corpus := standardCorpus(t, models.LanguageEnglish, models.CategoryShort)

	res, err := h.Validate(context.Background(), sheinText, models.LanguageEnglish, models.CategoryShort, corpus)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.IsValid {
		t.Error("Expected hook to be invalid")
	}
	if res.BestMatch != brandHook {
		t.Errorf("BestMatch = %q, want %q", res.BestMatch, brandHook)
	}
	// Only the brand hook clears the phrasing threshold.
	if diff := cmp.Diff([]string{`"` + brandHook + `"`}, res.Suggestions); diff != "" {
		t.Errorf("Suggestions mismatch (-want +got):\n%s", diff)
	}
}

func TestHeuristicPhrasingAdvice(t *testing.T) {
	h := newTestHeuristic(t)
	corpus := Corpus{Hooks: []string{"i just found this app that finds clothes on Vinted from my Pinterest boards..."}}

	res, err := h.Validate(context.Background(), "i just made this app that finds clothes on Vinted", models.LanguageEnglish, models.CategoryShort, corpus)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(res.Suggestions) != 1 {
		t.Fatalf("Expected 1 suggestion, got %v", res.Suggestions)
	}
	s := res.Suggestions[0]
	for _, want := range []string{
		`Your hook needs to mention both "Vinted" AND "Pinterest" specifically - `,
		`Instead of "built/made", try "found" or "discovered" like: `,
		`"i just found this app`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected suggestion to contain %q, got %q", want, s)
		}
	}
}

func TestHeuristicFallbackSuggestions(t *testing.T) {
	h := newTestHeuristic(t)

	tests := []struct {
		name     string
		text     string
		lang     models.Language
		cat      models.Category
		expected []string
	}{
		{
			name: "english generic guidance",
			text: "hello world this is nothing",
			lang: models.LanguageEnglish,
			cat:  models.CategoryShort,
			expected: []string{
				`Your hook must mention both "Vinted" AND "Pinterest" specifically - these are required platforms`,
				`Use an engaging opening like "ok be honest..." or "i was definitely born in the right generation..."`,
			},
		},
		{
			name: "german generic guidance",
			text: "hallo zusammen heute nichts",
			lang: models.LanguageGerman,
			cat:  models.CategoryShort,
			expected: []string{
				`Dein Hook muss "Vinted" spezifisch erwähnen`,
				`Nutze die beliebte Phrase "definitiv aus der richtigen generation"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.Validate(context.Background(), tt.text, tt.lang, tt.cat, standardCorpus(t, tt.lang, tt.cat))
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if diff := cmp.Diff(tt.expected, res.Suggestions); diff != "" {
				t.Errorf("Suggestions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHeuristicEmptyCorpusFailsClosed(t *testing.T) {
	h := newTestHeuristic(t)

	res, err := h.Validate(context.Background(), friendText, models.LanguageEnglish, models.CategoryShort, Corpus{})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.IsValid {
		t.Error("Expected empty corpus to fail closed")
	}
	if !res.CorpusMissing || res.Reason != "no reference corpus" {
		t.Errorf("Expected corpus-missing result, got %+v", res)
	}
	if len(res.Suggestions) == 0 {
		t.Error("Expected a statement about the missing corpus")
	}
}

func TestHeuristicRejectsUnknownKeys(t *testing.T) {
	h := newTestHeuristic(t)
	ctx := context.Background()

	if _, err := h.Validate(ctx, friendText, models.Language("french"), models.CategoryShort, Corpus{}); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("Expected ErrUnknownLanguage, got %v", err)
	}
	if _, err := h.Validate(ctx, friendText, models.LanguageEnglish, models.Category("medium"), Corpus{}); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Expected ErrUnknownCategory, got %v", err)
	}
}

func TestBestMatchTieKeepsCorpusOrder(t *testing.T) {
	h := newTestHeuristic(t)
	corpus := Corpus{Hooks: []string{"alpha beta", "gamma delta", "alpha beta"}}

	bestMatch := func(text string, corpus Corpus) string {
		t.Helper()
		res, err := h.Validate(context.Background(), text, models.LanguageEnglish, models.CategoryShort, corpus)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		return res.BestMatch
	}

	if got := bestMatch("nothing here", corpus); got != "alpha beta" {
		t.Errorf("BestMatch = %q, want first entry", got)
	}
	if got := bestMatch("gamma delta", corpus); got != "gamma delta" {
		t.Errorf("BestMatch = %q, want gamma delta", got)
	}
	if got := bestMatch("x", Corpus{}); got != "" {
		t.Errorf("BestMatch on empty corpus = %q, want empty", got)
	}
}

func TestCapUnique(t *testing.T) {
	got := capUnique([]string{"a", "b", "a", "c"}, 2)
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("capUnique() mismatch (-want +got):\n%s", diff)
	}
	if got := capUnique(nil, 2); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}

type stubValidator struct {
	result HookResult
	err    error
	calls  int
}

func (s *stubValidator) Validate(context.Context, string, models.Language, models.Category, Corpus) (HookResult, error) {
	s.calls++
	return s.result, s.err
}

func TestChainValidator(t *testing.T) {
	ctx := context.Background()
	corpus := Corpus{Hooks: []string{friendHook}}

	t.Run("primary answers", func(t *testing.T) {
		primary := &stubValidator{result: HookResult{IsValid: true, Validator: "semantic"}}
		fallback := &stubValidator{}
		c := &ChainValidator{Primary: primary, Fallback: fallback}

		res, err := c.Validate(ctx, friendText, models.LanguageEnglish, models.CategoryShort, corpus)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if !res.IsValid || res.Validator != "semantic" || fallback.calls != 0 {
			t.Errorf("Expected primary result only, got %+v (fallback calls %d)", res, fallback.calls)
		}
	})

	t.Run("primary fails", func(t *testing.T) {
		primary := &stubValidator{err: errors.New("quota exceeded")}
		c := &ChainValidator{Primary: primary, Fallback: newTestHeuristic(t)}

		res, err := c.Validate(ctx, friendText, models.LanguageEnglish, models.CategoryShort, corpus)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if !res.IsValid || res.Validator != "heuristic" {
			t.Errorf("Expected heuristic result, got %+v", res)
		}
		if !strings.Contains(res.Note, "quota exceeded") {
			t.Errorf("Expected note to mention primary error, got %q", res.Note)
		}
	})

	t.Run("no primary", func(t *testing.T) {
		c := &ChainValidator{Fallback: newTestHeuristic(t)}
		res, err := c.Validate(ctx, friendText, models.LanguageEnglish, models.CategoryShort, corpus)
		if err != nil || !res.IsValid {
			t.Errorf("Expected heuristic match, got %+v, %v", res, err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		c := &ChainValidator{Primary: &stubValidator{err: context.Canceled}, Fallback: newTestHeuristic(t)}
		if _, err := c.Validate(cctx, friendText, models.LanguageEnglish, models.CategoryShort, corpus); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}
