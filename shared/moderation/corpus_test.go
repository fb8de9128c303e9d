package moderation

import (
	"errors"
	"testing"

	"hook-screener/internal/models"

	"github.com/google/go-cmp/cmp"
)

func TestPresets(t *testing.T) {
	if diff := cmp.Diff([]string{"fallback", "scraper", "standard"}, PresetNames()); diff != "" {
		t.Errorf("PresetNames() mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		preset   string
		lang     models.Language
		cat      models.Category
		expected int
	}{
		{"standard", models.LanguageEnglish, models.CategoryLong, 14},
		{"standard", models.LanguageGerman, models.CategoryLong, 4},
		{"standard", models.LanguageEnglish, models.CategoryShort, 13},
		{"standard", models.LanguageGerman, models.CategoryShort, 2},
		{"scraper", models.LanguageEnglish, models.CategoryShort, 10},
		{"scraper", models.LanguageEnglish, models.CategoryLong, 10},
		{"scraper", models.LanguageGerman, models.CategoryLong, 2},
		{"fallback", models.LanguageEnglish, models.CategoryShort, 1},
		{"fallback", models.LanguageGerman, models.CategoryShort, 0},
	}

	for _, tt := range tests {
		set, err := Preset(tt.preset)
		if err != nil {
			t.Fatalf("Preset(%s) error = %v", tt.preset, err)
		}
		c := set.Corpus(tt.lang, tt.cat)
		if len(c.Hooks) != tt.expected {
			t.Errorf("%s %s/%s: expected %d hooks, got %d", tt.preset, tt.lang, tt.cat, tt.expected, len(c.Hooks))
		}
		if tt.expected > 0 && c.Source != models.CorpusSourcePreset {
			t.Errorf("%s: expected preset source, got %s", tt.preset, c.Source)
		}
	}

	if _, err := Preset("missing"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("Expected ErrUnknownPreset, got %v", err)
	}
}

func TestCorpusSetIsImmutable(t *testing.T) {
	hooks := []string{"a", "b"}
	set := NewCorpusSet(CorpusEntry{Language: models.LanguageEnglish, Category: models.CategoryShort, Corpus: Corpus{Hooks: hooks, Source: models.CorpusSourceStore}})

	hooks[0] = "changed"
	got := set.Corpus(models.LanguageEnglish, models.CategoryShort)
	if got.Hooks[0] != "a" {
		t.Errorf("Expected set to copy input, got %v", got.Hooks)
	}

	got.Hooks[1] = "changed"
	if again := set.Corpus(models.LanguageEnglish, models.CategoryShort); again.Hooks[1] != "b" {
		t.Errorf("Expected set to return copies, got %v", again.Hooks)
	}

	missing := set.Corpus(models.LanguageGerman, models.CategoryLong)
	if !missing.Empty() || missing.Source != models.CorpusSourceNone {
		t.Errorf("Expected empty corpus with source none, got %+v", missing)
	}

	var nilSet *CorpusSet
	if c := nilSet.Corpus(models.LanguageEnglish, models.CategoryShort); !c.Empty() {
		t.Errorf("Expected nil set to resolve empty, got %+v", c)
	}
}

func TestParsePresetsRejectsUnknownKeys(t *testing.T) {
	if _, err := parsePresets([]byte("x:\n  klingon:\n    short: [a]\n")); err == nil {
		t.Error("Expected error for unknown language")
	}
	if _, err := parsePresets([]byte("x:\n  english:\n    medium: [a]\n")); err == nil {
		t.Error("Expected error for unknown category")
	}
}
