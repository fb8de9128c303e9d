package moderation

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"hook-screener/internal/models"

	"gopkg.in/yaml.v3"
)

// Corpus is an ordered list of approved reference hooks.
type Corpus struct {
	Hooks  []string
	Source models.CorpusSource
}

func (c Corpus) Empty() bool {
	return len(c.Hooks) == 0
}

// CorpusLookup resolves the reference corpus for a language and category.
type CorpusLookup interface {
	Corpus(lang models.Language, cat models.Category) Corpus
}

type corpusKey struct {
	lang models.Language
	cat  models.Category
}

// CorpusEntry is one language/category slot of a CorpusSet.
type CorpusEntry struct {
	Language models.Language
	Category models.Category
	Corpus   Corpus
}

// CorpusSet is an immutable snapshot of reference corpora. Missing slots
// resolve to an empty corpus with source "none".
type CorpusSet struct {
	corpora map[corpusKey]Corpus
}

func NewCorpusSet(entries ...CorpusEntry) *CorpusSet {
	s := &CorpusSet{corpora: make(map[corpusKey]Corpus, len(entries))}
	for _, e := range entries {
		s.corpora[corpusKey{e.Language, e.Category}] = Corpus{
			Hooks:  append([]string(nil), e.Corpus.Hooks...),
			Source: e.Corpus.Source,
		}
	}
	return s
}

func (s *CorpusSet) Corpus(lang models.Language, cat models.Category) Corpus {
	if s == nil {
		return Corpus{Source: models.CorpusSourceNone}
	}
	c, ok := s.corpora[corpusKey{lang, cat}]
	if !ok {
		return Corpus{Source: models.CorpusSourceNone}
	}
	return Corpus{Hooks: append([]string(nil), c.Hooks...), Source: c.Source}
}

// Entries lists every populated slot in language then category order.
func (s *CorpusSet) Entries() []CorpusEntry {
	var out []CorpusEntry
	for _, lang := range models.Languages {
		for _, cat := range models.Categories {
			if c, ok := s.corpora[corpusKey{lang, cat}]; ok {
				out = append(out, CorpusEntry{Language: lang, Category: cat, Corpus: c})
			}
		}
	}
	return out
}

//go:embed presets.yaml
var presetsYAML []byte

// preset name -> language -> category (or "any") -> hooks
type presetFile map[string]map[string]map[string][]string

var loadPresets = sync.OnceValues(func() (map[string]*CorpusSet, error) {
	return parsePresets(presetsYAML)
})

func parsePresets(data []byte) (map[string]*CorpusSet, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse corpus presets: %w", err)
	}

	out := make(map[string]*CorpusSet, len(file))
	for name, languages := range file {
		var entries []CorpusEntry
		for langName, categories := range languages {
			lang, err := models.ParseLanguage(langName)
			if err != nil {
				return nil, fmt.Errorf("preset %s: %w", name, err)
			}
			for catName, hooks := range categories {
				targets := []models.Category{models.Category(catName)}
				if catName == "any" {
					targets = models.Categories
				} else if cat, err := models.ParseCategory(catName); err != nil || cat == models.CategoryUnspecified {
					return nil, fmt.Errorf("preset %s: unknown category %q", name, catName)
				}
				for _, cat := range targets {
					entries = append(entries, CorpusEntry{
						Language: lang,
						Category: cat,
						Corpus:   Corpus{Hooks: hooks, Source: models.CorpusSourcePreset},
					})
				}
			}
		}
		out[name] = NewCorpusSet(entries...)
	}
	return out, nil
}

// Preset returns a named built-in corpus snapshot.
func Preset(name string) (*CorpusSet, error) {
	presets, err := loadPresets()
	if err != nil {
		return nil, err
	}
	set, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return set, nil
}

func PresetNames() []string {
	presets, err := loadPresets()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
