package moderation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"hook-screener/internal/models"
)

const (
	maxHookSuggestions     = 2
	candidateScoreMinimum  = 0.3
	suggestionScoreMinimum = 0.4
	minSuggestionLength    = 20
)

// HookResult is what a HookValidator concludes about one text.
type HookResult struct {
	IsValid       bool
	BestMatch     string
	Suggestions   []string
	CorpusMissing bool
	Confidence    float64
	Validator     string
	Reason        string
	Note          string
}

// HookValidator judges on-screen text against a reference corpus. An empty
// corpus must produce IsValid=false and CorpusMissing=true, not an error.
type HookValidator interface {
	Validate(ctx context.Context, text string, lang models.Language, cat models.Category, corpus Corpus) (HookResult, error)
}

// HeuristicValidator is the deterministic validator built on SimilarityScorer.
type HeuristicValidator struct {
	scorer   *SimilarityScorer
	playbook Playbook
}

func NewHeuristicValidator(scorer *SimilarityScorer, playbook Playbook) *HeuristicValidator {
	return &HeuristicValidator{scorer: scorer, playbook: playbook}
}

var _ HookValidator = (*HeuristicValidator)(nil)

type rankedHook struct {
	hook  string
	score float64
}

func (h *HeuristicValidator) Validate(_ context.Context, text string, lang models.Language, cat models.Category, corpus Corpus) (HookResult, error) {
	if err := checkKey(lang, cat); err != nil {
		return HookResult{}, err
	}
	if corpus.Empty() {
		return EmptyCorpusResult(lang, cat, "heuristic"), nil
	}

	valid := false
	for _, hook := range corpus.Hooks {
		if h.scorer.Matches(text, hook) {
			valid = true
			break
		}
	}

	ranked := h.rank(text, corpus)
	return HookResult{
		IsValid:     valid,
		BestMatch:   ranked[0].hook,
		Suggestions: h.suggest(text, lang, ranked),
		Confidence:  ranked[0].score,
		Validator:   "heuristic",
	}, nil
}

// rank orders the corpus by Score, keeping corpus order between equal scores.
func (h *HeuristicValidator) rank(text string, corpus Corpus) []rankedHook {
	ranked := make([]rankedHook, len(corpus.Hooks))
	for i, hook := range corpus.Hooks {
		ranked[i] = rankedHook{hook: hook, score: h.scorer.Score(text, hook)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	return ranked
}

// checkKey rejects languages and categories outside the closed sets.
func checkKey(lang models.Language, cat models.Category) error {
	if _, err := models.ParseLanguage(string(lang)); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	if cat != models.CategoryShort && cat != models.CategoryLong {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	return nil
}

// EmptyCorpusResult is the fail-closed answer when no reference hooks exist.
func EmptyCorpusResult(lang models.Language, cat models.Category, validator string) HookResult {
	return HookResult{
		CorpusMissing: true,
		Validator:     validator,
		Reason:        "no reference corpus",
		Suggestions: []string{
			fmt.Sprintf("No approved %s %s hooks are configured yet; add reference hooks to the corpus store and re-run the check", lang, cat),
		},
	}
}

type textFeatures struct {
	appMention       bool
	actionWords      bool
	questionWords    bool
	generationPhrase bool
	platformCombo    bool
	primary          bool
	secondhand       bool
}

func (h *HeuristicValidator) features(normalized string) textFeatures {
	words := make(map[string]bool)
	for _, w := range strings.Split(normalized, " ") {
		words[w] = true
	}
	anyWord := func(list []string) bool {
		for _, w := range list {
			if words[w] {
				return true
			}
		}
		return false
	}
	anyPhrase := func(list []string) bool {
		for _, p := range list {
			if strings.Contains(normalized, p) {
				return true
			}
		}
		return false
	}

	primary := strings.Contains(normalized, h.playbook.Primary.Key)
	return textFeatures{
		appMention:       anyWord(h.playbook.AppWords),
		actionWords:      anyWord(h.playbook.ActionWords),
		questionWords:    anyWord(h.playbook.QuestionWords),
		generationPhrase: anyPhrase(h.playbook.Catchphrases),
		platformCombo:    primary && strings.Contains(normalized, h.playbook.Secondary.Key),
		primary:          primary,
		secondhand:       anyPhrase(h.playbook.SecondhandWords),
	}
}

func (h *HeuristicValidator) suggest(text string, lang models.Language, ranked []rankedHook) []string {
	f := h.features(Normalize(text))
	primary, secondary := h.playbook.Primary, h.playbook.Secondary
	catchphrase := "born in the right generation"
	if len(h.playbook.Catchphrases) > 0 {
		catchphrase = h.playbook.Catchphrases[0]
	}

	var suggestions []string
	for i, r := range ranked {
		if i >= maxHookSuggestions || r.score <= candidateScoreMinimum {
			break
		}
		if r.score <= suggestionScoreMinimum {
			continue
		}

		hook := strings.ToLower(r.hook)
		var b strings.Builder
		if f.appMention && !strings.Contains(hook, "app") {
			fmt.Fprintf(&b, "Replace generic \"app/platform\" with specific mentions like %q and %q - ", primary.Display, secondary.Display)
		}
		if !f.platformCombo && strings.Contains(hook, primary.Key) && strings.Contains(hook, secondary.Key) {
			fmt.Fprintf(&b, "Your hook needs to mention both %q AND %q specifically - ", primary.Display, secondary.Display)
		}
		if f.actionWords && strings.Contains(hook, "found") {
			b.WriteString(`Instead of "built/made", try "found" or "discovered" like: `)
		}
		if f.questionWords && !strings.Contains(hook, "honest") {
			b.WriteString(`Make it more casual with "be honest" or similar phrasing: `)
		}
		if !f.generationPhrase && strings.Contains(hook, catchphrase) {
			fmt.Fprintf(&b, "Add the viral phrase %q: ", catchphrase)
		}
		b.WriteString(`"` + r.hook + `"`)

		if s := b.String(); len(s) > minSuggestionLength {
			suggestions = append(suggestions, s)
		}
	}

	if len(suggestions) == 0 {
		suggestions = h.fallbackSuggestions(lang, f)
	}
	return capUnique(suggestions, maxHookSuggestions)
}

func (h *HeuristicValidator) fallbackSuggestions(lang models.Language, f textFeatures) []string {
	primary, secondary := h.playbook.Primary, h.playbook.Secondary

	var out []string
	if lang == models.LanguageGerman {
		if !f.primary {
			out = append(out, fmt.Sprintf("Dein Hook muss %q spezifisch erwähnen", primary.Display))
		}
		if !f.generationPhrase {
			out = append(out, `Nutze die beliebte Phrase "definitiv aus der richtigen generation"`)
		}
		return out
	}

	if !f.platformCombo {
		out = append(out, fmt.Sprintf("Your hook must mention both %q AND %q specifically - these are required platforms", primary.Display, secondary.Display))
	}
	if !f.questionWords && !f.generationPhrase {
		out = append(out, `Use an engaging opening like "ok be honest..." or "i was definitely born in the right generation..."`)
	}
	if !f.secondhand {
		out = append(out, `Emphasize the secondhand/thrifting aspect with words like "thrifted", "vintage", or "second hand"`)
	}
	return out
}

// capUnique drops repeats, keeps first occurrences and truncates to n.
func capUnique(items []string, n int) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, min(len(items), n))
	for _, s := range items {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	return out
}

// ChainValidator asks Primary first and falls back to Fallback when Primary
// errors. A nil Primary means only Fallback is used.
type ChainValidator struct {
	Primary  HookValidator
	Fallback HookValidator
}

var _ HookValidator = (*ChainValidator)(nil)

func (c *ChainValidator) Validate(ctx context.Context, text string, lang models.Language, cat models.Category, corpus Corpus) (HookResult, error) {
	if c.Primary == nil {
		return c.Fallback.Validate(ctx, text, lang, cat, corpus)
	}
	res, err := c.Primary.Validate(ctx, text, lang, cat, corpus)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return HookResult{}, ctx.Err()
	}

	res, ferr := c.Fallback.Validate(ctx, text, lang, cat, corpus)
	if ferr != nil {
		return HookResult{}, fmt.Errorf("fallback validation failed: %w (primary: %v)", ferr, err)
	}
	res.Note = fmt.Sprintf("semantic validation unavailable (%v); heuristic result used", err)
	return res, nil
}
