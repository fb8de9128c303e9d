package ai

import (
	"context"
	"fmt"
	"strings"

	"hook-screener/internal/models"
	"hook-screener/shared/moderation"

	"google.golang.org/genai"
)

const semanticValidatorName = "semantic"

// HookValidator asks Gemini whether a text follows one of the reference hooks.
// Suggestions and the fallback best match come from the heuristic validator.
type HookValidator struct {
	client        *Client
	heuristic     *moderation.HeuristicValidator
	minConfidence float64
}

var _ moderation.HookValidator = (*HookValidator)(nil)

func NewHookValidator(client *Client, heuristic *moderation.HeuristicValidator, minConfidence float64) *HookValidator {
	return &HookValidator{client: client, heuristic: heuristic, minConfidence: minConfidence}
}

type hookAnswer struct {
	IsValid     bool    `json:"isValid"`
	MatchedHook string  `json:"matchedHook"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
}

func (v *HookValidator) Validate(ctx context.Context, text string, lang models.Language, cat models.Category, corpus moderation.Corpus) (moderation.HookResult, error) {
	// The heuristic also rejects unknown keys.
	base, err := v.heuristic.Validate(ctx, text, lang, cat, corpus)
	if err != nil {
		return moderation.HookResult{}, err
	}
	if corpus.Empty() {
		return moderation.EmptyCorpusResult(lang, cat, semanticValidatorName), nil
	}

	var answer hookAnswer
	if err := v.client.generateJSON(ctx, &answer, genai.NewPartFromText(buildHookPrompt(text, lang, cat, corpus))); err != nil {
		return moderation.HookResult{}, fmt.Errorf("failed to validate hook semantically: %w", err)
	}

	bestMatch := base.BestMatch
	if matched := findHook(corpus, answer.MatchedHook); matched != "" {
		bestMatch = matched
	}

	return moderation.HookResult{
		IsValid:     answer.IsValid && answer.Confidence > v.minConfidence,
		BestMatch:   bestMatch,
		Suggestions: base.Suggestions,
		Confidence:  answer.Confidence,
		Validator:   semanticValidatorName,
		Reason:      answer.Reason,
	}, nil
}

// findHook maps the model's echo of a hook back to the corpus entry.
func findHook(corpus moderation.Corpus, matched string) string {
	matched = moderation.Normalize(matched)
	if matched == "" {
		return ""
	}
	for _, hook := range corpus.Hooks {
		if moderation.Normalize(hook) == matched {
			return hook
		}
	}
	return ""
}

func buildHookPrompt(text string, lang models.Language, cat models.Category, corpus moderation.Corpus) string {
	var hooks strings.Builder
	for i, hook := range corpus.Hooks {
		fmt.Fprintf(&hooks, "%d. %s\n", i+1, hook)
	}

	return fmt.Sprintf(`You are reviewing the on-screen hook of a %s %s-format marketing video.

APPROVED HOOKS:
%s
CREATOR TEXT:
%s

INSTRUCTIONS:
1. Decide whether the creator text follows the structure and message of one of the approved hooks
2. Wording may differ, brand names may be swapped, but the concept and the hook pattern must be the same
3. Be strict - a text that only shares a topic is not a match

Please answer in the following JSON format:
{
  "isValid": boolean,
  "matchedHook": "the approved hook it follows, copied exactly, or empty",
  "confidence": number (0-1),
  "reason": "one sentence explaining the decision"
}`, lang, cat, hooks.String(), text)
}
