package hookscreener

import (
	"fmt"

	"hook-screener/shared/ai"
	"hook-screener/shared/config"
	"hook-screener/shared/moderation"
)

// NewEngine builds the decision engine for the configured profile. With a
// Gemini client and semantic validation enabled, hook checks go to Gemini
// first and fall back to the heuristic validator.
func NewEngine(cfg *config.Config, client *ai.Client) (*moderation.Engine, error) {
	profile, err := moderation.ProfileByName(cfg.Screener.Profile)
	if err != nil {
		return nil, err
	}

	opts := []moderation.Option{moderation.WithMaxSuggestions(cfg.Screener.MaxSuggestions)}
	engine, err := moderation.NewEngine(profile, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision engine: %w", err)
	}
	if client == nil || !cfg.AI.SemanticValidation {
		return engine, nil
	}

	heuristic := engine.Heuristic()
	chain := &moderation.ChainValidator{
		Primary:  ai.NewHookValidator(client, heuristic, cfg.AI.MinConfidence),
		Fallback: heuristic,
	}
	return moderation.NewEngine(profile, append(opts, moderation.WithHookValidator(chain))...)
}

// FallbackCorpus returns the preset used when the hook store is unavailable.
// An empty name disables the fallback.
func FallbackCorpus(cfg *config.Config) (*moderation.CorpusSet, error) {
	if cfg.Screener.FallbackPreset == "" {
		return nil, nil
	}
	return moderation.Preset(cfg.Screener.FallbackPreset)
}
