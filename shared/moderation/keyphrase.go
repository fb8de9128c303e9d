package moderation

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// KeyPhraseRule maps a CEL predicate to a concept tag. The predicate sees the
// normalized text as `text` and the platform keys as `primary` and `secondary`.
type KeyPhraseRule struct {
	Tag  string `yaml:"tag"`
	Expr string `yaml:"expr"`
}

var DefaultKeyPhraseRules = []KeyPhraseRule{
	{Tag: "platform_combination", Expr: `text.contains(primary) && text.contains(secondary)`},
	{Tag: "app_platform_reference", Expr: `text.contains("app") && (text.contains(primary) || text.contains(secondary))`},
	{Tag: "secondhand_concept", Expr: `text.contains("thrift") || text.contains("second hand") || text.contains("vintage")`},
	{Tag: "image_search_reference", Expr: `(text.contains("image search") || text.contains("photo") || text.contains("picture")) && text.contains(primary)`},
	{Tag: "fashion_related", Expr: `text.contains("clothes") || text.contains("outfit") || text.contains("fashion")`},
	{Tag: "platform_search_action", Expr: `(text.contains("find") || text.contains("search")) && (text.contains(secondary) || text.contains(primary))`},
	{Tag: "generation_catchphrase", Expr: `text.contains("born in the right generation")`},
	{Tag: "validation_seeking_tone", Expr: `text.contains("good idea") && text.contains("honest")`},
	{Tag: "fast_fashion_rejection", Expr: `text.contains("fast fashion") || text.contains("shein")`},
}

type compiledRule struct {
	tag string
	prg cel.Program
}

// KeyPhraseExtractor evaluates an ordered rule table. Programs are compiled
// once and are safe for concurrent use.
type KeyPhraseExtractor struct {
	rules     []compiledRule
	primary   string
	secondary string
}

func NewKeyPhraseExtractor(rules []KeyPhraseRule, primary, secondary string) (*KeyPhraseExtractor, error) {
	env, err := cel.NewEnv(
		cel.Variable("text", cel.StringType),
		cel.Variable("primary", cel.StringType),
		cel.Variable("secondary", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule environment: %w", err)
	}

	e := &KeyPhraseExtractor{primary: primary, secondary: secondary}
	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if rule.Tag == "" {
			return nil, fmt.Errorf("key phrase rule %q has no tag", rule.Expr)
		}
		if seen[rule.Tag] {
			return nil, fmt.Errorf("duplicate key phrase tag %q", rule.Tag)
		}
		seen[rule.Tag] = true

		ast, iss := env.Compile(rule.Expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", rule.Tag, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s must evaluate to bool, got %s", rule.Tag, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to build rule %s: %w", rule.Tag, err)
		}
		e.rules = append(e.rules, compiledRule{tag: rule.Tag, prg: prg})
	}
	return e, nil
}

// Extract returns the tags whose predicate holds for normalized text, in rule order.
func (e *KeyPhraseExtractor) Extract(normalized string) []string {
	vars := map[string]any{
		"text":      normalized,
		"primary":   e.primary,
		"secondary": e.secondary,
	}

	var tags []string
	for _, rule := range e.rules {
		out, _, err := rule.prg.Eval(vars)
		if err != nil {
			continue
		}
		if ok, _ := out.Value().(bool); ok {
			tags = append(tags, rule.tag)
		}
	}
	return tags
}
