package moderation

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "pure punctuation", input: "?!...,,", expected: ""},
		{name: "emoji only", input: "😭😭", expected: ""},
		{name: "lowercase and punctuation", input: "Hello, World!!", expected: "hello world"},
		{name: "collapses whitespace", input: "  ok   be\thonest...  \n", expected: "ok be honest"},
		{name: "hyphen becomes space", input: "second-hand", expected: "second hand"},
		{name: "apostrophe becomes space", input: "i'm", expected: "i m"},
		{name: "keeps umlauts", input: "Für MICH auf Vinted", expected: "für mich auf vinted"},
		{name: "keeps digits", input: "3 YEARS ON VINTED", expected: "3 years on vinted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			if result != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	set, err := Preset("standard")
	if err != nil {
		t.Fatalf("Preset() error = %v", err)
	}

	inputs := []string{"", "   ", "İstanbul ẞ Σίσυφος", "áb", "🙆‍♀️ ok"}
	for _, e := range set.Entries() {
		inputs = append(inputs, e.Corpus.Hooks...)
	}

	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTokens(t *testing.T) {
	tokens := Tokens("ok be honest... is this a GOOD idea??")
	expected := []string{"ok", "be", "honest", "is", "this", "a", "good", "idea"}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d (%v)", len(expected), len(tokens), tokens)
	}
	for i := range tokens {
		if tokens[i] != expected[i] {
			t.Errorf("Token %d = %q, want %q", i, tokens[i], expected[i])
		}
	}

	if got := Tokens("!!!"); len(got) != 0 {
		t.Errorf("Expected no tokens for punctuation, got %v", got)
	}
}
