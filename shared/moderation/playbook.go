package moderation

// Platform is a brand the playbook expects creators to name. Key is matched
// against normalized text, Display is used in messages.
type Platform struct {
	Key     string `yaml:"key"`
	Display string `yaml:"display"`
}

// Playbook holds the brand vocabulary the checks are built from.
type Playbook struct {
	Primary   Platform `yaml:"primary"`
	Secondary Platform `yaml:"secondary"`

	GermanIndicators []string `yaml:"german_indicators"`
	GermanThreshold  int      `yaml:"german_threshold"`

	AppWords        []string `yaml:"app_words"`
	ActionWords     []string `yaml:"action_words"`
	QuestionWords   []string `yaml:"question_words"`
	Catchphrases    []string `yaml:"catchphrases"`
	SecondhandWords []string `yaml:"secondhand_words"`
	ConceptKeywords []string `yaml:"concept_keywords"`

	// OriginalOpeners are regular expressions matched against normalized text.
	OriginalOpeners []string        `yaml:"original_openers"`
	KeyPhraseRules  []KeyPhraseRule `yaml:"key_phrase_rules"`
}

var extendedGermanIndicators = []string{
	"ich", "bin", "eine", "der", "die", "das", "und", "oder", "aber", "weil", "wenn", "was", "wie",
	"definitiv", "generation", "einfach", "gibt", "app", "für", "mich", "auf", "vinted",
	"pinterest", "outfits", "findet", "seitdem", "nie", "mehr", "benutzt", "shein", "klamotten",
	"vintage", "verkauft", "anderen", "fast", "fashion", "rausfiltern", "kann", "durchsucht",
	"komme", "aus", "richtigen", "meintst", "du", "es", "ne", "meine", "pintrest",
}

var compactGermanIndicators = extendedGermanIndicators[:31]

// DefaultPlaybook returns the thrift-search playbook. German indicators are the extended list.
func DefaultPlaybook() Playbook {
	return Playbook{
		Primary:          Platform{Key: "vinted", Display: "Vinted"},
		Secondary:        Platform{Key: "pinterest", Display: "Pinterest"},
		GermanIndicators: append([]string(nil), extendedGermanIndicators...),
		GermanThreshold:  3,
		AppWords:         []string{"app", "application", "platform"},
		ActionWords:      []string{"built", "made", "created", "developed"},
		QuestionWords:    []string{"honest", "good", "idea", "think"},
		Catchphrases:     []string{"born in the right generation", "right generation"},
		SecondhandWords:  []string{"thrift", "second hand", "vintage"},
		ConceptKeywords:  []string{"app", "thrift", "second hand"},
		OriginalOpeners: []string{
			`\bstory\s+time\b`,
			`\blet\s+me\s+tell\s+you\b`,
			`\bso\s+basically\b`,
			`\bthis\s+one\s+time\b`,
			`\bi\s+was\s+just\b`,
			`\bguys?\s+i\s+need\s+to\s+rant\b`,
			`\bcan\s+we\s+talk\s+about\b`,
		},
		KeyPhraseRules: append([]KeyPhraseRule(nil), DefaultKeyPhraseRules...),
	}
}

func (p *Playbook) withDefaults() {
	def := DefaultPlaybook()
	if p.Primary.Key == "" {
		p.Primary = def.Primary
	}
	if p.Secondary.Key == "" {
		p.Secondary = def.Secondary
	}
	if p.Primary.Display == "" {
		p.Primary.Display = p.Primary.Key
	}
	if p.Secondary.Display == "" {
		p.Secondary.Display = p.Secondary.Key
	}
	if p.GermanIndicators == nil {
		p.GermanIndicators = def.GermanIndicators
	}
	if p.GermanThreshold <= 0 {
		p.GermanThreshold = def.GermanThreshold
	}
	if p.AppWords == nil {
		p.AppWords = def.AppWords
	}
	if p.ActionWords == nil {
		p.ActionWords = def.ActionWords
	}
	if p.QuestionWords == nil {
		p.QuestionWords = def.QuestionWords
	}
	if p.Catchphrases == nil {
		p.Catchphrases = def.Catchphrases
	}
	if p.SecondhandWords == nil {
		p.SecondhandWords = def.SecondhandWords
	}
	if p.ConceptKeywords == nil {
		p.ConceptKeywords = def.ConceptKeywords
	}
	if p.OriginalOpeners == nil {
		p.OriginalOpeners = def.OriginalOpeners
	}
	if p.KeyPhraseRules == nil {
		p.KeyPhraseRules = def.KeyPhraseRules
	}
}
