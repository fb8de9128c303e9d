package models

type Status string

const (
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Dimension names one check of a moderation decision.
type Dimension string

const (
	DimensionInput     Dimension = "input"
	DimensionOriginal  Dimension = "original"
	DimensionDuration  Dimension = "duration"
	DimensionHook      Dimension = "hook"
	DimensionStructure Dimension = "structure"
)

// Check records the outcome of one dimension. Skipped checks neither pass nor fail.
type Check struct {
	Dimension Dimension `json:"dimension"`
	Passed    bool      `json:"passed"`
	Skipped   bool      `json:"skipped,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// CorpusSource tells where the reference hooks of a decision came from.
type CorpusSource string

const (
	CorpusSourceStore    CorpusSource = "store"
	CorpusSourcePreset   CorpusSource = "preset"
	CorpusSourceFallback CorpusSource = "fallback"
	CorpusSourceNone     CorpusSource = "none"
)

const (
	ReasonInvalidInput    = "InvalidInput"
	ReasonOriginalContent = "OriginalContent"
)

type Verdict struct {
	Status           Status       `json:"status"`
	ReasonCode       string       `json:"reason_code,omitempty"`
	Failures         []Dimension  `json:"failures,omitempty"`
	Checks           []Check      `json:"checks,omitempty"`
	PositiveAspects  []string     `json:"positive_aspects"`
	Suggestions      []string     `json:"suggestions"`
	Notes            []string     `json:"notes,omitempty"`
	Language         Language     `json:"language,omitempty"`
	Category         Category     `json:"category,omitempty"`
	BestMatch        string       `json:"best_match,omitempty"`
	CorpusSource     CorpusSource `json:"corpus_source,omitempty"`
	FormattedMessage string       `json:"formatted_message"`
}

func (v Verdict) Approved() bool {
	return v.Status == StatusApproved
}
