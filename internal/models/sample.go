package models

import "fmt"

// Category is the editorial format a video is judged against.
type Category string

const (
	// CategoryUnspecified lets the format classifier pick the category from the duration.
	CategoryUnspecified Category = ""
	CategoryShort       Category = "short"
	CategoryLong        Category = "long"
)

// Categories lists every concrete category in a stable order.
var Categories = []Category{CategoryShort, CategoryLong}

// ParseCategory accepts "short", "long" or an empty string.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryUnspecified, CategoryShort, CategoryLong:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

type Language string

const (
	LanguageEnglish Language = "english"
	LanguageGerman  Language = "german"
)

var Languages = []Language{LanguageEnglish, LanguageGerman}

func ParseLanguage(s string) (Language, error) {
	switch l := Language(s); l {
	case LanguageEnglish, LanguageGerman:
		return l, nil
	default:
		return "", fmt.Errorf("unknown language %q", s)
	}
}

// AppFootage is what an app-footage detector reports about the demonstration part of a video.
type AppFootage struct {
	Detected    bool     `json:"detected"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Description string   `json:"description,omitempty"`
}

// StructuralSignals are optional vision results. A nil field means the signal was not available.
type StructuralSignals struct {
	FaceWindowHit *bool       `json:"face_window_hit,omitempty"`
	AppFootage    *AppFootage `json:"app_footage,omitempty"`
}

// VideoRef identifies the video a sample came from. It only feeds the creator message.
type VideoRef struct {
	Handle  string `json:"handle,omitempty"`
	VideoID string `json:"video_id,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Link returns the URL when known and falls back to the video ID.
func (r VideoRef) Link() string {
	if r.URL != "" {
		return r.URL
	}
	return r.VideoID
}

// ExtractedSample is the input of a moderation decision.
type ExtractedSample struct {
	Text            string             `json:"text"`
	DurationSeconds float64            `json:"duration_seconds"`
	Signals         *StructuralSignals `json:"signals,omitempty"`
	Ref             VideoRef           `json:"ref"`
}
