package models

import "time"

type Video struct {
	ID              string    `json:"id"`
	Handle          string    `json:"handle"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ChannelTitle    string    `json:"channel_title"`
	PublishedAt     time.Time `json:"published_at"`
	Duration        string    `json:"duration"`
	DurationSeconds float64   `json:"duration_seconds"`
	URL             string    `json:"url"`
}

func (v *Video) Ref() VideoRef {
	return VideoRef{Handle: v.Handle, VideoID: v.ID, URL: v.URL}
}

// Frame points at a still of a video. Collaborators either read Data or resolve VideoURL at Offset.
type Frame struct {
	VideoURL string        `json:"video_url"`
	Offset   time.Duration `json:"offset"`
	MIMEType string        `json:"mime_type,omitempty"`
	Data     []byte        `json:"-"`
}

// Screening is the outcome of running one video through the pipeline.
type Screening struct {
	RunID      string          `json:"run_id,omitempty"`
	Video      *Video          `json:"video"`
	Sample     ExtractedSample `json:"sample"`
	Verdict    Verdict         `json:"verdict"`
	ScreenedAt time.Time       `json:"screened_at"`
}

type DigestReport struct {
	Date       time.Time    `json:"date"`
	RunID      string       `json:"run_id"`
	Screenings []*Screening `json:"screenings"`
	Failed     []string     `json:"failed,omitempty"`
	Total      int          `json:"total"`
	Approved   int          `json:"approved"`
	Rejected   int          `json:"rejected"`
}
