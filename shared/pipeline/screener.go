package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"hook-screener/internal/models"
	"hook-screener/shared/logging"
	"hook-screener/shared/moderation"
)

var (
	// ErrCollaboratorUnavailable means the sample could not be extracted.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	// ErrCorpusUnavailable means neither the store nor a fallback produced hooks.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
)

const defaultRefusal = "I'm sorry, I can't assist with that"

var (
	textOffset       = time.Second
	faceProbeOffsets = []time.Duration{3 * time.Second, 4 * time.Second, 5 * time.Second}
	appFrameOffsets  = []time.Duration{4 * time.Second, 5 * time.Second, 6 * time.Second}
)

type TextExtractor interface {
	ExtractText(ctx context.Context, frame models.Frame) (string, error)
}

type FaceDetector interface {
	HasFace(ctx context.Context, frame models.Frame) (bool, error)
}

type AppFootageDetector interface {
	DetectAppFootage(ctx context.Context, frames []models.Frame) (models.AppFootage, error)
}

// CorpusStore is the source of truth for reference hooks.
type CorpusStore interface {
	GetHooks(ctx context.Context, lang models.Language, cat models.Category) ([]string, error)
}

// Collaborators are the external services a Screener calls. Faces and Apps
// are optional; without them structural signals stay unknown.
type Collaborators struct {
	Text   TextExtractor
	Faces  FaceDetector
	Apps   AppFootageDetector
	Corpus CorpusStore
}

// Screener extracts a sample from a video through the collaborators and runs
// it through the decision engine.
type Screener struct {
	engine   *moderation.Engine
	collab   Collaborators
	fallback *moderation.CorpusSet
	refusals map[string]bool
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Screener)

// WithFallbackCorpus sets the corpora used when the store fails.
func WithFallbackCorpus(set *moderation.CorpusSet) Option {
	return func(s *Screener) { s.fallback = set }
}

// WithRefusalPhrases replaces the OCR answers that trigger a retry.
func WithRefusalPhrases(phrases []string) Option {
	return func(s *Screener) {
		if len(phrases) == 0 {
			return
		}
		s.refusals = make(map[string]bool, len(phrases))
		for _, p := range phrases {
			s.refusals[moderation.Normalize(p)] = true
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Screener) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewScreener(engine *moderation.Engine, collab Collaborators, opts ...Option) (*Screener, error) {
	if engine == nil {
		return nil, fmt.Errorf("decision engine is required")
	}
	if collab.Text == nil {
		return nil, fmt.Errorf("text extractor is required")
	}
	if collab.Corpus == nil {
		return nil, fmt.Errorf("corpus store is required")
	}

	s := &Screener{
		engine:   engine,
		collab:   collab,
		refusals: map[string]bool{moderation.Normalize(defaultRefusal): true},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Screener) Engine() *moderation.Engine { return s.engine }

// Extract builds the sample of one video. It fails only when the text cannot
// be read or ctx is done; structural probes degrade to unknown signals.
func (s *Screener) Extract(ctx context.Context, video *models.Video, cat models.Category) (models.ExtractedSample, error) {
	sample := models.ExtractedSample{DurationSeconds: video.DurationSeconds, Ref: video.Ref()}

	text, err := s.extractText(ctx, video)
	if err != nil {
		return models.ExtractedSample{}, err
	}
	sample.Text = text

	if !s.needsStructure(video.DurationSeconds, cat) {
		return sample, nil
	}

	face, err := s.probeFace(ctx, video)
	if err != nil {
		return models.ExtractedSample{}, err
	}
	app, err := s.probeApp(ctx, video)
	if err != nil {
		return models.ExtractedSample{}, err
	}
	sample.Signals = &models.StructuralSignals{FaceWindowHit: face, AppFootage: app}
	return sample, nil
}

func frameAt(video *models.Video, offset time.Duration) models.Frame {
	return models.Frame{VideoURL: video.URL, Offset: offset, MIMEType: "video/mp4"}
}

func (s *Screener) extractText(ctx context.Context, video *models.Video) (string, error) {
	text, err := s.collab.Text.ExtractText(ctx, frameAt(video, textOffset))
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to extract text of %s: %v", ErrCollaboratorUnavailable, video.ID, err)
	}
	if !s.refusals[moderation.Normalize(text)] {
		return text, nil
	}

	retry := retryOffset(video.DurationSeconds)
	logging.Tag(ctx, s.logger).Info("OCR refused, retrying once", "video", video.ID, "offset", retry)
	text, err = s.collab.Text.ExtractText(ctx, frameAt(video, retry))
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to extract text of %s on retry: %v", ErrCollaboratorUnavailable, video.ID, err)
	}
	return text, nil
}

// retryOffset is min(2, max(1, d-1)) seconds.
func retryOffset(duration float64) time.Duration {
	secs := math.Min(2, math.Max(1, duration-1))
	return time.Duration(secs * float64(time.Second))
}

func (s *Screener) needsStructure(duration float64, cat models.Category) bool {
	p := s.engine.Profile()
	if cat == models.CategoryUnspecified {
		cat = p.Classify(duration)
	}
	spec, err := p.Spec(cat)
	return err == nil && spec.RequiresStructuralCheck
}

func withinVideo(offsets []time.Duration, duration float64) []time.Duration {
	var out []time.Duration
	for _, o := range offsets {
		if o.Seconds() < duration {
			out = append(out, o)
		}
	}
	return out
}

// probeFace reports true on any hit, false when every probe answered no and
// nil when the signal is unavailable.
func (s *Screener) probeFace(ctx context.Context, video *models.Video) (*bool, error) {
	if s.collab.Faces == nil {
		return nil, nil
	}
	offsets := withinVideo(faceProbeOffsets, video.DurationSeconds)
	if len(offsets) == 0 {
		return nil, nil
	}

	var failed int
	for _, offset := range offsets {
		hit, err := s.collab.Faces.HasFace(ctx, frameAt(video, offset))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			failed++
			logging.Tag(ctx, s.logger).Warn("Face probe failed", "video", video.ID, "offset", offset, "error", err)
			continue
		}
		if hit {
			found := true
			return &found, nil
		}
	}
	if failed > 0 {
		return nil, nil
	}
	found := false
	return &found, nil
}

func (s *Screener) probeApp(ctx context.Context, video *models.Video) (*models.AppFootage, error) {
	if s.collab.Apps == nil {
		return nil, nil
	}
	offsets := withinVideo(appFrameOffsets, video.DurationSeconds)
	if len(offsets) == 0 {
		return nil, nil
	}

	frames := make([]models.Frame, len(offsets))
	for i, offset := range offsets {
		frames[i] = frameAt(video, offset)
	}
	app, err := s.collab.Apps.DetectAppFootage(ctx, frames)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		logging.Tag(ctx, s.logger).Warn("App footage detection failed", "video", video.ID, "error", err)
		return nil, nil
	}
	return &app, nil
}

// LoadCorpora snapshots every language and category from the store. A store
// error substitutes the fallback corpora; without one the returned set is
// empty, so every hook check fails closed.
func (s *Screener) LoadCorpora(ctx context.Context) (*moderation.CorpusSet, error) {
	var entries []moderation.CorpusEntry
	var storeErr error

load:
	for _, lang := range models.Languages {
		for _, cat := range models.Categories {
			hooks, err := s.collab.Corpus.GetHooks(ctx, lang, cat)
			if err != nil {
				storeErr = fmt.Errorf("failed to load %s %s hooks: %w", lang, cat, err)
				break load
			}
			if len(hooks) == 0 {
				continue
			}
			entries = append(entries, moderation.CorpusEntry{
				Language: lang,
				Category: cat,
				Corpus:   moderation.Corpus{Hooks: hooks, Source: models.CorpusSourceStore},
			})
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if storeErr == nil {
		return moderation.NewCorpusSet(entries...), nil
	}

	if s.fallback == nil {
		s.logger.Error("Corpus store unavailable and no fallback configured, hook checks will fail closed", "error", storeErr)
		return moderation.NewCorpusSet(), fmt.Errorf("%w: %v", ErrCorpusUnavailable, storeErr)
	}

	s.logger.Warn("Corpus store unavailable, using fallback corpus", "error", storeErr)
	fallback := s.fallback.Entries()
	for i := range fallback {
		fallback[i].Corpus.Source = models.CorpusSourceFallback
	}
	return moderation.NewCorpusSet(fallback...), nil
}

// Screen extracts, loads the corpora and decides one video.
func (s *Screener) Screen(ctx context.Context, video *models.Video, cat models.Category) (*models.Screening, error) {
	corpora, err := s.LoadCorpora(ctx)
	if err != nil && !errors.Is(err, ErrCorpusUnavailable) {
		return nil, err
	}
	return s.screen(ctx, video, cat, corpora)
}

func (s *Screener) screen(ctx context.Context, video *models.Video, cat models.Category, corpora moderation.CorpusLookup) (*models.Screening, error) {
	if video == nil {
		return nil, fmt.Errorf("video cannot be nil")
	}

	sample, err := s.Extract(ctx, video, cat)
	if err != nil {
		return nil, err
	}

	verdict, err := s.engine.Decide(ctx, sample, cat, corpora)
	if err != nil {
		return nil, fmt.Errorf("failed to decide %s: %w", video.ID, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return &models.Screening{
		Video:      video,
		Sample:     sample,
		Verdict:    verdict,
		ScreenedAt: s.now(),
	}, nil
}
