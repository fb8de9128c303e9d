package hookscreener

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"hook-screener/internal/models"
	"hook-screener/shared/config"
	"hook-screener/shared/moderation"
	"hook-screener/shared/pipeline"
	"hook-screener/shared/scheduler"
	"hook-screener/shared/storage"

	"github.com/google/go-cmp/cmp"
)

const (
	friendText = "My friend who works at Vinted showed me this trick and IM NOT OKAY"
	friendHook = "My friend who works at XYZ showed me this trick and IM NOT OKAY"
)

type fakeVideos struct {
	videos map[string][]*models.Video
	errs   map[string]error
}

func (f *fakeVideos) RecentUploads(_ context.Context, handle string, _ int64) ([]*models.Video, error) {
	if err := f.errs[handle]; err != nil {
		return nil, err
	}
	return f.videos[handle], nil
}

type fakeText struct {
	err error
}

func (f *fakeText) ExtractText(context.Context, models.Frame) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return friendText, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
}

func (f *fakePublisher) PublishVerdict(_ context.Context, s *models.Screening) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, s.Video.ID)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeDigest struct {
	reports []*models.DigestReport
}

func (f *fakeDigest) SendDigest(report *models.DigestReport) error {
	f.reports = append(f.reports, report)
	return nil
}

type recordedEvents struct {
	success  []RunMetrics
	partial  []error
	critical []error
}

func (r *recordedEvents) events() *scheduler.AgentEvents {
	return &scheduler.AgentEvents{
		OnSuccess: func(m scheduler.Metrics, _ time.Duration) {
			r.success = append(r.success, m.(RunMetrics))
		},
		OnPartialFailure:  func(err error, _ time.Duration) { r.partial = append(r.partial, err) },
		OnCriticalFailure: func(err error, _ time.Duration) { r.critical = append(r.critical, err) },
	}
}

type testAgent struct {
	*Agent
	store     *storage.Store
	published *fakePublisher
	digests   *fakeDigest
}

func newTestAgent(t *testing.T, videos VideoSource, text pipeline.TextExtractor, creators ...string) *testAgent {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	cfg := &config.Config{Screener: config.ScreenerConfig{
		Profile:          "interactive",
		Creators:         creators,
		VideosPerCreator: 5,
		Concurrency:      2,
		SampleTimeout:    time.Minute,
		DataDir:          dir,
		MaxSuggestions:   4,
	}}

	store, err := storage.Open(ctx, filepath.Join(dir, "screener.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.ReplaceHooks(ctx, models.LanguageEnglish, models.CategoryShort, []string{friendHook}); err != nil {
		t.Fatalf("ReplaceHooks() error = %v", err)
	}

	engine, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	screener, err := pipeline.NewScreener(engine, pipeline.Collaborators{Text: text, Corpus: store})
	if err != nil {
		t.Fatalf("NewScreener() error = %v", err)
	}
	tracker, err := storage.NewScreenedTracker(dir, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewScreenedTracker() error = %v", err)
	}

	a := NewAgent(cfg)
	runs := 0
	a.newRunID = func() string {
		runs++
		return fmt.Sprintf("run-%d", runs)
	}
	a.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	a.videos = videos
	a.screener = screener
	a.verdicts = store
	a.tracker = tracker
	pub := &fakePublisher{}
	a.publisher = pub
	digest := &fakeDigest{}
	a.digest = digest

	return &testAgent{Agent: a, store: store, published: pub, digests: digest}
}

func thriftQueenUploads() *fakeVideos {
	return &fakeVideos{
		videos: map[string][]*models.Video{
			"@thriftqueen": {
				{ID: "a1", Handle: "@thriftqueen", URL: "https://www.youtube.com/shorts/a1", DurationSeconds: 15},
				{ID: "b2", Handle: "@thriftqueen", URL: "https://www.youtube.com/shorts/b2", DurationSeconds: 30},
			},
		},
		errs: map[string]error{"@ghost": errors.New("channel not found")},
	}
}

func TestRunOnceScreensNewVideos(t *testing.T) {
	a := newTestAgent(t, thriftQueenUploads(), &fakeText{}, "@thriftqueen", "@ghost")
	rec := &recordedEvents{}

	if err := a.RunOnce(context.Background(), rec.events()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	want := []RunMetrics{{Creators: 2, Fetched: 2, Screened: 2, Approved: 1, Rejected: 1, EmailSent: true}}
	if diff := cmp.Diff(want, rec.success); diff != "" {
		t.Errorf("success metrics mismatch (-want +got):\n%s", diff)
	}
	if len(rec.critical) != 0 {
		t.Errorf("Expected no critical failure, got %v", rec.critical)
	}
	if len(rec.partial) != 1 || !strings.Contains(rec.partial[0].Error(), "@ghost: channel not found") {
		t.Errorf("Expected one partial failure for @ghost, got %v", rec.partial)
	}

	records, err := a.store.ListVerdicts(context.Background(), "@thriftqueen", 0)
	if err != nil {
		t.Fatalf("ListVerdicts() error = %v", err)
	}
	statuses := map[string]models.Status{}
	for _, r := range records {
		if r.RunID != "run-1" {
			t.Errorf("Expected run-1, got %q", r.RunID)
		}
		statuses[r.VideoID] = r.Verdict.Status
	}
	if diff := cmp.Diff(map[string]models.Status{"a1": models.StatusApproved, "b2": models.StatusRejected}, statuses); diff != "" {
		t.Errorf("stored verdicts mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"a1", "b2"}, a.published.published); diff != "" {
		t.Errorf("published mismatch (-want +got):\n%s", diff)
	}

	if len(a.digests.reports) != 1 {
		t.Fatalf("Expected one digest, got %d", len(a.digests.reports))
	}
	report := a.digests.reports[0]
	if report.Total != 2 || report.Approved != 1 || report.Rejected != 1 || report.RunID != "run-1" {
		t.Errorf("Unexpected digest totals: %+v", report)
	}
	if diff := cmp.Diff([]string{"@ghost: channel not found"}, report.Failed); diff != "" {
		t.Errorf("digest failures mismatch (-want +got):\n%s", diff)
	}

	for _, id := range []string{"a1", "b2"} {
		if !a.tracker.IsScreened("@thriftqueen", id) {
			t.Errorf("Expected %s to be tracked as screened", id)
		}
	}
}

func TestRunOnceSkipsScreenedVideos(t *testing.T) {
	a := newTestAgent(t, thriftQueenUploads(), &fakeText{}, "@thriftqueen")

	if err := a.RunOnce(context.Background(), (&recordedEvents{}).events()); err != nil {
		t.Fatalf("first RunOnce() error = %v", err)
	}

	rec := &recordedEvents{}
	if err := a.RunOnce(context.Background(), rec.events()); err != nil {
		t.Fatalf("second RunOnce() error = %v", err)
	}

	want := []RunMetrics{{Creators: 1, Fetched: 2, Skipped: 2}}
	if diff := cmp.Diff(want, rec.success); diff != "" {
		t.Errorf("success metrics mismatch (-want +got):\n%s", diff)
	}
	if len(a.digests.reports) != 1 {
		t.Errorf("Expected no digest for a run without new videos, got %d total", len(a.digests.reports))
	}
}

func TestRunOnceCriticalFailures(t *testing.T) {
	tests := []struct {
		name     string
		text     pipeline.TextExtractor
		creators []string
		want     string
	}{
		{
			name:     "every creator fails",
			text:     &fakeText{},
			creators: []string{"@ghost"},
			want:     "no creator could be fetched",
		},
		{
			name:     "every screening fails",
			text:     &fakeText{err: errors.New("vision quota exceeded")},
			creators: []string{"@thriftqueen"},
			want:     "no video could be screened",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgent(t, thriftQueenUploads(), tt.text, tt.creators...)
			rec := &recordedEvents{}

			if err := a.RunOnce(context.Background(), rec.events()); err != nil {
				t.Fatalf("RunOnce() error = %v", err)
			}
			if len(rec.critical) != 1 || !strings.Contains(rec.critical[0].Error(), tt.want) {
				t.Errorf("Expected critical failure containing %q, got %v", tt.want, rec.critical)
			}
			if len(rec.success) != 0 {
				t.Errorf("Expected no success event, got %v", rec.success)
			}
			if a.tracker.Count() != 0 {
				t.Errorf("Expected nothing tracked, got %d", a.tracker.Count())
			}
		})
	}
}

func TestRunMetricsSummary(t *testing.T) {
	m := RunMetrics{Creators: 2, Fetched: 4, Skipped: 1, Screened: 3, Approved: 2, Rejected: 1, EmailSent: true}
	expected := "2 creators, 4 videos fetched, 1 skipped, 3 screened (2 approved, 1 rejected), 0 failed, digest sent"
	if got := m.GetSummary(); got != expected {
		t.Errorf("GetSummary() = %q, want %q", got, expected)
	}
}

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) Invalidate(context.Context, ...models.Category) error {
	f.calls++
	return f.err
}

func TestSeedStoreInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "screener.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	standard, err := moderation.Preset("standard")
	if err != nil {
		t.Fatalf("Preset() error = %v", err)
	}

	inv := &fakeInvalidator{}
	written, err := SeedStore(ctx, store, standard, false, inv)
	if err != nil {
		t.Fatalf("SeedStore() error = %v", err)
	}
	if written == 0 || inv.calls != 1 {
		t.Fatalf("SeedStore() wrote %d slots with %d invalidations, want >0 and 1", written, inv.calls)
	}

	// Nothing changes without overwrite, so the cache stays.
	if written, err := SeedStore(ctx, store, standard, false, inv); err != nil || written != 0 {
		t.Fatalf("SeedStore() = %d, %v, want 0 slots", written, err)
	}
	if inv.calls != 1 {
		t.Errorf("Expected no invalidation for an unchanged store, got %d calls", inv.calls)
	}

	if _, err := SeedStore(ctx, store, standard, true, inv); err != nil {
		t.Fatalf("SeedStore(overwrite) error = %v", err)
	}
	if inv.calls != 2 {
		t.Errorf("Expected overwrite to invalidate, got %d calls", inv.calls)
	}

	if _, err := SeedStore(ctx, store, standard, true, nil); err != nil {
		t.Errorf("SeedStore() without cache error = %v", err)
	}

	redisDown := errors.New("redis down")
	if _, err := SeedStore(ctx, store, standard, true, &fakeInvalidator{err: redisDown}); !errors.Is(err, redisDown) {
		t.Errorf("Expected invalidation error, got %v", err)
	}
}
