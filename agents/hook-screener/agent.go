package hookscreener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hook-screener/agents/hook-screener/youtube"
	"hook-screener/internal/models"
	"hook-screener/shared/ai"
	"hook-screener/shared/cache"
	"hook-screener/shared/config"
	"hook-screener/shared/email"
	"hook-screener/shared/logging"
	"hook-screener/shared/messaging"
	"hook-screener/shared/moderation"
	"hook-screener/shared/pipeline"
	"hook-screener/shared/scheduler"
	"hook-screener/shared/storage"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// RunMetrics represents the metrics collected during one screening run
type RunMetrics struct {
	Creators  int  `json:"creators"`
	Fetched   int  `json:"fetched"`
	Skipped   int  `json:"skipped"`
	Screened  int  `json:"screened"`
	Approved  int  `json:"approved"`
	Rejected  int  `json:"rejected"`
	Failed    int  `json:"failed"`
	EmailSent bool `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m RunMetrics) GetSummary() string {
	summary := fmt.Sprintf("%d creators, %d videos fetched, %d skipped, %d screened (%d approved, %d rejected), %d failed",
		m.Creators, m.Fetched, m.Skipped, m.Screened, m.Approved, m.Rejected, m.Failed)
	if m.EmailSent {
		summary += ", digest sent"
	}
	return summary
}

type VideoSource interface {
	RecentUploads(ctx context.Context, handle string, maxResults int64) ([]*models.Video, error)
}

type VerdictStore interface {
	SaveScreening(ctx context.Context, screening *models.Screening) error
	ListVerdicts(ctx context.Context, handle string, limit int) ([]storage.VerdictRecord, error)
}

type DigestSender interface {
	SendDigest(report *models.DigestReport) error
}

// Agent implements the scheduler.Agent interface. It screens the newest
// uploads of every configured creator.
type Agent struct {
	config    *config.Config
	lock      *flock.Flock
	db        *storage.Store
	cache     *cache.CorpusCache
	videos    VideoSource
	screener  *pipeline.Screener
	verdicts  VerdictStore
	tracker   *storage.ScreenedTracker
	publisher messaging.Publisher
	digest    DigestSender
	logger    *slog.Logger
	newRunID  func() string
	now       func() time.Time
}

var (
	_ scheduler.Agent          = (*Agent)(nil)
	_ scheduler.RouteRegistrar = (*Agent)(nil)
)

func NewAgent(cfg *config.Config) *Agent {
	return &Agent{
		config:   cfg,
		logger:   slog.Default().With("component", "hook-screener"),
		newRunID: uuid.NewString,
		now:      time.Now,
	}
}

func (a *Agent) Name() string {
	return "Hook Screener"
}

// Initialize takes the instance lock and wires every collaborator that was
// not set already.
func (a *Agent) Initialize(ctx context.Context) error {
	a.logger.Info("Initializing agent")
	cfg := a.config

	if err := os.MkdirAll(cfg.Screener.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if a.lock == nil {
		lockPath := filepath.Join(cfg.Screener.DataDir, "hook-screener.lock")
		lock := flock.New(lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("another hook-screener instance holds %s", lockPath)
		}
		a.lock = lock
	}

	if a.db == nil {
		db, err := OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		a.db = db
	}
	if a.verdicts == nil {
		a.verdicts = a.db
	}

	if a.screener == nil {
		var corpus pipeline.CorpusStore = a.db
		if cfg.Redis.Enabled() {
			a.cache = cache.NewCorpusCache(cfg.Redis, a.db)
			corpus = a.cache
			a.logger.Info("Corpus cache enabled", "addr", cfg.Redis.Addr)
		}

		client, err := ai.NewClient(ctx, cfg.AI)
		if err != nil {
			return err
		}
		vision := ai.NewVision(client)

		engine, err := NewEngine(cfg, client)
		if err != nil {
			return err
		}
		fallback, err := FallbackCorpus(cfg)
		if err != nil {
			return err
		}

		screener, err := pipeline.NewScreener(engine, pipeline.Collaborators{
			Text:   vision,
			Faces:  vision,
			Apps:   vision,
			Corpus: corpus,
		},
			pipeline.WithFallbackCorpus(fallback),
			pipeline.WithRefusalPhrases(cfg.Screener.RefusalPhrases),
			pipeline.WithLogger(a.logger),
		)
		if err != nil {
			return fmt.Errorf("failed to create screener: %w", err)
		}
		a.screener = screener
		a.logger.Info("Screener initialized", "profile", cfg.Screener.Profile, "model", client.Model(), "semantic", cfg.AI.SemanticValidation)
	}

	if a.videos == nil {
		client, err := youtube.NewClient(ctx, &cfg.YouTube)
		if err != nil {
			return fmt.Errorf("failed to create YouTube client: %w", err)
		}
		a.videos = client
	}

	if a.tracker == nil {
		tracker, err := storage.NewScreenedTracker(cfg.Screener.DataDir, cfg.Screener.SkipWindow)
		if err != nil {
			return fmt.Errorf("failed to create screened tracker: %w", err)
		}
		a.tracker = tracker
		a.logger.Info("Screened tracker initialized", "tracked", tracker.Count())
	}

	if a.publisher == nil {
		if cfg.NATS.Enabled() {
			pub, err := messaging.Connect(cfg.NATS)
			if err != nil {
				return err
			}
			a.publisher = pub
		} else {
			a.publisher = messaging.Noop{}
		}
	}

	if a.digest == nil && cfg.Email.Enabled() {
		a.digest = email.NewSender(&cfg.Email)
	}

	return nil
}

// OpenStore opens the hook store and seeds it with the configured preset
// without touching slots that already hold hooks.
func OpenStore(ctx context.Context, cfg *config.Config) (*storage.Store, error) {
	db, err := storage.Open(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if cfg.Storage.SeedPreset == "" {
		return db, nil
	}

	preset, err := moderation.Preset(cfg.Storage.SeedPreset)
	if err != nil {
		db.Close()
		return nil, err
	}
	seeded, err := db.SeedPreset(ctx, preset, false)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed hook store: %w", err)
	}
	if seeded > 0 {
		slog.Info("Seeded hook store", "preset", cfg.Storage.SeedPreset, "slots", seeded)
	}
	return db, nil
}

// CorpusInvalidator drops cached corpora after the store changes.
type CorpusInvalidator interface {
	Invalidate(ctx context.Context, cats ...models.Category) error
}

// SeedStore writes preset into db. When any slot was written the cached
// corpora are dropped so running agents read the new hooks; invalidator may
// be nil when no cache is configured.
func SeedStore(ctx context.Context, db *storage.Store, preset *moderation.CorpusSet, overwrite bool, invalidator CorpusInvalidator) (int, error) {
	written, err := db.SeedPreset(ctx, preset, overwrite)
	if err != nil {
		return written, err
	}
	if written == 0 || invalidator == nil {
		return written, nil
	}
	if err := invalidator.Invalidate(ctx); err != nil {
		return written, fmt.Errorf("seeded %d slots but %w", written, err)
	}
	return written, nil
}

// Close releases everything Initialize acquired.
func (a *Agent) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.lock != nil {
		errs = append(errs, a.lock.Unlock())
	}
	return errors.Join(errs...)
}

func (a *Agent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	runID := a.newRunID()
	ctx = logging.ContextWithRunID(ctx, runID)
	log := logging.Tag(ctx, a.logger)

	creators := a.config.Screener.Creators
	metrics := RunMetrics{Creators: len(creators)}
	var problems []string

	var jobs []pipeline.Job
	for _, handle := range creators {
		if err := ctx.Err(); err != nil {
			return err
		}

		videos, err := a.videos.RecentUploads(ctx, handle, a.config.Screener.VideosPerCreator)
		if err != nil {
			log.Warn("Failed to fetch uploads", "handle", handle, "error", err)
			problems = append(problems, fmt.Sprintf("%s: %v", handle, err))
			continue
		}
		metrics.Fetched += len(videos)

		for _, video := range videos {
			if a.tracker.IsScreened(video.Handle, video.ID) {
				metrics.Skipped++
				continue
			}
			jobs = append(jobs, pipeline.Job{Video: video})
		}
	}

	log.Info("Collected videos", "fetched", metrics.Fetched, "new", len(jobs), "skipped", metrics.Skipped)

	if len(jobs) == 0 {
		duration := time.Since(startTime)
		if len(creators) > 0 && len(problems) == len(creators) {
			events.OnCriticalFailure(fmt.Errorf("no creator could be fetched: %s", strings.Join(problems, "; ")), duration)
			return nil
		}
		if len(problems) > 0 {
			events.OnPartialFailure(fmt.Errorf("%d creators failed: %s", len(problems), strings.Join(problems, "; ")), duration)
		}
		log.Info("No new videos to screen")
		events.OnSuccess(metrics, duration)
		return nil
	}

	opts := pipeline.BatchOptions{
		Concurrency:   a.config.Screener.Concurrency,
		SampleTimeout: a.config.Screener.SampleTimeout,
	}
	outcomes, err := a.screener.ScreenBatch(ctx, jobs, opts)
	if err != nil {
		return fmt.Errorf("failed to screen batch: %w", err)
	}

	report := &models.DigestReport{Date: a.now(), RunID: runID}
	screened := make(map[string][]string)
	var handles []string

	for _, outcome := range outcomes {
		video := outcome.Job.Video
		if outcome.Err != nil {
			log.Warn("Failed to screen video", "handle", video.Handle, "video_id", video.ID, "error", outcome.Err)
			problems = append(problems, fmt.Sprintf("%s/%s: %v", video.Handle, video.ID, outcome.Err))
			metrics.Failed++
			continue
		}

		screening := outcome.Screening
		screening.RunID = runID
		report.Screenings = append(report.Screenings, screening)
		if screening.Verdict.Approved() {
			report.Approved++
		} else {
			report.Rejected++
		}

		if err := a.verdicts.SaveScreening(ctx, screening); err != nil {
			log.Warn("Failed to save verdict", "video_id", video.ID, "error", err)
			problems = append(problems, fmt.Sprintf("%s/%s: %v", video.Handle, video.ID, err))
			continue
		}
		if err := a.publisher.PublishVerdict(ctx, screening); err != nil {
			log.Warn("Failed to publish verdict", "video_id", video.ID, "error", err)
			problems = append(problems, fmt.Sprintf("%s/%s: %v", video.Handle, video.ID, err))
		}

		if _, ok := screened[video.Handle]; !ok {
			handles = append(handles, video.Handle)
		}
		screened[video.Handle] = append(screened[video.Handle], video.ID)
	}

	for _, handle := range handles {
		if err := a.tracker.MarkScreened(handle, screened[handle]...); err != nil {
			log.Warn("Failed to mark videos as screened", "handle", handle, "error", err)
		}
	}

	report.Total = len(report.Screenings)
	report.Failed = problems
	metrics.Screened = report.Total
	metrics.Approved = report.Approved
	metrics.Rejected = report.Rejected

	if a.digest != nil {
		if err := a.digest.SendDigest(report); err != nil {
			log.Warn("Failed to send digest", "error", err)
			problems = append(problems, fmt.Sprintf("digest: %v", err))
		} else {
			metrics.EmailSent = true
		}
	}

	duration := time.Since(startTime)
	if report.Total == 0 {
		events.OnCriticalFailure(fmt.Errorf("no video could be screened: %s", strings.Join(problems, "; ")), duration)
		return nil
	}
	if len(problems) > 0 {
		events.OnPartialFailure(fmt.Errorf("%d problems: %s", len(problems), strings.Join(problems, "; ")), duration)
	}

	log.Info("Run complete", "screened", report.Total, "approved", report.Approved, "rejected", report.Rejected, "failed", metrics.Failed)
	events.OnSuccess(metrics, duration)
	return nil
}
