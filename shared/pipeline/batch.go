package pipeline

import (
	"context"
	"errors"
	"time"

	"hook-screener/internal/models"
	"hook-screener/shared/logging"

	"golang.org/x/sync/errgroup"
)

type Job struct {
	Video    *models.Video
	Category models.Category
}

// Outcome is the result of one job. Exactly one of Screening and Err is set.
type Outcome struct {
	Job       Job
	Screening *models.Screening
	Err       error
}

type BatchOptions struct {
	Concurrency   int
	SampleTimeout time.Duration
}

// ScreenBatch screens jobs with bounded concurrency. Outcomes keep the job
// order. A failed or timed-out job never affects the others; cancelling ctx
// stops jobs that have not started.
func (s *Screener) ScreenBatch(ctx context.Context, jobs []Job, opts BatchOptions) ([]Outcome, error) {
	corpora, err := s.LoadCorpora(ctx)
	if err != nil && !errors.Is(err, ErrCorpusUnavailable) {
		return nil, err
	}

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	outcomes := make([]Outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, job := range jobs {
		outcomes[i].Job = job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}

			sampleCtx := ctx
			if opts.SampleTimeout > 0 {
				var cancel context.CancelFunc
				sampleCtx, cancel = context.WithTimeout(ctx, opts.SampleTimeout)
				defer cancel()
			}

			screening, err := s.screen(sampleCtx, job.Video, job.Category, corpora)
			if err != nil {
				id := ""
				if job.Video != nil {
					id = job.Video.ID
				}
				logging.Tag(ctx, s.logger).Warn("Screening failed", "video", id, "error", err)
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Screening = screening
			return nil
		})
	}

	_ = g.Wait()
	return outcomes, ctx.Err()
}
