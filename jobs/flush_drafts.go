package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/devispro/devispro/internal/jobs"
	"github.com/devispro/devispro/internal/quote"
	"github.com/devispro/devispro/internal/shared"
)

// flushConcurrency bounds parallel draft writes against the pool size.
const flushConcurrency = 4

// FlushDraftsJob reconciles autosaved Redis drafts into PostgreSQL so a
// draft lost to TTL or a Redis restart costs at most one flush interval of
// edits.
type FlushDraftsJob struct {
	Repo    quote.Repository
	Drafts  *quote.DraftStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewFlushDraftsJob initialises the draft reconciliation handler.
func NewFlushDraftsJob(repo quote.Repository, drafts *quote.DraftStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *FlushDraftsJob {
	return &FlushDraftsJob{
		Repo:    repo,
		Drafts:  drafts,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one reconciliation pass over every stored draft.
func (j *FlushDraftsJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil {
		return errors.New("flush drafts: handler not configured")
	}

	tracker := j.metrics().Track(TaskQuoteFlushDrafts)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	ids, err := j.Drafts.ListIDs(ctx)
	if err != nil {
		resultErr = err
		return resultErr
	}

	var flushed atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(flushConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			q, err := j.Drafts.Get(ctx, id)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					// Expired between the scan and the read.
					return nil
				}
				return err
			}
			if !q.Status.Editable() {
				// A transition already persisted the final state; the
				// leftover draft just needs cleanup.
				return j.Drafts.Delete(ctx, id)
			}
			if err := j.Repo.Save(ctx, q); err != nil {
				return err
			}
			flushed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		return resultErr
	}

	j.Metrics.AddFlushed(int(flushed.Load()))
	if n := flushed.Load(); n > 0 {
		j.logger().Info("drafts flushed",
			slog.Int64("count", n),
			slog.Time("at", j.now()),
		)
	}
	return nil
}

func (j *FlushDraftsJob) metrics() *jobmetrics.Metrics {
	if j.Metrics == nil {
		return nil
	}
	return j.Metrics
}

func (j *FlushDraftsJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

func (j *FlushDraftsJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}
