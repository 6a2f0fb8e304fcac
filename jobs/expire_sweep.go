package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/devispro/devispro/internal/jobs"
	"github.com/devispro/devispro/internal/quote"
)

// ExpireSweepJob moves SENT quotations past their expiration date to
// EXPIRED. The sweep is the only writer of that status.
type ExpireSweepJob struct {
	Repo    quote.Repository
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewExpireSweepJob initialises the expiration sweep handler.
func NewExpireSweepJob(repo quote.Repository, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExpireSweepJob {
	return &ExpireSweepJob{
		Repo:    repo,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one sweep.
func (j *ExpireSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil {
		return errors.New("expire sweep: handler not configured")
	}

	tracker := j.metrics().Track(TaskQuoteExpireSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	ids, err := j.Repo.ListExpirable(ctx, now)
	if err != nil {
		resultErr = err
		return resultErr
	}

	expired := 0
	for _, id := range ids {
		if err := j.Repo.UpdateStatus(ctx, id, quote.StatusExpired); err != nil {
			j.logger().Error("expire quotation",
				slog.String("quotation", id),
				slog.Any("error", err),
			)
			resultErr = err
			continue
		}
		expired++
	}

	j.Metrics.AddExpired(expired)
	if expired > 0 {
		j.logger().Info("quotations expired",
			slog.Int("count", expired),
			slog.Time("cutoff", now),
		)
	}
	return resultErr
}

func (j *ExpireSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics == nil {
		return nil
	}
	return j.Metrics
}

func (j *ExpireSweepJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

func (j *ExpireSweepJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}
