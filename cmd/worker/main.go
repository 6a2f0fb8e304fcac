package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/devispro/devispro/internal/app"
	jobmetrics "github.com/devispro/devispro/internal/jobs"
	"github.com/devispro/devispro/internal/platform/cache"
	"github.com/devispro/devispro/internal/platform/db"
	"github.com/devispro/devispro/internal/quote"
	"github.com/devispro/devispro/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)

	quoteRepo := quote.NewRepository(pool)
	drafts := quote.NewDraftStore(redisClient, cfg.DraftTTL)

	flushJob := jobs.NewFlushDraftsJob(quoteRepo, drafts, logger, metrics)
	sweepJob := jobs.NewExpireSweepJob(quoteRepo, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskQuoteFlushDrafts, Handler: flushJob.Handle},
			{Type: jobs.TaskQuoteExpireSweep, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.FlushCron, Task: jobs.NewFlushDraftsTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: cfg.ExpireCron, Task: jobs.NewExpireSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
