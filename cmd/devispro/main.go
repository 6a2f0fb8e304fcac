package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/devispro/devispro/internal/app"
	"github.com/devispro/devispro/internal/catalog"
	"github.com/devispro/devispro/internal/chantier"
	"github.com/devispro/devispro/internal/observability"
	"github.com/devispro/devispro/internal/platform/cache"
	"github.com/devispro/devispro/internal/platform/db"
	"github.com/devispro/devispro/internal/quote"
	"github.com/devispro/devispro/internal/template"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	metrics := observability.NewMetrics()

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	templateRepo := template.NewRepository(dbpool)
	templateService := template.NewService(templateRepo)
	templateHandler := template.NewHandler(logger, templateService)

	chantierRepo := chantier.NewRepository(dbpool)
	chantierHandler := chantier.NewHandler(logger, chantierRepo)

	quoteRepo := quote.NewRepository(dbpool)
	drafts := quote.NewDraftStore(redisClient, cfg.DraftTTL)
	engine := quote.NewEngine(catalogService)
	builder := quote.NewBuilder(engine)
	quoteService := quote.NewService(quoteRepo, drafts, templateService, chantierRepo, builder, metrics, logger)
	quoteHandler := quote.NewHandler(logger, quoteService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		QuoteHandler:    quoteHandler,
		ChantierHandler: chantierHandler,
		CatalogHandler:  catalogHandler,
		TemplateHandler: templateHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
