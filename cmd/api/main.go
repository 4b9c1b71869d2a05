package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/adapter/memory"
	"github.com/user/invite-harvester/internal/adapter/postgres"
	redis_adapter "github.com/user/invite-harvester/internal/adapter/redis"
	"github.com/user/invite-harvester/internal/app"
	"github.com/user/invite-harvester/internal/delivery/http/handler"
	"github.com/user/invite-harvester/internal/delivery/http/router"
	"github.com/user/invite-harvester/internal/enrichment"
	"github.com/user/invite-harvester/internal/publisher"
	"github.com/user/invite-harvester/internal/repository"
	"github.com/user/invite-harvester/internal/usecase"
	"github.com/user/invite-harvester/pkg/config"
	"github.com/user/invite-harvester/pkg/logger"
	"github.com/user/invite-harvester/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logger.Must("info").Fatal("could not load config", zap.Error(err))
	}

	// --- Logger ---
	log, err := logger.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		logger.Must("info").Fatal("could not build logger", zap.Error(err))
	}
	defer log.Sync()

	// --- Metrics ---
	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.HealthCheck{}

	// --- Run store: Redis when configured, in-process otherwise ---
	var store repository.RunStoreRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("unable to connect to redis", zap.Error(err))
		}
		store = redis_adapter.NewRunStore(rdb, cfg.RunTTL)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info("redis run store enabled", zap.String("addr", cfg.RedisAddr))
	} else {
		store = memory.NewRunStore(cfg.RunTTL)
		log.Info("in-memory run store enabled")
	}

	// --- Staging sink ---
	var opts app.Options
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal("unable to connect to database", zap.Error(err))
		}
		defer pool.Close()
		staged := postgres.NewStagedGroupRepo(pool)
		if err := staged.EnsureSchema(ctx); err != nil {
			log.Fatal("unable to prepare staging table", zap.Error(err))
		}
		opts.Stager = staged
		checks["postgres"] = pool.Ping
		log.Info("postgres staging enabled")
	}

	// --- Pipeline ---
	core, err := app.Build(cfg, opts, m, log)
	if err != nil {
		log.Fatal("could not build pipeline", zap.Error(err))
	}
	defer core.Close()

	// --- Enrichment and publishing ---
	var writer usecase.ContentWriter
	if cfg.EnrichmentEnabled() {
		gw, err := enrichment.NewGeminiWriter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, 2*time.Minute)
		if err != nil {
			log.Fatal("could not create gemini client", zap.Error(err))
		}
		writer = enrichment.NewEnricher(gw, log.Named("enrichment"))
	}
	var drafter usecase.Drafter
	if cfg.PublishingEnabled() {
		drafter = publisher.NewWordPress(cfg.WordPressSiteURL, cfg.WordPressUsername, cfg.WordPressAppPassword, 30*time.Second)
	}
	if writer == nil || drafter == nil {
		log.Info("publishing disabled", zap.Bool("enrichment", writer != nil), zap.Bool("wordpress", drafter != nil))
	}

	runs := usecase.NewRunManager(ctx, core.Pipeline, store, writer, drafter, log)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(runs, checks, log)
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, m, prometheus.DefaultGatherer, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 4 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not start server", zap.Error(err))
		}
	}()
	log.Info("server started",
		zap.String("port", cfg.ServerPort),
		zap.String("fetch_mode", cfg.FetchMode),
		zap.Int("workers", core.Workers),
	)

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	runs.Wait()
	log.Info("server exiting")
}
