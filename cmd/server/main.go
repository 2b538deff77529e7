// Command server starts the internship recommendation HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpserver "github.com/fairyhunter13/internship-recommender/internal/adapter/httpserver"
	"github.com/fairyhunter13/internship-recommender/internal/adapter/observability"
	"github.com/fairyhunter13/internship-recommender/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/internship-recommender/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/internship-recommender/internal/app"
	"github.com/fairyhunter13/internship-recommender/internal/config"
	"github.com/fairyhunter13/internship-recommender/internal/matching"
	"github.com/fairyhunter13/internship-recommender/internal/service/ratelimiter"
	"github.com/fairyhunter13/internship-recommender/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := app.EngineOptions(cfg)
	if err != nil {
		return err
	}
	engine, err := matching.NewEngine(opts, logger)
	if err != nil {
		return err
	}

	// Infra: DB pool, only for the postgres catalog source.
	var (
		repo    *postgres.CatalogRepo
		pinger  app.Pinger
		closeDB = func() {}
	)
	if cfg.CatalogSource == config.CatalogSourcePostgres {
		pool, err := postgres.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		closeDB = pool.Close
		repo = postgres.NewCatalogRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return err
		}
		pinger = pool
	}
	defer closeDB()

	src, err := app.BuildCatalogSource(ctx, cfg, repo)
	if err != nil {
		return err
	}
	guarded := app.NewGuardedSource(src, cfg.CatalogBreakerFailures, cfg.CatalogBreakerCoolDown)

	drift := observability.NewConfidenceDriftMonitor(50, 10, logger)
	recSvc := usecase.NewRecommendationService(engine, cfg.BrowseLimit, app.RecommendationObserver(drift))
	catSvc := usecase.NewCatalogService(engine, guarded, observability.ObserveCatalogReload)

	// The server starts even when the first load fails: health reports
	// internships_loaded=false and readiness stays red until a reload lands.
	if res, err := app.LoadInitialCatalog(ctx, cfg, catSvc); err != nil {
		slog.Error("initial catalog load failed", slog.Any("error", err))
	} else {
		slog.Info("catalog loaded",
			slog.String("source", res.Source),
			slog.String("catalog_version", res.Version),
			slog.Int("postings", res.Postings))
	}

	// Optional Redis: shared rate limiting and readiness.
	var (
		limiter    ratelimiter.Limiter
		redisProbe app.RedisPinger
	)
	if cfg.RedisURL != "" {
		ropts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(ropts)
		defer func() { _ = rdb.Close() }()
		limiter = ratelimiter.NewRedisLuaLimiter(rdb, map[string]ratelimiter.BucketConfig{
			app.RecommendRateClass: ratelimiter.NewBucketConfigFromPerMinute(cfg.RateLimitPerMin),
		})
		redisProbe = rdb
	}
	dbCheck, redisCheck := app.BuildReadinessChecks(pinger, redisProbe)

	if cfg.CatalogEventsEnabled {
		consumer, err := redpanda.NewConsumer(ctx, cfg.KafkaBrokers, cfg.CatalogEventsGroup, cfg.CatalogEventsTopic, app.CatalogEventHandler(catSvc))
		if err != nil {
			return fmt.Errorf("catalog events consumer: %w", err)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				slog.Error("catalog events consumer stopped", slog.Any("error", err))
			}
		}()
		slog.Info("catalog events consumer started", slog.String("topic", cfg.CatalogEventsTopic))
	}

	go app.NewCatalogRefresher(catSvc, cfg.CatalogRefreshInterval).Run(ctx)

	srv := httpserver.NewServer(recSvc, catSvc, dbCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv, limiter)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	return srvHTTP.Shutdown(shutdownCtx)
}
