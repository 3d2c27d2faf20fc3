// Command server runs the background-check API.
//
// Wiring follows configuration: PostgreSQL, Redis, Kafka, and the external
// record sources are each optional and fall back to in-process
// implementations for dev/demo deployments.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"backcheck/internal/cache"
	"backcheck/internal/check/aggregate"
	checkhandler "backcheck/internal/check/handler"
	checkmetrics "backcheck/internal/check/metrics"
	"backcheck/internal/check/service"
	"backcheck/internal/check/sources"
	"backcheck/internal/check/store"
	"backcheck/internal/identity"
	"backcheck/internal/notify"
	"backcheck/internal/platform/config"
	"backcheck/internal/platform/httpserver"
	"backcheck/internal/platform/logger"
	platformpg "backcheck/internal/platform/postgres"
	platformredis "backcheck/internal/platform/redis"
	"backcheck/internal/ratelimit"
	ratelimitmw "backcheck/internal/ratelimit/middleware"
	"backcheck/internal/ratelimit/window"
	httptransport "backcheck/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var healthChecks []httptransport.HealthCheck

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		healthChecks = append(healthChecks, httptransport.HealthCheck{
			Name:  "redis",
			Check: redisClient.Health,
		})
		log.Info("redis connected")
	}

	var checkStore store.CheckStore
	db, err := platformpg.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		pgStore := store.NewPostgres(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return err
		}
		checkStore = pgStore
		healthChecks = append(healthChecks, httptransport.HealthCheck{
			Name:  "postgres",
			Check: db.PingContext,
		})
		log.Info("postgres connected")
	} else {
		checkStore = store.NewMemoryStore()
		log.Warn("no postgres DSN configured, using in-memory check store")
	}

	var resultCache cache.Cache
	var windowStore ratelimit.WindowStore
	if redisClient != nil {
		resultCache = cache.NewRedis(redisClient.Client)
		windowStore = window.NewRedis(redisClient.Client)
	} else {
		resultCache = cache.NewMemory()
		windowStore = window.NewMemory()
		log.Warn("no redis URL configured, using in-memory cache and rate windows")
	}

	var fetchers []sources.Fetcher
	if cfg.SourceBaseURL != "" {
		fetchers = sources.NewHTTPFetchers(cfg.SourceBaseURL, cfg.FetchTimeout)
	} else {
		fetchers = sources.NewStaticFetchers()
		log.Warn("no source base URL configured, using static record fetchers")
	}

	var sink notify.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := notify.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("kafka notification sink connected", "topic", cfg.KafkaTopic)
	} else {
		sink = notify.NewLogSink(log)
	}

	gatherer, err := aggregate.New(fetchers,
		aggregate.WithLogger(log),
		aggregate.WithTimeout(cfg.CheckTimeout),
	)
	if err != nil {
		return err
	}

	svc, err := service.New(checkStore, gatherer, resultCache, sink,
		service.WithLogger(log),
		service.WithRecorder(checkmetrics.New()),
		service.WithCacheTTL(cfg.CacheTTL),
	)
	if err != nil {
		return err
	}

	limiter, err := ratelimit.New(windowStore, cfg.RateLimitMax, cfg.RateLimitWindow,
		ratelimit.WithLogger(log))
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Checks:       checkhandler.New(svc, log),
		Auth:         identity.NewValidator(cfg.JWTSigningKey),
		SubmitLimit:  ratelimitmw.New(limiter, log).Limit,
		HealthChecks: healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
