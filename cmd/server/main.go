// Command server starts the careerbuddy HTTP server.
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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/careerbuddy/careerbuddy/internal/adapter/ai/groq"
	httpserver "github.com/careerbuddy/careerbuddy/internal/adapter/httpserver"
	"github.com/careerbuddy/careerbuddy/internal/adapter/jobs/remotive"
	"github.com/careerbuddy/careerbuddy/internal/adapter/observability"
	"github.com/careerbuddy/careerbuddy/internal/app"
	"github.com/careerbuddy/careerbuddy/internal/cache"
	"github.com/careerbuddy/careerbuddy/internal/config"
	"github.com/careerbuddy/careerbuddy/internal/domain"
	"github.com/careerbuddy/careerbuddy/internal/usecase"
)

func main() {
	// Best effort; production sets real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	if cfg.GroqAPIKey == "" {
		// Startup proceeds so /healthz and /v1/jobs still work, but every
		// analysis request will fail fast with a configuration error.
		slog.Warn("GROQ_API_KEY not set; analysis requests will be rejected")
	}

	ctx := context.Background()

	// Cache backend: Redis when configured, in-process otherwise.
	var (
		analysisCache domain.AnalysisCache
		cacheCheck    func(context.Context) error
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		rc := cache.NewRedis(redis.NewClient(opts))
		analysisCache = rc
		cacheCheck = rc.Ping
		slog.Info("using redis analysis cache")
	} else {
		analysisCache = cache.NewMemory()
		slog.Info("using in-process analysis cache")
	}

	sweeper, err := app.StartSweep(ctx, cfg.CacheSweepCron, analysisCache)
	if err != nil {
		slog.Error("invalid cache sweep schedule", slog.String("spec", cfg.CacheSweepCron), slog.Any("error", err))
		os.Exit(1)
	}
	defer sweeper.Stop()

	aiClient := groq.New(cfg)
	jobsClient := remotive.New(cfg)

	analyzeSvc := usecase.NewAnalyzeService(cfg, aiClient, analysisCache)
	listingSvc := usecase.NewListingService(cfg, jobsClient, analyzeSvc)

	srv := httpserver.NewServer(cfg, analyzeSvc, listingSvc, cacheCheck)
	handler := app.BuildRouter(cfg, srv)

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

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
