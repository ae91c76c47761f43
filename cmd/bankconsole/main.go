package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/banksim-client-go/internal/app"
	"github.com/boddenberg/banksim-client-go/internal/config"
	"github.com/boddenberg/banksim-client-go/internal/handler"
	"github.com/boddenberg/banksim-client-go/internal/infra/observability"
	"github.com/boddenberg/banksim-client-go/internal/notify"
	"github.com/boddenberg/banksim-client-go/internal/session"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	envErr := config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, "bankconsole")
	defer logger.Sync()
	if envErr != nil {
		logger.Warn("failed to load .env", zap.Error(envErr))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.ConsolePort),
		zap.String("log_level", cfg.LogLevel),
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.String("session_file", cfg.SessionFile),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Duration("collection_cache_ttl", cfg.CollectionCacheTTL),
		zap.Float64("rate_limit_rps", cfg.RateLimitRPS),
	)

	// --- Tracing ---
	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "banksim-console")
		if err != nil {
			logger.Fatal("failed to init tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Session ---
	storage, err := session.OpenFileStorage(cfg.SessionFile)
	if err != nil {
		logger.Fatal("failed to open session file", zap.String("path", cfg.SessionFile), zap.Error(err))
	}

	// --- Notifications ---
	feed := notify.NewFeed(100)
	notifier := notify.Multi{feed, notify.NewLogNotifier(logger.Named("notify"))}

	// --- Client ---
	client := app.New(cfg, storage, notifier, metrics, logger)
	defer client.Close()

	if res := client.Gateway.Probe(context.Background()); !res.Reachable {
		logger.Warn("banking simulator API not reachable yet",
			zap.String("api_base_url", cfg.APIBaseURL),
			zap.Int("attempts", res.Attempts),
			zap.Error(res.Err),
		)
	}

	// --- Router ---
	limiter := handler.NewVisitorLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	router := client.Router(feed, limiter)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ConsolePort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("console starting", zap.Int("port", cfg.ConsolePort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("console failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("console shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("console forced shutdown", zap.Error(err))
	}

	logger.Info("console stopped")
}
