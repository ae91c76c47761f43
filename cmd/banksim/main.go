package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/banksim-client-go/internal/config"
	"github.com/boddenberg/banksim-client-go/internal/infra/observability"
	"github.com/boddenberg/banksim-client-go/internal/simulator"

	"go.uber.org/zap"
)

func main() {
	seed := flag.Bool("seed", true, "load the demo user, customer and accounts")
	flag.Parse()

	// --- Load .env file (for local development) ---
	envErr := config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, "banksim")
	defer logger.Sync()
	if envErr != nil {
		logger.Warn("failed to load .env", zap.Error(envErr))
	}

	// --- Simulator ---
	sim, err := simulator.New(simulator.Config{
		JWTSecret:     cfg.SimulatorJWTSecret,
		TokenTTL:      cfg.SimulatorTokenTTL,
		AdminUser:     cfg.SimulatorAdminUser,
		AdminPassword: cfg.SimulatorAdminPassword,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create simulator", zap.Error(err))
	}
	if *seed {
		if err := sim.Seed(); err != nil {
			logger.Fatal("failed to seed simulator", zap.Error(err))
		}
	}

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.SimulatorPort),
		Handler:      sim.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("simulator starting",
			zap.Int("port", cfg.SimulatorPort),
			zap.String("base_path", simulator.BasePath),
			zap.Duration("token_ttl", cfg.SimulatorTokenTTL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("simulator failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("simulator shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("simulator forced shutdown", zap.Error(err))
	}
	logger.Info("simulator stopped")
}
