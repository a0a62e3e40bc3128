package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"plp-dashboard/internal/config"
	"plp-dashboard/internal/dataset"
	"plp-dashboard/internal/middleware"
	"plp-dashboard/internal/observability"
	"plp-dashboard/internal/server"
	"plp-dashboard/internal/services"
)

const datasetLoadTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	profitability := services.NewProfitability(services.Options{
		MarginThreshold:      cfg.Analytics.MarginThreshold,
		TopFraction:          cfg.Analytics.TopFraction,
		ConcentrationWarnPct: cfg.Analytics.ConcentrationWarnPct,
	}, logger)

	loader := dataset.NewLoader(cfg.Dataset.CacheDir, logger)

	ctx, cancel := context.WithTimeout(context.Background(), datasetLoadTimeout)
	defer cancel()

	start := time.Now()
	if err := profitability.LoadDataset(ctx, loader, cfg.Dataset.File, cfg.Dataset.Sheet); err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset loaded successfully", "duration", time.Since(start))

	srv := server.NewServer(profitability, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down profitability service")
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
