package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finbalance/advisor-go/internal/advisor"
	"github.com/finbalance/advisor-go/internal/config"
	"github.com/finbalance/advisor-go/internal/domain"
	"github.com/finbalance/advisor-go/internal/handler"
	"github.com/finbalance/advisor-go/internal/infra/cache"
	"github.com/finbalance/advisor-go/internal/infra/client"
	"github.com/finbalance/advisor-go/internal/infra/observability"
	"github.com/finbalance/advisor-go/internal/infra/resilience"
	"github.com/finbalance/advisor-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("bank_api_url", cfg.BankAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("lookback_months", cfg.LookbackMonths),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "finbalance-advisor")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	snapshotCache := cache.New[*domain.Snapshot](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("bank-api")
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	bankClient := client.NewBankClient(httpClient, cfg.BankAPIURL, cb, resilienceCfg)

	// --- Services ---
	snapshotSvc := service.NewSnapshotService(
		bankClient,
		snapshotCache,
		bulkhead,
		metrics,
		logger,
		cfg.LookbackMonths,
		cfg.TxPageLimit,
	)
	engine := advisor.NewEngine(metrics, logger)
	advisorSvc := service.NewAdvisorService(snapshotSvc, engine, metrics, logger)
	forecastSvc := service.NewForecastService(snapshotSvc, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(advisorSvc, forecastSvc, metrics, cfg.JWTSecret, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
