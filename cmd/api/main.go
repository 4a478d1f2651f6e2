package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funding-ledger/config"
	httpHandler "funding-ledger/internal/adapter/http/handler"
	pgStorage "funding-ledger/internal/adapter/storage/postgres"
	redisStorage "funding-ledger/internal/adapter/storage/redis"
	"funding-ledger/internal/core/ports"
	"funding-ledger/internal/service"
	"funding-ledger/pkg/logger"
	"funding-ledger/pkg/tracing"
)

const serviceName = "funding-ledger"

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Funding Ledger")

	ctx := context.Background()

	// Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Otel.Enabled,
		Endpoint:    cfg.Otel.Endpoint,
		ServiceName: serviceName,
		SampleRatio: cfg.Otel.SampleRatio,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	roundRepo := pgStorage.NewRoundRepo(pool)
	contribRepo := pgStorage.NewContributionRepo(pool)
	wdrRepo := pgStorage.NewWithdrawalRepo(pool)
	referralRepo := pgStorage.NewReferralRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	statusCache := redisStorage.NewStatusCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	notifier := service.NewWebhookNotifier(cfg.Notify.Endpoint, &http.Client{Timeout: 10 * time.Second}, log)

	// Initialize business services
	roundSvc := service.NewRoundService(roundRepo, contribRepo, statusCache, transactor, log)
	withdrawalSvc := service.NewWithdrawalService(roundRepo, contribRepo, wdrRepo, encSvc, notifier, transactor, log)
	ledgerSvc := service.NewLedgerService(contribRepo, wdrRepo, referralRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		RoundSvc:       roundSvc,
		WithdrawalSvc:  withdrawalSvc,
		LedgerSvc:      ledgerSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		ServiceName:    serviceName,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Tracing shutdown failed")
	}

	log.Info().Msg("Server exited")
}
