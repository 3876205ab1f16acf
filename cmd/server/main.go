// Package main is the entry point for the helmetledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"helmetledger/internal/config"
	"helmetledger/internal/domain/auth"
	"helmetledger/internal/domain/exchange"
	"helmetledger/internal/domain/inventory"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/reinvestment"
	"helmetledger/internal/domain/reports"
	"helmetledger/internal/domain/sales"
	"helmetledger/internal/domain/wallet"
	"helmetledger/internal/infrastructure/cache"
	v1 "helmetledger/internal/infrastructure/http/v1"
	"helmetledger/internal/infrastructure/http/v1/handlers"
	"helmetledger/internal/infrastructure/numerator"
	"helmetledger/internal/infrastructure/storage/postgres"
	"helmetledger/internal/infrastructure/storage/postgres/catalog_repo"
	"helmetledger/internal/infrastructure/storage/postgres/document_repo"
	"helmetledger/internal/infrastructure/storage/postgres/register_repo"
	"helmetledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Infow("starting helmetledger server", "env", cfg.AppEnv)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	if err := postgres.ApplySchema(ctx, txm.GetQuerier(ctx)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	log.Info("database ready")

	// --- Redis ---
	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()
	reportCache := cache.NewReportCache(redisClient, cfg.ReportCacheTTL)

	// --- Infrastructure ---
	outbox := postgres.NewOutbox(txm)
	auditLog, err := postgres.NewAuditLog(txm)
	if err != nil {
		return err
	}
	numbers := numerator.NewWithQuerierFunc(func(ctx context.Context) numerator.Querier {
		return txm.GetQuerier(ctx)
	})

	// --- Domain services ---
	accounts := wallet.NewAccounts(catalog_repo.NewAccountRepo(txm))
	ledgerSvc := ledger.NewService(register_repo.NewLedgerRepo(txm), accounts, txm, outbox, auditLog, reportCache)
	walletSvc := wallet.NewService(accounts, ledgerSvc, txm, outbox, reportCache)
	inventorySvc := inventory.NewService(register_repo.NewInventoryRepo(txm), ledgerSvc, txm, outbox, reportCache)
	salesSvc := sales.NewService(document_repo.NewSaleRepo(txm), inventorySvc, ledgerSvc, numbers, txm, outbox, auditLog, reportCache)

	services := v1.Services{
		Ledger:        ledgerSvc,
		Wallets:       walletSvc,
		Inventory:     inventorySvc,
		Sales:         salesSvc,
		Exchanges:     exchange.NewService(document_repo.NewExchangeRepo(txm), salesSvc, ledgerSvc, numbers, txm, outbox, reportCache),
		Reinvestments: reinvestment.NewService(ledgerSvc, walletSvc, txm, outbox, reportCache),
		Reports:       reports.NewService(ledgerSvc, salesSvc, reportCache, txm),
	}

	// --- Router ---
	jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtCfg.Issuer = cfg.JWTIssuer
	jwtCfg.TokenTTL = cfg.JWTTokenTTL

	routerCfg := v1.RouterConfig{
		Services:     services,
		Logger:       log,
		JWTValidator: auth.NewJWTService(jwtCfg),
		ReadinessChecks: map[string]handlers.CheckFunc{
			"database": func(ctx context.Context) error { return pool.Ping(ctx) },
			"redis":    redisCheck(redisClient),
		},
		AllowedOrigins: cfg.AllowedOrigins,
		Development:    cfg.IsDevelopment(),
	}
	if cfg.IdempotencyEnabled {
		routerCfg.Idempotency = postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL)
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      v1.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func redisCheck(client redis.UniversalClient) handlers.CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
