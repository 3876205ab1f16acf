// Package main is the entry point for the helmetledger background worker.
// It relays outbox events to the report cache and purges expired records.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bsm/redislock"

	"helmetledger/internal/config"
	"helmetledger/internal/infrastructure/cache"
	"helmetledger/internal/infrastructure/storage/postgres"
	"helmetledger/internal/infrastructure/worker"
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
		log.Fatalw("worker failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Info("starting helmetledger worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.AppName = "helmetledger-worker"
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	txm := postgres.NewTxManager(pool)

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	reportCache := cache.NewReportCache(redisClient, cfg.ReportCacheTTL)
	outboxRelay := postgres.NewOutboxRelay(txm, cfg.OutboxBatchSize, worker.NewInvalidationHandler(reportCache))
	relay := worker.NewRelay(outboxRelay, redislock.New(redisClient), worker.Config{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		LockTTL:      cfg.OutboxLockTTL,
	})
	idempotency := postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		relayCtx := logger.WithLogger(ctx, log.WithComponent("outbox-relay"))
		if err := relay.Run(relayCtx); err != nil {
			log.Errorw("outbox relay stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		cleanupCtx := logger.WithLogger(ctx, log.WithComponent("cleanup"))
		runCleanup(cleanupCtx, cfg, pool, outboxRelay, idempotency)
	}()

	<-ctx.Done()
	log.Info("shutting down worker...")
	wg.Wait()
	log.Info("worker stopped")
	return nil
}

// runCleanup purges published outbox rows and expired idempotency keys, and
// reports pool usage on the same tick.
func runCleanup(ctx context.Context, cfg *config.Config, pool *postgres.Pool, relay *postgres.OutboxRelay, idempotency *postgres.IdempotencyStore) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n, err := relay.PurgePublished(ctx, cfg.OutboxRetention); err != nil {
			logger.Warn(ctx, "purge outbox failed", "error", err)
		} else if n > 0 {
			logger.Info(ctx, "purged outbox messages", "count", n)
		}

		if n, err := idempotency.CleanupExpired(ctx); err != nil {
			logger.Warn(ctx, "cleanup idempotency keys failed", "error", err)
		} else if n > 0 {
			logger.Info(ctx, "removed expired idempotency keys", "count", n)
		}

		pool.LogStats(ctx)
	}
}
