// Package worker runs the background outbox relay.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"

	"helmetledger/internal/core/cache"
	"helmetledger/internal/core/types"
	"helmetledger/internal/infrastructure/storage/postgres"
	"helmetledger/pkg/logger"
)

// BatchProcessor relays one batch of pending outbox messages.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) (int, error)
}

// Config tunes the relay loop.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	LockKey      string
	LockTTL      time.Duration
}

// DefaultConfig returns the relay defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
		BatchSize:    100,
		LockKey:      "helmetledger:lock:outbox-relay",
		LockTTL:      30 * time.Second,
	}
}

// Relay polls the outbox. With a locker only one replica relays at a time;
// without one every replica relays and SKIP LOCKED keeps them apart.
type Relay struct {
	processor BatchProcessor
	locker    *redislock.Client
	cfg       Config
}

// NewRelay creates a relay. locker may be nil.
func NewRelay(processor BatchProcessor, locker *redislock.Client, cfg Config) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultConfig().LockTTL
	}
	if cfg.LockKey == "" {
		cfg.LockKey = DefaultConfig().LockKey
	}
	return &Relay{processor: processor, locker: locker, cfg: cfg}
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	logger.Info(ctx, "outbox relay started", "interval", r.cfg.PollInterval)
	for {
		if n, err := r.Tick(ctx); err != nil {
			logger.Error(ctx, "outbox relay tick failed", "error", err)
		} else if n > 0 {
			logger.Debug(ctx, "outbox relay tick", "relayed", n)
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick drains the outbox batch by batch and returns the number of relayed
// messages. It skips the round when another replica holds the lock.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	if r.locker != nil {
		lock, err := r.locker.Obtain(ctx, r.cfg.LockKey, r.cfg.LockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("obtain relay lock: %w", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				logger.Warn(ctx, "release relay lock", "error", err)
			}
		}()
	}

	total := 0
	for ctx.Err() == nil {
		n, err := r.processor.ProcessBatch(ctx)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 || (r.cfg.BatchSize > 0 && n < r.cfg.BatchSize) {
			break
		}
	}
	return total, nil
}

// InvalidationHandler drops the report cache of the owner named in each event.
type InvalidationHandler struct {
	invalidator cache.Invalidator
}

var _ postgres.OutboxHandler = (*InvalidationHandler)(nil)

// NewInvalidationHandler creates a handler over invalidator.
func NewInvalidationHandler(invalidator cache.Invalidator) *InvalidationHandler {
	return &InvalidationHandler{invalidator: invalidator}
}

// Handle implements postgres.OutboxHandler.
func (h *InvalidationHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	event, err := msg.Event()
	if err != nil {
		return err
	}

	scope := cache.Scope{OwnerID: event.Payload.OwnerID()}
	if scope.OwnerID == "" {
		logger.Warn(ctx, "outbox event without owner", "event_type", event.EventType, "message_id", msg.ID)
		return nil
	}
	if raw := event.Payload.Month(); raw != "" {
		m, err := types.ParseMonth(raw)
		if err != nil {
			return fmt.Errorf("event month: %w", err)
		}
		scope.Month = &m
	}

	if err := h.invalidator.Invalidate(ctx, scope); err != nil {
		return fmt.Errorf("invalidate reports: %w", err)
	}

	logger.Info(ctx, "outbox event relayed",
		"event_type", event.EventType,
		"aggregate_type", event.AggregateType,
		"aggregate_id", event.AggregateID,
		"owner_id", scope.OwnerID,
	)
	return nil
}
