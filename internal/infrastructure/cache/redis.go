// Package cache provides the Redis-backed report cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	corecache "helmetledger/internal/core/cache"
	"helmetledger/internal/core/types"
)

const keyPrefix = "helmetledger:report"

// NewRedisClient parses a redis:// URL and checks connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// ReportCache stores serialized report projections in Redis. Every key of an
// owner is tracked in an index set so invalidation never scans the keyspace.
type ReportCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var (
	_ corecache.Store       = (*ReportCache)(nil)
	_ corecache.Invalidator = (*ReportCache)(nil)
)

// NewReportCache creates a report cache with the given entry TTL.
func NewReportCache(client redis.UniversalClient, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// Get implements corecache.Store.
func (c *ReportCache) Get(ctx context.Context, key corecache.Key, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached report: %w", err)
	}
	return true, nil
}

// Set implements corecache.Store.
func (c *ReportCache) Set(ctx context.Context, key corecache.Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	k := entryKey(key)
	idx := indexKey(key.OwnerID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, k, raw, c.ttl)
		pipe.SAdd(ctx, idx, k)
		pipe.Expire(ctx, idx, c.ttl*2)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate implements corecache.Invalidator. Owner-wide reports are always
// dropped. Monthly reports carry running totals, so a change in a month also
// drops every later month.
func (c *ReportCache) Invalidate(ctx context.Context, scope corecache.Scope) error {
	idx := indexKey(scope.OwnerID)
	members, err := c.client.SMembers(ctx, idx).Result()
	if err != nil {
		return fmt.Errorf("redis smembers: %w", err)
	}

	stale := StaleKeys(members, scope.Month)
	if len(stale) == 0 {
		return nil
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, stale...)
		members := make([]any, len(stale))
		for i, k := range stale {
			members[i] = k
		}
		pipe.SRem(ctx, idx, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate: %w", err)
	}
	return nil
}

// StaleKeys selects the keys made stale by a change in month. A nil month
// selects every key.
func StaleKeys(keys []string, month *types.Month) []string {
	var stale []string
	for _, k := range keys {
		m, ok := monthOfKey(k)
		if month == nil || !ok || !m.Before(*month) {
			stale = append(stale, k)
		}
	}
	return stale
}

func entryKey(key corecache.Key) string {
	k := keyPrefix + ":" + key.OwnerID + ":" + key.Report
	if key.Month != nil {
		k += ":" + key.Month.String()
	}
	return k
}

func indexKey(ownerID string) string {
	return keyPrefix + ":" + ownerID + ":index"
}

// monthOfKey extracts the month suffix of a monthly entry key.
func monthOfKey(k string) (types.Month, bool) {
	i := strings.LastIndexByte(k, ':')
	if i < 0 {
		return types.Month{}, false
	}
	m, err := types.ParseMonth(k[i+1:])
	if err != nil {
		return types.Month{}, false
	}
	return m, true
}
