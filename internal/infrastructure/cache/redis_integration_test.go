//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	corecache "helmetledger/internal/core/cache"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.Run(ctx, "redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp").WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, "redis://"+endpoint+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type report struct {
	Total string `json:"total"`
}

func TestReportCache_RoundTripAndInvalidate(t *testing.T) {
	client := setupRedis(t)
	c := NewReportCache(client, time.Minute)
	ctx := context.Background()

	feb := month(t, "2025-02")
	mar := month(t, "2025-03")
	summary := corecache.Key{OwnerID: "o1", Report: corecache.ReportProfit}
	febKey := corecache.Key{OwnerID: "o1", Report: corecache.ReportCashFlow, Month: feb}
	marKey := corecache.Key{OwnerID: "o1", Report: corecache.ReportCashFlow, Month: mar}
	other := corecache.Key{OwnerID: "o2", Report: corecache.ReportProfit}

	var got report
	hit, err := c.Get(ctx, summary, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	for _, k := range []corecache.Key{summary, febKey, marKey, other} {
		require.NoError(t, c.Set(ctx, k, report{Total: "1"}))
	}
	hit, err = c.Get(ctx, summary, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "1", got.Total)

	require.NoError(t, c.Invalidate(ctx, corecache.Scope{OwnerID: "o1", Month: mar}))

	hit, _ = c.Get(ctx, summary, &got)
	assert.False(t, hit, "owner-wide report dropped")
	hit, _ = c.Get(ctx, marKey, &got)
	assert.False(t, hit, "changed month dropped")
	hit, _ = c.Get(ctx, febKey, &got)
	assert.True(t, hit, "earlier month kept")
	hit, _ = c.Get(ctx, other, &got)
	assert.True(t, hit, "other owner kept")

	require.NoError(t, c.Invalidate(ctx, corecache.Scope{OwnerID: "o1"}))
	hit, _ = c.Get(ctx, febKey, &got)
	assert.False(t, hit)
}
