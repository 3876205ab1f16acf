package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef-secret"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/helmetledger")
	t.Setenv("JWT_SECRET", secret)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "helmetledger", cfg.JWTIssuer)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.True(t, cfg.IdempotencyEnabled)
	assert.False(t, cfg.IsDevelopment())
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.HTTPReadTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/x")
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "development")
	t.Setenv("REPORT_CACHE_TTL", "30s")
	t.Setenv("IDEMPOTENCY_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 30*time.Second, cfg.ReportCacheTTL)
	assert.False(t, cfg.IdempotencyEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("OUTBOX_BATCH_SIZE", "")
	os.Unsetenv("OUTBOX_BATCH_SIZE")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_URL=postgres://from-file/x\nOUTBOX_BATCH_SIZE=25\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("OUTBOX_BATCH_SIZE")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://from-file/x", cfg.DatabaseURL)
	assert.Equal(t, 25, cfg.OutboxBatchSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{"JWT_SECRET": secret}},
		{"short secret", map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET": "short"}},
		{"min over max conns", map[string]string{
			"DATABASE_URL": "postgres://x", "JWT_SECRET": secret,
			"DB_MIN_CONNS": "30", "DB_MAX_CONNS": "10",
		}},
		{"bad duration", map[string]string{
			"DATABASE_URL": "postgres://x", "JWT_SECRET": secret, "REPORT_CACHE_TTL": "soon",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			os.Unsetenv("DATABASE_URL")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestLoadAuth_IgnoresServerSettings(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("JWT_TOKEN_TTL", "2h")

	cfg, err := LoadAuth(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, secret, cfg.JWTSecret)
	assert.Equal(t, "helmetledger", cfg.JWTIssuer)
	assert.Equal(t, 2*time.Hour, cfg.JWTTokenTTL)

	t.Setenv("JWT_SECRET", "short")
	_, err = LoadAuth(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
