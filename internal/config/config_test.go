package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/hackteams")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, "587", cfg.SMTP.Port)
	assert.Equal(t, 256, cfg.Notify.QueueSize)
	assert.Equal(t, 4, cfg.Notify.Workers)
	assert.Equal(t, uint64(3), cfg.Notify.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Notify.InitialBackoff)
	assert.False(t, cfg.IsProduction())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ENV", "production")
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("BASE_URL", "https://teams.example.com")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("NOTIFY_WORKERS", "8")
	t.Setenv("NOTIFY_INITIAL_BACKOFF", "2s")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 8, cfg.Notify.Workers)
	assert.Equal(t, 2*time.Second, cfg.Notify.InitialBackoff)
	assert.Equal(t, RuntimeConfig{DemoMode: true, BaseURL: "https://teams.example.com"}, cfg.Runtime())
}

func TestParse_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "memory")

	_, err := Parse()
	assert.Error(t, err)
}

func TestParse_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Parse()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestParse_UnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Parse()
	assert.ErrorContains(t, err, "sqlite")
}
