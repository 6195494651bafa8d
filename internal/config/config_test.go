package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "lockedin")
	t.Setenv("DB_USER", "lockedin")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.HTTPPort)
	assert.Equal(t, "5432", cfg.Database.DBPort)
	assert.Equal(t, "disable", cfg.Database.DBSSLMode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "@every 15m", cfg.Notifier.CronSpec)
	assert.Equal(t, 4, cfg.Notifier.Workers)
	assert.Equal(t, 10*time.Second, cfg.Notifier.DeliveryTimeout)
	assert.False(t, cfg.Notifier.LogOnly)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("NOTIFY_DELIVERY_TIMEOUT", "3s")
	t.Setenv("NOTIFIER_WORKERS", "8")
	t.Setenv("LOG_JSON", "true")
	t.Setenv("DB_POOL_MAX_CONNS", "16")
	t.Setenv("NOTIFIER_LOG_ONLY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Notifier.DeliveryTimeout)
	assert.Equal(t, 8, cfg.Notifier.Workers)
	assert.True(t, cfg.App.LogJSON)
	assert.Equal(t, int32(16), cfg.Database.PoolMaxConns)
	assert.True(t, cfg.Notifier.LogOnly)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_USER", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errMissingRequiredEnv)
	assert.Contains(t, err.Error(), "DB_HOST")
}

func TestLoad_InvalidValues(t *testing.T) {
	setRequired(t)
	t.Setenv("NOTIFY_DELIVERY_TIMEOUT", "soon")
	t.Setenv("NOTIFIER_WORKERS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFY_DELIVERY_TIMEOUT")
	assert.Contains(t, err.Error(), "NOTIFIER_WORKERS")
}
