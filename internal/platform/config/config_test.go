package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, 180*time.Second, cfg.PrivacyTokenTTL)
	require.Equal(t, 10*time.Second, cfg.ReconcileInterval)
	require.Equal(t, 10, cfg.ReconcileBatchSize)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DESKVAULT_ADDR", ":9999")
	t.Setenv("PRIVACY_TOKEN_TTL", "90s")
	t.Setenv("RECONCILE_BATCH_SIZE", "25")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")

	cfg, err := FromEnv()
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.Addr)
	require.Equal(t, 90*time.Second, cfg.PrivacyTokenTTL)
	require.Equal(t, 25, cfg.ReconcileBatchSize)
	require.Equal(t, "redis://localhost:6379/1", cfg.Redis.URL)
}

func TestFromEnvRejectsBadBatchSize(t *testing.T) {
	t.Setenv("RECONCILE_BATCH_SIZE", "0")

	_, err := FromEnv()
	require.Error(t, err)
}
