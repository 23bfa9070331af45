package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/toothmatch")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("AUTH_JWT_SECRET", "secret")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("NOTIFY_TIMEOUT", "3s")

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@localhost:5432/toothmatch", cfg.Database.URL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Redis.ProfileCacheTTL)
	assert.Equal(t, "@every 15m", cfg.Scheduler.InterviewSweep)
	assert.False(t, cfg.FCM.Enabled())
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("AUTH_JWT_SECRET", "secret")

	_, err := Load(nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestLoad_MissingSecretAllowedBehindGateway(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequiredEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load(nil, "")
	require.Error(t, err)

	t.Setenv("AUTH_TRUST_GATEWAY_HEADER", "true")
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.True(t, cfg.Auth.TrustGatewayHeader)
}

func TestLoad_YAMLFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	setRequiredEnv(t)

	path := filepath.Join(dir, "service.yaml")
	yaml := []byte("server:\n  port: \"7000\"\nfcm:\n  project_id: toothmatch-dev\nscheduler:\n  enabled: false\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	v := viper.New()
	v.Set("debug", true)
	v.Set("json", true)

	cfg, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.True(t, cfg.FCM.Enabled())
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequiredEnv(t)

	_, err := Load(nil, "does-not-exist.yaml")
	require.Error(t, err)
}
