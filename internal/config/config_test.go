package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ESCALATION_SCHEDULE", "")
	t.Setenv("ESCALATION_SYSTEM_ACTOR", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("APP_NAME", "")
	t.Setenv("REDIS_KEY_PREFIX", "")
	t.Setenv("NOTIFY_QUEUE_KEY", "")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "*/15 * * * *", cfg.Escalation.Schedule)
	assert.Equal(t, "system", cfg.Escalation.SystemActor)
	assert.Equal(t, 5*time.Minute, cfg.Escalation.LockTTL())
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "complaints:", cfg.Redis.KeyPrefix)
	assert.Equal(t, "notifications", cfg.Notification.QueueKey)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, cfg.App.Name, cfg.Logger.Service)
	assert.Equal(t, cfg.App.Env, cfg.Logger.Environment)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ESCALATION_SCHEDULE", "@hourly")
	t.Setenv("ESCALATION_SYSTEM_ACTOR", "escalation-bot")
	t.Setenv("ESCALATION_LOCK_TTL_SECONDS", "60")
	t.Setenv("ESCALATION_ENABLED", "false")
	t.Setenv("NOTIFY_WORKER_POLL_SECONDS", "not-a-number")
	t.Setenv("REDIS_KEY_PREFIX", "tenant-a:")
	t.Setenv("APP_NAME", "complaints-eu")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "@hourly", cfg.Escalation.Schedule)
	assert.Equal(t, "escalation-bot", cfg.Escalation.SystemActor)
	assert.Equal(t, time.Minute, cfg.Escalation.LockTTL())
	assert.False(t, cfg.Escalation.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Notification.PollInterval())
	assert.Equal(t, "tenant-a:", cfg.Redis.KeyPrefix)
	assert.Equal(t, "complaints-eu", cfg.Logger.Service)
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}
