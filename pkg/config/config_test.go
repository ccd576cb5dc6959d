package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SchedulerConfig(t *testing.T) {
	t.Setenv("SCHEDULER_BASE_URL", "http://scheduler.test")
	t.Setenv("SCHEDULER_TIMEOUT", "3s")
	t.Setenv("SCHEDULER_WINDOW_DAYS", "5")
	t.Setenv("SCHEDULER_CUTOFF_HOUR", "18")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://scheduler.test", cfg.Scheduler.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Scheduler.Timeout)
	assert.Equal(t, 5, cfg.Scheduler.WindowDays)
	assert.Equal(t, 18, cfg.Scheduler.CutoffHour)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Scheduler.SlotDurationMinutes)
	assert.Equal(t, 7, cfg.Scheduler.WindowDays)
	assert.Equal(t, 17, cfg.Scheduler.CutoffHour)
	assert.Equal(t, "America/Sao_Paulo", cfg.Scheduler.TimeZone)
	assert.Equal(t, 1, cfg.Scheduler.RetryAttempts, "one batch fetch is one request unless retries are configured")
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("rejects unknown time zone", func(t *testing.T) {
		t.Setenv("SCHEDULER_TIMEZONE", "Mars/Olympus_Mons")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects empty window", func(t *testing.T) {
		t.Setenv("SCHEDULER_WINDOW_DAYS", "0")

		_, err := Load()
		assert.Error(t, err)
	})
}
