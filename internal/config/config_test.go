package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"DATABASE_URL", "HTTP_ADDR", "JWT_SECRET", "TELEGRAM_TOKEN", "REPORT_INTERVAL_HOURS",
	"TIMEZONE", "LOG_LEVEL", "LOOKAHEAD_DAYS", "STREAK_LOOKBACK_DAYS", "GRASS_MONTHS",
	"JOB_WORKERS", "JOB_CLAIM_TTL_MINUTES", "DAILY_JOB_TIME", "EXPIRE_JOB_TIME",
}

// clearEnv isolates a test from the developer's environment and any .env file.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "daily_tracker.db", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 7, cfg.LookaheadDays)
	assert.Equal(t, 30, cfg.StreakLookbackDays)
	assert.Equal(t, 6, cfg.GrassMonths)
	assert.Equal(t, 4, cfg.JobWorkers)
	assert.Equal(t, time.Hour, cfg.JobClaimTTL())
	assert.Equal(t, "00:00", cfg.DailyJobTime)
	assert.Equal(t, "01:00", cfg.ExpireJobTime)
	assert.Equal(t, 5*time.Hour, cfg.ReportInterval())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "data/tracker.db")
	t.Setenv("JWT_SECRET", "thisisasecretkeythatis32charslong!!")
	t.Setenv("TIMEZONE", "Asia/Seoul")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("JOB_WORKERS", "8")
	t.Setenv("REPORT_INTERVAL_HOURS", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data/tracker.db", cfg.DatabaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.JobWorkers)
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
	assert.Zero(t, cfg.ReportInterval())
}

func TestLoadConfigFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":9090\"\ngrass_months: 3\n"), 0o600))
	t.Setenv("GRASS_MONTHS", "12")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 12, cfg.GrassMonths)
}

func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "short jwt secret", env: map[string]string{"JWT_SECRET": "tooshort"}},
		{name: "unknown log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "bad timezone", env: map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{name: "bad job time", env: map[string]string{"DAILY_JOB_TIME": "25:00"}},
		{name: "zero workers", env: map[string]string{"JOB_WORKERS": "0"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
			assert.Nil(t, cfg)
		})
	}
}
