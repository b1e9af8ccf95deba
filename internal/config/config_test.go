package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Minute, cfg.PollInterval())
	assert.Equal(t, 5*time.Minute, cfg.FreshnessWindow())
	assert.Equal(t, 30*24*time.Hour, cfg.DefaultExpiry())
	assert.Equal(t, time.Second, cfg.RetryBaseDelay())
	assert.Equal(t, 10, cfg.Engine.MaxPositionsPerCycle)

	p := cfg.SchedulePolicy()
	assert.Equal(t, 50.0, p.FastAbove)
	assert.Equal(t, 30*time.Second, p.MinInterval)
}

func TestLoadLayersYAMLThenEnv(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "arbhunter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  sqlite_path: /tmp/custom.db
engine:
  notional_usd: 250
  demo_mode: true
kafka:
  brokers: "k1:9092,k2:9092"
`), 0o644))

	t.Setenv("NOTIONAL_USD", "500")
	t.Setenv("MAX_RETRIES", "3")
	t.Setenv("SCHED_SLOW_FACTOR", "3")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 500.0, cfg.Engine.NotionalUSD)
	assert.True(t, cfg.Engine.DemoMode)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 3.0, cfg.Scheduler.SlowFactor)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "k1:9092,k2:9092", cfg.Kafka.Brokers)
	assert.Equal(t, 100, cfg.Engine.FetchLimit)
	require.NoError(t, cfg.Validate())
}

func TestLoadExportsDotEnvForLogging(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("LOG_LEVEL=debug\nNOTIONAL_USD=42\n"), 0o644))
	for _, key := range []string{"LOG_LEVEL", "NOTIONAL_USD"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 42.0, cfg.Engine.NotionalUSD)
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
}

func TestLoadIgnoresMalformedEnvValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FETCH_LIMIT", "lots")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Engine.FetchLimit)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Engine.NotionalUSD = 0
	cfg.Fetch.MaxRetries = 0
	cfg.Scheduler.FastAbove = 10

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notional_usd")
	assert.Contains(t, err.Error(), "max_retries")
	assert.Contains(t, err.Error(), "fast_above")
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
