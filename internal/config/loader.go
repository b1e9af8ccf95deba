package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load layers defaults, the optional YAML file at path, a .env file when
// present, and finally environment variables. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Storage.SQLitePath, "SQLITE_PATH")

	setInt(&cfg.Engine.PollIntervalSeconds, "POLL_INTERVAL_SECONDS")
	setFloat64(&cfg.Engine.NotionalUSD, "NOTIONAL_USD")
	setInt(&cfg.Engine.FetchLimit, "FETCH_LIMIT")
	setInt(&cfg.Engine.FreshnessWindowSeconds, "FRESHNESS_WINDOW_SECONDS")
	setInt(&cfg.Engine.MaxPositionsPerCycle, "MAX_POSITIONS_PER_CYCLE")
	setInt(&cfg.Engine.DefaultExpiryDays, "DEFAULT_EXPIRY_DAYS")
	setBool(&cfg.Engine.SettlePositions, "SETTLE_POSITIONS")
	setBool(&cfg.Engine.DemoMode, "DEMO_MODE")
	setInt(&cfg.Engine.DemoIntervalSeconds, "DEMO_INTERVAL_SECONDS")

	setInt(&cfg.Fetch.MaxRetries, "MAX_RETRIES")
	setInt(&cfg.Fetch.RetryBaseDelayMS, "RETRY_BASE_DELAY_MS")

	setFloat64(&cfg.Scheduler.FastAbove, "SCHED_FAST_ABOVE")
	setFloat64(&cfg.Scheduler.NormalAbove, "SCHED_NORMAL_ABOVE")
	setFloat64(&cfg.Scheduler.FastFactor, "SCHED_FAST_FACTOR")
	setFloat64(&cfg.Scheduler.SlowFactor, "SCHED_SLOW_FACTOR")
	setInt(&cfg.Scheduler.MinIntervalSeconds, "SCHED_MIN_INTERVAL_SECONDS")

	setStr(&cfg.Venues.PolymarketURL, "POLYMARKET_API_URL")
	setStr(&cfg.Venues.KalshiURL, "KALSHI_API_URL")

	setStr(&cfg.Redis.Addr, "REDIS_ADDR")
	setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setInt(&cfg.Redis.TTLHours, "REDIS_TTL_HOURS")

	setStr(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	setStr(&cfg.Kafka.OpportunitiesTopic, "KAFKA_OPPORTUNITIES_TOPIC")
	setStr(&cfg.Kafka.PositionsTopic, "KAFKA_POSITIONS_TOPIC")

	setStr(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setStr(&cfg.LLM.APIKey, "LLM_API_KEY")
	setStr(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setStr(&cfg.LLM.Model, "LLM_MODEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
