package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hetulpatel/arbhunter/internal/schedule"
)

// Config is the full runtime configuration of the agent.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Engine    EngineConfig    `yaml:"engine"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Venues    VenuesConfig    `yaml:"venues"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	LLM       LLMConfig       `yaml:"llm"`
}

type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type EngineConfig struct {
	PollIntervalSeconds    int     `yaml:"poll_interval_seconds"`
	NotionalUSD            float64 `yaml:"notional_usd"`
	FetchLimit             int     `yaml:"fetch_limit"`
	FreshnessWindowSeconds int     `yaml:"freshness_window_seconds"`
	MaxPositionsPerCycle   int     `yaml:"max_positions_per_cycle"`
	DefaultExpiryDays      int     `yaml:"default_expiry_days"`
	SettlePositions        bool    `yaml:"settle_positions"`
	DemoMode               bool    `yaml:"demo_mode"`
	DemoIntervalSeconds    int     `yaml:"demo_interval_seconds"`
}

type FetchConfig struct {
	MaxRetries       int `yaml:"max_retries"`
	RetryBaseDelayMS int `yaml:"retry_base_delay_ms"`
}

type SchedulerConfig struct {
	FastAbove          float64 `yaml:"fast_above"`
	NormalAbove        float64 `yaml:"normal_above"`
	FastFactor         float64 `yaml:"fast_factor"`
	SlowFactor         float64 `yaml:"slow_factor"`
	MinIntervalSeconds int     `yaml:"min_interval_seconds"`
}

type VenuesConfig struct {
	PolymarketURL string `yaml:"polymarket_url"`
	KalshiURL     string `yaml:"kalshi_url"`
}

// RedisConfig enables the shared dedup and category caches when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLHours int    `yaml:"ttl_hours"`
}

// KafkaConfig enables event publishing when Brokers is set.
type KafkaConfig struct {
	Brokers            string `yaml:"brokers"`
	OpportunitiesTopic string `yaml:"opportunities_topic"`
	PositionsTopic     string `yaml:"positions_topic"`
}

// LLMConfig enables model-backed market classification when APIKey is set.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	p := schedule.DefaultPolicy()
	return Config{
		Storage: StorageConfig{SQLitePath: "data/arbhunter.db"},
		Engine: EngineConfig{
			PollIntervalSeconds:    300,
			NotionalUSD:            100,
			FetchLimit:             100,
			FreshnessWindowSeconds: 300,
			MaxPositionsPerCycle:   10,
			DefaultExpiryDays:      30,
			DemoIntervalSeconds:    10,
		},
		Fetch: FetchConfig{MaxRetries: 5, RetryBaseDelayMS: 1000},
		Scheduler: SchedulerConfig{
			FastAbove:          p.FastAbove,
			NormalAbove:        p.NormalAbove,
			FastFactor:         p.FastFactor,
			SlowFactor:         p.SlowFactor,
			MinIntervalSeconds: int(p.MinInterval / time.Second),
		},
		Redis: RedisConfig{TTLHours: 24 * 7},
		Kafka: KafkaConfig{
			OpportunitiesTopic: "arb.opportunities",
			PositionsTopic:     "arb.positions",
		},
	}
}

// Validate reports every nonsensical value at once.
func (c *Config) Validate() error {
	var errs []string
	if strings.TrimSpace(c.Storage.SQLitePath) == "" {
		errs = append(errs, "storage: sqlite_path must not be empty")
	}
	if c.Engine.PollIntervalSeconds <= 0 {
		errs = append(errs, "engine: poll_interval_seconds must be positive")
	}
	if c.Engine.NotionalUSD <= 0 {
		errs = append(errs, "engine: notional_usd must be positive")
	}
	if c.Engine.FetchLimit <= 0 {
		errs = append(errs, "engine: fetch_limit must be positive")
	}
	if c.Engine.FreshnessWindowSeconds <= 0 {
		errs = append(errs, "engine: freshness_window_seconds must be positive")
	}
	if c.Engine.MaxPositionsPerCycle < 0 {
		errs = append(errs, "engine: max_positions_per_cycle must not be negative")
	}
	if c.Engine.DefaultExpiryDays <= 0 {
		errs = append(errs, "engine: default_expiry_days must be positive")
	}
	if c.Engine.DemoMode && c.Engine.DemoIntervalSeconds <= 0 {
		errs = append(errs, "engine: demo_interval_seconds must be positive in demo mode")
	}
	if c.Fetch.MaxRetries < 1 {
		errs = append(errs, "fetch: max_retries must be at least 1")
	}
	if c.Fetch.RetryBaseDelayMS < 0 {
		errs = append(errs, "fetch: retry_base_delay_ms must not be negative")
	}
	if c.Scheduler.FastAbove < c.Scheduler.NormalAbove {
		errs = append(errs, fmt.Sprintf("scheduler: fast_above (%.1f) must not be below normal_above (%.1f)", c.Scheduler.FastAbove, c.Scheduler.NormalAbove))
	}
	if c.Scheduler.FastFactor <= 0 || c.Scheduler.SlowFactor <= 0 {
		errs = append(errs, "scheduler: fast_factor and slow_factor must be positive")
	}
	if c.Scheduler.MinIntervalSeconds < 0 {
		errs = append(errs, "scheduler: min_interval_seconds must not be negative")
	}
	if c.Redis.DB < 0 {
		errs = append(errs, "redis: db must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Engine.PollIntervalSeconds) * time.Second
}

func (c *Config) DemoInterval() time.Duration {
	return time.Duration(c.Engine.DemoIntervalSeconds) * time.Second
}

func (c *Config) FreshnessWindow() time.Duration {
	return time.Duration(c.Engine.FreshnessWindowSeconds) * time.Second
}

func (c *Config) DefaultExpiry() time.Duration {
	return time.Duration(c.Engine.DefaultExpiryDays) * 24 * time.Hour
}

func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Fetch.RetryBaseDelayMS) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.TTLHours) * time.Hour
}

// SchedulePolicy converts the scheduler section into a policy.
func (c *Config) SchedulePolicy() schedule.Policy {
	return schedule.Policy{
		FastAbove:   c.Scheduler.FastAbove,
		NormalAbove: c.Scheduler.NormalAbove,
		FastFactor:  c.Scheduler.FastFactor,
		SlowFactor:  c.Scheduler.SlowFactor,
		MinInterval: time.Duration(c.Scheduler.MinIntervalSeconds) * time.Second,
	}
}
