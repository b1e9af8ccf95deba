package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hetulpatel/arbhunter/internal/agent"
	"github.com/hetulpatel/arbhunter/internal/cache"
	"github.com/hetulpatel/arbhunter/internal/categorize"
	"github.com/hetulpatel/arbhunter/internal/collectors"
	"github.com/hetulpatel/arbhunter/internal/config"
	"github.com/hetulpatel/arbhunter/internal/demo"
	"github.com/hetulpatel/arbhunter/internal/kafka"
	"github.com/hetulpatel/arbhunter/internal/kalshi"
	"github.com/hetulpatel/arbhunter/internal/llm"
	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/opportunities"
	"github.com/hetulpatel/arbhunter/internal/polymarket"
	"github.com/hetulpatel/arbhunter/internal/positions"
	"github.com/hetulpatel/arbhunter/internal/queue"
	"github.com/hetulpatel/arbhunter/internal/schedule"
	"github.com/hetulpatel/arbhunter/internal/storage/sqlite"
	"github.com/hetulpatel/arbhunter/internal/tasklog"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	demoMode := flag.Bool("demo", false, "use the fixed demo quotes instead of live venues")
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatalf("[arbhunter] load config: %v", err)
	}
	// .env is loaded by config.Load, so logging reads it only afterwards.
	logging.InitFromEnv()
	if *demoMode {
		cfg.Engine.DemoMode = true
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("[arbhunter] %v", err)
	}

	store, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		logging.Fatalf("[arbhunter] open sqlite: %v", err)
	}
	defer store.Close()
	if err := store.CreateTables(ctx); err != nil {
		logging.Fatalf("[arbhunter] create tables: %v", err)
	}
	stores := store.Stores()
	rec := tasklog.New(stores.Tasks, nil)

	seen := newSeenCache(cfg)
	classifier, closeClassifier := newClassifier(cfg)
	defer closeClassifier()
	pub := newPublisher(ctx, cfg)
	defer pub.Close()

	manager, err := positions.New(positions.Config{
		Positions:   stores.Positions,
		Performance: stores.Performance,
		Tasks:       stores.Tasks,
		Recorder:    rec,
		Classifier:  classifier,
		Events:      pub,
		Expiry:      cfg.DefaultExpiry(),
	})
	if err != nil {
		logging.Fatalf("[arbhunter] position manager: %v", err)
	}
	opps, err := opportunities.New(opportunities.Config{
		Store:  stores.Opportunities,
		Window: cfg.FreshnessWindow(),
	})
	if err != nil {
		logging.Fatalf("[arbhunter] opportunity adapter: %v", err)
	}

	sourceA, sourceB := newSources(cfg)
	a, err := agent.New(agent.Config{
		PollInterval:         cfg.PollInterval(),
		DemoMode:             cfg.Engine.DemoMode,
		DemoInterval:         cfg.DemoInterval(),
		Notional:             cfg.Engine.NotionalUSD,
		FetchLimit:           cfg.Engine.FetchLimit,
		MaxPositionsPerCycle: cfg.Engine.MaxPositionsPerCycle,
		Settle:               cfg.Engine.SettlePositions,
		MaxRetries:           cfg.Fetch.MaxRetries,
		RetryBaseDelay:       cfg.RetryBaseDelay(),
	}, agent.Deps{
		SourceA:       sourceA,
		SourceB:       sourceB,
		Prices:        stores.Prices,
		Opportunities: opps,
		Positions:     manager,
		Scheduler:     schedule.New(cfg.SchedulePolicy()),
		Publisher:     pub,
		Seen:          seen,
		Recorder:      rec,
	})
	if err != nil {
		logging.Fatalf("[arbhunter] agent: %v", err)
	}
	defer a.Close()

	if err := a.Recover(ctx); err != nil {
		logging.Errorf("[arbhunter] recovery incomplete: %v", err)
	}

	if *once {
		report := a.RunOnce(ctx)
		logging.Infof("[arbhunter] single cycle done: %d opportunities, %d positions created, %d failures",
			report.Opportunities, report.PositionsCreated, report.Failures)
		return
	}
	if err := a.Run(ctx); err != nil {
		logging.Errorf("[arbhunter] run: %v", err)
	}
}

func newSources(cfg *config.Config) (collectors.Source, collectors.Source) {
	if cfg.Engine.DemoMode {
		logging.Infof("[arbhunter] demo mode: serving fixed quotes every %s", cfg.DemoInterval())
		return demo.Sources(nil)
	}
	return polymarket.NewClient(polymarket.Config{BaseURL: cfg.Venues.PolymarketURL}),
		kalshi.NewClient(kalshi.Config{BaseURL: cfg.Venues.KalshiURL})
}

func newSeenCache(cfg *config.Config) cache.SeenCache {
	if cfg.Redis.Addr != "" {
		c, err := cache.NewRedisSeenCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.CacheTTL(), "")
		if err == nil {
			logging.Infof("[arbhunter] position dedup via redis at %s", cfg.Redis.Addr)
			return c
		}
		logging.Warnf("[arbhunter] redis unavailable, using in-process dedup: %v", err)
	}
	return cache.NewMemorySeenCache(cfg.CacheTTL(), nil)
}

func newClassifier(cfg *config.Config) (categorize.Classifier, func()) {
	keyword := categorize.KeywordClassifier{}
	if cfg.LLM.APIKey == "" {
		return keyword, func() {}
	}
	client, err := llm.New(llm.Config{APIKey: cfg.LLM.APIKey, BaseURL: cfg.LLM.BaseURL, Model: cfg.LLM.Model})
	if err != nil {
		logging.Warnf("[arbhunter] llm disabled: %v", err)
		return keyword, func() {}
	}

	var categories cache.CategoryCache
	if cfg.Redis.Addr != "" {
		if c, err := cache.NewRedisCategoryCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, 0, ""); err == nil {
			categories = c
		} else {
			logging.Warnf("[arbhunter] redis category cache unavailable: %v", err)
		}
	}
	if categories == nil {
		categories = cache.NewMemoryCategoryCache()
	}
	classifier, err := categorize.NewLLMClassifier(client, categories, keyword)
	if err != nil {
		logging.Warnf("[arbhunter] llm classifier disabled: %v", err)
		categories.Close()
		return keyword, func() {}
	}
	logging.Infof("[arbhunter] classifying markets with %s", client.Model())
	return classifier, func() { categories.Close() }
}

// newPublisher returns a publisher with no streams when kafka is not
// configured or unreachable.
func newPublisher(ctx context.Context, cfg *config.Config) *queue.Publisher {
	brokers := kafka.Brokers(cfg.Kafka.Brokers)
	if len(brokers) == 0 {
		return queue.NewPublisher(nil, nil, nil)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := kafka.WaitForBroker(waitCtx, brokers); err != nil {
		logging.Warnf("[arbhunter] kafka disabled: %v", err)
		return queue.NewPublisher(nil, nil, nil)
	}
	for _, topic := range []string{cfg.Kafka.OpportunitiesTopic, cfg.Kafka.PositionsTopic} {
		if err := kafka.EnsureTopic(waitCtx, brokers, topic); err != nil {
			logging.Errorf("[arbhunter] ensure topic warning: %v", err)
		}
	}
	logging.Infof("[arbhunter] publishing to %s and %s", cfg.Kafka.OpportunitiesTopic, cfg.Kafka.PositionsTopic)
	return queue.NewPublisher(
		kafka.NewWriter(brokers, cfg.Kafka.OpportunitiesTopic),
		kafka.NewWriter(brokers, cfg.Kafka.PositionsTopic),
		nil,
	)
}
