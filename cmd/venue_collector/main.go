// Command venue_collector records one venue's price history without running
// the matcher, for backfilling market_prices or checking a venue adapter.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hetulpatel/arbhunter/internal/collectors"
	"github.com/hetulpatel/arbhunter/internal/config"
	"github.com/hetulpatel/arbhunter/internal/fetch"
	"github.com/hetulpatel/arbhunter/internal/kalshi"
	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/polymarket"
	"github.com/hetulpatel/arbhunter/internal/storage/sqlite"
	"github.com/hetulpatel/arbhunter/internal/tasklog"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	venue := flag.String("venue", string(collectors.VenuePolymarket), "polymarket or kalshi")
	interval := flag.Duration("interval", 0, "repeat every interval; 0 fetches once")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatalf("[collector] load config: %v", err)
	}
	logging.InitFromEnv()

	var src collectors.Source
	switch collectors.Venue(*venue) {
	case collectors.VenuePolymarket:
		src = polymarket.NewClient(polymarket.Config{BaseURL: cfg.Venues.PolymarketURL})
	case collectors.VenueKalshi:
		src = kalshi.NewClient(kalshi.Config{BaseURL: cfg.Venues.KalshiURL})
	default:
		logging.Fatalf("[collector] unknown venue %q", *venue)
	}

	store, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		logging.Fatalf("[collector] open sqlite: %v", err)
	}
	defer store.Close()
	if err := store.CreateTables(ctx); err != nil {
		logging.Fatalf("[collector] create tables: %v", err)
	}
	stores := store.Stores()

	fetcher := fetch.New(fetch.Config{
		Name:       string(src.Name()),
		MaxRetries: cfg.Fetch.MaxRetries,
		BaseDelay:  cfg.RetryBaseDelay(),
		Tasks:      tasklog.New(stores.Tasks, nil),
	})

	for {
		quotes, ok := fetcher.Fetch(ctx, func(ctx context.Context) ([]models.Quote, error) {
			return src.FetchPrices(ctx, cfg.Engine.FetchLimit)
		})
		if ok {
			records := models.PriceRecords(string(src.Name()), quotes, time.Now().UTC())
			if err := stores.Prices.AppendPrices(context.WithoutCancel(ctx), records); err != nil {
				logging.Errorf("[collector] store %s prices: %v", src.Name(), err)
			} else {
				logging.Infof("[collector] stored %d %s quotes", len(quotes), src.Name())
			}
		}
		if *interval <= 0 || fetch.Sleep(ctx, *interval) != nil {
			return
		}
	}
}
