package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hetulpatel/arbhunter/internal/config"
	"github.com/hetulpatel/arbhunter/internal/kafka"
	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/queue"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	group := flag.String("group", "", "consumer group; empty reads from the latest offset without committing")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatalf("[arb-events] load config: %v", err)
	}
	logging.InitFromEnv()
	brokers := kafka.Brokers(cfg.Kafka.Brokers)
	if len(brokers) == 0 {
		logging.Fatalf("[arb-events] KAFKA_BROKERS is not set")
	}
	if err := kafka.WaitForBroker(ctx, brokers); err != nil {
		logging.Fatalf("[arb-events] wait for broker: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		tail(ctx, brokers, cfg.Kafka.OpportunitiesTopic, *group, printOpportunity)
	}()
	go func() {
		defer wg.Done()
		tail(ctx, brokers, cfg.Kafka.PositionsTopic, *group, printPosition)
	}()
	wg.Wait()
}

func tail(ctx context.Context, brokers []string, topic, group string, show func([]byte) error) {
	reader := kafka.NewReader(brokers, topic, group)
	defer reader.Close()

	logging.Infof("[arb-events] tailing %s", topic)
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Errorf("[arb-events] read %s: %v", topic, err)
			continue
		}
		if err := show(msg.Value); err != nil {
			logging.Errorf("[arb-events] decode %s: %v", topic, err)
		}
	}
}

func printOpportunity(value []byte) error {
	var ev queue.OpportunityEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return err
	}
	o := ev.Opportunity
	fmt.Printf("[opportunity] %s | yes %s @ %.4f / no %s @ %.4f | profit $%.2f (%.2f%%)\n",
		o.EventName, o.PlatformA, o.PlatformAPrice, o.PlatformB, o.PlatformBPrice, o.Profit, o.ProfitPercentage)
	return nil
}

func printPosition(value []byte) error {
	var ev queue.PositionEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return err
	}
	p := ev.Position
	from := string(ev.Previous)
	if from == "" {
		from = "new"
	}
	fmt.Printf("[position] %s %s -> %s | %s (%s)\n", p.PositionID, from, p.State, p.EventName, p.MarketType)
	return nil
}
