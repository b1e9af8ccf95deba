package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hetulpatel/arbhunter/internal/config"
	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/opportunities"
	"github.com/hetulpatel/arbhunter/internal/positions"
	"github.com/hetulpatel/arbhunter/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	limit := flag.Int("limit", 20, "rows per section")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatalf("[arb-report] load config: %v", err)
	}
	logging.InitFromEnv()
	store, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		logging.Fatalf("[arb-report] open sqlite: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.CreateTables(ctx); err != nil {
		logging.Fatalf("[arb-report] create tables: %v", err)
	}

	stores := store.Stores()
	manager, err := positions.New(positions.Config{
		Positions:   stores.Positions,
		Performance: stores.Performance,
		Tasks:       stores.Tasks,
	})
	if err != nil {
		logging.Fatalf("[arb-report] %v", err)
	}
	opps, err := opportunities.New(opportunities.Config{Store: stores.Opportunities, Window: cfg.FreshnessWindow()})
	if err != nil {
		logging.Fatalf("[arb-report] %v", err)
	}

	now := time.Now().UTC()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if up, err := manager.Uptime(ctx, now); err == nil {
		recoveries, _ := manager.RecoveryCount(ctx)
		fmt.Fprintf(w, "Uptime: %dd %dh, %d positions tracked, %d recoveries\n\n", up.Days, up.Hours, up.PositionsTracked, recoveries)
	}

	active, err := opps.ListActive(ctx, *limit)
	if err != nil {
		logging.Fatalf("[arb-report] list opportunities: %v", err)
	}
	fmt.Fprintf(w, "Active opportunities (%d)\n", len(active))
	fmt.Fprintln(w, "EVENT\tYES\tNO\tPROFIT\tPROFIT %\tDETECTED")
	for _, o := range active {
		fmt.Fprintf(w, "%s\t%s @ %.4f\t%s @ %.4f\t$%.2f\t%.2f%%\t%s\n",
			clip(o.EventName), o.PlatformA, o.PlatformAPrice, o.PlatformB, o.PlatformBPrice,
			o.Profit, o.ProfitPercentage, o.DetectedAt.Format(time.RFC3339))
	}

	tracked, err := manager.ActivePositions(ctx)
	if err != nil {
		logging.Fatalf("[arb-report] list positions: %v", err)
	}
	fmt.Fprintf(w, "\nActive positions (%d)\n", len(tracked))
	fmt.Fprintln(w, "EVENT\tTYPE\tSTATE\tTARGET\tHELD\tEXPIRES IN")
	for i, p := range tracked {
		if i >= *limit {
			break
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f (%.2f%%)\t%dd\t%dd\n",
			clip(p.EventName), p.MarketType, p.State, p.TargetProfit, p.TargetProfitPct,
			p.DaysHeld(now), p.DaysUntilExpiry(now))
	}

	perf, err := manager.Performance(ctx)
	if err != nil {
		logging.Fatalf("[arb-report] performance: %v", err)
	}
	fmt.Fprintln(w, "\nPerformance by market type")
	fmt.Fprintln(w, "TYPE\tFOUND\tPROFITABLE\tSUCCESS\tAVG PROFIT %")
	for _, p := range perf {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\t%.2f%%\n", p.MarketType, p.OpportunitiesFound, p.ProfitableArbs, p.SuccessRate, p.AvgProfitPct)
	}

	tasks, err := manager.RecentTasks(ctx, *limit)
	if err != nil {
		logging.Fatalf("[arb-report] recent tasks: %v", err)
	}
	fmt.Fprintln(w, "\nRecent tasks")
	fmt.Fprintln(w, "TIME\tACTION\tSTATUS\tDETAILS")
	for _, t := range tasks {
		details := t.Details
		if t.Error != "" {
			details += " (" + t.Error + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Timestamp.Format(time.RFC3339), t.Action, t.Status, clip(details))
	}
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= 60 {
		return s
	}
	return string(r[:57]) + "..."
}
