package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hetulpatel/arbhunter/internal/arb"
	"github.com/hetulpatel/arbhunter/internal/cache"
	"github.com/hetulpatel/arbhunter/internal/collectors"
	"github.com/hetulpatel/arbhunter/internal/fetch"
	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/matcher"
	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/opportunities"
	"github.com/hetulpatel/arbhunter/internal/positions"
	"github.com/hetulpatel/arbhunter/internal/schedule"
	"github.com/hetulpatel/arbhunter/internal/storage"
	"github.com/hetulpatel/arbhunter/internal/tasklog"
)

const (
	DefaultPollInterval         = 5 * time.Minute
	DefaultFetchLimit           = 100
	DefaultMaxPositionsPerCycle = 10
)

// Publisher receives the opportunities recorded in a cycle.
type Publisher interface {
	PublishOpportunities(ctx context.Context, opps []models.Opportunity) error
}

// Config holds the loop tuning knobs. A zero MaxPositionsPerCycle means the
// default; a negative one disables position creation.
type Config struct {
	PollInterval         time.Duration
	DemoMode             bool
	DemoInterval         time.Duration
	Notional             float64
	FetchLimit           int
	MaxPositionsPerCycle int
	Settle               bool
	MaxRetries           int
	RetryBaseDelay       time.Duration
}

// Deps are the collaborators the agent drives. Positions, Opportunities and
// both sources are required.
type Deps struct {
	SourceA       collectors.Source
	SourceB       collectors.Source
	Prices        storage.PriceStore
	Opportunities *opportunities.Adapter
	Positions     *positions.Manager
	Scheduler     *schedule.Scheduler
	Publisher     Publisher
	Seen          cache.SeenCache
	Recorder      *tasklog.Recorder
	Now           func() time.Time
	Sleep         fetch.Sleeper
}

// Agent runs the fetch, detect, track and monitor cycle.
type Agent struct {
	cfg     Config
	sourceA collectors.Source
	sourceB collectors.Source
	fetchA  *fetch.Fetcher
	fetchB  *fetch.Fetcher
	prices  storage.PriceStore
	opps    *opportunities.Adapter
	manager *positions.Manager
	sched   *schedule.Scheduler
	pub     Publisher
	seen    cache.SeenCache
	rec     *tasklog.Recorder
	now     func() time.Time
	sleep   fetch.Sleeper
	cycles  int
}

// CycleReport summarizes one RunOnce.
type CycleReport struct {
	Started          time.Time
	Duration         time.Duration
	QuotesA          int
	QuotesB          int
	Opportunities    int
	PositionsCreated int
	PositionsEntered int
	PositionsExpired int
	PositionsSettled int
	Failures         int
}

func New(cfg Config, deps Deps) (*Agent, error) {
	if deps.SourceA == nil || deps.SourceB == nil {
		return nil, fmt.Errorf("agent: two venue sources are required")
	}
	if deps.Opportunities == nil {
		return nil, fmt.Errorf("agent: opportunity adapter is required")
	}
	if deps.Positions == nil {
		return nil, fmt.Errorf("agent: position manager is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.DemoInterval <= 0 {
		cfg.DemoInterval = cfg.PollInterval
	}
	if cfg.Notional <= 0 {
		cfg.Notional = arb.DefaultNotional
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}
	if cfg.MaxPositionsPerCycle == 0 {
		cfg.MaxPositionsPerCycle = DefaultMaxPositionsPerCycle
	}

	a := &Agent{
		cfg:     cfg,
		sourceA: deps.SourceA,
		sourceB: deps.SourceB,
		prices:  deps.Prices,
		opps:    deps.Opportunities,
		manager: deps.Positions,
		sched:   deps.Scheduler,
		pub:     deps.Publisher,
		seen:    deps.Seen,
		rec:     deps.Recorder,
		now:     deps.Now,
		sleep:   deps.Sleep,
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.sleep == nil {
		a.sleep = fetch.Sleep
	}
	if a.sched == nil {
		a.sched = schedule.New(schedule.DefaultPolicy())
	}
	if a.seen == nil {
		a.seen = cache.NewMemorySeenCache(0, a.now)
	}
	if a.rec == nil {
		a.rec = tasklog.New(nil, a.now)
	}
	a.fetchA = a.newFetcher(a.sourceA)
	a.fetchB = a.newFetcher(a.sourceB)
	return a, nil
}

func (a *Agent) newFetcher(src collectors.Source) *fetch.Fetcher {
	return fetch.New(fetch.Config{
		Name:       string(src.Name()),
		MaxRetries: a.cfg.MaxRetries,
		BaseDelay:  a.cfg.RetryBaseDelay,
		Tasks:      a.rec,
		Sleep:      a.sleep,
	})
}

// Recover restores in-process state from the store after a restart.
func (a *Agent) Recover(ctx context.Context) error {
	active, err := a.manager.ActivePositions(ctx)
	if err != nil {
		a.rec.Record(ctx, models.ActionRecover, models.TaskFailure, "load active positions", err)
		return fmt.Errorf("recover: %w", err)
	}
	for _, p := range active {
		if _, err := a.seen.MarkNew(ctx, p.OpportunityID); err != nil {
			logging.Warnf("[agent] seed dedup cache for %s: %v", p.OpportunityID, err)
		}
	}

	last := "none"
	if recent, err := a.manager.RecentTasks(ctx, 1); err == nil && len(recent) > 0 {
		last = fmt.Sprintf("%s/%s at %s", recent[0].Action, recent[0].Status, recent[0].Timestamp.Format(time.RFC3339))
	}

	if err := a.manager.RecomputePerformance(ctx); err != nil {
		a.rec.Record(ctx, models.ActionRecover, models.TaskFailure, "recompute performance", err)
		return fmt.Errorf("recover: %w", err)
	}

	a.rec.Recordf(ctx, models.ActionRecover, models.TaskSuccess, nil,
		"recovered with %d active positions, last action %s", len(active), last)
	logging.Infof("[agent] recovered %d active positions (last action: %s)", len(active), last)
	return nil
}

// RunOnce executes a single cycle. Step failures are recorded and the cycle
// carries on; RunOnce itself never fails.
func (a *Agent) RunOnce(ctx context.Context) CycleReport {
	report := CycleReport{Started: a.now().UTC()}
	// A cycle that has started runs to completion, retries included, even
	// when shutdown arrives mid-cycle.
	persist := context.WithoutCancel(ctx)

	a.rec.Record(persist, models.ActionFetchPrices, models.TaskStart, "fetching prices", nil)
	quotesA, quotesB := a.fetchBoth(persist)
	report.QuotesA, report.QuotesB = len(quotesA), len(quotesB)

	observed := a.now().UTC()
	report.Failures += a.storePrices(persist, a.sourceA.Name(), quotesA, observed)
	report.Failures += a.storePrices(persist, a.sourceB.Name(), quotesB, observed)

	if len(quotesA) > 0 && len(quotesB) > 0 {
		a.rec.Recordf(persist, models.ActionFetchPrices, models.TaskSuccess, nil,
			"fetched %d %s and %d %s markets", len(quotesA), a.sourceA.Name(), len(quotesB), a.sourceB.Name())
		a.detect(persist, quotesA, quotesB, &report)
	} else {
		a.rec.Recordf(persist, models.ActionFetchPrices, models.TaskFailure, nil,
			"missing price data (%s=%d, %s=%d)", a.sourceA.Name(), len(quotesA), a.sourceB.Name(), len(quotesB))
		report.Failures++
	}

	expired, err := a.manager.Monitor(persist, a.now())
	report.PositionsExpired = expired
	if err != nil {
		a.rec.Record(persist, models.ActionMonitorPositions, models.TaskFailure, "monitor positions", err)
		report.Failures++
	}

	if a.cfg.Settle {
		settled, err := a.manager.Settle(persist)
		report.PositionsSettled = settled
		if err != nil {
			a.rec.Record(persist, models.ActionSettlePositions, models.TaskFailure, "settle positions", err)
			report.Failures++
		}
	}

	if err := a.manager.RecomputePerformance(persist); err != nil {
		report.Failures++
	}

	report.Duration = a.now().Sub(report.Started)
	a.cycles++
	logging.Infof("[agent] cycle %d: quotes=%d/%d opportunities=%d created=%d entered=%d expired=%d failures=%d in %s",
		a.cycles, report.QuotesA, report.QuotesB, report.Opportunities, report.PositionsCreated,
		report.PositionsEntered, report.PositionsExpired, report.Failures, report.Duration)
	return report
}

func (a *Agent) fetchBoth(ctx context.Context) ([]models.Quote, []models.Quote) {
	var quotesA, quotesB []models.Quote
	var g errgroup.Group
	g.Go(func() error {
		quotesA, _ = a.fetchA.Fetch(ctx, a.op(a.sourceA))
		return nil
	})
	g.Go(func() error {
		quotesB, _ = a.fetchB.Fetch(ctx, a.op(a.sourceB))
		return nil
	})
	_ = g.Wait()
	return quotesA, quotesB
}

func (a *Agent) op(src collectors.Source) fetch.Op {
	limit := a.cfg.FetchLimit
	return func(ctx context.Context) ([]models.Quote, error) {
		return src.FetchPrices(ctx, limit)
	}
}

func (a *Agent) storePrices(ctx context.Context, venue collectors.Venue, quotes []models.Quote, at time.Time) int {
	if a.prices == nil || len(quotes) == 0 {
		return 0
	}
	if err := a.prices.AppendPrices(ctx, models.PriceRecords(string(venue), quotes, at)); err != nil {
		a.rec.Record(ctx, models.ActionStorePrices, models.TaskFailure, "store "+string(venue)+" prices", err)
		return 1
	}
	return 0
}

func (a *Agent) detect(ctx context.Context, quotesA, quotesB []models.Quote, report *CycleReport) {
	opps := matcher.Match(a.sourceA.Name(), quotesA, a.sourceB.Name(), quotesB, a.cfg.Notional)
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].ProfitPercentage > opps[j].ProfitPercentage
	})
	report.Opportunities = len(opps)

	written, err := a.opps.Record(ctx, opps)
	if err != nil {
		// Positions must reference stored opportunities.
		a.rec.Recordf(ctx, models.ActionDetectArbitrage, models.TaskFailure, err,
			"found %d opportunities, recorded %d", len(opps), written)
		report.Failures++
		return
	}
	a.rec.Recordf(ctx, models.ActionDetectArbitrage, models.TaskSuccess, nil,
		"found %d opportunities, recorded %d", len(opps), written)
	if len(opps) == 0 {
		return
	}

	if a.pub != nil {
		if err := a.pub.PublishOpportunities(ctx, opps); err != nil {
			logging.Errorf("[agent] publish opportunities: %v", err)
		}
	}

	for _, opp := range opps {
		if report.PositionsCreated >= a.cfg.MaxPositionsPerCycle {
			break
		}
		created, entered, err := a.track(ctx, opp)
		if err != nil {
			report.Failures++
		}
		if created {
			report.PositionsCreated++
		}
		if entered {
			report.PositionsEntered++
		}
	}
}

// track opens a position for opp unless one already exists for its id.
func (a *Agent) track(ctx context.Context, opp models.Opportunity) (bool, bool, error) {
	fresh, err := a.seen.MarkNew(ctx, opp.OpportunityID)
	if err != nil {
		a.rec.Record(ctx, models.ActionCreatePosition, models.TaskFailure, "dedup check for "+opp.OpportunityID, err)
		return false, false, err
	}
	if !fresh {
		return false, false, nil
	}

	id, err := a.manager.CreateFromOpportunity(ctx, opp)
	if err != nil {
		if ferr := a.seen.Forget(ctx, opp.OpportunityID); ferr != nil {
			logging.Warnf("[agent] forget %s: %v", opp.OpportunityID, ferr)
		}
		return false, false, err
	}
	entered, err := a.manager.PlaceOrders(ctx, id)
	return true, entered, err
}

// Interval is the wait before the next cycle.
func (a *Agent) Interval(ctx context.Context) time.Duration {
	if a.cfg.DemoMode {
		return a.cfg.DemoInterval
	}
	perf, err := a.manager.Performance(ctx)
	if err != nil {
		logging.Warnf("[agent] load performance: %v", err)
		return a.cfg.PollInterval
	}
	return a.sched.Next(perf, a.cfg.PollInterval)
}

// Run loops until ctx is cancelled. The cycle in progress at cancellation
// completes before Run returns.
func (a *Agent) Run(ctx context.Context) error {
	a.banner(ctx)

	for ctx.Err() == nil {
		interval := a.Interval(ctx)
		started := a.now()
		a.safeRunOnce(ctx)
		if ctx.Err() != nil {
			break
		}
		wait := max(0, interval-a.now().Sub(started))
		logging.Infof("[agent] next cycle in %s", wait)
		if err := a.sleep(ctx, wait); err != nil {
			break
		}
	}

	a.rec.Recordf(context.WithoutCancel(ctx), models.ActionAgentShutdown, models.TaskSuccess, nil,
		"stopped after %d cycles", a.cycles)
	logging.Infof("[agent] shutdown after %d cycles", a.cycles)
	return nil
}

func (a *Agent) safeRunOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			a.rec.Record(context.WithoutCancel(ctx), models.ActionAgentLoop, models.TaskFailure, "cycle aborted", err)
		}
	}()
	a.RunOnce(ctx)
}

func (a *Agent) banner(ctx context.Context) {
	now := a.now()
	up, err := a.manager.Uptime(ctx, now)
	if err != nil {
		logging.Warnf("[agent] uptime: %v", err)
	}
	recoveries, err := a.manager.RecoveryCount(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logging.Warnf("[agent] recovery count: %v", err)
	}
	mode := "live"
	if a.cfg.DemoMode {
		mode = "demo"
	}
	logging.Infof("[agent] starting (%s mode): uptime %dd %dh, %d positions tracked, %d recoveries",
		mode, up.Days, up.Hours, up.PositionsTracked, recoveries)
}

// Close releases the dedup cache.
func (a *Agent) Close() error {
	if a.seen == nil {
		return nil
	}
	return a.seen.Close()
}
