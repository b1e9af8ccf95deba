package positions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hetulpatel/arbhunter/internal/categorize"
	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
	"github.com/hetulpatel/arbhunter/internal/tasklog"
)

// DefaultExpiry applies when an opportunity carries no close time.
const DefaultExpiry = 30 * 24 * time.Hour

// EventSink receives every position write. Delivery errors are logged only.
type EventSink interface {
	PublishPosition(ctx context.Context, p models.Position, previous models.PositionState) error
}

type Config struct {
	Positions   storage.PositionStore
	Performance storage.PerformanceStore
	Tasks       storage.TaskLogStore
	Recorder    *tasklog.Recorder
	Classifier  categorize.Classifier
	Resolver    Resolver
	Placer      OrderPlacer
	Events      EventSink
	Expiry      time.Duration
	Now         func() time.Time
}

// Manager drives positions through watching, entered and expired.
type Manager struct {
	positions   storage.PositionStore
	performance storage.PerformanceStore
	tasks       storage.TaskLogStore
	rec         *tasklog.Recorder
	classifier  categorize.Classifier
	resolver    Resolver
	placer      OrderPlacer
	events      EventSink
	expiry      time.Duration
	now         func() time.Time
}

func New(cfg Config) (*Manager, error) {
	if cfg.Positions == nil {
		return nil, fmt.Errorf("positions: position store is required")
	}
	if cfg.Performance == nil {
		return nil, fmt.Errorf("positions: performance store is required")
	}
	m := &Manager{
		positions:   cfg.Positions,
		performance: cfg.Performance,
		tasks:       cfg.Tasks,
		rec:         cfg.Recorder,
		classifier:  cfg.Classifier,
		resolver:    cfg.Resolver,
		placer:      cfg.Placer,
		events:      cfg.Events,
		expiry:      cfg.Expiry,
		now:         cfg.Now,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.rec == nil {
		m.rec = tasklog.New(cfg.Tasks, m.now)
	}
	if m.classifier == nil {
		m.classifier = categorize.KeywordClassifier{}
	}
	if m.resolver == nil {
		m.resolver = HedgedResolver{}
	}
	if m.placer == nil {
		m.placer = PaperPlacer{}
	}
	if m.expiry <= 0 {
		m.expiry = DefaultExpiry
	}
	return m, nil
}

// CreateFromOpportunity starts tracking opp in the watching state. A close
// time already in the past is accepted; the next Monitor expires it.
func (m *Manager) CreateFromOpportunity(ctx context.Context, opp models.Opportunity) (string, error) {
	now := m.now().UTC()
	expiration := opp.ExpiresAt.UTC()
	if opp.ExpiresAt.IsZero() {
		expiration = now.Add(m.expiry)
	}

	p := models.Position{
		PositionID:      uuid.NewString(),
		OpportunityID:   opp.OpportunityID,
		EventName:       opp.EventName,
		PlatformA:       opp.PlatformA,
		PlatformB:       opp.PlatformB,
		AmountBetA:      opp.BetAmountA,
		AmountBetB:      opp.BetAmountB,
		EntryPriceA:     opp.PlatformAPrice,
		EntryPriceB:     opp.PlatformBPrice,
		TargetProfit:    opp.Profit,
		TargetProfitPct: opp.ProfitPercentage,
		ExpirationDate:  expiration,
		MarketType:      m.classifier.Classify(ctx, opp.EventName),
		State:           models.StateWatching,
		CreatedAt:       now,
		LastChecked:     now,
	}
	if err := m.positions.Insert(ctx, &p); err != nil {
		m.rec.Record(ctx, models.ActionCreatePosition, models.TaskFailure, "failed to create position for "+truncate(opp.EventName), err)
		return "", fmt.Errorf("insert position: %w", err)
	}
	m.rec.Record(ctx, models.ActionCreatePosition, models.TaskSuccess, "created position for "+truncate(opp.EventName), nil)
	m.publish(ctx, p, "")
	return p.PositionID, nil
}

// PlaceOrders submits a watching position's legs and confirms entry when
// the placer reports a fill.
func (m *Manager) PlaceOrders(ctx context.Context, positionID string) (bool, error) {
	p, err := m.positions.Get(ctx, positionID)
	if err != nil {
		return false, fmt.Errorf("load position %s: %w", positionID, err)
	}
	if p.State != models.StateWatching {
		return false, nil
	}
	filled, err := m.placer.Place(ctx, *p)
	if err != nil {
		m.rec.Record(ctx, models.ActionPlaceOrders, models.TaskFailure, "order placement failed for "+truncate(p.EventName), err)
		return false, fmt.Errorf("place orders: %w", err)
	}
	if !filled {
		return false, nil
	}
	return m.ConfirmEntry(ctx, positionID)
}

// ConfirmEntry moves a watching position to entered. It reports false when
// the position is in any other state.
func (m *Manager) ConfirmEntry(ctx context.Context, positionID string) (bool, error) {
	now := m.now().UTC()
	ok, err := m.positions.Transition(ctx, positionID, []models.PositionState{models.StateWatching},
		models.PositionUpdate{State: models.StateEntered, LastChecked: now})
	if err != nil {
		return false, fmt.Errorf("confirm entry: %w", err)
	}
	if !ok {
		return false, nil
	}
	m.rec.Record(ctx, models.ActionPlaceOrders, models.TaskSuccess, "orders confirmed for position "+positionID, nil)
	m.publishByID(ctx, positionID, models.StateWatching)
	return true, nil
}

// Monitor expires every watching or entered position whose expiration is
// before now and refreshes last_checked on the rest. It returns how many
// positions expired.
func (m *Manager) Monitor(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	active, err := m.positions.ListByStates(ctx, models.ActiveStates...)
	if err != nil {
		return 0, fmt.Errorf("list active positions: %w", err)
	}

	var errs []error
	expired := 0
	for _, p := range active {
		if !p.ExpirationDate.Before(now) {
			if err := m.positions.Touch(ctx, p.PositionID, models.ActiveStates, now); err != nil {
				errs = append(errs, fmt.Errorf("touch %s: %w", p.PositionID, err))
			}
			continue
		}

		profit, err := m.resolver.Resolve(ctx, p)
		if err != nil {
			m.rec.Record(ctx, models.ActionUpdatePosition, models.TaskFailure, "resolve failed for position "+p.PositionID, err)
			errs = append(errs, fmt.Errorf("resolve %s: %w", p.PositionID, err))
			continue
		}
		resolvedAt := now
		ok, err := m.positions.Transition(ctx, p.PositionID, models.ActiveStates, models.PositionUpdate{
			State:        models.StateExpired,
			LastChecked:  now,
			ActualProfit: &profit,
			ResolvedAt:   &resolvedAt,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("expire %s: %w", p.PositionID, err))
			continue
		}
		if !ok {
			continue
		}
		expired++
		m.rec.Recordf(ctx, models.ActionUpdatePosition, models.TaskSuccess, nil,
			"position %s expired with profit %.2f", p.PositionID, profit)
		m.publishByID(ctx, p.PositionID, p.State)
	}

	if expired > 0 {
		m.rec.Recordf(ctx, models.ActionMonitorPositions, models.TaskSuccess, nil, "expired %d positions", expired)
		logging.Infof("[positions] expired %d of %d active positions", expired, len(active))
	}
	return expired, errors.Join(errs...)
}

// Settle splits resolved expired positions into profitable and loss.
func (m *Manager) Settle(ctx context.Context) (int, error) {
	expired, err := m.positions.ListByStates(ctx, models.StateExpired)
	if err != nil {
		return 0, fmt.Errorf("list expired positions: %w", err)
	}
	now := m.now().UTC()

	var errs []error
	settled := 0
	for _, p := range expired {
		if p.ActualProfit == nil {
			continue
		}
		next := models.StateLoss
		if *p.ActualProfit > 0 {
			next = models.StateProfitable
		}
		ok, err := m.positions.Transition(ctx, p.PositionID, []models.PositionState{models.StateExpired},
			models.PositionUpdate{State: next, LastChecked: now})
		if err != nil {
			errs = append(errs, fmt.Errorf("settle %s: %w", p.PositionID, err))
			continue
		}
		if ok {
			settled++
			m.publishByID(ctx, p.PositionID, models.StateExpired)
		}
	}
	if settled > 0 {
		m.rec.Recordf(ctx, models.ActionSettlePositions, models.TaskSuccess, nil, "settled %d positions", settled)
	}
	return settled, errors.Join(errs...)
}

// RecomputePerformance rebuilds one performance record per market type
// from every position ever tracked.
func (m *Manager) RecomputePerformance(ctx context.Context) error {
	aggs, err := m.positions.AggregateByMarketType(ctx)
	if err != nil {
		m.rec.Record(ctx, models.ActionPerformance, models.TaskFailure, "aggregate positions", err)
		return fmt.Errorf("aggregate positions: %w", err)
	}
	now := m.now().UTC()
	for _, agg := range aggs {
		perf := models.NewMarketTypePerformance(agg.MarketType, agg.Count, agg.Profitable, agg.AvgProfitPct, now)
		if err := m.performance.Upsert(ctx, &perf); err != nil {
			m.rec.Record(ctx, models.ActionPerformance, models.TaskFailure, "upsert "+string(agg.MarketType), err)
			return fmt.Errorf("upsert performance %s: %w", agg.MarketType, err)
		}
	}
	logging.Debugf("[positions] performance recomputed for %d market types", len(aggs))
	return nil
}

// ActivePositions returns watching and entered positions.
func (m *Manager) ActivePositions(ctx context.Context) ([]models.Position, error) {
	return m.positions.ListByStates(ctx, models.ActiveStates...)
}

// Performance returns the stored per-category records.
func (m *Manager) Performance(ctx context.Context) ([]models.MarketTypePerformance, error) {
	return m.performance.List(ctx)
}

// RecentTasks returns the newest task log entries.
func (m *Manager) RecentTasks(ctx context.Context, limit int) ([]models.TaskLogEntry, error) {
	if m.tasks == nil {
		return nil, nil
	}
	return m.tasks.Recent(ctx, limit)
}

// RecoveryCount is the number of successful restarts.
func (m *Manager) RecoveryCount(ctx context.Context) (int, error) {
	if m.tasks == nil {
		return 0, nil
	}
	return m.tasks.Count(ctx, models.ActionRecover, models.TaskSuccess)
}

// Uptime summarizes how long the engine has been tracking positions.
type Uptime struct {
	Since            time.Time
	Days             int
	Hours            int
	PositionsTracked int
}

// Uptime measures from the first task log entry.
func (m *Manager) Uptime(ctx context.Context, now time.Time) (Uptime, error) {
	var u Uptime
	if m.tasks == nil {
		return u, nil
	}
	first, err := m.tasks.First(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return u, nil
	}
	if err != nil {
		return u, fmt.Errorf("first task: %w", err)
	}
	total, err := m.positions.Count(ctx)
	if err != nil {
		return u, err
	}
	elapsed := now.Sub(first.Timestamp)
	if elapsed < 0 {
		elapsed = 0
	}
	u.Since = first.Timestamp
	u.Days = int(elapsed / (24 * time.Hour))
	u.Hours = int((elapsed % (24 * time.Hour)) / time.Hour)
	u.PositionsTracked = total
	return u, nil
}

func (m *Manager) publishByID(ctx context.Context, positionID string, previous models.PositionState) {
	if m.events == nil {
		return
	}
	p, err := m.positions.Get(ctx, positionID)
	if err != nil {
		logging.Debugf("[positions] reload %s for event: %v", positionID, err)
		return
	}
	m.publish(ctx, *p, previous)
}

func (m *Manager) publish(ctx context.Context, p models.Position, previous models.PositionState) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishPosition(ctx, p, previous); err != nil {
		logging.Errorf("[positions] publish %s: %v", p.PositionID, err)
	}
}

func truncate(s string) string {
	const limit = 50
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
