package positions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
	"github.com/hetulpatel/arbhunter/internal/storage/memory"
)

var t0 = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	stores storage.Stores
	now    time.Time
	m      *Manager
	events []models.PositionState
}

func (f *fixture) PublishPosition(_ context.Context, p models.Position, _ models.PositionState) error {
	f.events = append(f.events, p.State)
	return nil
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	f := &fixture{stores: memory.NewStores(), now: t0}
	cfg := Config{
		Positions:   f.stores.Positions,
		Performance: f.stores.Performance,
		Tasks:       f.stores.Tasks,
		Events:      f,
		Now:         func() time.Time { return f.now },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := New(cfg)
	require.NoError(t, err)
	f.m = m
	return f
}

func opportunity(event string, profit float64) models.Opportunity {
	return models.Opportunity{
		OpportunityID:    "opp-" + event,
		EventName:        event,
		PlatformA:        "Kalshi",
		PlatformB:        "Polymarket",
		PlatformAPrice:   0.47,
		PlatformBPrice:   0.44,
		BetAmountA:       51.65,
		BetAmountB:       48.35,
		Profit:           profit,
		ProfitPercentage: profit,
	}
}

func TestNewRequiresStores(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
	_, err = New(Config{Positions: memory.NewPositionStore()})
	assert.Error(t, err)
}

func TestCreateFromOpportunity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	id, err := f.m.CreateFromOpportunity(ctx, opportunity("Lakers win NBA title", 9.89))
	require.NoError(t, err)

	p, err := f.stores.Positions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateWatching, p.State)
	assert.Equal(t, models.MarketSports, p.MarketType)
	assert.Equal(t, "Kalshi", p.PlatformA)
	assert.Equal(t, 51.65, p.AmountBetA)
	assert.Equal(t, 0.44, p.EntryPriceB)
	assert.Equal(t, 9.89, p.TargetProfit)
	assert.Equal(t, "opp-Lakers win NBA title", p.OpportunityID)
	assert.True(t, p.ExpirationDate.Equal(t0.Add(30*24*time.Hour)))
	assert.True(t, p.CreatedAt.Equal(t0))

	n, err := f.stores.Tasks.Count(ctx, models.ActionCreatePosition, models.TaskSuccess)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []models.PositionState{models.StateWatching}, f.events)
}

func TestCreateUsesOpportunityExpiry(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	opp := opportunity("Election night", 5)
	opp.ExpiresAt = t0.Add(72 * time.Hour)
	id, err := f.m.CreateFromOpportunity(ctx, opp)
	require.NoError(t, err)
	p, err := f.stores.Positions.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.ExpirationDate.Equal(t0.Add(72*time.Hour)))
}

func TestPastExpirationIsCreatedThenExpired(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	opp := opportunity("Already over", 5)
	opp.ExpiresAt = t0.Add(-time.Hour)
	id, err := f.m.CreateFromOpportunity(ctx, opp)
	require.NoError(t, err)

	p, err := f.stores.Positions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateWatching, p.State)

	n, err := f.m.Monitor(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConfirmEntryOnlyFromWatching(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	id, err := f.m.CreateFromOpportunity(ctx, opportunity("Bitcoin 100k", 3))
	require.NoError(t, err)

	f.now = t0.Add(time.Minute)
	ok, err := f.m.ConfirmEntry(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := f.stores.Positions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateEntered, p.State)
	assert.True(t, p.LastChecked.Equal(t0.Add(time.Minute)))

	ok, err = f.m.ConfirmEntry(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.m.ConfirmEntry(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlaceOrders(t *testing.T) {
	rejecting := PlacerFunc(func(context.Context, models.Position) (bool, error) { return false, nil })
	f := newFixture(t, func(c *Config) { c.Placer = rejecting })
	ctx := context.Background()

	id, err := f.m.CreateFromOpportunity(ctx, opportunity("Tesla deliveries", 3))
	require.NoError(t, err)
	ok, err := f.m.PlaceOrders(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	f = newFixture(t, nil)
	id, err = f.m.CreateFromOpportunity(ctx, opportunity("Tesla deliveries", 3))
	require.NoError(t, err)
	ok, err = f.m.PlaceOrders(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.m.PlaceOrders(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.m.PlaceOrders(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMonitorExpiresAfterThirtyOneDays(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	id, err := f.m.CreateFromOpportunity(ctx, opportunity("Fed rate cut", 9.89))
	require.NoError(t, err)

	n, err := f.m.Monitor(ctx, t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	p, err := f.stores.Positions.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.LastChecked.Equal(t0.Add(24*time.Hour)))

	later := t0.Add(31 * 24 * time.Hour)
	n, err = f.m.Monitor(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err = f.stores.Positions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateExpired, p.State)
	require.NotNil(t, p.ActualProfit)
	assert.Equal(t, 9.89, *p.ActualProfit)
	require.NotNil(t, p.ResolvedAt)
	assert.True(t, p.ResolvedAt.Equal(later))

	// terminal positions are never touched again
	n, err = f.m.Monitor(ctx, later.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	p, err = f.stores.Positions.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.LastChecked.Equal(later))
	assert.True(t, p.ResolvedAt.Equal(later))
}

func TestMonitorSkipsFailedResolution(t *testing.T) {
	failing := ResolverFunc(func(context.Context, models.Position) (float64, error) {
		return 0, errors.New("venue down")
	})
	f := newFixture(t, func(c *Config) { c.Resolver = failing })
	ctx := context.Background()

	id, err := f.m.CreateFromOpportunity(ctx, opportunity("Gold above 3000", 2))
	require.NoError(t, err)

	n, err := f.m.Monitor(ctx, t0.Add(40*24*time.Hour))
	assert.Error(t, err)
	assert.Equal(t, 0, n)
	p, err := f.stores.Positions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateWatching, p.State)
}

func TestSettle(t *testing.T) {
	loss := ResolverFunc(func(_ context.Context, p models.Position) (float64, error) {
		if p.EventName == "Loser" {
			return -1.5, nil
		}
		return p.TargetProfit, nil
	})
	f := newFixture(t, func(c *Config) { c.Resolver = loss })
	ctx := context.Background()

	winID, err := f.m.CreateFromOpportunity(ctx, opportunity("Winner", 4))
	require.NoError(t, err)
	loseID, err := f.m.CreateFromOpportunity(ctx, opportunity("Loser", 4))
	require.NoError(t, err)

	_, err = f.m.Monitor(ctx, t0.Add(31*24*time.Hour))
	require.NoError(t, err)

	n, err := f.m.Settle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	win, err := f.stores.Positions.Get(ctx, winID)
	require.NoError(t, err)
	assert.Equal(t, models.StateProfitable, win.State)
	lose, err := f.stores.Positions.Get(ctx, loseID)
	require.NoError(t, err)
	assert.Equal(t, models.StateLoss, lose.State)

	n, err = f.m.Settle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRecomputePerformanceSuccessRate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i, profit := range []float64{10, 20, 30, 0} {
		_, err := f.m.CreateFromOpportunity(ctx, opportunity("NFL week "+string(rune('1'+i)), profit))
		require.NoError(t, err)
	}
	_, err := f.m.CreateFromOpportunity(ctx, opportunity("Ethereum merge", 4))
	require.NoError(t, err)

	require.NoError(t, f.m.RecomputePerformance(ctx))

	perf, err := f.m.Performance(ctx)
	require.NoError(t, err)
	require.Len(t, perf, 2)

	byType := map[models.MarketType]models.MarketTypePerformance{}
	for _, p := range perf {
		byType[p.MarketType] = p
	}
	sports := byType[models.MarketSports]
	assert.Equal(t, 4, sports.OpportunitiesFound)
	assert.Equal(t, 3, sports.ProfitableArbs)
	assert.Equal(t, 75.0, sports.SuccessRate)
	assert.Equal(t, 15.0, sports.AvgProfitPct)
	assert.Equal(t, 100.0, byType[models.MarketCrypto].SuccessRate)
}

func TestReadAccessors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	u, err := f.m.Uptime(ctx, t0)
	require.NoError(t, err)
	assert.Zero(t, u.PositionsTracked)

	rec := models.NewTaskLogEntry(models.ActionRecover, models.TaskSuccess, "", nil, t0)
	require.NoError(t, f.stores.Tasks.Append(ctx, &rec))
	_, err = f.m.CreateFromOpportunity(ctx, opportunity("SpaceX launch", 2))
	require.NoError(t, err)

	active, err := f.m.ActivePositions(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	n, err := f.m.RecoveryCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tasks, err := f.m.RecentTasks(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	u, err = f.m.Uptime(ctx, t0.Add(50*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, u.Days)
	assert.Equal(t, 2, u.Hours)
	assert.Equal(t, 1, u.PositionsTracked)
	assert.True(t, u.Since.Equal(t0))
}
