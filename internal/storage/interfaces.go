package storage

import (
	"context"
	"time"

	"github.com/hetulpatel/arbhunter/internal/models"
)

// OpportunityStore provides access to the opportunities collection.
type OpportunityStore interface {
	// ExpireBefore marks active opportunities detected before cutoff as
	// expired and returns how many rows changed.
	ExpireBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Upsert inserts or replaces the opportunity keyed by OpportunityID.
	Upsert(ctx context.Context, opp *models.Opportunity) error

	// ListActive returns active opportunities detected at or after since,
	// ordered by profit percentage descending. limit <= 0 means no limit.
	ListActive(ctx context.Context, since time.Time, limit int) ([]models.Opportunity, error)
}

// PositionStore provides access to the positions collection.
type PositionStore interface {
	// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
	Insert(ctx context.Context, p *models.Position) error

	// Get retrieves a position by id. Returns ErrNotFound if not exists.
	Get(ctx context.Context, positionID string) (*models.Position, error)

	// ListByStates returns positions in any of states ordered by created_at ASC.
	ListByStates(ctx context.Context, states ...models.PositionState) ([]models.Position, error)

	// Transition applies upd only while the position is in one of from.
	// It reports whether the row changed.
	Transition(ctx context.Context, positionID string, from []models.PositionState, upd models.PositionUpdate) (bool, error)

	// Touch refreshes last_checked for a position still in one of states.
	Touch(ctx context.Context, positionID string, states []models.PositionState, at time.Time) error

	// Count returns the number of positions ever tracked.
	Count(ctx context.Context) (int, error)

	// AggregateByMarketType groups every position by market type.
	AggregateByMarketType(ctx context.Context) ([]MarketTypeAggregate, error)
}

// MarketTypeAggregate is the raw group-by result behind performance records.
type MarketTypeAggregate struct {
	MarketType   models.MarketType
	Count        int
	Profitable   int // target_profit > 0
	AvgProfitPct float64
}

// PerformanceStore provides access to market_type_performance.
type PerformanceStore interface {
	// Upsert inserts or replaces the record keyed by market type.
	Upsert(ctx context.Context, perf *models.MarketTypePerformance) error

	// List returns every record ordered by market type.
	List(ctx context.Context) ([]models.MarketTypePerformance, error)
}

// TaskLogStore provides access to the append-only task log.
type TaskLogStore interface {
	// Append adds an entry. Returns ErrDuplicateKey if task_id exists.
	Append(ctx context.Context, e *models.TaskLogEntry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]models.TaskLogEntry, error)

	// First returns the oldest entry. Returns ErrNotFound when the log is empty.
	First(ctx context.Context) (*models.TaskLogEntry, error)

	// Count returns the number of entries with the given action and status.
	Count(ctx context.Context, action string, status models.TaskStatus) (int, error)
}

// PriceStore provides access to the market_prices history.
type PriceStore interface {
	// AppendPrices stores observations. Repeated rows are kept.
	AppendPrices(ctx context.Context, records []models.PriceRecord) error

	// LatestPrices returns the most recent records for a venue, newest first.
	LatestPrices(ctx context.Context, venue string, limit int) ([]models.PriceRecord, error)
}

// Stores bundles every collection the engine writes to. It is built once
// by the caller and passed to each component.
type Stores struct {
	Opportunities OpportunityStore
	Positions     PositionStore
	Performance   PerformanceStore
	Tasks         TaskLogStore
	Prices        PriceStore
}
