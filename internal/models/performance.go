package models

import (
	"time"

	"github.com/google/uuid"
)

// MarketTypePerformance is a materialized view over positions of one category.
type MarketTypePerformance struct {
	MarketType         MarketType `json:"market_type"`
	OpportunitiesFound int        `json:"opportunities_found"`
	ProfitableArbs     int        `json:"profitable_arbs"`
	AvgProfitPct       float64    `json:"avg_profit_pct"`
	SuccessRate        float64    `json:"success_rate"`
	LastUpdated        time.Time  `json:"last_updated"`
}

// NewMarketTypePerformance derives the success rate from the raw counts.
func NewMarketTypePerformance(mt MarketType, found, profitable int, avgProfitPct float64, at time.Time) MarketTypePerformance {
	var rate float64
	if found > 0 {
		rate = float64(profitable) / float64(found) * 100
	}
	return MarketTypePerformance{
		MarketType:         mt,
		OpportunitiesFound: found,
		ProfitableArbs:     profitable,
		AvgProfitPct:       avgProfitPct,
		SuccessRate:        rate,
		LastUpdated:        at.UTC(),
	}
}

// TaskStatus is the outcome recorded in a task log entry.
type TaskStatus string

const (
	TaskStart   TaskStatus = "start"
	TaskSuccess TaskStatus = "success"
	TaskFailure TaskStatus = "failure"
	TaskRetry   TaskStatus = "retry"
)

// Task log actions written by the engine.
const (
	ActionRecover          = "recover"
	ActionFetchPrices      = "fetch_prices"
	ActionFetchData        = "fetch_data"
	ActionStorePrices      = "store_prices"
	ActionDetectArbitrage  = "detect_arbitrage"
	ActionCreatePosition   = "create_position"
	ActionPlaceOrders      = "place_orders"
	ActionUpdatePosition   = "update_position"
	ActionMonitorPositions = "monitor_positions"
	ActionSettlePositions  = "settle_positions"
	ActionPerformance      = "calculate_performance"
	ActionAgentLoop        = "agent_loop"
	ActionAgentShutdown    = "agent_shutdown"
)

// TaskLogEntry is an append-only audit record.
type TaskLogEntry struct {
	TaskID    string     `json:"task_id"`
	Action    string     `json:"action"`
	Status    TaskStatus `json:"status"`
	Details   string     `json:"details"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewTaskLogEntry stamps a fresh entry with a random id.
func NewTaskLogEntry(action string, status TaskStatus, details string, err error, at time.Time) TaskLogEntry {
	entry := TaskLogEntry{
		TaskID:    uuid.NewString(),
		Action:    action,
		Status:    status,
		Details:   details,
		Timestamp: at.UTC(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	return entry
}
