package models

import (
	"strings"
	"time"
)

// PositionState is a node in the position lifecycle.
type PositionState string

const (
	StateWatching   PositionState = "watching"
	StateEntered    PositionState = "entered"
	StateExpired    PositionState = "expired"
	StateProfitable PositionState = "profitable"
	StateLoss       PositionState = "loss"
)

// ActiveStates are the non-terminal states monitored every cycle.
var ActiveStates = []PositionState{StateWatching, StateEntered}

// Terminal reports whether the lifecycle engine stops monitoring s.
func (s PositionState) Terminal() bool {
	switch s {
	case StateWatching, StateEntered:
		return false
	default:
		return true
	}
}

// MarketType is the coarse category used for performance aggregation.
type MarketType string

const (
	MarketPolitics MarketType = "Politics"
	MarketSports   MarketType = "Sports"
	MarketCrypto   MarketType = "Crypto"
	MarketEconomic MarketType = "Economic"
	MarketTech     MarketType = "Tech"
	MarketOther    MarketType = "Other"
)

// MarketTypes lists every category in display order.
var MarketTypes = []MarketType{MarketPolitics, MarketSports, MarketCrypto, MarketEconomic, MarketTech, MarketOther}

// ParseMarketType matches s case-insensitively against the known categories.
func ParseMarketType(s string) (MarketType, bool) {
	for _, mt := range MarketTypes {
		if strings.EqualFold(string(mt), strings.TrimSpace(s)) {
			return mt, true
		}
	}
	return "", false
}

// Position is a hedged pair of wagers tracked until its market resolves.
type Position struct {
	PositionID      string        `json:"position_id"`
	OpportunityID   string        `json:"opportunity_id"`
	EventName       string        `json:"event_name"`
	PlatformA       string        `json:"platform_a"`
	PlatformB       string        `json:"platform_b"`
	AmountBetA      float64       `json:"amount_bet_a"`
	AmountBetB      float64       `json:"amount_bet_b"`
	EntryPriceA     float64       `json:"entry_price_a"`
	EntryPriceB     float64       `json:"entry_price_b"`
	TargetProfit    float64       `json:"target_profit"`
	TargetProfitPct float64       `json:"target_profit_pct"`
	ExpirationDate  time.Time     `json:"expiration_date"`
	MarketType      MarketType    `json:"market_type"`
	State           PositionState `json:"state"`
	CreatedAt       time.Time     `json:"created_at"`
	LastChecked     time.Time     `json:"last_checked"`
	ActualProfit    *float64      `json:"actual_profit"`
	ResolvedAt      *time.Time    `json:"resolved_at"`
}

// DaysHeld is the number of whole days between creation and now.
func (p Position) DaysHeld(now time.Time) int {
	return int(now.Sub(p.CreatedAt) / (24 * time.Hour))
}

// DaysUntilExpiry is the number of whole days left, never negative.
func (p Position) DaysUntilExpiry(now time.Time) int {
	d := int(p.ExpirationDate.Sub(now) / (24 * time.Hour))
	if d < 0 {
		return 0
	}
	return d
}

// PositionUpdate carries the fields written by a state transition.
type PositionUpdate struct {
	State        PositionState
	LastChecked  time.Time
	ActualProfit *float64
	ResolvedAt   *time.Time
}
