package models

import "time"

// OpportunityStatus tracks whether an opportunity is still actionable.
type OpportunityStatus string

const (
	OpportunityActive  OpportunityStatus = "active"
	OpportunityExpired OpportunityStatus = "expired"
)

// Opportunity is a detected cross-venue arbitrage. PlatformA always carries
// the "yes" leg and PlatformB the "no" leg.
type Opportunity struct {
	OpportunityID       string            `json:"opportunity_id"`
	EventName           string            `json:"event_name"`
	PlatformA           string            `json:"platform_a"`
	PlatformB           string            `json:"platform_b"`
	MarketIDA           string            `json:"market_id_a"`
	MarketIDB           string            `json:"market_id_b"`
	PlatformAOutcome    Outcome           `json:"platform_a_outcome"`
	PlatformBOutcome    Outcome           `json:"platform_b_outcome"`
	PlatformAPrice      float64           `json:"platform_a_price"`
	PlatformBPrice      float64           `json:"platform_b_price"`
	BetAmountA          float64           `json:"bet_amount_a"`
	BetAmountB          float64           `json:"bet_amount_b"`
	TotalInvestment     float64           `json:"total_investment"`
	GuaranteedPayout    float64           `json:"guaranteed_payout"`
	Profit              float64           `json:"profit"`
	ProfitPercentage    float64           `json:"profit_percentage"`
	CombinedProbability float64           `json:"combined_probability"`
	ExpiresAt           time.Time         `json:"expires_at,omitempty"`
	DetectedAt          time.Time         `json:"detected_at"`
	Status              OpportunityStatus `json:"status"`
}
