package models

import "time"

// Quote is the normalized price record produced by a venue adapter.
// YesPrice and NoPrice are probabilities in [0,1]; they usually sum to ~1
// but nothing downstream relies on that.
type Quote struct {
	MarketID  string    `json:"market_id"`
	EventName string    `json:"event_name"`
	YesPrice  float64   `json:"yes_price"`
	NoPrice   float64   `json:"no_price"`
	CloseTime time.Time `json:"close_time,omitempty"` // zero when the venue does not report one
}

// Outcome is one side of a binary market.
type Outcome string

const (
	OutcomeYes Outcome = "yes"
	OutcomeNo  Outcome = "no"
)

// PriceRecord is a single observed price for one outcome of one market.
type PriceRecord struct {
	Venue      string    `json:"venue"`
	MarketID   string    `json:"market_id"`
	EventName  string    `json:"event_name"`
	Outcome    Outcome   `json:"outcome"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

// PriceRecords expands quotes into yes/no price rows stamped at observedAt.
func PriceRecords(venue string, quotes []Quote, observedAt time.Time) []PriceRecord {
	out := make([]PriceRecord, 0, len(quotes)*2)
	for _, q := range quotes {
		out = append(out,
			PriceRecord{Venue: venue, MarketID: q.MarketID, EventName: q.EventName, Outcome: OutcomeYes, Price: q.YesPrice, ObservedAt: observedAt},
			PriceRecord{Venue: venue, MarketID: q.MarketID, EventName: q.EventName, Outcome: OutcomeNo, Price: q.NoPrice, ObservedAt: observedAt},
		)
	}
	return out
}
