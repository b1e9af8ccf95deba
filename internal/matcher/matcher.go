package matcher

import (
	"strings"
	"time"

	"github.com/hetulpatel/arbhunter/internal/arb"
	"github.com/hetulpatel/arbhunter/internal/collectors"
	"github.com/hetulpatel/arbhunter/internal/hashutil"
	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/models"
)

var quoteStripper = strings.NewReplacer(
	"'", "",
	"\"", "",
	"‘", "",
	"’", "",
	"“", "",
	"”", "",
)

// NormalizeEventName lower-cases, trims and strips straight and curly quote
// characters so "Fed's Rate Cut?" and "feds rate cut?" share a key.
func NormalizeEventName(name string) string {
	return quoteStripper.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// OpportunityID is stable for the same event and venue assignment, so
// re-detecting an opportunity upserts the existing record.
func OpportunityID(eventName, platformA, platformB string) string {
	return hashutil.ShortID(NormalizeEventName(eventName), platformA, platformB)
}

// Match pairs quotes whose event names agree after normalization and sizes
// each pair with the solver. Only pairs with a positive rounded profit
// percentage are returned, labelled so PlatformA carries the "yes" leg.
func Match(venueA collectors.Venue, quotesA []models.Quote, venueB collectors.Venue, quotesB []models.Quote, notional float64) []models.Opportunity {
	if len(quotesA) == 0 || len(quotesB) == 0 {
		return nil
	}

	lookup := make(map[string]models.Quote, len(quotesB))
	for _, q := range quotesB {
		lookup[NormalizeEventName(q.EventName)] = q
	}

	var out []models.Opportunity
	matched := 0
	for _, a := range quotesA {
		b, ok := lookup[NormalizeEventName(a.EventName)]
		if !ok {
			continue
		}
		matched++

		alloc, ok := arb.Solve(a.YesPrice, b.NoPrice, b.YesPrice, a.NoPrice, notional)
		if !ok || alloc.ProfitPct <= 0 {
			continue
		}
		out = append(out, build(venueA, a, venueB, b, alloc))
	}
	logging.Debugf("[matcher] %s=%d %s=%d matched=%d profitable=%d",
		venueA, len(quotesA), venueB, len(quotesB), matched, len(out))
	return out
}

func build(venueA collectors.Venue, a models.Quote, venueB collectors.Venue, b models.Quote, alloc *arb.Allocation) models.Opportunity {
	yesVenue, yesQuote := venueA, a
	noVenue, noQuote := venueB, b
	if alloc.Yes.Slot == arb.SlotB {
		yesVenue, yesQuote = venueB, b
		noVenue, noQuote = venueA, a
	}

	platformA := yesVenue.Display()
	platformB := noVenue.Display()
	return models.Opportunity{
		OpportunityID:       OpportunityID(a.EventName, platformA, platformB),
		EventName:           a.EventName,
		PlatformA:           platformA,
		PlatformB:           platformB,
		MarketIDA:           yesQuote.MarketID,
		MarketIDB:           noQuote.MarketID,
		PlatformAOutcome:    models.OutcomeYes,
		PlatformBOutcome:    models.OutcomeNo,
		PlatformAPrice:      alloc.Yes.Price,
		PlatformBPrice:      alloc.No.Price,
		BetAmountA:          alloc.Yes.Stake,
		BetAmountB:          alloc.No.Stake,
		TotalInvestment:     alloc.Notional,
		GuaranteedPayout:    alloc.Payout,
		Profit:              alloc.Profit,
		ProfitPercentage:    alloc.ProfitPct,
		CombinedProbability: alloc.CombinedProbability,
		ExpiresAt:           earliest(a.CloseTime, b.CloseTime),
		Status:              models.OpportunityActive,
	}
}

func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	default:
		return a
	}
}
