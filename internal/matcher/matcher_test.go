package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetulpatel/arbhunter/internal/collectors"
	"github.com/hetulpatel/arbhunter/internal/models"
)

func TestNormalizeEventName(t *testing.T) {
	assert.Equal(t, "feds rate cut?", NormalizeEventName("Fed's Rate Cut?"))
	assert.Equal(t, "feds rate cut?", NormalizeEventName("  feds rate cut?  "))
	assert.Equal(t, "feds rate cut?", NormalizeEventName("Fed’s “Rate” Cut?"))
	assert.Equal(t, NormalizeEventName(`"Bitcoin" to 100k`), NormalizeEventName("bitcoin to 100K"))
}

func TestMatchRelabelsYesLeg(t *testing.T) {
	pm := []models.Quote{{MarketID: "pm-1", EventName: "Will it rain?", YesPrice: 0.58, NoPrice: 0.44}}
	kalshi := []models.Quote{{MarketID: "k-1", EventName: "will it rain?", YesPrice: 0.47, NoPrice: 0.53}}

	opps := Match(collectors.VenuePolymarket, pm, collectors.VenueKalshi, kalshi, 100)
	require.Len(t, opps, 1)
	opp := opps[0]

	assert.Equal(t, "Will it rain?", opp.EventName)
	assert.Equal(t, "Kalshi", opp.PlatformA)
	assert.Equal(t, "Polymarket", opp.PlatformB)
	assert.Equal(t, "k-1", opp.MarketIDA)
	assert.Equal(t, "pm-1", opp.MarketIDB)
	assert.Equal(t, models.OutcomeYes, opp.PlatformAOutcome)
	assert.Equal(t, models.OutcomeNo, opp.PlatformBOutcome)
	assert.Equal(t, 0.47, opp.PlatformAPrice)
	assert.Equal(t, 0.44, opp.PlatformBPrice)
	assert.Equal(t, 51.65, opp.BetAmountA)
	assert.Equal(t, 48.35, opp.BetAmountB)
	assert.Equal(t, 9.8901, opp.ProfitPercentage)
	assert.Equal(t, 100.0, opp.TotalInvestment)
	assert.Equal(t, models.OpportunityActive, opp.Status)
	assert.Equal(t, OpportunityID("Will it rain?", "Kalshi", "Polymarket"), opp.OpportunityID)
}

func TestMatchKeepsVenueAOrderWhenFirstDirectionWins(t *testing.T) {
	pm := []models.Quote{{MarketID: "pm-1", EventName: "Event", YesPrice: 0.30, NoPrice: 0.70}}
	kalshi := []models.Quote{{MarketID: "k-1", EventName: "event", YesPrice: 0.62, NoPrice: 0.60}}

	opps := Match(collectors.VenuePolymarket, pm, collectors.VenueKalshi, kalshi, 100)
	require.Len(t, opps, 1)
	assert.Equal(t, "Polymarket", opps[0].PlatformA)
	assert.Equal(t, "Kalshi", opps[0].PlatformB)
	assert.Equal(t, 0.30, opps[0].PlatformAPrice)
	assert.Equal(t, 0.60, opps[0].PlatformBPrice)
}

func TestMatchSkipsUnmatchedAndUnprofitable(t *testing.T) {
	pm := []models.Quote{
		{MarketID: "a", EventName: "Only on polymarket", YesPrice: 0.1, NoPrice: 0.1},
		{MarketID: "b", EventName: "Efficient market", YesPrice: 0.5, NoPrice: 0.5},
	}
	kalshi := []models.Quote{
		{MarketID: "c", EventName: "efficient market", YesPrice: 0.5, NoPrice: 0.5},
		{MarketID: "d", EventName: "Only on kalshi", YesPrice: 0.1, NoPrice: 0.1},
	}
	assert.Empty(t, Match(collectors.VenuePolymarket, pm, collectors.VenueKalshi, kalshi, 100))
	assert.Empty(t, Match(collectors.VenuePolymarket, pm, collectors.VenueKalshi, nil, 100))
}

func TestMatchLastDuplicateWins(t *testing.T) {
	pm := []models.Quote{{MarketID: "pm", EventName: "Dup", YesPrice: 0.5, NoPrice: 0.5}}
	kalshi := []models.Quote{
		{MarketID: "first", EventName: "dup", YesPrice: 0.5, NoPrice: 0.5},
		{MarketID: "second", EventName: "DUP", YesPrice: 0.4, NoPrice: 0.4},
	}
	opps := Match(collectors.VenuePolymarket, pm, collectors.VenueKalshi, kalshi, 100)
	require.Len(t, opps, 1)
	assert.Contains(t, []string{opps[0].MarketIDA, opps[0].MarketIDB}, "second")
}

func TestMatchExpiresAtEarliestCloseTime(t *testing.T) {
	early := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)
	pm := []models.Quote{{MarketID: "pm", EventName: "E", YesPrice: 0.58, NoPrice: 0.44, CloseTime: late}}
	kalshi := []models.Quote{{MarketID: "k", EventName: "e", YesPrice: 0.47, NoPrice: 0.53, CloseTime: early}}

	opps := Match(collectors.VenuePolymarket, pm, collectors.VenueKalshi, kalshi, 100)
	require.Len(t, opps, 1)
	assert.Equal(t, early, opps[0].ExpiresAt)

	pm[0].CloseTime = time.Time{}
	opps = Match(collectors.VenuePolymarket, pm, collectors.VenueKalshi, kalshi, 100)
	require.Len(t, opps, 1)
	assert.Equal(t, early, opps[0].ExpiresAt)
}

func TestOpportunityIDStable(t *testing.T) {
	assert.Equal(t, OpportunityID("Fed's Rate Cut?", "Kalshi", "Polymarket"), OpportunityID("feds rate cut?", "Kalshi", "Polymarket"))
	assert.NotEqual(t, OpportunityID("x", "Kalshi", "Polymarket"), OpportunityID("x", "Polymarket", "Kalshi"))
}
